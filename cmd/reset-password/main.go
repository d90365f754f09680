package main

import (
	"flag"
	"log"

	"go-repairshop/config"
	"go-repairshop/internal/repository"
	"go-repairshop/pkg/database"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "admin@example.com", "account to reset")
	password := flag.String("password", "admin123", "new password")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	cfg := config.LoadEnv()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.ConnectDB(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}

	users := repository.NewUserRepo(db)
	user, err := users.FindByEmail(*email)
	if err != nil {
		logger.Fatal("user not found", zap.String("email", *email), zap.Error(err))
	}
	if err := user.SetPassword(*password); err != nil {
		logger.Fatal("failed to hash password", zap.Error(err))
	}
	// UpdatePassword also rotates the token version, so existing sessions end.
	if err := users.UpdatePassword(user.ID, user.Password); err != nil {
		logger.Fatal("failed to update password", zap.Error(err))
	}

	logger.Info("password reset", zap.String("email", *email))
}
