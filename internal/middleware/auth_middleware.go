package middleware

import (
	"errors"
	"strings"

	"go-repairshop/internal/model"
	"go-repairshop/internal/service"
	"go-repairshop/internal/tenancy"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth validates the bearer token and attaches the session to the
// request context, where every service call picks it up.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		session, err := auth.Authenticate(parts[1])
		switch {
		case errors.Is(err, service.ErrSessionReplaced):
			return c.Status(401).JSON(fiber.Map{"error": "Session expired (logged in on another device)"})
		case errors.Is(err, service.ErrUserInactive):
			return c.Status(401).JSON(fiber.Map{"error": "User account is inactive"})
		case err != nil:
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.SetUserContext(tenancy.WithSession(c.UserContext(), session))
		c.Locals("user_id", session.UserID.String())
		c.Locals("tenant_id", session.TenantID.String())
		c.Locals("user_role", string(session.Role))
		c.Locals("user_name", session.Name)

		return c.Next()
	}
}

// RequireRole lets the request through when the session has one of roles.
// Owners pass every check.
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := tenancy.FromContext(c.UserContext())
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
		}
		if session.Role == model.RoleOwner {
			return c.Next()
		}
		for _, r := range roles {
			if session.Role == r {
				return c.Next()
			}
		}

		names := make([]string, len(roles))
		for i, r := range roles {
			names[i] = string(r)
		}
		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(names, ", ") + " roles",
		})
	}
}
