package service

import (
	"context"

	"go-repairshop/internal/model"
	"go-repairshop/internal/notify"
	"go-repairshop/internal/repository"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TicketService interface {
	CreateCustomer(ctx context.Context, req *CustomerRequest) (*model.Customer, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	CreateTicket(ctx context.Context, req *TicketRequest) (*model.Ticket, error)
	GetTicket(ctx context.Context, id uuid.UUID) (*model.Ticket, error)
}

type CustomerRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"max=30"`
}

// DeviceInfo describes the device brought in for repair.
type DeviceInfo struct {
	DeviceType   string `json:"device_type" validate:"max=100"`
	DeviceBrand  string `json:"device_brand" validate:"max=100"`
	DeviceModel  string `json:"device_model" validate:"max=100"`
	SerialNumber string `json:"serial_number" validate:"max=100"`
}

type TicketRequest struct {
	CustomerID  uuid.UUID            `json:"customer_id" validate:"uuid_required"`
	Title       string               `json:"title" validate:"required,max=255"`
	Description string               `json:"description"`
	Priority    model.TicketPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DeviceInfo
}

type ticketCreatedPayload struct {
	TicketID   uuid.UUID  `json:"ticket_id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	TemplateID *uuid.UUID `json:"template_id,omitempty"`
	Title      string     `json:"title"`
	Priority   string     `json:"priority"`
}

func ticketCreatedEvent(session tenancy.Session, t *model.Ticket) notify.Event {
	return notify.NewEvent(notify.TicketCreated, session.TenantID, session.Actor(), ticketCreatedPayload{
		TicketID:   t.ID,
		CustomerID: t.CustomerID,
		TemplateID: t.TemplateID,
		Title:      t.Title,
		Priority:   string(t.Priority),
	})
}

type ticketService struct {
	runner    *tenancy.Runner
	customers repository.CustomerRepository
	tickets   repository.TicketRepository
	notifier  *notify.Dispatcher
	logger    *zap.Logger
}

func NewTicketService(runner *tenancy.Runner, customers repository.CustomerRepository, tickets repository.TicketRepository, notifier *notify.Dispatcher, logger *zap.Logger) TicketService {
	return &ticketService{
		runner:    runner,
		customers: customers,
		tickets:   tickets,
		notifier:  notifier,
		logger:    logger,
	}
}

func (s *ticketService) CreateCustomer(ctx context.Context, req *CustomerRequest) (*model.Customer, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	customer := &model.Customer{Name: req.Name, Email: req.Email, Phone: req.Phone}
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		customer.CreatedBy = tx.Actor()
		return s.customers.Create(tx, customer)
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *ticketService) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	var customers []model.Customer
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		customers, err = s.customers.FindAll(tx)
		return err
	})
	return customers, err
}

func (s *ticketService) CreateTicket(ctx context.Context, req *TicketRequest) (*model.Ticket, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		ticket  *model.Ticket
		session tenancy.Session
	)
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		session = tx.Session()
		if err := tx.Verify(&model.Customer{}, req.CustomerID); err != nil {
			return err
		}

		priority := req.Priority
		if priority == "" {
			priority = model.PriorityMedium
		}
		ticket = &model.Ticket{
			CustomerID:   req.CustomerID,
			Title:        req.Title,
			Description:  req.Description,
			Priority:     priority,
			Status:       model.TicketOpen,
			DeviceType:   req.DeviceType,
			DeviceBrand:  req.DeviceBrand,
			DeviceModel:  req.DeviceModel,
			SerialNumber: req.SerialNumber,
		}
		ticket.CreatedBy = tx.Actor()
		return s.tickets.Create(tx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ticketCreatedEvent(session, ticket))
	return ticket, nil
}

func (s *ticketService) GetTicket(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	var ticket *model.Ticket
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		ticket, err = s.tickets.FindByID(tx, id)
		return err
	})
	return ticket, err
}
