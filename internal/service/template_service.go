package service

import (
	"context"
	"errors"

	"go-repairshop/internal/apperr"
	"go-repairshop/internal/model"
	"go-repairshop/internal/notify"
	"go-repairshop/internal/repository"
	"go-repairshop/internal/tenancy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TemplateService interface {
	CreateTemplate(ctx context.Context, req *TemplateRequest) (*model.ServiceTemplate, error)
	ListTemplates(ctx context.Context, activeOnly bool) ([]model.ServiceTemplate, error)
	CreateTicketFromTemplate(ctx context.Context, req *FromTemplateRequest) (*model.Ticket, error)
}

type TemplatePartInput struct {
	PartID   uuid.UUID `json:"part_id" validate:"uuid_required"`
	Quantity int       `json:"quantity" validate:"gt=0"`
	Required bool      `json:"required"`
}

type TemplateRequest struct {
	Name         string               `json:"name" validate:"required,max=255"`
	Title        string               `json:"title" validate:"required,max=255"`
	Description  string               `json:"description"`
	Priority     model.TicketPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DefaultParts []TemplatePartInput  `json:"default_parts" validate:"dive"`
}

// FromTemplateRequest instantiates a template. Title, Description and
// Priority override the template's values when set.
type FromTemplateRequest struct {
	TemplateID  uuid.UUID            `json:"template_id" validate:"uuid_required"`
	CustomerID  uuid.UUID            `json:"customer_id" validate:"uuid_required"`
	Title       string               `json:"title" validate:"max=255"`
	Description string               `json:"description"`
	Priority    model.TicketPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DeviceInfo
}

type templateService struct {
	runner    *tenancy.Runner
	templates repository.TemplateRepository
	parts     repository.PartRepository
	tickets   repository.TicketRepository
	ledger    repository.StockLedger
	notifier  *notify.Dispatcher
	logger    *zap.Logger
}

func NewTemplateService(runner *tenancy.Runner, templates repository.TemplateRepository, parts repository.PartRepository, tickets repository.TicketRepository, ledger repository.StockLedger, notifier *notify.Dispatcher, logger *zap.Logger) TemplateService {
	return &templateService{
		runner:    runner,
		templates: templates,
		parts:     parts,
		tickets:   tickets,
		ledger:    ledger,
		notifier:  notifier,
		logger:    logger,
	}
}

func (s *templateService) CreateTemplate(ctx context.Context, req *TemplateRequest) (*model.ServiceTemplate, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var tmpl *model.ServiceTemplate
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		ids := make([]uuid.UUID, len(req.DefaultParts))
		for i, dp := range req.DefaultParts {
			ids[i] = dp.PartID
		}
		if _, err := s.parts.FindByIDs(tx, ids); err != nil {
			return err
		}

		priority := req.Priority
		if priority == "" {
			priority = model.PriorityMedium
		}
		tmpl = &model.ServiceTemplate{
			Name:        req.Name,
			Title:       req.Title,
			Description: req.Description,
			Priority:    priority,
			IsActive:    true,
		}
		tmpl.CreatedBy = tx.Actor()
		if err := s.templates.Create(tx, tmpl); err != nil {
			return err
		}

		for _, in := range mergeTemplateParts(req.DefaultParts) {
			dp := &model.TemplateDefaultPart{
				TemplateID: tmpl.ID,
				PartID:     in.PartID,
				Quantity:   in.Quantity,
				Required:   in.Required,
			}
			dp.CreatedBy = tx.Actor()
			if err := s.templates.CreateDefaultPart(tx, dp); err != nil {
				return err
			}
		}

		var err error
		tmpl, err = s.templates.FindByID(tx, tmpl.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tmpl, nil
}

// mergeTemplateParts folds duplicate part rows together. A part is required
// if any of its rows is.
func mergeTemplateParts(in []TemplatePartInput) []TemplatePartInput {
	index := map[uuid.UUID]int{}
	var out []TemplatePartInput
	for _, p := range in {
		if i, ok := index[p.PartID]; ok {
			out[i].Quantity += p.Quantity
			out[i].Required = out[i].Required || p.Required
			continue
		}
		index[p.PartID] = len(out)
		out = append(out, p)
	}
	return out
}

func (s *templateService) ListTemplates(ctx context.Context, activeOnly bool) ([]model.ServiceTemplate, error) {
	var templates []model.ServiceTemplate
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) (err error) {
		templates, err = s.templates.FindAll(tx, activeOnly)
		return err
	})
	return templates, err
}

// CreateTicketFromTemplate creates the ticket and consumes every required
// part in one transaction. When parts are short it keeps going to report
// every shortage, then rolls everything back.
func (s *templateService) CreateTicketFromTemplate(ctx context.Context, req *FromTemplateRequest) (*model.Ticket, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		ticket   *model.Ticket
		consumed []*model.Part
		session  tenancy.Session
	)
	err := s.runner.Run(ctx, func(tx *tenancy.Tx) error {
		session = tx.Session()
		consumed = nil

		tmpl, err := s.templates.FindByID(tx, req.TemplateID)
		if err != nil {
			return err
		}
		if !tmpl.IsActive {
			return apperr.StateConflict("template is inactive")
		}
		if err := tx.Verify(&model.Customer{}, req.CustomerID); err != nil {
			return err
		}

		ticket = s.ticketFromTemplate(tmpl, req)
		ticket.ID = uuid.New()
		ticket.CreatedBy = tx.Actor()

		var required, optional []TemplatePartInput
		for _, dp := range tmpl.DefaultParts {
			in := TemplatePartInput{PartID: dp.PartID, Quantity: dp.Quantity, Required: dp.Required}
			if dp.Required {
				required = append(required, in)
			} else {
				optional = append(optional, in)
			}
		}

		ref := repository.StockRef{Type: model.RefTemplate, ID: &ticket.ID, Note: tmpl.Name}
		shortage := &apperr.InsufficientStockError{}
		for _, in := range mergeTemplateParts(required) {
			part, err := s.ledger.Consume(tx, in.PartID, in.Quantity, ref)
			if err != nil {
				var short *apperr.InsufficientStockError
				if !errors.As(err, &short) {
					return err
				}
				shortage.Items = append(shortage.Items, short.Items...)
				continue
			}
			consumed = append(consumed, part)
		}
		if len(shortage.Items) > 0 {
			return shortage
		}

		if err := s.tickets.Create(tx, ticket); err != nil {
			return err
		}

		for _, part := range consumed {
			usage := &model.PartUsage{
				TicketID:  ticket.ID,
				PartID:    part.ID,
				Quantity:  requiredQuantity(required, part.ID),
				UnitPrice: part.Price,
				UnitCost:  part.Cost,
			}
			usage.CreatedBy = tx.Actor()
			if err := s.tickets.CreateUsage(tx, usage); err != nil {
				return err
			}
		}

		for _, in := range mergeTemplateParts(optional) {
			suggestion := &model.TicketPartSuggestion{
				TicketID: ticket.ID,
				PartID:   in.PartID,
				Quantity: in.Quantity,
			}
			suggestion.CreatedBy = tx.Actor()
			if err := s.tickets.CreateSuggestion(tx, suggestion); err != nil {
				return err
			}
		}

		ticket, err = s.tickets.FindByID(tx, ticket.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket created from template",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("template_id", req.TemplateID.String()),
		zap.Int("parts_consumed", len(consumed)),
	)
	events := []notify.Event{ticketCreatedEvent(session, ticket)}
	events = append(events, lowStockEvents(session.TenantID, session.Actor(), consumed...)...)
	s.notifier.Dispatch(events...)
	return ticket, nil
}

func (s *templateService) ticketFromTemplate(tmpl *model.ServiceTemplate, req *FromTemplateRequest) *model.Ticket {
	t := &model.Ticket{
		CustomerID:   req.CustomerID,
		TemplateID:   &tmpl.ID,
		Title:        tmpl.Title,
		Description:  tmpl.Description,
		Priority:     tmpl.Priority,
		Status:       model.TicketOpen,
		DeviceType:   req.DeviceType,
		DeviceBrand:  req.DeviceBrand,
		DeviceModel:  req.DeviceModel,
		SerialNumber: req.SerialNumber,
	}
	if req.Title != "" {
		t.Title = req.Title
	}
	if req.Description != "" {
		t.Description = req.Description
	}
	if req.Priority != "" {
		t.Priority = req.Priority
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	return t
}

func requiredQuantity(required []TemplatePartInput, partID uuid.UUID) int {
	total := 0
	for _, in := range required {
		if in.PartID == partID {
			total += in.Quantity
		}
	}
	return total
}
