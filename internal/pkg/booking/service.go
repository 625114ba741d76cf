package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marketfox/app/models"
	"github.com/ManuelReschke/Marketfox/internal/pkg/notify"
)

var (
	ErrNotFound  = errors.New("booking not found")
	ErrForbidden = errors.New("action not allowed for this user")
	ErrConflict  = errors.New("action not allowed in the current booking state")
	ErrInvalid   = errors.New("invalid booking request")
)

// Notifier receives notifications after a transition committed.
type Notifier interface {
	Dispatch(ctx context.Context, n notify.Notification)
}

// CreateInput is a client's booking request.
type CreateInput struct {
	ProviderID   uint   `json:"provider_id" validate:"required"`
	ServiceID    uint   `json:"service_id" validate:"required"`
	ScheduledDay string `json:"scheduled_day" validate:"required,datetime=2006-01-02"`
	PriceCents   int64  `json:"price_cents" validate:"gte=0"`
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"max=5000"`
}

// Service runs the booking state machine.
type Service struct {
	db       *gorm.DB
	notifier Notifier
	validate *validator.Validate
}

func NewService(db *gorm.DB, notifier Notifier) *Service {
	return &Service{db: db, notifier: notifier, validate: validator.New()}
}

// Create opens a PENDING booking for clientID and notifies the provider.
func (s *Service) Create(ctx context.Context, clientID uint, in CreateInput) (*models.Booking, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if clientID == 0 || clientID == in.ProviderID {
		return nil, fmt.Errorf("%w: client and provider must differ", ErrInvalid)
	}

	b := &models.Booking{
		ClientID:     clientID,
		ProviderID:   in.ProviderID,
		ServiceID:    in.ServiceID,
		Status:       models.BookingStatusPending,
		ScheduledDay: in.ScheduledDay,
		PriceCents:   in.PriceCents,
		Title:        in.Title,
		Description:  in.Description,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var provider models.User
		if err := tx.Select("id").First(&provider, in.ProviderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown provider", ErrInvalid)
			}
			return err
		}
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		return tx.Create(&models.BookingMessage{
			BookingID:   b.ID,
			SenderID:    clientID,
			RecipientID: b.ProviderID,
			Kind:        models.BookingMessageKindSystem,
			Event:       notify.EventBookingRequested,
			Body:        fmt.Sprintf("Booking requested for %s.", b.ScheduledDay),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notify.EventBookingRequested, b, clientID, b.ProviderID)
	return b, nil
}

// Get returns a booking visible to userID.
func (s *Service) Get(ctx context.Context, id, userID uint) (*models.Booking, error) {
	b, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if b.ClientID != userID && b.ProviderID != userID {
		return nil, ErrForbidden
	}
	return b, nil
}

// Messages lists the booking thread for a participant.
func (s *Service) Messages(ctx context.Context, id, userID uint) ([]models.BookingMessage, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}
	var msgs []models.BookingMessage
	err := s.db.WithContext(ctx).Where("booking_id = ?", id).Order("id ASC").Find(&msgs).Error
	return msgs, err
}

func (s *Service) Confirm(ctx context.Context, id, actorID uint) (*models.Booking, error) {
	return s.apply(ctx, id, actorID, ActionConfirm, "")
}

// ProposeDay suggests a new day. day must be YYYY-MM-DD.
func (s *Service) ProposeDay(ctx context.Context, id, actorID uint, day string) (*models.Booking, error) {
	if err := s.validate.Var(day, "required,datetime=2006-01-02"); err != nil {
		return nil, fmt.Errorf("%w: proposed day must be YYYY-MM-DD", ErrInvalid)
	}
	return s.apply(ctx, id, actorID, ActionPropose, day)
}

func (s *Service) AcceptReschedule(ctx context.Context, id, actorID uint) (*models.Booking, error) {
	return s.apply(ctx, id, actorID, ActionAccept, "")
}

func (s *Service) Reject(ctx context.Context, id, actorID uint) (*models.Booking, error) {
	return s.apply(ctx, id, actorID, ActionReject, "")
}

func (s *Service) Cancel(ctx context.Context, id, actorID uint) (*models.Booking, error) {
	return s.apply(ctx, id, actorID, ActionCancel, "")
}

// Apply runs action by name; used by the HTTP layer.
func (s *Service) Apply(ctx context.Context, action Action, id, actorID uint, day string) (*models.Booking, error) {
	switch action {
	case ActionPropose:
		return s.ProposeDay(ctx, id, actorID, day)
	case ActionConfirm, ActionAccept, ActionReject, ActionCancel:
		return s.apply(ctx, id, actorID, action, "")
	}
	return nil, fmt.Errorf("%w: unknown action %q", ErrInvalid, action)
}

func (s *Service) apply(ctx context.Context, id, actorID uint, action Action, day string) (*models.Booking, error) {
	t := transitions[action]

	var updated *models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.load(tx, id)
		if err != nil {
			return err
		}
		if !t.isActor(b, actorID) {
			return ErrForbidden
		}
		if !t.allows(b.Status) {
			return ErrConflict
		}

		updates := map[string]interface{}{"status": t.to}
		noteDay := b.ScheduledDay
		switch action {
		case ActionPropose:
			updates["proposed_day"] = day
			noteDay = day
		case ActionAccept:
			if b.ProposedDay == nil {
				return ErrConflict
			}
			updates["scheduled_day"] = *b.ProposedDay
			updates["proposed_day"] = nil
			noteDay = *b.ProposedDay
		}

		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status IN ?", id, t.from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost a race with another transition
			return ErrConflict
		}

		if err := tx.Create(&models.BookingMessage{
			BookingID:   b.ID,
			SenderID:    actorID,
			RecipientID: t.recipient(b),
			Kind:        models.BookingMessageKindSystem,
			Event:       t.event,
			Body:        fmt.Sprintf(t.note, noteDay),
		}).Error; err != nil {
			return err
		}

		updated, err = s.load(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, t.event, updated, actorID, t.recipient(updated))
	return updated, nil
}

func (s *Service) load(db *gorm.DB, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := db.First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// notify runs after commit; failures stay inside the dispatcher.
func (s *Service) notify(ctx context.Context, event string, b *models.Booking, actorID, recipientID uint) {
	if s.notifier == nil {
		return
	}
	vars := map[string]string{
		"title": b.Title,
		"day":   b.ScheduledDay,
	}
	if b.ProposedDay != nil {
		vars["proposed_day"] = *b.ProposedDay
	}
	var actor models.User
	if err := s.db.WithContext(ctx).Select("id", "name").First(&actor, actorID).Error; err == nil {
		vars["counterpart"] = actor.Name
	} else {
		log.Warnf("[Booking] Could not load actor %d for notification: %v", actorID, err)
	}

	id := b.ID
	s.notifier.Dispatch(ctx, notify.Notification{
		Event:     event,
		UserID:    recipientID,
		Context:   vars,
		BookingID: &id,
	})
}
