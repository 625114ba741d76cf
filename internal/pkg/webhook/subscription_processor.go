package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/Marketfox/app/models"
)

const (
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionRenewed   = "subscription.renewed"
	EventSubscriptionPastDue   = "subscription.past_due"
	EventSubscriptionCanceled  = "subscription.canceled"
)

type subscriptionData struct {
	SubscriptionID   string `json:"subscription_id"`
	Plan             string `json:"plan"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

// SubscriptionProcessor syncs billing provider subscription events into the
// subscriptions table.
type SubscriptionProcessor struct{}

func (SubscriptionProcessor) Process(ctx context.Context, tx *gorm.DB, evt Event) error {
	var status string
	activation := false
	switch evt.Type {
	case EventSubscriptionActivated, EventSubscriptionRenewed:
		status = models.SubscriptionStatusActive
		activation = evt.Type == EventSubscriptionActivated
	case EventSubscriptionPastDue:
		status = models.SubscriptionStatusPastDue
	case EventSubscriptionCanceled:
		status = models.SubscriptionStatusCanceled
	default:
		return nil
	}

	var data subscriptionData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		return err
	}
	subID := strings.TrimSpace(data.SubscriptionID)
	if subID == "" {
		return errors.New("subscription_id is required")
	}
	plan := strings.ToLower(strings.TrimSpace(data.Plan))
	if plan == "" {
		plan = "free"
	}

	sub := &models.Subscription{
		UserID:                 evt.UserID,
		Provider:               evt.Provider,
		ProviderSubscriptionID: subID,
		Plan:                   plan,
		Status:                 status,
		RawPayloadJSON:         string(evt.Raw),
	}
	if data.CurrentPeriodEnd > 0 {
		end := time.Unix(data.CurrentPeriodEnd, 0).UTC()
		sub.CurrentPeriodEnd = &end
	}
	if activation {
		sub.ActivationCount = 1
	}

	updates := clause.AssignmentColumns([]string{
		"user_id",
		"plan",
		"status",
		"current_period_end",
		"raw_payload_json",
		"updated_at",
	})
	assignments := clause.Set(updates)
	if activation {
		assignments = append(assignments, clause.Assignment{
			Column: clause.Column{Name: "activation_count"},
			Value:  gorm.Expr("activation_count + 1"),
		})
	}

	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_subscription_id"},
		},
		DoUpdates: assignments,
	}).Create(sub).Error
}
