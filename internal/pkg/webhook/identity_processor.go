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
	EventVerificationApproved = "verification.approved"
	EventVerificationRejected = "verification.rejected"
)

type verificationData struct {
	VerificationID string `json:"verification_id"`
	Reason         string `json:"reason"`
}

// IdentityProcessor records identity verification outcomes and keeps the
// user's identity_verified flag in sync.
type IdentityProcessor struct {
	Now func() time.Time
}

func (p IdentityProcessor) Process(ctx context.Context, tx *gorm.DB, evt Event) error {
	var status string
	switch evt.Type {
	case EventVerificationApproved:
		status = models.IdentityStatusApproved
	case EventVerificationRejected:
		status = models.IdentityStatusRejected
	default:
		return nil
	}

	var data verificationData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		return err
	}
	ref := strings.TrimSpace(data.VerificationID)
	if ref == "" {
		return errors.New("verification_id is required")
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	iv := &models.IdentityVerification{
		UserID:      evt.UserID,
		Provider:    evt.Provider,
		ExternalRef: ref,
		Status:      status,
		Reason:      strings.TrimSpace(data.Reason),
	}
	if status == models.IdentityStatusApproved {
		ts := now().UTC()
		iv.VerifiedAt = &ts
	}

	db := tx.WithContext(ctx)
	var user models.User
	if err := db.Select("id").First(&user, evt.UserID).Error; err != nil {
		return err
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "external_ref"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "status", "reason", "verified_at", "updated_at"}),
	}).Create(iv).Error; err != nil {
		return err
	}

	return db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("identity_verified", status == models.IdentityStatusApproved).Error
}
