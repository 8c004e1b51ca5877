package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationCode holds the single pending one-time code for an email.
// Requesting a new code replaces the old row; verifying consumes it.
type VerificationCode struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Code      string    `gorm:"column:code;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
}

func (v *VerificationCode) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the code is past its window at the given
// instant. The boundary instant counts as expired, matching the
// expires_at comparisons in the consume and purge queries.
func (v VerificationCode) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
