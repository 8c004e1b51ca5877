package verification

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/DenysVerbitskyi/verba-store/pkg/db/models"
)

// Repository handles verification code persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Replace(ctx context.Context, code *models.VerificationCode) error
	FindByEmail(ctx context.Context, email string) (*models.VerificationCode, error)
	Consume(ctx context.Context, email string, code string, now time.Time) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a verification repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Replace drops any pending code for the email and stores the new one,
// keeping at most one active code per address.
func (r *repository) Replace(ctx context.Context, code *models.VerificationCode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("email = ?", code.Email).
			Delete(&models.VerificationCode{}).Error; err != nil {
			return err
		}
		return tx.Create(code).Error
	})
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.VerificationCode, error) {
	var record models.VerificationCode
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Consume deletes the matching unexpired code and reports whether this
// caller won the row. A single DELETE keeps concurrent verifies from both
// succeeding with the same code.
func (r *repository) Consume(ctx context.Context, email string, code string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("email = ? AND code = ? AND expires_at > ?", email, code, now).
		Delete(&models.VerificationCode{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.VerificationCode{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
