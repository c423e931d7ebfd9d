package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BeArt-PDD/beart-labs/internal/models"
	"github.com/BeArt-PDD/beart-labs/internal/nonce"
)

// NonceRepository is the database-backed nonce.Store shared by every
// instance behind the same database.
type NonceRepository interface {
	nonce.Store

	// CountActive returns the number of nonces that are issued and unexpired.
	CountActive(ctx context.Context) (int64, error)
}

// nonceRepository implements NonceRepository
type nonceRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewNonceRepository creates a new NonceRepository instance
func NewNonceRepository(db *gorm.DB) NonceRepository {
	return NewNonceRepositoryWithClock(db, time.Now)
}

func NewNonceRepositoryWithClock(db *gorm.DB, now func() time.Time) NonceRepository {
	return &nonceRepository{db: db, now: now}
}

// Issue records a nonce. A stale row left behind by an expired nonce of the
// same value is replaced; a live one yields nonce.ErrDuplicate.
func (r *nonceRepository) Issue(ctx context.Context, value string, ttl time.Duration) error {
	if err := nonce.ValidateIssue(value, ttl); err != nil {
		return err
	}

	now := r.now().UTC()
	row := &models.SiweNonce{
		Nonce:     value,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("nonce = ? AND expires_at <= ?", value, now).
			Delete(&models.SiweNonce{}).Error; err != nil {
			return err
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nonce.ErrDuplicate
		}
		return nil
	})
}

// ConsumeIfValid deletes the nonce only while it is unexpired. The single
// conditional DELETE is what makes concurrent consumers race safely.
func (r *nonceRepository) ConsumeIfValid(ctx context.Context, value string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("nonce = ? AND expires_at > ?", value, r.now().UTC()).
		Delete(&models.SiweNonce{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SweepExpired removes every nonce whose expiry has passed.
func (r *nonceRepository) SweepExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", r.now().UTC()).
		Delete(&models.SiweNonce{})
	return result.RowsAffected, result.Error
}

func (r *nonceRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SiweNonce{}).
		Where("expires_at > ?", r.now().UTC()).
		Count(&count).Error
	return count, err
}
