package orders

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository persists receipts.
type Repository interface {
	Create(ctx context.Context, receipt *Receipt) (*Receipt, error)
	FindBySessionAndID(ctx context.Context, sessionID string, id int64) (*Receipt, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]Receipt, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a receipts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, receipt *Receipt) (*Receipt, error) {
	if err := r.db.WithContext(ctx).Create(receipt).Error; err != nil {
		return nil, err
	}
	return receipt, nil
}

// FindBySessionAndID returns gorm.ErrRecordNotFound when the session never placed the order.
func (r *repository) FindBySessionAndID(ctx context.Context, sessionID string, id int64) (*Receipt, error) {
	var receipt Receipt
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND id = ?", sessionID, id).
		First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *repository) ListBySession(ctx context.Context, sessionID string, limit int) ([]Receipt, error) {
	var receipts []Receipt
	q := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
