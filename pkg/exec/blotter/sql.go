package blotter

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/joripage/execution-core/pkg/exec/model"
)

// SQLBlotter persists the audit log through gorm.
type SQLBlotter struct {
	db *gorm.DB
}

func NewSQLBlotter(db *gorm.DB) *SQLBlotter {
	return &SQLBlotter{db: db}
}

func (b *SQLBlotter) dbWithContext(ctx context.Context) *gorm.DB {
	return b.db.WithContext(ctx)
}

func (b *SQLBlotter) Append(ctx context.Context, entry *model.BlotterEntry) (int64, error) {
	cp := *entry
	cp.ID = 0
	if err := b.dbWithContext(ctx).Create(&cp).Error; err != nil {
		return 0, err
	}
	return cp.ID, nil
}

func (b *SQLBlotter) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	res := b.dbWithContext(ctx).
		Model(&model.BlotterEntry{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errEntryNotFound
	}
	return nil
}

func (b *SQLBlotter) Entry(ctx context.Context, id int64) (*model.BlotterEntry, error) {
	var entry model.BlotterEntry
	err := b.dbWithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (b *SQLBlotter) Trail(ctx context.Context, orderID string) ([]*model.BlotterEntry, error) {
	var trail []*model.BlotterEntry
	err := b.dbWithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&trail).Error
	if err != nil {
		return nil, err
	}
	return trail, nil
}
