package repository

import (
	"context"

	"gorm.io/gorm"
)

// OrderUpdate moves one row to a new sort position.
type OrderUpdate struct {
	ID    uint `json:"id" validate:"required"`
	Order int  `json:"order"`
}

// reorder writes every item's sort_order using the caller's transaction.
func reorder(ctx context.Context, tx *gorm.DB, value interface{}, items []OrderUpdate, scopes ...func(*gorm.DB) *gorm.DB) error {
	for _, item := range items {
		if err := tx.WithContext(ctx).Model(value).Scopes(scopes...).Where("id = ?", item.ID).Update("sort_order", item.Order).Error; err != nil {
			return err
		}
	}
	return nil
}
