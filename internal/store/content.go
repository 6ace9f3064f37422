package store

import (
	"context"
	"fmt"

	"persona-quest/internal/model"

	"gorm.io/gorm"
)

type ContentStore struct{ db *gorm.DB }

func NewContentStore(db *gorm.DB) *ContentStore { return &ContentStore{db: db} }

func (s *ContentStore) Create(ctx context.Context, tx *gorm.DB, c *model.Content) error {
	if err := conn(ctx, s.db, tx).Create(c).Error; err != nil {
		return fmt.Errorf("insert content: %w", err)
	}
	return nil
}

func (s *ContentStore) Latest(ctx context.Context, session string) (*model.Content, error) {
	var c model.Content
	err := s.db.WithContext(ctx).
		Where("session_id = ?", session).
		Order("id DESC").Take(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}
