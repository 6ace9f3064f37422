package store

import (
	"context"
	"fmt"

	"persona-quest/internal/model"

	"gorm.io/gorm"
)

type QuestStore struct{ db *gorm.DB }

func NewQuestStore(db *gorm.DB) *QuestStore { return &QuestStore{db: db} }

// DB exposes the handle so workflows can open a transaction spanning several stores.
func (s *QuestStore) DB() *gorm.DB { return s.db }

// List returns every quest of session in insertion order.
func (s *QuestStore) List(ctx context.Context, tx *gorm.DB, session string) ([]model.Quest, error) {
	var quests []model.Quest
	err := conn(ctx, s.db, tx).
		Where("session_id = ?", session).
		Order("id").Find(&quests).Error
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	return quests, nil
}

func (s *QuestStore) CreateBatch(ctx context.Context, tx *gorm.DB, quests []model.Quest) error {
	if len(quests) == 0 {
		return nil
	}
	if err := conn(ctx, s.db, tx).Create(&quests).Error; err != nil {
		return fmt.Errorf("insert quests: %w", err)
	}
	return nil
}

func (s *QuestStore) CountByState(ctx context.Context, session, state string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Quest{}).
		Where("session_id = ? AND state = ?", session, state).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count quests: %w", err)
	}
	return n, nil
}

// UpdateState sets the state of quest id in session. It reports false when no such quest exists.
func (s *QuestStore) UpdateState(ctx context.Context, tx *gorm.DB, session string, id int, state string) (bool, error) {
	res := conn(ctx, s.db, tx).Model(&model.Quest{}).
		Where("id = ? AND session_id = ?", id, session).
		Update("state", state)
	if res.Error != nil {
		return false, fmt.Errorf("update quest %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
