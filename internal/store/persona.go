package store

import (
	"context"
	"fmt"

	"persona-quest/internal/model"

	"gorm.io/gorm"
)

type PersonaStore struct{ db *gorm.DB }

func NewPersonaStore(db *gorm.DB) *PersonaStore { return &PersonaStore{db: db} }

func (s *PersonaStore) Create(ctx context.Context, tx *gorm.DB, p *model.Persona) error {
	if err := conn(ctx, s.db, tx).Create(p).Error; err != nil {
		return fmt.Errorf("insert persona: %w", err)
	}
	return nil
}

// Latest returns the persona with the highest id in session.
func (s *PersonaStore) Latest(ctx context.Context, session string) (*model.Persona, error) {
	var p model.Persona
	err := s.db.WithContext(ctx).
		Where("session_id = ?", session).
		Order("id DESC").Take(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}
