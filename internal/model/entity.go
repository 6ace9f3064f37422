package model

import "time"

const (
	QuestStateNot     = "NOT"
	QuestStateSuccess = "SUCCESS"

	DefaultSession = "default"

	MissionTextMaxLen = 200
)

type Persona struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:64;index;not null" json:"-"`
	Strong    string    `gorm:"type:text;not null" json:"strong"`
	Weakness  string    `gorm:"type:text;not null" json:"weakness"`
	Keyword   string    `gorm:"type:text" json:"keyword"`
	CreatedAt time.Time `json:"created_at"`
}

type Content struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	SessionID   string    `gorm:"size:64;index;not null" json:"-"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Keyword     string    `gorm:"type:text" json:"keyword"`
	CreatedAt   time.Time `json:"created_at"`
}

type Quest struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	SessionID   string    `gorm:"size:64;index;not null" json:"-"`
	MissionText string    `gorm:"size:200;not null" json:"question"`
	State       string    `gorm:"size:20;not null;default:NOT" json:"state"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

func (Persona) TableName() string { return "personas" }
func (Content) TableName() string { return "contents" }
func (Quest) TableName() string   { return "quests" }

// AllTables lists every entity migrated at startup.
func AllTables() []any {
	return []any{&Persona{}, &Content{}, &Quest{}}
}

// ValidQuestState reports whether s is one of the two quest states.
func ValidQuestState(s string) bool {
	return s == QuestStateNot || s == QuestStateSuccess
}
