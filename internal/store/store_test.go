package store

import (
	"context"
	"testing"

	"persona-quest/internal/model"
	"persona-quest/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPersonaStore_LatestPerSession(t *testing.T) {
	ctx := context.Background()
	s := NewPersonaStore(storetest.Open(t))

	_, err := s.Latest(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Create(ctx, nil, &model.Persona{SessionID: "a", Strong: "first", Weakness: "w"}))
	require.NoError(t, s.Create(ctx, nil, &model.Persona{SessionID: "a", Strong: "second", Weakness: "w"}))
	require.NoError(t, s.Create(ctx, nil, &model.Persona{SessionID: "b", Strong: "other", Weakness: "w"}))

	p, err := s.Latest(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "second", p.Strong)

	p, err = s.Latest(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "other", p.Strong)
}

func TestContentStore_Latest(t *testing.T) {
	ctx := context.Background()
	s := NewContentStore(storetest.Open(t))

	_, err := s.Latest(ctx, model.DefaultSession)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Create(ctx, nil, &model.Content{SessionID: model.DefaultSession, Description: "d1", Keyword: "a"}))
	require.NoError(t, s.Create(ctx, nil, &model.Content{SessionID: model.DefaultSession, Description: "d2", Keyword: "a, b"}))

	c, err := s.Latest(ctx, model.DefaultSession)
	require.NoError(t, err)
	assert.Equal(t, "d2", c.Description)
	assert.Equal(t, "a, b", c.Keyword)
}

func TestQuestStore_BatchListCount(t *testing.T) {
	ctx := context.Background()
	s := NewQuestStore(storetest.Open(t))

	require.NoError(t, s.CreateBatch(ctx, nil, nil))
	require.NoError(t, s.CreateBatch(ctx, nil, []model.Quest{
		{SessionID: "a", MissionText: "물 마시기", State: model.QuestStateNot},
		{SessionID: "a", MissionText: "산책하기", State: model.QuestStateNot},
		{SessionID: "b", MissionText: "독서하기", State: model.QuestStateNot},
	}))

	quests, err := s.List(ctx, nil, "a")
	require.NoError(t, err)
	require.Len(t, quests, 2)
	assert.Equal(t, "물 마시기", quests[0].MissionText)
	assert.Less(t, quests[0].ID, quests[1].ID)

	n, err := s.CountByState(ctx, "a", model.QuestStateNot)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestQuestStore_UpdateState(t *testing.T) {
	ctx := context.Background()
	s := NewQuestStore(storetest.Open(t))

	require.NoError(t, s.CreateBatch(ctx, nil, []model.Quest{
		{SessionID: "a", MissionText: "q1", State: model.QuestStateNot},
	}))
	quests, err := s.List(ctx, nil, "a")
	require.NoError(t, err)
	id := quests[0].ID

	ok, err := s.UpdateState(ctx, nil, "a", id, model.QuestStateSuccess)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateState(ctx, nil, "b", id, model.QuestStateNot)
	require.NoError(t, err)
	assert.False(t, ok, "other sessions cannot touch the quest")

	ok, err = s.UpdateState(ctx, nil, "a", id+100, model.QuestStateNot)
	require.NoError(t, err)
	assert.False(t, ok)

	quests, err = s.List(ctx, nil, "a")
	require.NoError(t, err)
	assert.Equal(t, model.QuestStateSuccess, quests[0].State)
}

func TestQuestStore_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := NewQuestStore(storetest.Open(t))

	err := s.DB().Transaction(func(tx *gorm.DB) error {
		if err := s.CreateBatch(ctx, tx, []model.Quest{{SessionID: "a", MissionText: "q", State: model.QuestStateNot}}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	quests, err := s.List(ctx, nil, "a")
	require.NoError(t, err)
	assert.Empty(t, quests)
}
