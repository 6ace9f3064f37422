package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"persona-quest/internal/logger"
	"persona-quest/internal/middleware"
	"persona-quest/internal/model"
	"persona-quest/internal/service"

	"github.com/gin-gonic/gin"
)

type QuestHandler struct{ pipeline *service.Pipeline }

func NewQuestHandler(p *service.Pipeline) *QuestHandler { return &QuestHandler{pipeline: p} }

// List handles GET /api/questions. It generates quests according to the configured policy.
func (h *QuestHandler) List(c *gin.Context) {
	quests, err := h.pipeline.GenerateQuests(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		writeError(c, "quest.generate", err)
		return
	}
	c.JSON(http.StatusOK, model.QuestViews(quests))
}

// UpdateStates handles PATCH /api/questions with a {"<id>": "<state>"} object.
// Entries that do not apply are skipped, never rejected.
func (h *QuestHandler) UpdateStates(c *gin.Context) {
	updates, err := decodeStates(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	updated, err := h.pipeline.UpdateStates(c.Request.Context(), middleware.SessionID(c), updates)
	if err != nil {
		writeError(c, "quest.update", err)
		return
	}
	c.JSON(http.StatusOK, model.QuestUpdateResponse{Message: "퀘스트 상태 업데이트 완료", Updated: updated})
}

// decodeStates reads the PATCH object in document order. Numeric keys are
// normalised so "1" and "01" name the same quest and the later one wins.
// Non-string values are skipped.
func decodeStates(r io.Reader) (map[string]string, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("body is not a JSON object")
	}

	updates := make(map[string]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		if id, err := strconv.Atoi(strings.TrimSpace(key)); err == nil {
			key = strconv.Itoa(id)
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		state, ok := v.(string)
		if !ok {
			logger.Debug("quest.update.skip", "key", key, "reason", "non-string state")
			delete(updates, key)
			continue
		}
		updates[key] = state
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return updates, nil
}
