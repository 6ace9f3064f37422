package handler

import (
	"net/http"

	"persona-quest/internal/logger"
	"persona-quest/internal/middleware"
	"persona-quest/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionHandler struct {
	tokens *middleware.SessionTokens
	db     *gorm.DB
}

func NewSessionHandler(tokens *middleware.SessionTokens, db *gorm.DB) *SessionHandler {
	return &SessionHandler{tokens: tokens, db: db}
}

// Create handles POST /api/session. It mints a fresh session id and its token.
func (h *SessionHandler) Create(c *gin.Context) {
	sid := uuid.NewString()
	token, exp, err := h.tokens.Issue(sid)
	if err != nil {
		logger.Error("session.create.failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	logger.Info("session.create.ok", "session_id", sid)
	c.JSON(http.StatusOK, model.SessionResponse{SessionID: sid, Token: token, ExpiresAt: exp.Unix()})
}

// Health handles GET /healthz.
func (h *SessionHandler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		logger.Error("health.db_unreachable", "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
