package handler

import (
	"net/http"

	"persona-quest/internal/middleware"
	"persona-quest/internal/model"
	"persona-quest/internal/service"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct{ pipeline *service.Pipeline }

func NewConversationHandler(p *service.Pipeline) *ConversationHandler {
	return &ConversationHandler{pipeline: p}
}

// Init handles POST /api/conversation/init.
func (h *ConversationHandler) Init(c *gin.Context) {
	prompt, err := h.pipeline.InitConversation(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		writeError(c, "conversation.init", err)
		return
	}
	c.JSON(http.StatusOK, model.ConversationInitResponse{SystemPrompt: prompt})
}

// Chat handles POST /api/conversation/chat. The caller sends the whole history each time.
func (h *ConversationHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reply, err := h.pipeline.Chat(c.Request.Context(), req.History, req.NewMessage)
	if err != nil {
		writeError(c, "conversation.chat", err)
		return
	}
	c.JSON(http.StatusOK, model.ChatResponse{Reply: reply})
}
