package handler

import (
	"errors"
	"net/http"

	"persona-quest/internal/llm"
	"persona-quest/internal/logger"
	"persona-quest/internal/service"

	"github.com/gin-gonic/gin"
)

var errStatus = []struct {
	err    error
	status int
}{
	{service.ErrInvalidAnalysis, http.StatusBadRequest},
	{service.ErrQuestGeneration, http.StatusBadRequest},
	{service.ErrEmptyMessage, http.StatusBadRequest},
	{service.ErrNoPersona, http.StatusNotFound},
	{service.ErrNoKeywords, http.StatusNotFound},
	{llm.ErrTimeout, http.StatusGatewayTimeout},
	{llm.ErrUpstream, http.StatusBadGateway},
}

// writeError maps workflow errors to a status and a client-safe message.
func writeError(c *gin.Context, op string, err error) {
	for _, e := range errStatus {
		if errors.Is(err, e.err) {
			if e.status >= http.StatusInternalServerError {
				logger.Error(op+".failed", "err", err)
			} else {
				logger.Warn(op+".rejected", "err", err)
			}
			c.JSON(e.status, gin.H{"error": e.err.Error()})
			return
		}
	}
	logger.Error(op+".failed", "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
