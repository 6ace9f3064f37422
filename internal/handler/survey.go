package handler

import (
	"net/http"

	"persona-quest/internal/middleware"
	"persona-quest/internal/model"
	"persona-quest/internal/service"

	"github.com/gin-gonic/gin"
)

type SurveyHandler struct{ pipeline *service.Pipeline }

func NewSurveyHandler(p *service.Pipeline) *SurveyHandler { return &SurveyHandler{pipeline: p} }

// Submit handles POST /api/survey.
func (h *SurveyHandler) Submit(c *gin.Context) {
	var items []model.SurveyItem
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	results, err := h.pipeline.Analyze(c.Request.Context(), middleware.SessionID(c), items)
	if err != nil {
		writeError(c, "survey.analyze", err)
		return
	}
	c.JSON(http.StatusOK, model.SurveyResponse{Message: "분석 완료 및 저장 성공", Result: results})
}

// Keywords handles POST /api/survey/key with the keyword subset the user picked.
func (h *SurveyHandler) Keywords(c *gin.Context) {
	var keywords []string
	if err := c.ShouldBindJSON(&keywords); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	data, err := h.pipeline.Describe(c.Request.Context(), middleware.SessionID(c), keywords)
	if err != nil {
		writeError(c, "survey.describe", err)
		return
	}
	c.JSON(http.StatusOK, model.DescriptionResponse{Message: "최종 페르소나 저장 완료", Data: *data})
}
