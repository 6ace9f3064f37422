package handler

import (
	"persona-quest/internal/middleware"
	"persona-quest/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RouterConfig struct {
	Pipeline     *service.Pipeline
	Tokens       *middleware.SessionTokens
	DB           *gorm.DB
	AllowOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	surveyH := NewSurveyHandler(cfg.Pipeline)
	questH := NewQuestHandler(cfg.Pipeline)
	convH := NewConversationHandler(cfg.Pipeline)
	sessionH := NewSessionHandler(cfg.Tokens, cfg.DB)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.CORS(cfg.AllowOrigins), middleware.RequestLogger())

	r.GET("/healthz", sessionH.Health)
	r.POST("/api/session", sessionH.Create)

	api := r.Group("/api", cfg.Tokens.Session())
	api.POST("/survey", surveyH.Submit)
	api.POST("/survey/key", surveyH.Keywords)
	api.GET("/questions", questH.List)
	api.PATCH("/questions", questH.UpdateStates)
	api.POST("/conversation/init", convH.Init)
	api.POST("/conversation/chat", convH.Chat)

	return r
}
