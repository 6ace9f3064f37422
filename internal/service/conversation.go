package service

import (
	"context"
	"fmt"
	"strings"

	"persona-quest/internal/llm"
	"persona-quest/internal/logger"
	"persona-quest/internal/model"
)

// InitConversation returns a system prompt built from the latest persona. Nothing is stored.
func (p *Pipeline) InitConversation(ctx context.Context, session string) (string, error) {
	persona, err := p.latestPersona(ctx, session)
	if err != nil {
		return "", err
	}
	logger.Info("conversation.init", "session_id", session, "persona_id", persona.ID)
	return BuildConversationPrompt(*persona), nil
}

// Chat forwards the caller-held history plus message. The server keeps no chat state.
func (p *Pipeline) Chat(ctx context.Context, history []model.HistoryItem, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	turns := make([]llm.Turn, 0, len(history))
	for _, h := range history {
		turns = append(turns, llm.Turn{Role: h.Role, Content: h.Content})
	}

	reply, err := p.llm.Chat(ctx, turns, message)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	logger.Debug("conversation.chat.ok", "turns", len(turns), "reply", logger.Truncate(reply, 80))
	return reply, nil
}
