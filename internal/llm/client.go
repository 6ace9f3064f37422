package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// chatInstruction is prepended to every chat history.
const chatInstruction = `지금부터 너는 사용자의 이야기를 들어주는 따뜻한 대화 상대야.
- 마크다운, 목록, 굵은 글씨, 이모지 없이 평범한 문장으로만 답해.
- 공감하는 말투로 짧고 자연스럽게 이야기해.
- 사용자의 감정을 먼저 알아주고, 필요하면 부드럽게 질문을 이어가.`

const chatAcknowledgement = "알겠어요. 편하게 이야기해 주세요."

// Turn is one message of a caller-held conversation.
type Turn struct {
	Role    string
	Content string
}

// Completer is the contract of the external text-completion service.
type Completer interface {
	// Complete sends a single prompt and returns the raw model text.
	Complete(ctx context.Context, prompt string) (string, error)
	// Chat replays history, sends message as the final turn and returns the trimmed reply.
	Chat(ctx context.Context, history []Turn, message string) (string, error)
}

type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// New builds the Completer selected by cfg.Provider.
func New(ctx context.Context, cfg Config) (Completer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		return NewGeminiClient(ctx, cfg)
	case "openai":
		return NewOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// classify maps a transport error to ErrTimeout or ErrUpstream.
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

func isUserRole(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), RoleUser)
}
