package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient talks to the Gemini API through the genai SDK.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiClient{client: client, model: model, timeout: cfg.Timeout}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", classify(ctx, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrUpstream)
	}
	return text, nil
}

func (g *GeminiClient) Chat(ctx context.Context, history []Turn, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	chat, err := g.client.Chats.Create(ctx, g.model, nil, geminiHistory(history))
	if err != nil {
		return "", classify(ctx, err)
	}
	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", classify(ctx, err)
	}
	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", ErrUpstream)
	}
	return reply, nil
}

// geminiHistory seeds the session with the instruction turn, then the caller's turns.
// Any role other than "user" becomes "model".
func geminiHistory(history []Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(history)+2)
	out = append(out,
		genai.NewContentFromText(chatInstruction, genai.RoleUser),
		genai.NewContentFromText(chatAcknowledgement, genai.RoleModel),
	)
	for _, t := range history {
		role := genai.Role(genai.RoleModel)
		if isUserRole(t.Role) {
			role = genai.Role(genai.RoleUser)
		}
		out = append(out, genai.NewContentFromText(t.Content, role))
	}
	return out
}
