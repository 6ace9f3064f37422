package model

type SurveyItem struct {
	Number   int    `json:"number"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AnalysisResult is one element of the array returned by the analysis prompt.
// Strong and Weakness are either a sentence or a list of "name: description" strings.
type AnalysisResult struct {
	Strong   any `json:"strong"`
	Weakness any `json:"weakness"`
	Keyword  any `json:"keyword"`
}

type SurveyResponse struct {
	Message string           `json:"message"`
	Result  []AnalysisResult `json:"result"`
}

type DescriptionData struct {
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

type DescriptionResponse struct {
	Message string          `json:"message"`
	Data    DescriptionData `json:"data"`
}

type QuestView struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	State    string `json:"state"`
}

type QuestUpdate struct {
	ID    int    `json:"id"`
	State string `json:"state"`
}

type QuestUpdateResponse struct {
	Message string        `json:"message"`
	Updated []QuestUpdate `json:"updated"`
}

type HistoryItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	History    []HistoryItem `json:"history"`
	NewMessage string        `json:"new_message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type ConversationInitResponse struct {
	SystemPrompt string `json:"system_prompt"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

func QuestViews(quests []Quest) []QuestView {
	out := make([]QuestView, 0, len(quests))
	for _, q := range quests {
		out = append(out, QuestView{ID: q.ID, Question: q.MissionText, State: q.State})
	}
	return out
}
