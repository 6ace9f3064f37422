package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"persona-quest/internal/llm"
	"persona-quest/internal/logger"
	"persona-quest/internal/model"
	"persona-quest/internal/store"

	"gorm.io/gorm"
)

// QuestPolicy decides what GenerateQuests does when quests already exist.
type QuestPolicy string

const (
	// PolicyDedupAppend always regenerates and appends only unseen missions.
	PolicyDedupAppend QuestPolicy = "dedup_append"
	// PolicyStrictGate returns the stored set while any quest is still NOT.
	PolicyStrictGate QuestPolicy = "strict_gate"
)

func ParsePolicy(s string) (QuestPolicy, error) {
	switch QuestPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyDedupAppend:
		return PolicyDedupAppend, nil
	case PolicyStrictGate:
		return PolicyStrictGate, nil
	default:
		return "", fmt.Errorf("unknown quest policy %q", s)
	}
}

// Mirror receives rows after they are committed. Implementations swallow their own errors.
type Mirror interface {
	SyncPersona(ctx context.Context, p model.Persona)
	SyncQuests(ctx context.Context, quests []model.Quest)
	SyncQuestStates(ctx context.Context, session string, updates []model.QuestUpdate)
}

type Pipeline struct {
	llm      llm.Completer
	personas *store.PersonaStore
	contents *store.ContentStore
	quests   *store.QuestStore
	policy   QuestPolicy
	count    int
	mirror   Mirror
}

func NewPipeline(c llm.Completer, personas *store.PersonaStore, contents *store.ContentStore, quests *store.QuestStore, policy QuestPolicy, count int) *Pipeline {
	if count <= 0 {
		count = 10
	}
	return &Pipeline{llm: c, personas: personas, contents: contents, quests: quests, policy: policy, count: count}
}

func (p *Pipeline) SetMirror(m Mirror) { p.mirror = m }

// Analyze turns survey answers into a persona and stores it.
func (p *Pipeline) Analyze(ctx context.Context, session string, items []model.SurveyItem) ([]model.AnalysisResult, error) {
	logger.Info("survey.analyze.start", "session_id", session, "items", len(items))

	raw, err := p.llm.Complete(ctx, BuildAnalysisPrompt(items))
	if err != nil {
		return nil, fmt.Errorf("analyze survey: %w", err)
	}

	results, err := llm.DecodeInto[[]model.AnalysisResult](raw, false)
	if err != nil {
		logger.Warn("survey.analyze.parse_failed", "session_id", session, "raw", logger.Truncate(raw, 300))
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnalysis, err)
	}
	if len(results) != 1 || results[0].Strong == nil {
		logger.Warn("survey.analyze.invalid", "session_id", session, "results", len(results))
		return nil, ErrInvalidAnalysis
	}

	r := results[0]
	persona := model.Persona{
		SessionID: session,
		Strong:    joinField(r.Strong, "\n"),
		Weakness:  joinField(r.Weakness, "\n"),
		Keyword:   joinField(r.Keyword, ", "),
	}
	if err := p.personas.Create(ctx, nil, &persona); err != nil {
		return nil, err
	}
	logger.Info("survey.analyze.ok", "session_id", session, "persona_id", persona.ID)

	if p.mirror != nil {
		p.mirror.SyncPersona(ctx, persona)
	}
	return results, nil
}

// Describe writes a narrative for the latest persona using the caller's keyword subset.
func (p *Pipeline) Describe(ctx context.Context, session string, keywords []string) (*model.DescriptionData, error) {
	persona, err := p.latestPersona(ctx, session)
	if err != nil {
		return nil, err
	}

	text, err := p.llm.Complete(ctx, BuildDescriptionPrompt(persona.Strong, keywords))
	if err != nil {
		return nil, fmt.Errorf("describe persona: %w", err)
	}
	text = strings.TrimSpace(text)

	content := model.Content{
		SessionID:   session,
		Description: text,
		Keyword:     strings.Join(keywords, ", "),
	}
	if err := p.contents.Create(ctx, nil, &content); err != nil {
		return nil, err
	}
	logger.Info("survey.describe.ok", "session_id", session, "content_id", content.ID, "keywords", content.Keyword)

	return &model.DescriptionData{Description: content.Description, Keywords: content.Keyword}, nil
}

// GenerateQuests derives missions from the latest content's keywords and returns the full stored set.
func (p *Pipeline) GenerateQuests(ctx context.Context, session string) ([]model.Quest, error) {
	content, err := p.contents.Latest(ctx, session)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoKeywords
	}
	if err != nil {
		return nil, err
	}
	keywords := splitKeywords(content.Keyword)
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}

	if p.policy == PolicyStrictGate {
		open, err := p.quests.CountByState(ctx, session, model.QuestStateNot)
		if err != nil {
			return nil, err
		}
		if open > 0 {
			logger.Info("quest.generate.gated", "session_id", session, "open", open)
			return p.quests.List(ctx, nil, session)
		}
	}

	raw, err := p.llm.Complete(ctx, BuildQuestPrompt(keywords, p.count))
	if err != nil {
		return nil, fmt.Errorf("generate quests: %w", err)
	}
	arr, err := llm.ExtractArray(raw)
	if err != nil {
		logger.Warn("quest.generate.parse_failed", "session_id", session, "raw", logger.Truncate(raw, 300))
		return nil, fmt.Errorf("%w: %v", ErrQuestGeneration, err)
	}
	missions := llm.Strings(arr)
	if len(missions) == 0 {
		return nil, ErrQuestGeneration
	}

	var added []model.Quest
	var all []model.Quest
	err = p.quests.DB().Transaction(func(tx *gorm.DB) error {
		existing, err := p.quests.List(ctx, tx, session)
		if err != nil {
			return err
		}
		added = newQuests(session, existing, missions)
		if err := p.quests.CreateBatch(ctx, tx, added); err != nil {
			return err
		}
		all, err = p.quests.List(ctx, tx, session)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("quest.generate.ok", "session_id", session, "generated", len(missions), "added", len(added), "total", len(all))

	if p.mirror != nil && len(added) > 0 {
		p.mirror.SyncQuests(ctx, added)
	}
	return all, nil
}

// UpdateStates applies the valid entries of updates and reports what changed, ordered by id.
// Unknown ids, non-numeric keys and states outside NOT/SUCCESS are skipped.
func (p *Pipeline) UpdateStates(ctx context.Context, session string, updates map[string]string) ([]model.QuestUpdate, error) {
	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	// Keys spelling the same id ("1", "01") collapse to one entry; the later key in sort order wins.
	sort.Strings(keys)

	byID := make(map[int]string, len(keys))
	for _, key := range keys {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			logger.Debug("quest.update.skip", "key", key, "reason", "non-numeric id")
			continue
		}
		state := strings.ToUpper(strings.TrimSpace(updates[key]))
		if !model.ValidQuestState(state) {
			logger.Debug("quest.update.skip", "id", id, "state", updates[key])
			delete(byID, id)
			continue
		}
		byID[id] = state
	}

	pending := make([]model.QuestUpdate, 0, len(byID))
	for id, state := range byID {
		pending = append(pending, model.QuestUpdate{ID: id, State: state})
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })

	applied := make([]model.QuestUpdate, 0, len(pending))
	err := p.quests.DB().Transaction(func(tx *gorm.DB) error {
		for _, u := range pending {
			ok, err := p.quests.UpdateState(ctx, tx, session, u.ID, u.State)
			if err != nil {
				return err
			}
			if ok {
				applied = append(applied, u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("quest.update.ok", "session_id", session, "requested", len(updates), "applied", len(applied))

	if p.mirror != nil && len(applied) > 0 {
		p.mirror.SyncQuestStates(ctx, session, applied)
	}
	return applied, nil
}

func (p *Pipeline) latestPersona(ctx context.Context, session string) (*model.Persona, error) {
	persona, err := p.personas.Latest(ctx, session)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoPersona
	}
	return persona, err
}

// newQuests keeps the missions not already stored and not repeated within the batch.
func newQuests(session string, existing []model.Quest, missions []string) []model.Quest {
	seen := make(map[string]bool, len(existing)+len(missions))
	for _, q := range existing {
		seen[q.MissionText] = true
	}

	var out []model.Quest
	for _, m := range missions {
		m = truncateRunes(m, model.MissionTextMaxLen)
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, model.Quest{SessionID: session, MissionText: m, State: model.QuestStateNot})
	}
	return out
}

func splitKeywords(s string) []string {
	var out []string
	for _, kw := range strings.Split(s, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// joinField flattens a string-or-list model field into stored text.
func joinField(v any, sep string) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				parts = append(parts, s)
			} else {
				parts = append(parts, fmt.Sprint(e))
			}
		}
		return strings.Join(parts, sep)
	default:
		return fmt.Sprint(t)
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
