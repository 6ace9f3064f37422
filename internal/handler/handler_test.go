package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"persona-quest/internal/llm"
	"persona-quest/internal/middleware"
	"persona-quest/internal/model"
	"persona-quest/internal/service"
	"persona-quest/internal/store"
	"persona-quest/internal/store/storetest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type scriptedCompleter struct {
	replies []string
	err     error
}

func (s *scriptedCompleter) Complete(context.Context, string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func (s *scriptedCompleter) Chat(_ context.Context, history []llm.Turn, message string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("%d turns, last: %s", len(history), message), nil
}

type testServer struct {
	router *gin.Engine
	tokens *middleware.SessionTokens
	llm    *scriptedCompleter
}

func newTestServer(t *testing.T, replies ...string) *testServer {
	t.Helper()
	db := storetest.Open(t)
	f := &scriptedCompleter{replies: replies}
	p := service.NewPipeline(f, store.NewPersonaStore(db), store.NewContentStore(db), store.NewQuestStore(db), service.PolicyDedupAppend, 10)
	tokens := middleware.NewSessionTokens("test-secret", 7*24*time.Hour)
	return &testServer{
		router: NewRouter(RouterConfig{Pipeline: p, Tokens: tokens, DB: db}),
		tokens: tokens,
		llm:    f,
	}
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

const surveyBody = `[{"number":1,"question":"주말에는?","answer":"쉰다"}]`

const analysisReply = "```json\n" + `[{"strong":["끈기: 끝까지 해낸다"],"weakness":["조급함: 서두른다"],"keyword":["인내","휴식","계획","표현","균형"]}]` + "\n```"

func TestFullFlow(t *testing.T) {
	s := newTestServer(t, analysisReply, "차분하고 따뜻한 사람입니다.", `["물 마시기","산책하기"]`)

	rec := s.do(http.MethodPost, "/api/survey", surveyBody, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var survey model.SurveyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &survey))
	assert.Equal(t, "분석 완료 및 저장 성공", survey.Message)
	require.Len(t, survey.Result, 1)

	rec = s.do(http.MethodPost, "/api/survey/key", `["휴식","균형"]`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var desc model.DescriptionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &desc))
	assert.Equal(t, "차분하고 따뜻한 사람입니다.", desc.Data.Description)
	assert.Equal(t, "휴식, 균형", desc.Data.Keywords)

	rec = s.do(http.MethodGet, "/api/questions", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var quests []model.QuestView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quests))
	require.Len(t, quests, 2)
	assert.Equal(t, "물 마시기", quests[0].Question)
	assert.Equal(t, model.QuestStateNot, quests[0].State)

	body := fmt.Sprintf(`{"%d":"success","99":"NOT","x":"SUCCESS","%d":5}`, quests[0].ID, quests[1].ID)
	rec = s.do(http.MethodPatch, "/api/questions", body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var upd model.QuestUpdateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upd))
	assert.Equal(t, "퀘스트 상태 업데이트 완료", upd.Message)
	assert.Equal(t, []model.QuestUpdate{{ID: quests[0].ID, State: model.QuestStateSuccess}}, upd.Updated)

	rec = s.do(http.MethodPost, "/api/conversation/init", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var initResp model.ConversationInitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initResp))
	assert.Contains(t, initResp.SystemPrompt, "끈기: 끝까지 해낸다")

	rec = s.do(http.MethodPost, "/api/conversation/chat",
		`{"history":[{"role":"user","content":"안녕"},{"role":"assistant","content":"반가워요"}],"new_message":"오늘 힘들었어"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"reply":"2 turns, last: 오늘 힘들었어"}`, rec.Body.String())
}

func TestNotFoundWithoutPersona(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path, body, msg string }{
		{http.MethodPost, "/api/survey/key", `["a"]`, service.ErrNoPersona.Error()},
		{http.MethodPost, "/api/conversation/init", "", service.ErrNoPersona.Error()},
		{http.MethodGet, "/api/questions", "", service.ErrNoKeywords.Error()},
	} {
		rec := s.do(tc.method, tc.path, tc.body, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
		assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tc.msg), rec.Body.String())
	}
}

func TestSurvey_InvalidAnalysis(t *testing.T) {
	s := newTestServer(t, "[]")
	rec := s.do(http.MethodPost, "/api/survey", surveyBody, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"분석 결과가 유효하지 않습니다."}`, rec.Body.String())
}

func TestSurvey_BadBody(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/survey", `{"number":1}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpstreamErrors(t *testing.T) {
	s := newTestServer(t)

	s.llm.err = fmt.Errorf("%w: connection refused", llm.ErrUpstream)
	rec := s.do(http.MethodPost, "/api/survey", surveyBody, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")

	s.llm.err = llm.ErrTimeout
	rec = s.do(http.MethodPost, "/api/conversation/chat", `{"history":[],"new_message":"hi"}`, "")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestChat_EmptyMessage(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/conversation/chat", `{"history":[],"new_message":"  "}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatch_NonObjectBody(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPatch, "/api/questions", `["1","SUCCESS"]`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPatch, "/api/questions", `{}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"퀘스트 상태 업데이트 완료","updated":[]}`, rec.Body.String())
}

func TestPatch_SameQuestUnderTwoKeys(t *testing.T) {
	s := newTestServer(t, analysisReply, "설명", `["물 마시기","산책하기"]`)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/survey", surveyBody, "").Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/survey/key", `["휴식"]`, "").Code)

	rec := s.do(http.MethodGet, "/api/questions", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var quests []model.QuestView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quests))
	require.Len(t, quests, 2)
	a, b := quests[0].ID, quests[1].ID

	body := fmt.Sprintf(`{"%d":"SUCCESS","0%d":"not","%d":"SUCCESS","0%d":7}`, a, a, b, b)
	rec = s.do(http.MethodPatch, "/api/questions", body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var upd model.QuestUpdateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upd))
	assert.Equal(t, []model.QuestUpdate{{ID: a, State: model.QuestStateNot}}, upd.Updated)
}

func TestDecodeStates(t *testing.T) {
	got, err := decodeStates(strings.NewReader(`{"1":"SUCCESS","01":"NOT","x":"NOT","2":true}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "NOT", "x": "NOT"}, got)

	for _, body := range []string{``, `null`, `[1]`, `"s"`, `{"1":"NOT"`} {
		_, err := decodeStates(strings.NewReader(body))
		assert.Error(t, err, body)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestServer(t, analysisReply)

	rec := s.do(http.MethodPost, "/api/session", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sess model.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.NotEmpty(t, sess.SessionID)
	assert.Greater(t, sess.ExpiresAt, time.Now().Unix())

	rec = s.do(http.MethodPost, "/api/survey", surveyBody, sess.Token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/conversation/init", "", sess.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/conversation/init", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "default session has no persona")

	rec = s.do(http.MethodPost, "/api/conversation/init", "", "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
