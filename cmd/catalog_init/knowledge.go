package main

import (
	"context"

	"persona-quest/internal/logger"

	sdk "github.com/matrixorigin/moi-go-sdk"
)

func knowledgeEntries() []sdk.NL2SQLKnowledgeCreateRequest {
	return []sdk.NL2SQLKnowledgeCreateRequest{
		{Type: "glossary", Key: "페르소나", Value: []string{"personas 테이블의 한 행, 설문 분석으로 도출된 사용자의 강점/단점/키워드"}},
		{Type: "glossary", Key: "퀘스트", Value: []string{"quests 테이블의 한 행, 보완 키워드를 실천하기 위한 한 문장짜리 미션"}},
		{Type: "glossary", Key: "완료", Value: []string{"현재 상태가 'SUCCESS'인 퀘스트"}},
		{Type: "glossary", Key: "미완료", Value: []string{"현재 상태가 'NOT'인 퀘스트"}},
		{Type: "glossary", Key: "상태 변경 이력", Value: []string{"quest_events 테이블, 퀘스트 상태가 바뀔 때마다 한 행"}},

		{Type: "synonyms", Key: "미션/할 일/과제", Value: []string{"퀘스트 문장"}, AssociateTables: []string{"quests,mission_text"}},
		{Type: "synonyms", Key: "장점/강점/잘하는 것", Value: []string{"페르소나 강점"}, AssociateTables: []string{"personas,strong"}},
		{Type: "synonyms", Key: "약점/단점/부족한 점", Value: []string{"페르소나 단점"}, AssociateTables: []string{"personas,weakness"}},

		{Type: "logic", Key: "사용자의 현재 페르소나는 같은 session_id 중 id가 가장 큰 행", Value: []string{"ORDER BY id DESC LIMIT 1"}},
		{Type: "logic", Key: "퀘스트의 현재 상태는 quest_events에서 같은 quest_id 중 changed_at이 가장 늦은 행의 state, 이력이 없으면 quests.state", Value: []string{"COALESCE(latest_event.state, quests.state)"}},
		{Type: "logic", Key: "퀘스트 완료율: 현재 상태가 SUCCESS인 개수 / 전체 개수 * 100", Value: []string{"완료율 계산 규칙"}},

		{Type: "case_library", Key: "완료율이 가장 높은 세션", Value: []string{"SELECT q.session_id, SUM(COALESCE(e.state, q.state) = 'SUCCESS') / COUNT(*) * 100 AS rate FROM quests q LEFT JOIN quest_events e ON e.quest_id = q.id AND e.changed_at = (SELECT MAX(changed_at) FROM quest_events WHERE quest_id = q.id) GROUP BY q.session_id ORDER BY rate DESC LIMIT 1"}},
		{Type: "case_library", Key: "가장 많이 나온 보완 키워드", Value: []string{"SELECT keyword, COUNT(*) AS n FROM personas GROUP BY keyword ORDER BY n DESC LIMIT 10"}},
	}
}

func initKnowledge(ctx context.Context, client *sdk.RawClient) error {
	for _, k := range knowledgeEntries() {
		resp, err := client.CreateKnowledge(ctx, &k)
		if err != nil {
			if isDuplicate(err) {
				logger.Info("knowledge: already exists, skipping", "type", k.Type, "key", k.Key)
				continue
			}
			return err
		}
		logger.Info("knowledge: created", "type", k.Type, "key", k.Key, "id", resp.ID)
	}
	return nil
}
