package service

import (
	"fmt"
	"strings"

	"persona-quest/internal/model"
)

const analysisInstruction = `
결과는 다음 JSON 형식으로만 응답해줘. 설명 없이 결과만 출력해. 반드시 하나의 리스트 안에 하나의 객체만 포함해야 해.
strong과 weakness는 "특성 이름: 설명" 형태의 문자열 배열로, keyword는 정확히 5개의 문자열 배열로 작성해.

[
  {
    "strong": ["강점 이름: 강점에 대한 설명", "강점 이름: 강점에 대한 설명"],
    "weakness": ["단점 이름: 단점에 대한 설명", "단점 이름: 단점에 대한 설명"],
    "keyword": ["보완하면 좋을 키워드1", "키워드2", "키워드3", "키워드4", "키워드5"]
  }
]
`

// BuildAnalysisPrompt embeds every survey item in submitted order, then the output contract.
func BuildAnalysisPrompt(items []model.SurveyItem) string {
	var sb strings.Builder
	sb.WriteString("사용자의 설문 응답을 기반으로 강점, 단점, 그리고 보완되면 좋을 성향 키워드를 도출해줘.\n\n")
	sb.WriteString("다음은 사용자의 응답이야:\n")
	for _, it := range items {
		fmt.Fprintf(&sb, "%d. %s\n→ %s\n\n", it.Number, it.Question, it.Answer)
	}
	sb.WriteString(analysisInstruction)
	return sb.String()
}

func BuildDescriptionPrompt(strong string, keywords []string) string {
	return fmt.Sprintf(`
당신은 감성적인 작가입니다.

다음은 사용자의 성격 정보입니다.

강점: %s
보완 키워드: %s

이 정보를 바탕으로 하나의 통합된 페르소나 설명을 작성해주세요.
- 4~6문장으로 구성된 한 문단
- 인간적인 서술
- 키워드들을 설명에 자연스럽게 포함
`, strong, strings.Join(keywords, ", "))
}

func BuildQuestPrompt(keywords []string, count int) string {
	return fmt.Sprintf(`
너는 라이프코치이자 작가야.
사용자가 아래 키워드를 실천할 수 있도록 구체적인 액션 기반 퀘스트를 만들어줘.

조건:
- 키워드: %s
- 퀘스트는 총 %d개 생성
- 퀘스트는 간단 명료한 실천문장 (예: "하루에 한 번 감사일기 쓰기")
- 같은 퀘스트를 반복하지 말 것
- JSON 배열로만 응답: ["~하기", "~시도해보기", "~실천하기"]
- 마크다운 코드 블록(`+"```"+`)을 사용하지 말 것

설명 없이 결과만 JSON으로 줘.
`, strings.Join(keywords, ", "), count)
}

// BuildConversationPrompt seeds a chat with the persona's stored traits, verbatim.
func BuildConversationPrompt(p model.Persona) string {
	return fmt.Sprintf(`너는 사용자의 성향을 잘 알고 있는 다정한 대화 상대야.
아래는 사용자의 성격 분석 결과야. 이 내용을 참고해서 사용자의 이야기에 공감하고, 부담스럽지 않게 성장을 응원해줘.

강점:
%s

단점:
%s

보완 키워드: %s

마크다운이나 목록 없이 평범한 문장으로, 따뜻하고 짧게 대답해.`, p.Strong, p.Weakness, p.Keyword)
}
