package service

import "errors"

// Workflow failures. Messages are shown to API clients as-is.
var (
	ErrInvalidAnalysis = errors.New("분석 결과가 유효하지 않습니다.")
	ErrNoPersona       = errors.New("먼저 퍼소나 분석을 진행해주세요.")
	ErrNoKeywords      = errors.New("contents에 키워드가 없습니다.")
	ErrQuestGeneration = errors.New("퀘스트 생성 실패")
	ErrEmptyMessage    = errors.New("메시지를 입력해주세요.")
)
