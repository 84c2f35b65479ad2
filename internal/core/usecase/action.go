package usecase

import "github.com/nqhuy/admissions-assistant/internal/core/domain"

// DecideAction maps bucket counts to a pipeline action. It is a pure
// function re-evaluated per request: enough strong local evidence
// answers from chunks alone, no usable evidence escalates to web
// search, anything in between mixes both. minCorrect is the number of
// correct chunks considered sufficient (2 unless tuned).
func DecideAction(correct, ambiguous, minCorrect int) domain.Action {
	if minCorrect <= 0 {
		minCorrect = 2
	}
	switch {
	case correct >= minCorrect:
		return domain.ActionKnowledgeRefinement
	case correct == 0 && ambiguous == 0:
		return domain.ActionWebSearch
	default:
		return domain.ActionHybrid
	}
}
