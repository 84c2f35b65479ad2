package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
	"github.com/nqhuy/admissions-assistant/internal/core/ports"
)

// AnswerConfig tunes the decision stage and the outer request bound.
type AnswerConfig struct {
	// MinCorrect is how many correct chunks suffice to answer from
	// local knowledge alone.
	MinCorrect     int
	MaxSubQueries  int
	RequestTimeout time.Duration
}

func DefaultAnswerConfig() AnswerConfig {
	return AnswerConfig{
		MinCorrect:     2,
		MaxSubQueries:  3,
		RequestTimeout: 30 * time.Second,
	}
}

func (c AnswerConfig) normalize() AnswerConfig {
	out := c
	def := DefaultAnswerConfig()
	if out.MinCorrect <= 0 {
		out.MinCorrect = def.MinCorrect
	}
	if out.MaxSubQueries <= 0 {
		out.MaxSubQueries = def.MaxSubQueries
	}
	if out.RequestTimeout <= 0 {
		out.RequestTimeout = def.RequestTimeout
	}
	return out
}

// AnswerUseCase drives one request through the corrective pipeline:
// gate, fan-out retrieval with grading, action decision, optional web
// search, and resilient generation.
type AnswerUseCase struct {
	gate        ports.InputGate
	decomposer  ports.QueryDecomposer
	retriever   *FanoutRetriever
	grader      *Grader
	generator   ports.AnswerGenerator
	webSearcher ports.WebSearcher
	publisher   ports.EventPublisher
	cfg         AnswerConfig
	now         func() time.Time
}

func NewAnswerUseCase(
	gate ports.InputGate,
	decomposer ports.QueryDecomposer,
	retriever *FanoutRetriever,
	grader *Grader,
	generator ports.AnswerGenerator,
	webSearcher ports.WebSearcher,
	publisher ports.EventPublisher,
	cfg AnswerConfig,
) *AnswerUseCase {
	return &AnswerUseCase{
		gate:        gate,
		decomposer:  decomposer,
		retriever:   retriever,
		grader:      grader,
		generator:   generator,
		webSearcher: webSearcher,
		publisher:   publisher,
		cfg:         cfg.normalize(),
		now:         time.Now,
	}
}

func (uc *AnswerUseCase) Answer(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	start := uc.now()
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.RequestTimeout)
	defer cancel()

	verdict := uc.gate.ValidateAndLimit(req.UserID, req.Question)
	if !verdict.Allowed {
		if verdict.RateLimited {
			return nil, domain.WrapError(domain.ErrRateLimited, "input gate", fmt.Errorf("%s", verdict.Reason))
		}
		return nil, domain.WrapError(domain.ErrInvalidInput, "input gate", fmt.Errorf("%s", verdict.Reason))
	}

	subQueries := uc.subQueries(ctx, req)
	multi := uc.retriever.RetrieveMulti(ctx, subQueries)
	graded := uc.grader.Classify(multi.Merged)

	action := DecideAction(len(graded.Correct), len(graded.Ambiguous), uc.cfg.MinCorrect)

	// Incorrect-bucket chunks never reach the prompt, whichever branch
	// supplies the evidence.
	evidence := usableEvidence(graded)
	var webResults []domain.WebResult
	switch action {
	case domain.ActionWebSearch:
		evidence = nil
		webResults = uc.searchWeb(ctx, req.Question)
	case domain.ActionHybrid:
		webResults = uc.searchWeb(ctx, req.Question)
	}

	prompt := buildAnswerPrompt(req.Question, evidence, webResults)
	generation, err := uc.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer := &domain.Answer{
		Text:       generation.Text,
		Model:      generation.Model,
		Action:     action,
		Sources:    evidence,
		WebSources: webResults,
		Stats: domain.RetrievalStats{
			SubQueries:     len(subQueries),
			TotalRetrieved: multi.TotalRetrieved,
			AfterMerge:     len(multi.Merged),
			Correct:        len(graded.Correct),
			Ambiguous:      len(graded.Ambiguous),
			Incorrect:      len(graded.Incorrect),
		},
	}

	uc.publishAnswered(ctx, req, answer, uc.now().Sub(start))
	return answer, nil
}

// usableEvidence is the correct and ambiguous buckets, freshly
// allocated so neither bucket's backing array is shared.
func usableEvidence(graded domain.GradedChunks) []domain.Chunk {
	if len(graded.Correct)+len(graded.Ambiguous) == 0 {
		return nil
	}
	evidence := make([]domain.Chunk, 0, len(graded.Correct)+len(graded.Ambiguous))
	evidence = append(evidence, graded.Correct...)
	return append(evidence, graded.Ambiguous...)
}

// subQueries resolves the fan-out inputs: caller-supplied sub-queries
// win, then the decomposition collaborator, then the question itself.
// Decomposition failure is not a request failure.
func (uc *AnswerUseCase) subQueries(ctx context.Context, req domain.QueryRequest) []string {
	cleaned := make([]string, 0, len(req.SubQueries))
	for _, subQuery := range req.SubQueries {
		subQuery = strings.TrimSpace(subQuery)
		if subQuery != "" {
			cleaned = append(cleaned, subQuery)
		}
		if len(cleaned) >= uc.cfg.MaxSubQueries {
			break
		}
	}
	if len(cleaned) > 0 {
		return cleaned
	}

	if uc.decomposer != nil {
		decomposed, err := uc.decomposer.Decompose(ctx, req.Question)
		if err != nil {
			slog.Warn("query_decompose_failed", "error", err)
		} else if len(decomposed) > 0 {
			if len(decomposed) > uc.cfg.MaxSubQueries {
				decomposed = decomposed[:uc.cfg.MaxSubQueries]
			}
			return decomposed
		}
	}
	return []string{req.Question}
}

// searchWeb degrades to no web evidence on collaborator failure.
func (uc *AnswerUseCase) searchWeb(ctx context.Context, question string) []domain.WebResult {
	if uc.webSearcher == nil {
		return nil
	}
	results, err := uc.webSearcher.Search(ctx, question)
	if err != nil {
		slog.Warn("web_search_failed", "error", err)
		return nil
	}
	return results
}

// publishAnswered emits the audit event best-effort; delivery problems
// never fail the request.
func (uc *AnswerUseCase) publishAnswered(ctx context.Context, req domain.QueryRequest, answer *domain.Answer, elapsed time.Duration) {
	if uc.publisher == nil {
		return
	}
	event := domain.QueryAnsweredEvent{
		EventID:    uuid.NewString(),
		RequestID:  req.RequestID,
		UserID:     req.UserID,
		Question:   req.Question,
		Action:     answer.Action,
		Model:      answer.Model,
		Correct:    answer.Stats.Correct,
		Ambiguous:  answer.Stats.Ambiguous,
		Incorrect:  answer.Stats.Incorrect,
		Merged:     answer.Stats.AfterMerge,
		DurationMS: elapsed.Milliseconds(),
		AnsweredAt: uc.now().UTC(),
	}
	if err := uc.publisher.PublishQueryAnswered(ctx, event); err != nil {
		slog.Warn("query_answered_publish_failed", "event_id", event.EventID, "error", err)
	}
}
