package usecase

import (
	"context"
	"fmt"

	"github.com/nqhuy/admissions-assistant/internal/core/ports"
)

// LLMDecomposer splits a question into sub-queries by prompting the
// answer-generation pool. It satisfies ports.QueryDecomposer.
type LLMDecomposer struct {
	generator     ports.AnswerGenerator
	maxSubQueries int
}

func NewLLMDecomposer(generator ports.AnswerGenerator, maxSubQueries int) *LLMDecomposer {
	if maxSubQueries <= 0 {
		maxSubQueries = 3
	}
	return &LLMDecomposer{generator: generator, maxSubQueries: maxSubQueries}
}

func (d *LLMDecomposer) Decompose(ctx context.Context, question string) ([]string, error) {
	generation, err := d.generator.Generate(ctx, buildDecomposePrompt(question, d.maxSubQueries))
	if err != nil {
		return nil, fmt.Errorf("decompose question: %w", err)
	}
	subQueries := parseSubQueries(generation.Text, d.maxSubQueries)
	if len(subQueries) == 0 {
		return []string{question}, nil
	}
	return subQueries, nil
}
