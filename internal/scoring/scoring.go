// Package scoring derives per-domain scores, risk buckets, and heuristic
// error-pattern counts from one assessment's questions and answers. All
// functions are pure; missing or unmatched data degrades to zero values
// instead of raising errors.
package scoring

import (
	"math"
	"math/rand"

	"dyscalc-screening-service/internal/domain"
)

// Outcome is the scored view of one submission.
type Outcome struct {
	Answers      []domain.ScoredAnswer
	Scores       domain.DomainScores
	CorrectCount int
}

// IndexQuestions builds an id -> question lookup over a question set.
func IndexQuestions(questions []domain.Question) map[string]domain.Question {
	index := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		index[q.ID] = q
	}
	return index
}

// Score computes correctness and per-domain percentages for a submission.
// Answers referencing unknown question ids count toward the total
// denominator but never toward a domain tally.
func Score(questions []domain.Question, answers []domain.SubmittedAnswer) Outcome {
	index := IndexQuestions(questions)

	scored := make([]domain.ScoredAnswer, 0, len(answers))
	domainTotal := make(map[string]int, len(domain.Domains))
	domainCorrect := make(map[string]int, len(domain.Domains))
	correctCount := 0

	for _, answer := range answers {
		if answer.Attempts <= 0 {
			answer.Attempts = 1
		}
		question, known := index[answer.QuestionID]
		isCorrect := known && answer.Selected() == question.CorrectAnswer
		if isCorrect {
			correctCount++
		}
		if known {
			domainTotal[question.Domain]++
			if isCorrect {
				domainCorrect[question.Domain]++
			}
		}
		scored = append(scored, domain.ScoredAnswer{SubmittedAnswer: answer, IsCorrect: isCorrect})
	}

	// max(1, len(answers)) guards the empty submission.
	totalQuestions := len(answers)
	if totalQuestions == 0 {
		totalQuestions = 1
	}

	scores := domain.DomainScores{
		NumberSense: percentage(domainCorrect[domain.DomainNumberSense], domainTotal[domain.DomainNumberSense]),
		Arithmetic:  percentage(domainCorrect[domain.DomainArithmetic], domainTotal[domain.DomainArithmetic]),
		Spatial:     percentage(domainCorrect[domain.DomainSpatial], domainTotal[domain.DomainSpatial]),
		Memory:      percentage(domainCorrect[domain.DomainMemory], domainTotal[domain.DomainMemory]),
		Total:       percentage(correctCount, totalQuestions),
	}

	return Outcome{Answers: scored, Scores: scores, CorrectCount: correctCount}
}

func percentage(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// RiskLevel buckets a total score. Thresholds: below 40 high, below 60
// moderate, otherwise low; the boundary values fall into the upper bucket.
func RiskLevel(totalScore int) string {
	switch {
	case totalScore < 40:
		return domain.RiskHigh
	case totalScore < 60:
		return domain.RiskModerate
	default:
		return domain.RiskLow
	}
}

// ConfidenceFunc produces the confidence value attached to a result.
type ConfidenceFunc func() float64

// RandomConfidence draws a uniform value in [0, 100). It is a placeholder
// for a future diagnostic model and carries no meaning beyond display;
// swap the ConfidenceFunc to replace it without touching Score.
func RandomConfidence() float64 {
	return rand.Float64() * 100
}

// TallySubtypes counts questions per domain and subtype across a question
// set. Questions without a subtype fall under "default".
func TallySubtypes(questions []domain.Question) domain.SubtypeCounts {
	counts := make(domain.SubtypeCounts)
	for _, q := range questions {
		sub := q.Subtype
		if sub == "" {
			sub = domain.DefaultSubtype
		}
		if counts[q.Domain] == nil {
			counts[q.Domain] = make(map[string]int)
		}
		counts[q.Domain][sub]++
	}
	return counts
}
