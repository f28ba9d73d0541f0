package scoring

import (
	"regexp"
	"strconv"
	"strings"

	"dyscalc-screening-service/internal/domain"
)

// comparisonPrompt matches the "a ? b" form used by comparison questions
// whose text omits the symbol the learner must supply.
var comparisonPrompt = regexp.MustCompile(`[0-9]\s*\?\s*[0-9]`)

// DetectPatterns counts heuristic mistake categories over scored answers.
// The predicates are independent; one answer may increment more than one
// counter. Answers whose question id resolves to nothing are skipped.
func DetectPatterns(index map[string]domain.Question, answers []domain.ScoredAnswer) domain.ErrorPatternCounts {
	var counts domain.ErrorPatternCounts
	for _, answer := range answers {
		question, ok := index[answer.QuestionID]
		if !ok {
			continue
		}
		correct := question.CorrectAnswer
		selected := answer.Selected()

		// Reversal fires only on wrong answers; the raw predicate would also
		// flag palindromic correct answers like "11".
		if !answer.IsCorrect && correct != "" && len(selected) == len(correct) && reverseString(selected) == correct {
			counts.NumberReversal++
		}

		// A comparison question answered with a number instead of a symbol.
		if comparisonContext(question.Text) && containsDigit(selected) && !strings.ContainsAny(selected, "><=") {
			counts.SymbolConfusion++
		}

		// Off-by-one recall on memory items.
		if strings.Contains(strings.ToLower(question.Domain), "memory") {
			correctNum, errC := strconv.ParseFloat(correct, 64)
			selectedNum, errS := strconv.ParseFloat(selected, 64)
			if errC == nil && errS == nil && abs(correctNum-selectedNum) == 1 {
				counts.SequencingError++
			}
		}
	}
	return counts
}

// comparisonContext reports whether a question's text poses a comparison:
// either it carries a relational symbol or it uses the "a ? b" prompt form.
func comparisonContext(text string) bool {
	return strings.ContainsAny(text, "><=") || comparisonPrompt.MatchString(text)
}

func reverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
