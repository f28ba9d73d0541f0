package generate

import (
	"strconv"
	"testing"
	"time"

	"dyscalc-screening-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionHasExactlyOneCorrectOption(t *testing.T) {
	g := NewWithSeed(42)
	for _, dom := range domain.Domains {
		for difficulty := 1; difficulty <= 5; difficulty++ {
			for idx := 0; idx < QuestionsPerRun; idx++ {
				q := g.Question(dom, difficulty, idx, "")
				require.NotEmpty(t, q.ID)
				assert.Equal(t, dom, q.Domain)
				assert.Equal(t, difficulty, q.Difficulty)
				require.NotEmpty(t, q.Options, "%s d=%d", dom, difficulty)

				correct := 0
				matched := false
				for _, opt := range q.Options {
					if opt.IsCorrect {
						correct++
						if opt.Text == q.CorrectAnswer {
							matched = true
						}
					}
				}
				assert.Equal(t, 1, correct, "%s d=%d question %q", dom, difficulty, q.Text)
				assert.True(t, matched, "correct option text must equal CorrectAnswer")
			}
		}
	}
}

func TestSymbolQuantitySubtype(t *testing.T) {
	g := NewWithSeed(7)
	sawSpeech := false
	for i := 0; i < 30; i++ {
		q := g.Question(domain.DomainNumberSense, 2, i, SubtypeSymbolQuantity)
		assert.Equal(t, SubtypeSymbolQuantity, q.Subtype)
		if q.SpeechText != "" {
			sawSpeech = true
		}
	}
	assert.True(t, sawSpeech, "symbol_quantity tasks should carry speech text")
}

func TestMemoryAnswerComesFromSequence(t *testing.T) {
	g := NewWithSeed(3)
	for i := 0; i < 20; i++ {
		q := g.Question(domain.DomainMemory, 3, i, "")
		n, err := strconv.Atoi(q.CorrectAnswer)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 0)
		assert.LessOrEqual(t, n, 9)
	}
}

func TestNextDifficultyClamped(t *testing.T) {
	assert.Equal(t, 2, NextDifficulty(1, true))
	assert.Equal(t, 1, NextDifficulty(1, false))
	assert.Equal(t, 5, NextDifficulty(5, true))
	assert.Equal(t, 4, NextDifficulty(5, false))
}

func TestTimeLimits(t *testing.T) {
	assert.Equal(t, 12*time.Second, TimeLimit(domain.DomainNumberSense))
	assert.Equal(t, 15*time.Second, TimeLimit(domain.DomainArithmetic))
	assert.Equal(t, 18*time.Second, TimeLimit(domain.DomainSpatial))
	assert.Equal(t, 10*time.Second, TimeLimit(domain.DomainMemory))
}

func TestNumberToWords(t *testing.T) {
	tests := map[int]string{
		0:   "zero",
		7:   "seven",
		13:  "thirteen",
		20:  "twenty",
		42:  "forty two",
		100: "one hundred",
		215: "two hundred fifteen",
		999: "nine hundred ninety nine",
	}
	for n, want := range tests {
		assert.Equal(t, want, NumberToWords(n), "n=%d", n)
	}
}
