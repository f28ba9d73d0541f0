// Package generate produces adaptive screening questions for the four
// cognitive domains. Difficulty moves one step per answer and stays within
// 1..5; distractors are built from common dyscalculia confusions
// (digit transposition, place-value slips, adjacent-digit swaps).
package generate

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"dyscalc-screening-service/internal/domain"
	"github.com/google/uuid"
)

// QuestionsPerRun is the length of one screening subtest.
const QuestionsPerRun = 6

// SubtypeSymbolQuantity selects the interactive symbol-quantity and
// transcoding tasks within the number_sense domain.
const SubtypeSymbolQuantity = "symbol_quantity"

// TimeLimit returns how long a learner has to answer one question in the
// given domain.
func TimeLimit(dom string) time.Duration {
	switch dom {
	case domain.DomainNumberSense:
		return 12 * time.Second
	case domain.DomainArithmetic:
		return 15 * time.Second
	case domain.DomainSpatial:
		return 18 * time.Second
	case domain.DomainMemory:
		return 10 * time.Second
	}
	return 15 * time.Second
}

// NextDifficulty steps difficulty up after a correct answer and down after
// a wrong one, clamped to 1..5.
func NextDifficulty(current int, wasCorrect bool) int {
	next := current - 1
	if wasCorrect {
		next = current + 1
	}
	if next < 1 {
		return 1
	}
	if next > 5 {
		return 5
	}
	return next
}

// Generator builds questions from a private randomness source so tests can
// seed it deterministically.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded from the clock.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Question generates one question for a domain at the given difficulty.
// Subtype is honored for number_sense and ignored elsewhere.
func (g *Generator) Question(dom string, difficulty int, idx int, subtype string) domain.Question {
	if difficulty < 1 {
		difficulty = 1
	}
	if difficulty > 5 {
		difficulty = 5
	}
	switch dom {
	case domain.DomainArithmetic:
		return g.arithmetic(difficulty)
	case domain.DomainSpatial:
		return g.spatial(difficulty)
	case domain.DomainMemory:
		return g.memory(difficulty)
	default:
		return g.numberSense(difficulty, idx, subtype)
	}
}

func (g *Generator) numberSense(difficulty, idx int, subtype string) domain.Question {
	if subtype == SubtypeSymbolQuantity {
		return g.symbolQuantity(difficulty, idx)
	}

	a := g.randInt(1, pow10(difficulty))
	b := g.randInt(1, pow10(difficulty))
	if g.rnd.Float64() > 0.5 {
		correct := "="
		if a > b {
			correct = ">"
		} else if a < b {
			correct = "<"
		}
		options := make([]domain.Option, 0, 3)
		for _, s := range []string{">", "<", "="} {
			options = append(options, domain.Option{Text: s, IsCorrect: s == correct})
		}
		return g.build(domain.DomainNumberSense, fmt.Sprintf("%d  ?  %d", a, b), options, correct, difficulty, "")
	}

	missing := g.randInt(1, max(3, a/2+1))
	total := a + missing
	correct := strconv.Itoa(missing)
	texts := g.fillOptions(correct, 4, func() string {
		return strconv.Itoa(g.randInt(0, max(3, total/2)))
	})
	return g.build(domain.DomainNumberSense, fmt.Sprintf("%d + ? = %d", a, total), asOptions(texts, correct), correct, difficulty, "")
}

// symbolQuantity rotates between spoken-number mapping, picture counting,
// and numeral reading/writing tasks.
func (g *Generator) symbolQuantity(difficulty, idx int) domain.Question {
	pick := g.rnd.Float64()
	switch {
	case pick < 0.35:
		val := g.randInt(0, min(999, pow10(min(3, difficulty+1))-1))
		correct := strconv.Itoa(val)
		q := g.build(domain.DomainNumberSense,
			"Listen and choose the numeral that matches the spoken number.",
			g.numericOptions(val, 4), correct, difficulty, SubtypeSymbolQuantity)
		q.SpeechText = NumberToWords(val)
		return q
	case pick < 0.7:
		n := g.randInt(1, min(8, difficulty*3))
		fruits := []string{"apple", "banana", "orange", "grapes"}
		fruit := fruits[idx%len(fruits)]
		correct := strconv.Itoa(n)
		text := fmt.Sprintf("How many %ss are shown?", fruit)
		q := g.build(domain.DomainNumberSense, text, g.numericOptions(n, 4), correct, difficulty, SubtypeSymbolQuantity)
		q.SpeechText = text
		for i := 0; i < n; i++ {
			q.Images = append(q.Images, "/images/"+fruit+".svg")
		}
		return q
	default:
		val := g.randInt(0, min(999, pow10(min(3, difficulty+1))-1))
		words := NumberToWords(val)
		if g.rnd.Float64() > 0.5 {
			correct := strconv.Itoa(val)
			q := g.build(domain.DomainNumberSense,
				fmt.Sprintf("Which numeral matches: %q?", words),
				g.numericOptions(val, 4), correct, difficulty, SubtypeSymbolQuantity)
			q.SpeechText = words
			return q
		}
		// word options built from place-value neighbours
		texts := []string{words, NumberToWords(max(0, val+10)), NumberToWords(max(0, val-10)), NumberToWords(val + 1)}
		texts = dedupe(texts)
		texts = g.padWords(texts, val, 4)
		q := g.build(domain.DomainNumberSense,
			fmt.Sprintf("Which word matches the numeral: %d?", val),
			asOptions(texts, words), words, difficulty, SubtypeSymbolQuantity)
		q.SpeechText = words
		return q
	}
}

func (g *Generator) arithmetic(difficulty int) domain.Question {
	a := g.randInt(1, max(4, pow10(difficulty-1)))
	b := g.randInt(1, max(3, pow10(max(0, difficulty-2))))
	op := "+"
	if difficulty >= 3 && difficulty < 5 {
		op = "×"
	}
	correct := a + b
	if op == "×" {
		correct = a * b
	}
	correctText := strconv.Itoa(correct)
	texts := g.fillOptions(correctText, 4, func() string {
		delta := g.randInt(1, 3)
		if g.rnd.Float64() > 0.5 {
			return strconv.Itoa(correct + delta)
		}
		return strconv.Itoa(max(0, correct-delta))
	})
	g.rnd.Shuffle(len(texts), func(i, j int) { texts[i], texts[j] = texts[j], texts[i] })
	return g.build(domain.DomainArithmetic, fmt.Sprintf("%d %s %d = ?", a, op, b), asOptions(texts, correctText), correctText, difficulty, "")
}

func (g *Generator) spatial(difficulty int) domain.Question {
	shapes := []string{"▲", "■", "●", "◆"}
	shape := shapes[g.randInt(0, len(shapes)-1)]
	count := g.randInt(1, min(9, difficulty*3))
	correct := strconv.Itoa(count)
	texts := g.fillOptions(correct, 4, func() string {
		return strconv.Itoa(g.randInt(0, max(3, count+3)))
	})
	return g.build(domain.DomainSpatial, fmt.Sprintf("%s  x %d  = ?", shape, count), asOptions(texts, correct), correct, difficulty, "")
}

func (g *Generator) memory(difficulty int) domain.Question {
	length := min(6, 2+difficulty)
	digits := make([]string, length)
	for i := range digits {
		digits[i] = strconv.Itoa(g.randInt(0, 9))
	}
	seq := strings.Join(digits, " ")
	pos := g.randInt(1, length)
	correct := digits[pos-1]
	texts := g.fillOptions(correct, 4, func() string {
		return strconv.Itoa(g.randInt(0, 9))
	})
	return g.build(domain.DomainMemory, fmt.Sprintf("Remember: %s  — What was item %d?", seq, pos), asOptions(texts, correct), correct, difficulty, "")
}

// numericOptions builds plausible distractors around a numeric answer:
// two-digit transposition, off-by-ten/hundred, adjacent digit swap, then
// random small offsets until the option count is reached.
func (g *Generator) numericOptions(correct int, count int) []domain.Option {
	correctText := strconv.Itoa(correct)
	seen := map[string]bool{correctText: true}
	texts := []string{correctText}
	add := func(v int) {
		s := strconv.Itoa(v)
		if !seen[s] {
			seen[s] = true
			texts = append(texts, s)
		}
	}

	abs := correct
	if abs < 0 {
		abs = -abs
	}
	if abs >= 10 && abs < 100 {
		s := strconv.Itoa(abs)
		trans, _ := strconv.Atoi(reverse(s))
		if correct < 0 {
			trans = -trans
		}
		add(trans)
	}
	add(correct + 10)
	add(max(0, correct-10))
	add(correct + 100)
	if s := strconv.Itoa(abs); len(s) >= 3 {
		swapped := []byte(s)
		swapped[1], swapped[2] = swapped[2], swapped[1]
		v, _ := strconv.Atoi(string(swapped))
		if correct < 0 {
			v = -v
		}
		add(v)
	}
	for len(texts) < count {
		spread := max(1, int(math.Round(float64(abs)/3)))
		delta := g.randInt(1, spread)
		if g.rnd.Float64() > 0.5 {
			delta = -delta
		}
		add(max(0, correct+delta))
	}
	return asOptions(texts[:count], correctText)
}

func (g *Generator) fillOptions(correct string, count int, next func() string) []string {
	seen := map[string]bool{correct: true}
	texts := []string{correct}
	for len(texts) < count {
		v := next()
		if !seen[v] {
			seen[v] = true
			texts = append(texts, v)
		}
	}
	return texts
}

func (g *Generator) padWords(texts []string, val, count int) []string {
	seen := make(map[string]bool, len(texts))
	for _, t := range texts {
		seen[t] = true
	}
	for len(texts) < count {
		delta := g.randInt(1, 20)
		if g.rnd.Float64() > 0.5 {
			delta = -delta
		}
		w := NumberToWords(max(0, val+delta))
		if !seen[w] {
			seen[w] = true
			texts = append(texts, w)
		}
	}
	return texts
}

func (g *Generator) build(dom, text string, options []domain.Option, correct string, difficulty int, subtype string) domain.Question {
	return domain.Question{
		ID:            uuid.NewString(),
		Domain:        dom,
		Text:          text,
		Options:       options,
		CorrectAnswer: correct,
		Difficulty:    difficulty,
		Subtype:       subtype,
	}
}

func (g *Generator) randInt(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rnd.Intn(hi-lo+1)
}

func asOptions(texts []string, correct string) []domain.Option {
	options := make([]domain.Option, 0, len(texts))
	for _, t := range texts {
		options = append(options, domain.Option{Text: t, IsCorrect: t == correct})
	}
	return options
}

func dedupe(texts []string) []string {
	seen := make(map[string]bool, len(texts))
	out := texts[:0]
	for _, t := range texts {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

func pow10(n int) int {
	v := 1
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
