package domain

import "time"

// Canonical cognitive domains assessed by a screening.
const (
	DomainNumberSense = "number_sense"
	DomainArithmetic  = "arithmetic"
	DomainSpatial     = "spatial"
	DomainMemory      = "memory"
)

// Domains lists the four cognitive domains in reporting order.
var Domains = []string{DomainNumberSense, DomainArithmetic, DomainSpatial, DomainMemory}

// DefaultSubtype labels questions that carry no finer-grained subtype.
const DefaultSubtype = "default"

// Option represents a possible answer for a question.
type Option struct {
	Text      string `json:"text"`
	Image     string `json:"image,omitempty"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is one item of an assessment's question set. Immutable once the
// assessment has been created.
type Question struct {
	ID            string   `json:"id"`
	Domain        string   `json:"domain"`
	Text          string   `json:"text"`
	SpeechText    string   `json:"speechText,omitempty"`
	Images        []string `json:"images,omitempty"`
	Options       []Option `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Difficulty    int      `json:"difficulty"` // 1..5
	Subtype       string   `json:"subtype,omitempty"`
}

// SubmittedAnswer is a learner's raw answer to one question.
// SelectedAnswer is nil when the question timed out.
type SubmittedAnswer struct {
	QuestionID     string  `json:"questionId"`
	SelectedAnswer *string `json:"selectedAnswer"`
	ResponseTimeMs int64   `json:"responseTimeMs"`
	Attempts       int     `json:"attempts"`
}

// Selected stringifies the answer; timeouts stringify to the empty string
// and therefore never match a real correct answer.
func (a SubmittedAnswer) Selected() string {
	if a.SelectedAnswer == nil {
		return ""
	}
	return *a.SelectedAnswer
}

// ScoredAnswer is a SubmittedAnswer with derived correctness.
type ScoredAnswer struct {
	SubmittedAnswer
	IsCorrect bool `json:"isCorrect"`
}

// DomainScores maps each domain to an integer percentage 0..100 plus the
// total across all answered questions. A domain with no answered questions
// scores 0, never NaN.
type DomainScores struct {
	NumberSense int `json:"number_sense"`
	Arithmetic  int `json:"arithmetic"`
	Spatial     int `json:"spatial"`
	Memory      int `json:"memory"`
	Total       int `json:"total"`
}

// ByDomain returns the score for a canonical domain label.
func (s DomainScores) ByDomain(domain string) int {
	switch domain {
	case DomainNumberSense:
		return s.NumberSense
	case DomainArithmetic:
		return s.Arithmetic
	case DomainSpatial:
		return s.Spatial
	case DomainMemory:
		return s.Memory
	}
	return 0
}

// ErrorPatternCounts tallies heuristic mistake categories across an answer
// set. A single answer may satisfy more than one predicate.
type ErrorPatternCounts struct {
	NumberReversal  int `json:"numberReversal"`
	SymbolConfusion int `json:"symbolConfusion"`
	SequencingError int `json:"sequencingError"`
}

// SubtypeCounts maps domain -> subtype label -> question count, tallied
// over the assessment's question set (not the answers).
type SubtypeCounts map[string]map[string]int

// Risk buckets derived from the total score threshold. Heuristic only.
const (
	RiskLow      = "low"
	RiskModerate = "moderate"
	RiskHigh     = "high"
)

// Assessment lifecycle states.
const (
	AssessmentInProgress = "in_progress"
	AssessmentCompleted  = "completed"
	AssessmentAbandoned  = "abandoned"
)

// Assessment is a question set handed to one learner.
type Assessment struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Questions   []Question `json:"questions"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Result is the persisted outcome of one submitted assessment. Created
// exactly once at submission time and never mutated.
type Result struct {
	ID              string             `json:"id"`
	UserID          string             `json:"userId"`
	AssessmentID    string             `json:"assessmentId"`
	Answers         []ScoredAnswer     `json:"answers"`
	Scores          DomainScores       `json:"scores"`
	SubtypeCounts   SubtypeCounts      `json:"subtypeCounts"`
	ErrorPatterns   ErrorPatternCounts `json:"errorPatterns"`
	RiskLevel       string             `json:"riskLevel"`
	ConfidenceScore float64            `json:"confidenceScore"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// User roles.
const (
	RoleStudent = "student"
	RoleParent  = "parent"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User is an account in the screening service. GuardianID links a student
// to the parent allowed to view their results.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Age          int       `json:"age,omitempty"`
	Grade        string    `json:"grade,omitempty"`
	Language     string    `json:"language,omitempty"`
	GuardianID   string    `json:"guardianId,omitempty"`
	Consent      bool      `json:"consent"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the authenticated caller, passed explicitly into every
// operation that needs it.
type Identity struct {
	UserID string
	Role   string
}
