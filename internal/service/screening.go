package service

import (
	"fmt"

	"github.com/glebk/moodbot/internal/domain"
)

// ScreeningEngine starts screening sessions and scores their answers
type ScreeningEngine struct {
	bank *domain.QuestionBank
}

// NewScreeningEngine creates an engine over a validated question bank
func NewScreeningEngine(bank *domain.QuestionBank) *ScreeningEngine {
	return &ScreeningEngine{bank: bank}
}

// Kinds returns the available test kinds in bank order
func (e *ScreeningEngine) Kinds() []domain.TestKind {
	kinds := make([]domain.TestKind, 0, len(e.bank.Tests))
	for _, t := range e.bank.Tests {
		kinds = append(kinds, t.Kind)
	}
	return kinds
}

// Disclaimer returns the text shown alongside every screening
func (e *ScreeningEngine) Disclaimer() string {
	return e.bank.Disclaimer
}

// Test returns the question bank of kind
func (e *ScreeningEngine) Test(kind domain.TestKind) (*domain.ScreeningTest, error) {
	test, ok := e.bank.Test(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
	return test, nil
}

// StartSession begins a new session at the first question of kind
func (e *ScreeningEngine) StartSession(kind domain.TestKind) (*ScreeningSession, error) {
	test, err := e.Test(kind)
	if err != nil {
		return nil, err
	}

	return &ScreeningSession{
		test:    test,
		answers: make(map[int]int, len(test.Questions)),
	}, nil
}

// Score sums answers and classifies the sum with the tier table of kind
func (e *ScreeningEngine) Score(kind domain.TestKind, answers []int) (domain.ScoreResult, error) {
	test, err := e.Test(kind)
	if err != nil {
		return domain.ScoreResult{}, err
	}
	return ScoreTest(test, answers)
}

// ScoreTest scores one answer per question of test
func ScoreTest(test *domain.ScreeningTest, answers []int) (domain.ScoreResult, error) {
	if len(answers) != len(test.Questions) {
		return domain.ScoreResult{}, fmt.Errorf("%w: got %d of %d", domain.ErrIncompleteAnswers, len(answers), len(test.Questions))
	}

	raw := 0
	for _, a := range answers {
		raw += a
	}

	tier, err := Classify(test.Tiers, raw)
	if err != nil {
		return domain.ScoreResult{}, fmt.Errorf("test %q: %w", test.Kind, err)
	}

	return domain.ScoreResult{
		Kind:         test.Kind,
		RawScore:     raw,
		MaxScore:     test.MaxScore(),
		Tier:         tier,
		NeedsSupport: tier.NeedsSupport,
	}, nil
}

// Classify returns the first tier containing score
func Classify(tiers []domain.Tier, score int) (domain.Tier, error) {
	for _, t := range tiers {
		if t.Contains(score) {
			return t, nil
		}
	}
	return domain.Tier{}, fmt.Errorf("%w: %d", domain.ErrScoreOutOfRange, score)
}

// SessionState is a value copy of a session's progress
type SessionState struct {
	Kind     domain.TestKind
	Index    int
	Answers  map[int]int
	Complete bool
}

// ScreeningSession walks a test one question at a time.
// It is InProgress(Index) until the last question is answered, then Complete.
type ScreeningSession struct {
	test     *domain.ScreeningTest
	index    int
	answers  map[int]int
	complete bool
}

// Kind returns the session's test kind
func (s *ScreeningSession) Kind() domain.TestKind {
	return s.test.Kind
}

// Title returns the test title
func (s *ScreeningSession) Title() string {
	return s.test.Title
}

// Len returns the number of questions
func (s *ScreeningSession) Len() int {
	return len(s.test.Questions)
}

// Index returns the 0-based cursor
func (s *ScreeningSession) Index() int {
	return s.index
}

// IsComplete reports whether every question has been answered
func (s *ScreeningSession) IsComplete() bool {
	return s.complete
}

// CurrentQuestion returns the question under the cursor; ok is false once
// the session is complete
func (s *ScreeningSession) CurrentQuestion() (q domain.Question, ok bool) {
	if s.complete {
		return domain.Question{}, false
	}
	return s.test.Questions[s.index], true
}

// Selected returns the answer already recorded for the current question
func (s *ScreeningSession) Selected() (int, bool) {
	score, ok := s.answers[s.index]
	return score, ok
}

// Answer records score for the current question and advances
func (s *ScreeningSession) Answer(score int) error {
	if s.complete {
		return domain.ErrSessionComplete
	}

	q := s.test.Questions[s.index]
	if !q.HasScore(score) {
		return fmt.Errorf("%w: question %d, score %d", domain.ErrInvalidAnswer, s.index+1, score)
	}

	s.answers[s.index] = score
	if s.index+1 < len(s.test.Questions) {
		s.index++
	} else {
		s.complete = true
	}

	return nil
}

// GoBack moves to the previous question keeping its answer.
// It returns false, changing nothing, on the first question or when complete.
func (s *ScreeningSession) GoBack() bool {
	if s.complete || s.index == 0 {
		return false
	}
	s.index--
	return true
}

// Answers returns the recorded scores in question order
func (s *ScreeningSession) Answers() []int {
	out := make([]int, 0, len(s.answers))
	for i := 0; i < len(s.test.Questions); i++ {
		score, ok := s.answers[i]
		if !ok {
			break
		}
		out = append(out, score)
	}
	return out
}

// Snapshot copies the session state
func (s *ScreeningSession) Snapshot() SessionState {
	answers := make(map[int]int, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}

	return SessionState{
		Kind:     s.test.Kind,
		Index:    s.index,
		Answers:  answers,
		Complete: s.complete,
	}
}

// Result scores a completed session
func (s *ScreeningSession) Result() (domain.ScoreResult, error) {
	if !s.complete {
		return domain.ScoreResult{}, fmt.Errorf("%w: session at question %d", domain.ErrIncompleteAnswers, s.index+1)
	}
	return ScoreTest(s.test, s.Answers())
}
