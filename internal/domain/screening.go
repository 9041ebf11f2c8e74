package domain

// TestKind identifies a screening questionnaire
type TestKind string

const (
	TestDepression TestKind = "depression"
	TestAnxiety    TestKind = "anxiety"
)

// Option is one selectable answer of a question
type Option struct {
	Label string `yaml:"label"`
	Score int    `yaml:"score"`
}

// Question is a single screening prompt with its ordered options
type Question struct {
	Prompt  string   `yaml:"prompt"`
	Options []Option `yaml:"options"`
}

// HasScore reports whether score belongs to one of the question's options
func (q Question) HasScore(score int) bool {
	for _, o := range q.Options {
		if o.Score == score {
			return true
		}
	}
	return false
}

// MaxScore returns the highest option score of the question
func (q Question) MaxScore() int {
	highest := 0
	for _, o := range q.Options {
		if o.Score > highest {
			highest = o.Score
		}
	}
	return highest
}

// Tier is an inclusive score range with its interpretation
type Tier struct {
	Name         string `yaml:"name"`
	Min          int    `yaml:"min"`
	Max          int    `yaml:"max"`
	Title        string `yaml:"title"`
	Message      string `yaml:"message"`
	NeedsSupport bool   `yaml:"needs_support"`
}

// Contains reports whether score falls inside the tier
func (t Tier) Contains(score int) bool {
	return score >= t.Min && score <= t.Max
}

// ScreeningTest is the fixed question bank and tier table of one kind
type ScreeningTest struct {
	Kind      TestKind   `yaml:"kind"`
	Title     string     `yaml:"title"`
	Questions []Question `yaml:"questions"`
	Tiers     []Tier     `yaml:"tiers"`
}

// MaxScore is the number of questions times the highest option score
func (t *ScreeningTest) MaxScore() int {
	maxOption := 0
	for _, q := range t.Questions {
		if m := q.MaxScore(); m > maxOption {
			maxOption = m
		}
	}
	return len(t.Questions) * maxOption
}

// QuestionBank holds every available screening test
type QuestionBank struct {
	Disclaimer string          `yaml:"disclaimer"`
	Tests      []ScreeningTest `yaml:"tests"`
}

// Test returns the test of the given kind
func (b *QuestionBank) Test(kind TestKind) (*ScreeningTest, bool) {
	for i := range b.Tests {
		if b.Tests[i].Kind == kind {
			return &b.Tests[i], true
		}
	}
	return nil, false
}

// ScoreResult is the classification of a completed screening
type ScoreResult struct {
	Kind         TestKind
	RawScore     int
	MaxScore     int
	Tier         Tier
	NeedsSupport bool
}
