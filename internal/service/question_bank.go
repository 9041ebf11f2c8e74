package service

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/glebk/moodbot/internal/domain"
)

//go:embed questions.yaml
var defaultQuestionBank []byte

// LoadQuestionBank reads a question bank from path, or the built-in bank when
// path is empty
func LoadQuestionBank(path string) (*domain.QuestionBank, error) {
	if path == "" {
		return ParseQuestionBank(defaultQuestionBank)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank: %w", err)
	}

	return ParseQuestionBank(data)
}

// ParseQuestionBank decodes and validates a YAML question bank
func ParseQuestionBank(data []byte) (*domain.QuestionBank, error) {
	var bank domain.QuestionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to unmarshal question bank YAML: %w", err)
	}

	if err := ValidateQuestionBank(&bank); err != nil {
		return nil, err
	}

	return &bank, nil
}

// ValidateQuestionBank checks that every test can be walked and scored:
// questions have distinct non-negative option scores, and tiers are ordered,
// contiguous and cover exactly 0..MaxScore.
func ValidateQuestionBank(bank *domain.QuestionBank) error {
	if len(bank.Tests) == 0 {
		return fmt.Errorf("%w: no tests", domain.ErrInvalidQuestionBank)
	}

	seen := make(map[domain.TestKind]bool, len(bank.Tests))
	for i := range bank.Tests {
		test := &bank.Tests[i]
		if strings.TrimSpace(string(test.Kind)) == "" {
			return fmt.Errorf("%w: test %d has no kind", domain.ErrInvalidQuestionBank, i)
		}
		if seen[test.Kind] {
			return fmt.Errorf("%w: duplicate test %q", domain.ErrInvalidQuestionBank, test.Kind)
		}
		seen[test.Kind] = true

		if err := validateQuestions(test); err != nil {
			return err
		}
		if err := validateTiers(test); err != nil {
			return err
		}
	}

	return nil
}

func validateQuestions(test *domain.ScreeningTest) error {
	if len(test.Questions) == 0 {
		return fmt.Errorf("%w: test %q has no questions", domain.ErrInvalidQuestionBank, test.Kind)
	}

	for qi, q := range test.Questions {
		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("%w: test %q question %d has no prompt", domain.ErrInvalidQuestionBank, test.Kind, qi+1)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: test %q question %d has no options", domain.ErrInvalidQuestionBank, test.Kind, qi+1)
		}

		scores := make(map[int]bool, len(q.Options))
		for _, o := range q.Options {
			if o.Score < 0 {
				return fmt.Errorf("%w: test %q question %d has negative score %d", domain.ErrInvalidQuestionBank, test.Kind, qi+1, o.Score)
			}
			if scores[o.Score] {
				return fmt.Errorf("%w: test %q question %d repeats score %d", domain.ErrInvalidQuestionBank, test.Kind, qi+1, o.Score)
			}
			scores[o.Score] = true
		}
	}

	return nil
}

func validateTiers(test *domain.ScreeningTest) error {
	if len(test.Tiers) == 0 {
		return fmt.Errorf("%w: test %q has no tiers", domain.ErrInvalidQuestionBank, test.Kind)
	}

	next := 0
	for _, tier := range test.Tiers {
		if tier.Min != next {
			return fmt.Errorf("%w: test %q tier %q starts at %d, want %d", domain.ErrInvalidQuestionBank, test.Kind, tier.Name, tier.Min, next)
		}
		if tier.Max < tier.Min {
			return fmt.Errorf("%w: test %q tier %q ends before it starts", domain.ErrInvalidQuestionBank, test.Kind, tier.Name)
		}
		next = tier.Max + 1
	}

	if maxScore := test.MaxScore(); next-1 != maxScore {
		return fmt.Errorf("%w: test %q tiers end at %d, max score is %d", domain.ErrInvalidQuestionBank, test.Kind, next-1, maxScore)
	}

	return nil
}
