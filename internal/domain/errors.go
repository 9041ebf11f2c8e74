package domain

import "errors"

var (
	ErrUnknownMood         = errors.New("unknown mood")
	ErrUnknownKind         = errors.New("unknown screening kind")
	ErrInvalidAnswer       = errors.New("score is not an option of the current question")
	ErrSessionComplete     = errors.New("screening session is already complete")
	ErrIncompleteAnswers   = errors.New("answers do not cover every question")
	ErrScoreOutOfRange     = errors.New("score outside of the tier table")
	ErrInvalidQuestionBank = errors.New("invalid question bank")
)
