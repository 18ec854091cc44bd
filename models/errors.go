package models

import "errors"

var (
	ErrInvalidScore       = errors.New("invalid score: expected 1-0, 0-1 or 0.5-0.5")
	ErrMatchAlreadyClosed = errors.New("match result already recorded")
)
