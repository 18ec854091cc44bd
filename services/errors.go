package services

import (
	"errors"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/models"
)

// Errors shared by the services and the HTTP error mapping.
var (
	// Validation
	ErrValidationFailed       = errors.New("validation failed")
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrInvalidRoundCount      = errors.New("number of rounds must be positive")
	ErrInvalidCredentials     = errors.New("invalid organizer password")

	// Lookups
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrParticipantNotInRoster = errors.New("participant is not in the roster")
	ErrMatchNotFound          = errors.New("match not found in the current round")

	// Conflicts
	ErrTournamentNameConflict = errors.New("tournament name already exists")
	ErrDuplicateParticipant   = errors.New("participant is already registered")
	ErrRegistrationNotOpen    = errors.New("registration is closed once the first round has started")
	ErrRoundNotReady          = errors.New("round is not ready")
	ErrTournamentComplete     = errors.New("tournament already complete")
	ErrRankingsUnavailable    = errors.New("rankings are available once the tournament is closed")

	// Domain errors surfaced unchanged
	ErrInvalidScore       = models.ErrInvalidScore
	ErrMatchAlreadyClosed = models.ErrMatchAlreadyClosed
	ErrPairingImpossible  = brackets.ErrPairingImpossible

	// The in-memory state was updated but the snapshot could not be saved.
	ErrPersistenceFailed = errors.New("tournament state could not be persisted")
)
