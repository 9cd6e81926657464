package services

import "errors"

// Shared errors across services, mapped to HTTP status codes in handlers.
var (
	// Not-found family: terminal for the request.
	ErrNotFound           = errors.New("requested resource not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrCourtNotFound      = errors.New("court not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrDrawNotFound       = errors.New("no draw has been generated for this tournament")

	// Validation and business rules: recoverable, the caller fixes the input.
	ErrValidationFailed       = errors.New("validation failed")
	ErrInvalidSchedule        = errors.New("court and scheduled time are both required")
	ErrByeMatchImmutable      = errors.New("bye matches resolve automatically and cannot receive a score")
	ErrMatchNotYetDecidable   = errors.New("match sides are not decided yet")
	ErrNoScoreToCorrect       = errors.New("match has no completed score to correct")
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrTournamentInvalidDates = errors.New("tournament end date must be after start date")
	ErrPlayerNamesRequired    = errors.New("both player names are required for registration")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrRegistrationClosed     = errors.New("registration is closed once a draw exists")

	// Conflicts: recoverable by choosing a different action, never auto-retried.
	ErrDrawAlreadyExists       = errors.New("draw already exists for this tournament")
	ErrTournamentNameConflict  = errors.New("tournament name already exists")
	ErrCourtNameConflict       = errors.New("court name already exists")
	ErrMatchAlreadyCompleted   = errors.New("match already has a different completed score, use the correction flow")
	ErrDownstreamAlreadyPlayed = errors.New("cannot change the winner: the next-round match has already been played")
	ErrConcurrentModification  = errors.New("match was modified concurrently, retry the request")

	// Authentication.
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
)
