package domain

import "errors"

var (
	// ErrContentUnavailable is returned when a category is absent or its payload is unreadable.
	ErrContentUnavailable = errors.New("question content unavailable")
	// ErrNoQuestionsAvailable is returned when a session would start with an empty pool.
	ErrNoQuestionsAvailable = errors.New("no questions available")
	// ErrPersistence wraps read/write failures of the persistence provider.
	ErrPersistence = errors.New("persistence failure")
	// ErrInvalidTransition is returned when a session transition is not legal in the current state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrNoOptionSelected is returned by submit when nothing has been selected yet.
	ErrNoOptionSelected = errors.New("no option selected")
	// ErrSessionNotFound is returned when a user has no active quiz session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotFinished is returned when results are requested before the last question is locked.
	ErrSessionNotFinished = errors.New("quiz session not finished")
	// ErrUserNotFound is returned by stores when no user record exists for the key.
	ErrUserNotFound = errors.New("user not found")
	// ErrRecordNotFound is returned by stores when no leaderboard record exists for the key.
	ErrRecordNotFound = errors.New("leaderboard record not found")
	// ErrUnknownWindow indicates an unsupported leaderboard window name.
	ErrUnknownWindow = errors.New("unknown leaderboard window")
	// ErrSkipWrite may be returned from an update callback to leave the stored record untouched.
	ErrSkipWrite = errors.New("skip write")
)
