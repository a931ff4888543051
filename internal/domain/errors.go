package domain

import "errors"

var (
	// ErrSourceUnavailable is returned when the question source failed or sent an unusable payload.
	ErrSourceUnavailable = errors.New("question source unavailable")
	// ErrRateLimited is returned when the question source throttled the request.
	ErrRateLimited = errors.New("question source rate limit exceeded, try again later")
	// ErrSessionExpired is returned when the bearer credential has expired.
	ErrSessionExpired = errors.New("token expired")
	// ErrInvalidSubmission is returned for empty or malformed answer sets.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrInvalidRequest is returned for question requests with unknown parameters.
	ErrInvalidRequest = errors.New("invalid question request")
	// ErrStorageFailure wraps persistence read/write failures.
	ErrStorageFailure = errors.New("storage failure")

	// ErrUnauthenticated is returned for missing or invalid credentials.
	ErrUnauthenticated = errors.New("token is not valid")
	// ErrInvalidCredentials is returned when a login does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned on duplicate registration.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when a user lookup has no match.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoHistory signals that a user has never completed a quiz.
	ErrNoHistory = errors.New("no quiz history found")

	// ErrOptionNotFound indicates a submitted answer is not one of the options.
	ErrOptionNotFound = errors.New("option not found")
	// ErrAlreadyAnswered is returned when the current question already has an answer.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrSessionCompleted is returned for transitions attempted after the last question.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrSessionInProgress is returned when an action needs a completed session.
	ErrSessionInProgress = errors.New("quiz session still in progress")
)
