package models

import "errors"

// Verification errors. ErrAlreadyUsed and ErrAttemptsExhausted are store
// race-loss signals; the verification service translates them to the
// user-facing errors and never surfaces them raw.
var (
	ErrRateLimitExceeded    = errors.New("too many verification requests, retry later")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired verification code")
	ErrTooManyAttempts      = errors.New("verification attempts exhausted, request a new code")
	ErrAlreadyUsed          = errors.New("verification code already used")
	ErrAttemptsExhausted    = errors.New("verification attempt budget exhausted")
	ErrInvalidPurpose       = errors.New("invalid verification purpose")
)

// Session errors
var (
	ErrSessionExpired  = errors.New("session expired or inactive")
	ErrSessionNotFound = errors.New("session not found")
)

// Account errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserBanned         = errors.New("account is banned")
)

// Credit errors
var (
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// Story and review errors
var (
	ErrStoryNotFound  = errors.New("story not found")
	ErrNodeNotFound   = errors.New("story node not found")
	ErrInvalidChoice  = errors.New("choice does not exist on current node")
	ErrReviewExists   = errors.New("story already reviewed by this user")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrStoryNotPlayed = errors.New("story has no play progress for this user")
)
