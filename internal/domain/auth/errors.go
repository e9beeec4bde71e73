package auth

import "errors"

var (
	ErrInvalidIdentifier    = errors.New("identifier must be a valid email address or phone number")
	ErrInvalidCode          = errors.New("invalid or expired code")
	ErrTooManyAttempts      = errors.New("too many attempts, request a new code")
	ErrCodeRateLimited      = errors.New("a code was sent recently, wait before requesting another")
	ErrInvalidRefreshToken  = errors.New("invalid or expired refresh token")
	ErrUserNotFound         = errors.New("user not found")
	ErrRefreshTokenRequired = errors.New("refresh token is required")
	ErrDeliveryUnavailable  = errors.New("sign-in codes cannot be delivered to this identifier")
)
