package core

// Error codes surfaced to clients through the wire protocol.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotJoined   = "not_joined"
	ErrCodeRateLimited = "rate_limited"
)
