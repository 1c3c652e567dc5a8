package callback

import "errors"

var (
	// ErrTokenTooLong means no payload form fits the Telegram 64-byte
	// callback data limit.
	ErrTokenTooLong = errors.New("callback token exceeds wire limit")
	// ErrMalformedToken means the token does not follow the
	// "q_{selector}:{payload}" shape.
	ErrMalformedToken = errors.New("malformed callback token")
	// ErrUnknownReference means a hash payload has no cache entry; the
	// selection expired or predates a restart with a cold cache.
	ErrUnknownReference = errors.New("unknown callback reference")
)
