package diamond

import "errors"

var (
	// ErrInvalidConfig marks configuration problems detected before any descriptor exists.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoiseDomain marks a noise sample outside [-1, 1].
	ErrNoiseDomain = errors.New("noise sample out of domain")
)
