package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrMalformedOutput = errors.New("model output is malformed")
	ErrValidation      = errors.New("validation failed")
	ErrNothingUsable   = errors.New("primary strategy produced nothing usable")
)
