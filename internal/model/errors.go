package model

import (
	"errors"
)

var (
	ErrNoSecurity   = errors.New("security not found")
	ErrNoBreaker    = errors.New("breaker status not found")
	ErrMissingScore = errors.New("missing risk score")
	ErrInvalidScore = errors.New("risk score is not a string")
)
