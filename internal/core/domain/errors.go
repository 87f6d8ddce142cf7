package domain

import "errors"

var (
	ErrMarkerNotFound  = errors.New("marker not found")
	ErrInvalidLocation = errors.New("invalid location")
	ErrInvalidFix      = errors.New("invalid fix")
)
