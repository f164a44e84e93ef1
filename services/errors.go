package services

import "errors"

var (
	// ErrUpstream means the datastore read failed
	ErrUpstream = errors.New("upstream read failed")
	// ErrNotFound means the episode or category does not exist or is not visible
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput means a required identifier is missing
	ErrInvalidInput = errors.New("invalid input")
	// ErrRenderUnavailable means the static HTML shell could not be read
	ErrRenderUnavailable = errors.New("render unavailable")
)
