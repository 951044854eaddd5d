package model

import "errors"

var (
	// ErrConfigurationMissing marks a required contract or object identifier that was not configured.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrFetchFailure marks a transport failure reading an object, an event page or a balance.
	ErrFetchFailure = errors.New("fetch failure")
)
