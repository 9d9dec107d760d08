package core

import "errors"

var (
	// ErrInvalidToken rejects an auth attempt; the connection stays open
	// and the session stays unauthenticated.
	ErrInvalidToken = errors.New("invalid token")

	// ErrRateLimited marks a flood-guard block; the message is dropped
	// and only the sender hears about it.
	ErrRateLimited = errors.New("rate limited")
)
