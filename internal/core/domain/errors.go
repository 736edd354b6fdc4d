package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidMode indicates an unknown search mode was requested
	ErrInvalidMode = errors.New("invalid search mode")

	// ErrDataIntegrity indicates collaborators returned inconsistent data,
	// e.g. a chunk whose document does not exist
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrUnsupportedSourceType indicates no text extractor exists for the source type
	ErrUnsupportedSourceType = errors.New("unsupported source type")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")
)
