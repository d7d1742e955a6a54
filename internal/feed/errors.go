package feed

import (
	"errors"

	"github.com/bilgisen/newshub/internal/models"
)

// Category-level failure classes. Source adapters wrap these with %w so the
// processor can map them to a display status.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrTransport     = errors.New("transport error")
	ErrParse         = errors.New("parse error")
	ErrEmptyResult   = errors.New("no qualifying entries")
)

// StatusFor maps a category error to its board status.
func StatusFor(err error) models.Status {
	switch {
	case err == nil:
		return models.StatusOK
	case errors.Is(err, ErrConfiguration):
		return models.StatusConfigError
	case errors.Is(err, ErrTransport):
		return models.StatusTransportError
	case errors.Is(err, ErrParse):
		return models.StatusParseError
	case errors.Is(err, ErrEmptyResult):
		return models.StatusEmpty
	default:
		return models.StatusFailed
	}
}
