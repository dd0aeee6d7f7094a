package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidID        = errors.New("invalid identifier")
	ErrEmptyQuery       = errors.New("empty query")
	ErrEmptyMessage     = errors.New("empty message")
	ErrNotFound         = errors.New("not found")
	ErrOrderMismatch    = errors.New("order does not belong to user")
	ErrAlreadyCancelled = errors.New("order is already cancelled")
	ErrInvalidStatus    = errors.New("invalid order status")
	ErrInvalidRange     = errors.New("invalid range")
	ErrRankingFailed    = errors.New("ranking failed")
	ErrGenerationFailed = errors.New("generation failed")
	ErrUnauthorized     = errors.New("unauthorized")
)

// ParseID returns the canonical form of a well-formed identifier.
func ParseID(s string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidID
	}
	return id.String(), nil
}
