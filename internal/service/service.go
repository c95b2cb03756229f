// Package service holds the domain services: one per feature area, each
// wrapping the store and the external gateways with feature-specific
// validation and response shaping. Services raise *apperr.Error; the HTTP
// layer owns serialization.
package service

import (
	"strings"

	"github.com/google/uuid"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newID() string {
	return uuid.NewString()
}
