package common

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID generates a UUID with an optional prefix
func GenerateUUID(prefix string) string {
	id := uuid.New()
	if prefix != "" {
		return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(id.String(), "-", ""))
	}
	return id.String()
}

// GenerateShortUUID generates a shorter UUID without dashes
func GenerateShortUUID(prefix string) string {
	id := uuid.New()
	shortID := strings.ReplaceAll(id.String(), "-", "")
	if prefix != "" {
		return fmt.Sprintf("%s_%s", prefix, shortID)
	}
	return shortID
}

// GenerateTransferID generates a token transfer ID with "txn" prefix
func GenerateTransferID() string {
	return GenerateUUID("txn")
}

// GenerateAccountID generates an address-like account ID, e.g. "bank_<uuid>"
func GenerateAccountID(kind string) string {
	return GenerateUUID(kind)
}
