package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateOfferID validates an offer ID.
func ValidateOfferID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid offer ID format")
	}
	return nil
}

// ValidateNotificationID validates a notification ID.
func ValidateNotificationID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid notification ID format")
	}
	return nil
}

// ValidateContent validates free-text offer content.
func ValidateContent(content string) error {
	if len(content) > 4096 {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}
