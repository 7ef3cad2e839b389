package middleware

import (
	"strings"
	"testing"
)

func TestValidateOfferID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid v7", "018f0000-0000-7000-8000-000000000001", false},
		{"valid v4", "f47ac10b-58cc-4372-a567-0e02b2c3d479", false},
		{"empty", "", true},
		{"not a uuid", "abc123", true},
		{"sql injection attempt", "1' OR '1'='1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOfferID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOfferID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"empty", "", false},
		{"normal", "would you take 20 for it?", false},
		{"at limit", strings.Repeat("a", 4096), false},
		{"over limit", strings.Repeat("a", 4097), true},
		{"invalid utf8", string([]byte{0xff, 0xfe}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContent(tt.content)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateContent error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
