package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clubmarket/negotiation-platform/internal/negotiation"
)

func TestWriteNegotiationError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		handled    bool
	}{
		{"not found", negotiation.NewNotFound("offer x not found"), http.StatusNotFound, true},
		{"unauthorized", negotiation.NewUnauthorized("not yours"), http.StatusForbidden, true},
		{"invalid state", negotiation.NewInvalidState("already accepted"), http.StatusConflict, true},
		{"validation", negotiation.NewValidation("negative amount"), http.StatusBadRequest, true},
		{"internal", errors.New("disk full"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			handled := writeNegotiationError(rec, tt.err)
			if handled != tt.handled {
				t.Fatalf("handled = %v, want %v", handled, tt.handled)
			}
			if !tt.handled {
				return
			}

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != tt.err.Error() {
				t.Errorf("error message = %q, want %q", body["error"], tt.err.Error())
			}
		})
	}
}
