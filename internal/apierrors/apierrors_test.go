package apierrors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "should map not found", err: NotFound("booking %d not found", 1), want: http.StatusNotFound},
		{name: "should map invalid request", err: InvalidRequest("time is required"), want: http.StatusBadRequest},
		{name: "should map conflict", err: Conflict("slot taken", sql.ErrNoRows), want: http.StatusConflict},
		{name: "should map validation errors", err: NewValidationError("start_time", "invalid"), want: http.StatusBadRequest},
		{name: "should map wrapped api errors", err: fmt.Errorf("create: %w", NotFound("room")), want: http.StatusNotFound},
		{name: "should honour an explicit status", err: NewAPIError(WithKind(KindForbidden), WithHTTPStatusCode(http.StatusUnauthorized)), want: http.StatusUnauthorized},
		{name: "should map unknown errors to internal", err: sql.ErrConnDone, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StatusCode(tt.err); got != tt.want {
				t.Errorf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
