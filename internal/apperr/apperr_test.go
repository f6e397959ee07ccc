package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfUnwrapsChains(t *testing.T) {
	base := NotFound("exam %d not found", 7)
	wrapped := fmt.Errorf("loading exam: %w", base)

	if got := KindOf(wrapped); got != KindNotFound {
		t.Errorf("KindOf(wrapped) = %s, want %s", got, KindNotFound)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("KindOf(plain) = %s, want %s", got, KindInternal)
	}
	if !Is(wrapped, KindNotFound) {
		t.Error("Is(wrapped, NOT_FOUND) = false")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad payload"), http.StatusBadRequest},
		{Forbidden("not yours"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{InvalidTransition("DRAFT", "ACTIVE"), http.StatusConflict},
		{ExamNotActive("closed"), http.StatusConflict},
		{AttemptNotActive("finished"), http.StatusConflict},
		{MaxAttemptsExceeded("cap"), http.StatusConflict},
		{AlreadySubmitted("done"), http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
