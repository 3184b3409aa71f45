package errors

import (
	"fmt"
	"testing"
)

func TestSuhbaError_Error(t *testing.T) {
	err := &SuhbaError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "profile not found: u1",
	}

	expected := "NOT_FOUND: profile not found: u1"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("requester_id is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "requester_id is required" {
		t.Errorf("Message = %q, want %q", err.Message, "requester_id is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("profile", "u42")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "u42" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "u42")
	}
	if err.Details["kind"] != "profile" {
		t.Errorf("Details[kind] = %v, want %q", err.Details["kind"], "profile")
	}
}

func TestNewInvalidTransition(t *testing.T) {
	err := NewInvalidTransition("c1", "declined", "declined")

	if err.Code != ErrInvalidTransition {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidTransition)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
	if err.Details["from"] != "declined" || err.Details["to"] != "declined" {
		t.Errorf("Details = %v, want from/to declined", err.Details)
	}
}

func TestNewStoreUnavailable(t *testing.T) {
	err := NewStoreUnavailable(fmt.Errorf("context deadline exceeded"))

	if err.Code != ErrStoreUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrStoreUnavailable)
	}
	if err.Status != 503 {
		t.Errorf("Status = %d, want 503", err.Status)
	}
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		err := NewInternal(fmt.Errorf("database connection failed"))

		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Status != 500 {
			t.Errorf("Status = %d, want 500", err.Status)
		}
		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details["internal_error"] != "database connection failed" {
			t.Errorf("Details[internal_error] = %q, want %q", err.Details["internal_error"], "database connection failed")
		}
	})

	t.Run("with nil", func(t *testing.T) {
		err := NewInternal(nil)

		if err.Details == nil {
			t.Error("Details should not be nil")
		}
	})
}

func TestIs(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		if !Is(NewNotFound("profile", "x"), ErrNotFound) {
			t.Error("Is() = false, want true")
		}
	})

	t.Run("non-matching code", func(t *testing.T) {
		if Is(NewNotFound("profile", "x"), ErrConflict) {
			t.Error("Is() = true, want false")
		}
	})

	t.Run("plain error", func(t *testing.T) {
		if Is(fmt.Errorf("plain error"), ErrNotFound) {
			t.Error("Is() = true, want false for plain error")
		}
	})

	t.Run("wrapped", func(t *testing.T) {
		wrapped := fmt.Errorf("candidate u2: %w", NewNotFound("profile", "u2"))
		if !Is(wrapped, ErrNotFound) {
			t.Error("Is() = false, want true for wrapped SuhbaError")
		}
	})
}
