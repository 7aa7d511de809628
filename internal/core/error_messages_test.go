package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"duplicate key", errors.New("ERROR: duplicate key value violates unique constraint"), "DB001"},
		{"unique constraint", errors.New("unique constraint violated"), "DB002"},
		{"foreign key", errors.New("insert violates foreign key constraint"), "DB003"},
		{"connection refused", errors.New("dial tcp: connection refused"), "DB004"},
		{"not found sentinel", fmt.Errorf("update users/7: %w", ErrNotFound), "REC003"},
		{"missing id sentinel", fmt.Errorf("row 2: %w", ErrMissingID), "REC002"},
		{"unsaved edits sentinel", fmt.Errorf("row 1: %w", ErrUnsavedEdits), "REC004"},
		{"partial save", errors.New("2 of 3 rows failed to save"), "REC001"},
		{"invalid number", ValidationError{Field: "price", Message: "invalid number format"}, "VAL002"},
		{"required", ValidationError{Field: "name", Message: "value is required"}, "VAL003"},
		{"email", ValidationError{Field: "email", Message: "invalid email address"}, "VAL004"},
		{"unknown column", fmt.Errorf("sort: %w: nope", ErrUnknownColumn), "VAL007"},
		{"deadline", fmt.Errorf("failed to fetch data from users: %w", context.DeadlineExceeded), "NET001"},
		{"canceled", context.Canceled, "NET002"},
		{"fetch", errors.New("failed to fetch data from users: 500"), "NET003"},
		{"unknown table", fmt.Errorf("%w: widgets", ErrUnknownTable), "TBL001"},
		{"busy importer", ErrTooManyImports, "IMP001"},
		{"no audit trail", errors.New("audit trail is not enabled"), "AUD001"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"unknown falls back", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
		})
	}
}

func TestMapError_CaseInsensitive(t *testing.T) {
	if got := MapError(errors.New("DUPLICATE KEY")).Code; got != "DB001" {
		t.Errorf("MapError(DUPLICATE KEY).Code = %q, want DB001", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true")
	}
	if !IsUserFacing(ErrMissingID) {
		t.Error("IsUserFacing(ErrMissingID) = false")
	}
	if IsUserFacing(errors.New("weird")) {
		t.Error("IsUserFacing(weird) = true")
	}
}

func TestIsPrecondition(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrMissingID, true},
		{fmt.Errorf("row 3: %w", ErrNotFound), true},
		{fmt.Errorf("row 1: %w", ErrUnsavedEdits), true},
		{errors.New("boom"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsPrecondition(tt.err); got != tt.want {
			t.Errorf("IsPrecondition(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
