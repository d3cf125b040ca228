package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserErrorFor(t *testing.T) {
	tests := []struct {
		err      error
		wantText string
	}{
		{ErrDailyLimitReached, "Приходи завтра"},
		{ErrBeforeStart, "Ещё рано"},
		{ErrAfterEnd, "Адвент закончился"},
		{fmt.Errorf("resolve: %w", ErrExhaustedContent), "все подарки"},
	}
	for _, tt := range tests {
		err := userErrorFor(tt.err)
		if !errors.Is(err, tt.err) {
			t.Errorf("userErrorFor(%v) lost the cause: %v", tt.err, err)
		}
		if got := getUserMessage(err); !strings.Contains(got, tt.wantText) {
			t.Errorf("getUserMessage(%v) = %q, want it to contain %q", tt.err, got, tt.wantText)
		}
	}
}

func TestGetUserMessage_Fallback(t *testing.T) {
	err := errors.New("database is locked")
	if userErrorFor(err) != err {
		t.Fatal("unknown errors should pass through unchanged")
	}
	if got := getUserMessage(err); strings.Contains(got, "database") {
		t.Fatalf("internal error leaked to the recipient: %q", got)
	}
}
