package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestPreview_NoSideEffects(t *testing.T) {
	ctx := context.Background()
	h, fs, _ := newTestHandler(t, testConfig(t, PolicySequential), testContent(t))
	upsertProgress(ctx, h.DB, ProgressRecord{ChatID: testChat, UnlockedIndex: 1, LastOpenDate: mustDate(t, "2025-01-04")})

	var buf bytes.Buffer
	if err := h.preview(ctx, &buf, testChat); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"2025-01-05", "sequential, 4 days", "last open 2025-01-04", "day #2", "media:  video, animation"} {
		if !strings.Contains(out, want) {
			t.Errorf("preview output missing %q:\n%s", want, out)
		}
	}
	if len(fs.sent) != 0 {
		t.Errorf("preview sent messages: %q", fs.log())
	}
	if got := progressOf(t, h).UnlockedIndex; got != 1 {
		t.Errorf("preview changed progress: %d", got)
	}
}

func TestPreview_ReportsOutcome(t *testing.T) {
	cfg := testConfig(t, PolicyWindow)
	cfg.start = mustDate(t, "2025-01-06")
	h, _, _ := newTestHandler(t, cfg, testContent(t))

	var buf bytes.Buffer
	if err := h.preview(context.Background(), &buf, 0); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), ErrBeforeStart.Error()) {
		t.Errorf("preview output:\n%s", buf.String())
	}
}

func TestWriteProgress(t *testing.T) {
	var buf bytes.Buffer
	writeProgress(&buf, []ProgressRecord{
		{ChatID: 1, UnlockedIndex: 2, LastOpenDate: mustDate(t, "2025-01-05")},
		{ChatID: 3},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want header and two rows, got %q", lines)
	}
	if !strings.Contains(lines[1], "2025-01-05") || !strings.HasSuffix(lines[2], "-") {
		t.Errorf("rows = %q", lines[1:])
	}
}

func TestUtils(t *testing.T) {
	if got := dedent("\n\t\tone\n\t\t  two\n"); got != "one\n  two" {
		t.Errorf("dedent = %q", got)
	}
	if got := dedent("\n    a\n\n      b\n    c"); got != "a\n\n  b\nc" {
		t.Errorf("dedent with blank line = %q", got)
	}
	if got := trimString("абвгдеёжз", 6); got != "абв..." {
		t.Errorf("trimString = %q", got)
	}
	if got := trimString("абвгд", 2); got != "..." {
		t.Errorf("trimString short limit = %q", got)
	}
	if got := trimString("абв", 3); got != "абв" {
		t.Errorf("trimString fits = %q", got)
	}
	if got := firstLine("\n  \nДень 1 💌\nmore"); got != "День 1 💌" {
		t.Errorf("firstLine = %q", got)
	}
}
