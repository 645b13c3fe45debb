package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"scankiosk/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Kiosk", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Kiosk:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Kiosk", statusOK, "Running", true)
	if !strings.HasPrefix(got, "\x1b[32m") {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, "\x1b[0m") {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestStatusLinesSummarizesFailures(t *testing.T) {
	report := statusReport{
		Bind: "127.0.0.1:8080",
		Checks: []preflight.Result{
			{Name: "Profile directory", Passed: true, Detail: "/p (readable)"},
			{Name: "Default profile", Detail: "/p/Settings.SF2 (error: does not exist)"},
		},
	}
	lines := statusLines(report, false)
	joined := strings.Join(lines, "\n")
	requireContains(t, joined, "[INFO] Not running")
	requireContains(t, joined, "[ERROR] /p/Settings.SF2 (error: does not exist)")
	requireContains(t, lines[len(lines)-1], "[WARN] 1 of 2 checks failed")
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
