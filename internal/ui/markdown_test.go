package ui

import (
	"strings"
	"testing"
)

func TestRenderMarkdown_ReturnsStyledOutput(t *testing.T) {
	out := RenderMarkdown("# Maintenance\n\nRebooted on **Tuesday**.\n")
	if out == "" {
		t.Fatal("RenderMarkdown returned empty string")
	}
	if !strings.Contains(out, "Maintenance") {
		t.Errorf("rendered output missing heading; got: %q", out)
	}
}

func TestNotes_NonTTYPassesThrough(t *testing.T) {
	// go test does not attach stdout to a terminal.
	if IsStdoutTTY() {
		t.Skip("stdout is a terminal")
	}
	md := "# raw\n"
	if got := Notes(md); got != md {
		t.Fatalf("Notes should pass through, got %q", got)
	}
}
