package shell

import (
	"strings"
	"testing"
)

func TestRunCapturesOutput(t *testing.T) {
	out, err := Default.RunSilent("sh", "-c", "echo hello; echo world >&2")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"hello", "world"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestRunReportsFailureWithOutput(t *testing.T) {
	_, err := Default.RunSilent("sh", "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("err = %v", err)
	}
}

func TestIsCommandExist(t *testing.T) {
	if !IsCommandExist("sh") {
		t.Error("sh not found")
	}
	if IsCommandExist("definitely-not-a-command-xyz") {
		t.Error("phantom command found")
	}
}
