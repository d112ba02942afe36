// ABOUTME: Tests for the version command
// ABOUTME: Verifies version info display and SetVersion wiring
package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCmd_Output(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2026-01-02")
	defer SetVersion("dev", "none", "unknown")

	cmd := NewVersionCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	out := output.String()
	for _, want := range []string{"docchat 1.2.3", "Commit: abc123", "Built:  2026-01-02"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionCmd_Defaults(t *testing.T) {
	cmd := NewVersionCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !strings.Contains(output.String(), "docchat dev") {
		t.Errorf("expected dev version, got:\n%s", output.String())
	}
}
