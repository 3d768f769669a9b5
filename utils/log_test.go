package utils

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLogStreams(t *testing.T) {
	var ops, diag bytes.Buffer
	SetLogWriters(LogWriters{Ops: &ops, Diag: &diag})
	defer SetLogWriters(LogWriters{Ops: os.Stderr})

	Opsf("ops %d", 1)
	Diagf("diag %s", "two")
	Tracef("dropped")

	if !strings.Contains(ops.String(), "[vismesh] ") || !strings.Contains(ops.String(), "ops 1") {
		t.Errorf("ops stream: got %q", ops.String())
	}
	if !strings.Contains(diag.String(), "diag two") {
		t.Errorf("diag stream: got %q", diag.String())
	}
	if strings.Contains(ops.String()+diag.String(), "dropped") {
		t.Errorf("trace output leaked into another stream")
	}
	if TraceEnabled() {
		t.Errorf("trace stream should be disabled")
	}
}
