package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestExecRunnerLogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := execRunner{log: logger}
	_, _, err := r.Run(context.Background(), "definitely-not-a-binary-xyz")
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if !strings.Contains(buf.String(), "ocr.exec.failed") {
		t.Errorf("log output missing exec failure event: %s", buf.String())
	}
}

func TestCapString(t *testing.T) {
	if got := capString("short", 10); got != "short" {
		t.Errorf("capString = %q", got)
	}
	long := strings.Repeat("x", 20)
	got := capString(long, 10)
	if !strings.HasPrefix(got, "xxxxxxxxxx") || !strings.HasSuffix(got, "...(truncated)") {
		t.Errorf("capString = %q", got)
	}
}
