package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestNewAddsRequestIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug").With("component", "test")

	logger.InfoContext(WithRequestID(context.Background(), "req-7"), "hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v (%s)", err, buf.String())
	}
	if line["request_id"] != "req-7" || line["component"] != "test" {
		t.Fatalf("unexpected line %v", line)
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "verbose")
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug must be filtered at info level: %s", buf.String())
	}
}
