package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestFieldsAppearInOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New("engine", &buf)

	log.WithField("analysis_id", "a1").WithError(errors.New("boom")).Warn("run failed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["service"] != "engine" {
		t.Fatalf("service field missing: %v", entry)
	}
	if entry["analysis_id"] != "a1" {
		t.Fatalf("analysis_id field missing: %v", entry)
	}
	if entry["error"] != "boom" {
		t.Fatalf("error field missing: %v", entry)
	}
	if entry["message"] != "run failed" {
		t.Fatalf("message missing: %v", entry)
	}
}

func TestSetLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New("engine", &buf)
	log.SetLevel(zerolog.WarnLevel)

	log.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info emitted below level: %s", buf.String())
	}
	log.Warnf("loud %d", 1)
	if buf.Len() == 0 {
		t.Fatalf("warn suppressed")
	}
}
