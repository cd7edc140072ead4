package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"api_key", "sk-live-123",
		"user_id", "1b6f3c1e-0000-0000-0000-000000000000",
		"code", "Empathy",
		"dangling",
	})
	if len(out) != 7 {
		t.Fatalf("expected 7 entries, got %d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("api_key not redacted: %v", out[1])
	}
	if s, _ := out[3].(string); !strings.HasPrefix(s, "hash:") {
		t.Fatalf("user_id not hashed: %v", out[3])
	}
	if out[5] != "Empathy" {
		t.Fatalf("plain value changed: %v", out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("odd trailing key dropped: %v", out[6])
	}
}

func TestNopLogger(t *testing.T) {
	log := Nop()
	log.With("service", "X").Info("hello", "k", "v")
	log.Sync()
}
