package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func logJSON(t *testing.T, msg string, args ...any) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Info(msg, args...)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	return entry
}

func TestRedactSensitive_Keys(t *testing.T) {
	tests := []struct {
		key      string
		value    string
		redacted bool
	}{
		{"passphrase", "correct horse battery", true},
		{"seal_passphrase", "correct horse battery", true},
		{"password", "hunter2", true},
		{"client_secret", "s3cr3t", true},
		{"bot_token", "abc.def", true},
		{"Credential", "x", true},
		{"channel", "guild/storage-for-a-bot", false},
		{"key", "alice", false},
		{"passphrase", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			entry := logJSON(t, "config loaded", tt.key, tt.value)
			got := entry[tt.key]
			if tt.redacted && got != redactedValue {
				t.Errorf("%s = %v, want redacted", tt.key, got)
			}
			if !tt.redacted && got != tt.value {
				t.Errorf("%s = %v, want %q", tt.key, got, tt.value)
			}
		})
	}
}

func TestRedactSensitive_Groups(t *testing.T) {
	entry := logJSON(t, "config loaded",
		slog.Group("seal", slog.String("passphrase", "correct horse battery"), slog.String("cipher", "aes-gcm")))

	seal, ok := entry["seal"].(map[string]any)
	if !ok {
		t.Fatalf("seal group missing: %v", entry)
	}
	if seal["passphrase"] != redactedValue {
		t.Errorf("nested passphrase = %v, want redacted", seal["passphrase"])
	}
	if seal["cipher"] != "aes-gcm" {
		t.Errorf("cipher = %v, want aes-gcm", seal["cipher"])
	}
}

func TestIsSensitiveKey(t *testing.T) {
	if !IsSensitiveKey("SEAL_PASSPHRASE") {
		t.Error("uppercase passphrase key should be sensitive")
	}
	if IsSensitiveKey("workspace") {
		t.Error("workspace should not be sensitive")
	}
}
