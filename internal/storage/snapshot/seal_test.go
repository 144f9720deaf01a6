package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/chanstore/internal/core/domain"
	"github.com/yndnr/chanstore/pkg/crypto/adaptive"
)

func TestNewSealer_Validation(t *testing.T) {
	_, err := NewSealer("short", "")
	assert.ErrorIs(t, err, ErrPassphraseTooShort)

	_, err = NewSealer("long enough passphrase", "rot13")
	assert.ErrorIs(t, err, adaptive.ErrUnknownCipher)
}

func TestSealer_RoundTrip(t *testing.T) {
	for _, name := range []string{"aes-gcm", "chacha20-poly1305"} {
		t.Run(name, func(t *testing.T) {
			s, err := NewSealer("correct horse battery", name)
			require.NoError(t, err)

			plain, err := Encode(sampleEntries())
			require.NoError(t, err)

			sealed, err := s.Seal(plain)
			require.NoError(t, err)
			assert.True(t, IsSealed(sealed))
			assert.False(t, IsSealed(plain))
			assert.NotContains(t, sealed, "Alice")

			var env map[string]any
			require.NoError(t, json.Unmarshal([]byte(sealed), &env))
			assert.Equal(t, name, env["cipher"])

			opened, err := s.Open(sealed)
			require.NoError(t, err)
			assert.Equal(t, plain, opened)
		})
	}
}

func TestSealer_OtherInstanceSamePassphrase(t *testing.T) {
	writer, err := NewSealer("shared secret phrase", "")
	require.NoError(t, err)
	reader, err := NewSealer("shared secret phrase", "")
	require.NoError(t, err)

	sealed, err := writer.Seal("hello")
	require.NoError(t, err)

	// Different salt per sealer; the envelope carries the writer's.
	opened, err := reader.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "hello", opened)

	// Second open hits the derived-cipher cache.
	opened, err = reader.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "hello", opened)
}

func TestSealer_OpenFailures(t *testing.T) {
	s, err := NewSealer("right passphrase", "")
	require.NoError(t, err)
	wrong, err := NewSealer("wrong passphrase", "")
	require.NoError(t, err)

	sealed, err := s.Seal("secret")
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
	}{
		{"wrong passphrase", func() string { v, _ := wrong.Seal("secret"); return v }()},
		{"plain snapshot", `{"format":"chanstore/snapshot","version":1,"entries":[]}`},
		{"truncated", sealed[:len(sealed)-10]},
		{"bad base64", `{"format":"chanstore/sealed","version":1,"cipher":"aes-gcm","salt":"!!","data":"!!"}`},
		{"unknown cipher", `{"format":"chanstore/sealed","version":1,"cipher":"des","salt":"","data":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Open(tt.text)
			assert.ErrorIs(t, err, domain.ErrSnapshotMalformed)
		})
	}
}
