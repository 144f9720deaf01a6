package snapshot

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yndnr/chanstore/internal/core/domain"
	"github.com/yndnr/chanstore/pkg/crypto/adaptive"
)

// SealedFormat tags encrypted snapshots.
const SealedFormat = "chanstore/sealed"

// MinPassphraseLength is the shortest passphrase NewSealer accepts.
const MinPassphraseLength = 8

// ErrPassphraseTooShort is returned by NewSealer.
var ErrPassphraseTooShort = errors.New("snapshot: passphrase must be at least 8 characters")

var sealAAD = []byte(SealedFormat + "/v1")

type sealedEnvelope struct {
	Format  string `json:"format"`
	Version int    `json:"version"`
	Cipher  string `json:"cipher"`
	Salt    string `json:"salt"`
	Data    string `json:"data"`
}

// Sealer encrypts snapshot text with a passphrase-derived key.
//
// The salt is chosen once per Sealer and stored in every envelope it
// writes, so any Sealer built from the same passphrase can open them.
type Sealer struct {
	passphrase string
	cipherType adaptive.CipherType
	salt       []byte
	cipher     adaptive.Cipher

	// opened caches ciphers derived for foreign salts, keyed by salt+type.
	mu     sync.Mutex
	opened map[string]adaptive.Cipher
}

// NewSealer derives a key from passphrase. cipherName may be empty to use
// the platform's preferred algorithm.
func NewSealer(passphrase, cipherName string) (*Sealer, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooShort
	}
	typ, err := adaptive.ParseType(cipherName)
	if err != nil {
		return nil, err
	}
	salt, err := adaptive.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("snapshot: salt: %w", err)
	}
	c, err := adaptive.NewWithType(adaptive.DeriveKey(passphrase, salt), typ)
	if err != nil {
		return nil, err
	}

	return &Sealer{
		passphrase: passphrase,
		cipherType: typ,
		salt:       salt,
		cipher:     c,
		opened:     make(map[string]adaptive.Cipher),
	}, nil
}

// Seal encrypts text into a sealed envelope.
func (s *Sealer) Seal(text string) (string, error) {
	data, err := s.cipher.Encrypt([]byte(text), sealAAD)
	if err != nil {
		return "", fmt.Errorf("snapshot: seal: %w", err)
	}
	out, err := json.Marshal(sealedEnvelope{
		Format:  SealedFormat,
		Version: Version,
		Cipher:  string(s.cipherType),
		Salt:    base64.StdEncoding.EncodeToString(s.salt),
		Data:    base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return "", fmt.Errorf("snapshot: seal: %w", err)
	}
	return string(out), nil
}

// Open decrypts a sealed envelope. A wrong passphrase, a damaged envelope
// or plain (unsealed) text yield domain.ErrSnapshotMalformed.
func (s *Sealer) Open(text string) (string, error) {
	var env sealedEnvelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return "", malformed(err)
	}
	if env.Format != SealedFormat {
		return "", malformed(fmt.Errorf("unexpected format %q", env.Format))
	}
	if env.Version != Version {
		return "", malformed(fmt.Errorf("unsupported version %d", env.Version))
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return "", malformed(fmt.Errorf("salt: %w", err))
	}
	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return "", malformed(fmt.Errorf("data: %w", err))
	}

	c, err := s.cipherFor(salt, adaptive.CipherType(env.Cipher))
	if err != nil {
		return "", malformed(err)
	}
	plain, err := c.Decrypt(data, sealAAD)
	if err != nil {
		return "", domain.ErrSnapshotMalformed.WithDetails("wrong passphrase or corrupted data").Wrap(err)
	}
	return string(plain), nil
}

// IsSealed reports whether text looks like a sealed envelope.
func IsSealed(text string) bool {
	return strings.HasPrefix(text, `{"format":"`+SealedFormat+`"`)
}

func (s *Sealer) cipherFor(salt []byte, typ adaptive.CipherType) (adaptive.Cipher, error) {
	if typ == s.cipherType && string(salt) == string(s.salt) {
		return s.cipher, nil
	}

	cacheKey := string(salt) + "|" + string(typ)

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.opened[cacheKey]; ok {
		return c, nil
	}
	c, err := adaptive.NewWithType(adaptive.DeriveKey(s.passphrase, salt), typ)
	if err != nil {
		return nil, err
	}
	s.opened[cacheKey] = c
	return c, nil
}
