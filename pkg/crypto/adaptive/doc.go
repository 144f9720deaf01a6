// Package adaptive provides authenticated encryption for chanstore snapshots.
//
// Supported algorithms:
//
//   - AES-256-GCM: preferred when hardware AES support is available
//   - ChaCha20-Poly1305: fallback for other platforms
//
// Keys are 32 bytes; DeriveKey stretches a passphrase into one with argon2id.
//
// Usage:
//
//	key := adaptive.DeriveKey(passphrase, salt)
//	c, err := adaptive.New(key)
//	sealed, err := c.Encrypt(plaintext, aad)
//	plaintext, err := c.Decrypt(sealed, aad)
package adaptive
