// Package domain defines the error model of chanstore.
//
// It contains no IO and is imported by every other layer:
//
//   - DomainError: coded sentinel errors compared with errors.Is
//   - ProviderError: failures reported by a message-channel provider
//   - PartialWriteError: how far a failed delete-then-append write got
package domain
