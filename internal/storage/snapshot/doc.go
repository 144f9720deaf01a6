// Package snapshot encodes the full contents of a store into a single
// self-describing text blob and splits that blob into size-bounded chunks.
//
// Format:
//
//	{"format":"chanstore/snapshot","version":1,"entries":[{"k":<key>,"v":<value>},...]}
//
// Entries appear in ascending key order. Concatenating the chunks produced
// by Chunk, in order, yields the exact encoded text; chunk boundaries never
// fall inside a multi-byte UTF-8 sequence.
//
// A Sealer can additionally encrypt the encoded text. Sealed text is again a
// JSON envelope with format "chanstore/sealed", so a reader can always tell
// which of the two it is looking at.
package snapshot
