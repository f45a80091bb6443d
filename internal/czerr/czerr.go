// Package czerr contains the common error values shared by the CZDB searcher
// packages.  The root package re-exports them, so callers outside of this
// module should use the constants from package czdb instead.
package czerr

import "github.com/AdguardTeam/golibs/errors"

const (
	// ErrInvalidAddress is returned when a queried address cannot be parsed
	// or does not match the address family of the database.
	ErrInvalidAddress errors.Error = "invalid address"

	// ErrInvalidKey is returned when the user key cannot be decoded or when
	// the decrypted super-block fails its sanity checks.  A wrong key and a
	// mis-encoded key are indistinguishable.
	ErrInvalidKey errors.Error = "invalid key"

	// ErrExpired is returned when the database expiry date is in the past.
	ErrExpired errors.Error = "database expired"

	// ErrCorrupt is returned when an offset or a length named by the database
	// does not fit into the backing buffer or violates the format geometry.
	ErrCorrupt errors.Error = "corrupt database"

	// ErrNotFound is returned when no row of the column index covers the
	// queried address.
	ErrNotFound errors.Error = "region not found"

	// ErrCipher is returned when a decryption yields data that is not a
	// well-formed plaintext.
	ErrCipher errors.Error = "cipher failure"

	// ErrClosed is returned from operations on a searcher that has already
	// been closed.
	ErrClosed errors.Error = "searcher is closed"
)
