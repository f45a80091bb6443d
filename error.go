package czdb

import (
	"github.com/cz88/czdb-go/internal/czerr"
)

// Error kinds returned by the searcher.  Errors returned from this package
// wrap exactly one of these values, except that [Open] reports an unknown
// [SearchMode] with an error wrapping errors.ErrBadEnumValue from golibs;
// match them with [errors.Is].
const (
	// ErrInvalidAddress means that a queried address could not be parsed or
	// does not match the address family of the database.
	ErrInvalidAddress = czerr.ErrInvalidAddress

	// ErrInvalidKey means that the key could not be decoded or that the
	// decrypted super-block failed its sanity checks.  A wrong key and a
	// mis-encoded key are indistinguishable.
	ErrInvalidKey = czerr.ErrInvalidKey

	// ErrExpired means that the database expiry date is in the past.
	ErrExpired = czerr.ErrExpired

	// ErrCorrupt means that an offset or a length named by the database does
	// not fit into the buffer or violates the format geometry.  During
	// bootstrap it is fatal; on the query path it is local to the query.
	ErrCorrupt = czerr.ErrCorrupt

	// ErrNotFound means that no row of the column index covers the queried
	// address.  It is a normal result class, not a failure of the searcher.
	ErrNotFound = czerr.ErrNotFound

	// ErrCipher means that a decryption yielded data that is not a
	// well-formed plaintext.
	ErrCipher = czerr.ErrCipher

	// ErrClosed means that the searcher has already been closed.
	ErrClosed = czerr.ErrClosed
)
