// Package czcrypt implements the fixed-block cipher used by the CZDB format:
// AES-128 in electronic-codebook mode over exact multiples of the block
// size, with PKCS#7 padding on the plaintext side.  The format dictates ECB;
// the two call sites are the header super-block and the per-record geo
// suffixes, both of which are short and keyed per database.
package czcrypt

import (
	"crypto/aes"
	"encoding/base64"
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/cz88/czdb-go/internal/czerr"
)

// BlockSize is the cipher block size in bytes.
const BlockSize = aes.BlockSize

// KeySize is the size of the raw key material in bytes.
const KeySize = 16

// ErrPadding is returned by [Unpad] when the plaintext does not end with a
// valid PKCS#7 padding block.  Callers map it to the error kind appropriate
// for their call site.
const ErrPadding errors.Error = "invalid padding"

// NewKey derives the raw cipher key from the user-supplied printable key s.
// s is a standard base64 encoding of a byte block; the first [KeySize]
// decoded bytes are the key.
func NewKey(s string) (key []byte, err error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding key: %w", czerr.ErrInvalidKey)
	}

	if len(b) < KeySize {
		return nil, fmt.Errorf(
			"decoded key is %d bytes, need %d: %w",
			len(b),
			KeySize,
			czerr.ErrInvalidKey,
		)
	}

	return b[:KeySize], nil
}

// Decrypt decrypts ciphertext with key in ECB fashion and returns the
// plaintext, padding included.  The length of ciphertext must be a positive
// multiple of [BlockSize].
func Decrypt(key, ciphertext []byte) (plaintext []byte, err error) {
	if l := len(ciphertext); l == 0 || l%BlockSize != 0 {
		return nil, fmt.Errorf(
			"ciphertext of %d bytes is not a multiple of %d: %w",
			l,
			BlockSize,
			czerr.ErrCipher,
		)
	}

	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, czerr.ErrInvalidKey)
	}

	plaintext = make([]byte, len(ciphertext))
	for i := 0; i < len(ciphertext); i += BlockSize {
		c.Decrypt(plaintext[i:i+BlockSize], ciphertext[i:i+BlockSize])
	}

	return plaintext, nil
}

// Encrypt is the inverse of [Decrypt].  It is only used by test fixtures
// that build database images; the searcher itself never encrypts.
func Encrypt(key, plaintext []byte) (ciphertext []byte, err error) {
	if l := len(plaintext); l == 0 || l%BlockSize != 0 {
		return nil, fmt.Errorf(
			"plaintext of %d bytes is not a multiple of %d: %w",
			l,
			BlockSize,
			czerr.ErrCipher,
		)
	}

	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, czerr.ErrInvalidKey)
	}

	ciphertext = make([]byte, len(plaintext))
	for i := 0; i < len(plaintext); i += BlockSize {
		c.Encrypt(ciphertext[i:i+BlockSize], plaintext[i:i+BlockSize])
	}

	return ciphertext, nil
}

// Pad appends PKCS#7 padding to b up to a multiple of [BlockSize].
func Pad(b []byte) (padded []byte) {
	n := BlockSize - len(b)%BlockSize
	padded = make([]byte, 0, len(b)+n)
	padded = append(padded, b...)
	for range n {
		padded = append(padded, byte(n))
	}

	return padded
}

// Unpad strips the PKCS#7 padding from b.  It returns an error wrapping
// [ErrPadding] when the padding is malformed.
func Unpad(b []byte) (unpadded []byte, err error) {
	if len(b) == 0 || len(b)%BlockSize != 0 {
		return nil, fmt.Errorf("plaintext of %d bytes: %w", len(b), ErrPadding)
	}

	n := int(b[len(b)-1])
	if n == 0 || n > BlockSize {
		return nil, fmt.Errorf("padding of %d bytes: %w", n, ErrPadding)
	}

	for _, pb := range b[len(b)-n:] {
		if pb != byte(n) {
			return nil, fmt.Errorf("inconsistent padding: %w", ErrPadding)
		}
	}

	return b[:len(b)-n], nil
}
