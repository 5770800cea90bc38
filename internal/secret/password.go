// Package secret generates one-time passwords for forced resets.
package secret

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

// DefaultLength gives about 83 bits of entropy over Alphabet.
const DefaultLength = 14

// MinLength is the shortest password the backend accepts.
const MinLength = 8

// Alphabet leaves out characters that are easy to misread when a password
// is read out over the phone: 0/O, 1/l/I.
var Alphabet = []byte("ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789")

// ErrTooShort is returned for a length below MinLength.
var ErrTooShort = errors.New("password length must be at least 8")

// Password returns a random password of length characters from Alphabet.
func Password(length int) (string, error) {
	if length < MinLength {
		return "", ErrTooShort
	}

	// bytes at or above limit are rejected so every character is equally likely
	limit := 256 - (256 % len(Alphabet))

	out := make([]byte, 0, length)
	buf := make([]byte, length*2)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(err, "failed to read random bytes")
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
