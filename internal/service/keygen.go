package service

import (
	"crypto/rand"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Key formats accepted by NewKeyGenerator.
const (
	KeyFormatShort = "short"
	KeyFormatUUID  = "uuid"
)

// DefaultKeyLength is the length of keys produced by the short format.
const DefaultKeyLength = 10

const keyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// KeyGenerator produces job keys. Keys are expected to be unique in practice;
// no generator checks for collisions.
type KeyGenerator interface {
	NewKey() (string, error)
}

// KeyGeneratorFunc adapts a function to the KeyGenerator interface.
type KeyGeneratorFunc func() (string, error)

// NewKey calls f.
func (f KeyGeneratorFunc) NewKey() (string, error) {
	return f()
}

// RandomKeyGenerator produces short alphanumeric keys from crypto/rand.
type RandomKeyGenerator struct {
	Length int
}

// NewKey returns a random key of g.Length characters.
func (g RandomKeyGenerator) NewKey() (string, error) {
	n := g.Length
	if n <= 0 {
		n = DefaultKeyLength
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random bytes for job key")
	}
	// Modulo bias is accepted.
	for i, b := range buf {
		buf[i] = keyAlphabet[int(b)%len(keyAlphabet)]
	}
	return string(buf), nil
}

// UUIDKeyGenerator produces random (version 4) UUID keys.
type UUIDKeyGenerator struct{}

// NewKey returns a new UUID string.
func (UUIDKeyGenerator) NewKey() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Wrap(err, "generate uuid job key")
	}
	return id.String(), nil
}

// NewKeyGenerator returns the generator for format. Length applies to the
// short format only.
func NewKeyGenerator(format string, length int) (KeyGenerator, error) {
	switch format {
	case "", KeyFormatShort:
		return RandomKeyGenerator{Length: length}, nil
	case KeyFormatUUID:
		return UUIDKeyGenerator{}, nil
	default:
		return nil, errors.WithHint(
			errors.Newf("unknown key format %q", format),
			"use \"short\" or \"uuid\"",
		)
	}
}
