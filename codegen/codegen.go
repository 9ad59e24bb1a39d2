// Package codegen generates random short codes.
package codegen

import (
	"crypto/rand"
	"errors"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// largest multiple of len(alphabet) that fits in a byte; bytes at or
	// above it are rejected so every symbol is equally likely
	rejectAbove = 256 - 256%len(alphabet)
)

// Generator produces short codes. Implementations are safe for concurrent use.
type Generator interface {
	Generate(length int) (string, error)
}

type alphanumeric struct{}

// NewAlphanumeric returns a Generator drawing uniformly from [A-Za-z0-9]
// using crypto/rand.
func NewAlphanumeric() Generator {
	return alphanumeric{}
}

func (alphanumeric) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}

	code := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)

	for len(code) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			code = append(code, alphabet[int(b)%len(alphabet)])
			if len(code) == length {
				break
			}
		}
	}

	return string(code), nil
}
