package objectkey

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout formats the key timestamp with second precision.
const TimestampLayout = "20060102150405"

const (
	DefaultPrefix       = "uploads/"
	DefaultSuffixLength = 8
	MinSuffixLength     = 8
	MaxSuffixLength     = 32 // hex digits in a UUID
)

// Generator defines the interface for storage key generation strategies
type Generator interface {
	// GenerateKey creates a storage key for a file about to be uploaded
	GenerateKey(fileName string) (string, error)
}

// IDFunc returns a fresh random identifier.
type IDFunc func() (uuid.UUID, error)

// TimestampGenerator builds keys of the form
// {prefix}{timestamp}_{suffix}[.{ext}], e.g. uploads/20261017093000_1f0c9a2b.jpg.
// Timestamps are always UTC.
type TimestampGenerator struct {
	Prefix       string
	SuffixLength int
	Now          func() time.Time
	NewID        IDFunc
}

func NewTimestampGenerator() *TimestampGenerator {
	return &TimestampGenerator{
		Prefix:       DefaultPrefix,
		SuffixLength: DefaultSuffixLength,
		Now:          time.Now,
		NewID:        uuid.NewRandom,
	}
}

func (g *TimestampGenerator) GenerateKey(fileName string) (string, error) {
	n := g.SuffixLength
	if n == 0 {
		n = DefaultSuffixLength
	}
	if n < MinSuffixLength || n > MaxSuffixLength {
		return "", fmt.Errorf("suffix length must be between %d and %d, got %d", MinSuffixLength, MaxSuffixLength, n)
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	newID := uuid.NewRandom
	if g.NewID != nil {
		newID = g.NewID
	}

	id, err := newID()
	if err != nil {
		return "", fmt.Errorf("failed to generate key suffix: %w", err)
	}
	suffix := strings.ReplaceAll(id.String(), "-", "")[:n]

	key := fmt.Sprintf("%s%s_%s", g.Prefix, now().UTC().Format(TimestampLayout), suffix)
	if ext := Extension(fileName); ext != "" {
		key += "." + ext
	}
	return key, nil
}

// Extension returns the text after the last dot in fileName, verbatim.
// It returns "" when there is no dot.
func Extension(fileName string) string {
	idx := strings.LastIndex(fileName, ".")
	if idx == -1 {
		return ""
	}
	return fileName[idx+1:]
}

// ValidatePrefix checks that a key prefix is usable as an object key prefix.
// Keys must live under a folder, so the prefix must be non-empty and end in '/'.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return errors.New("key prefix must not be empty")
	}
	if !strings.HasSuffix(prefix, "/") {
		return errors.New("key prefix must end with '/'")
	}
	if strings.HasPrefix(prefix, "/") {
		return errors.New("key prefix must not start with '/'")
	}
	if strings.Contains(prefix, "..") {
		return errors.New("key prefix must not contain '..'")
	}
	return nil
}
