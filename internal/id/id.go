// Package id generates short random identifiers with NanoID.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// fileSafeAlphabet avoids characters that are awkward in file names on any
// platform, including case-insensitive filesystems.
const fileSafeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// fileSuffixLen is the length of suffixes produced by FileSuffix.
const fileSuffixLen = 12

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "exp-V1StGXR8_Z5jdHi6B-myT").
//
// Used to correlate log lines for a single export run.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// FileSuffix returns a lowercase alphanumeric token for temporary file names.
func FileSuffix() (string, error) {
	s, err := gonanoid.Generate(fileSafeAlphabet, fileSuffixLen)
	if err != nil {
		return "", fmt.Errorf("generate file suffix: %w", err)
	}
	return s, nil
}
