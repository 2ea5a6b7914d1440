// Package normalize provides utilities for normalizing user-supplied labels.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DisplayName cleans a user-supplied tag label for display.
//
// Normalization rules:
//  1. Compose to Unicode NFC so visually identical input compares equal
//  2. Trim leading/trailing whitespace
//  3. Collapse internal whitespace runs to a single space
//
// Casing and punctuation are preserved.
func DisplayName(input string) string {
	s := norm.NFC.String(input)
	return strings.Join(strings.Fields(s), " ")
}

// TagName converts a user-supplied label to the canonical day-tag name.
// The name is the source of truth for tag identity.
//
// It applies DisplayName and then Unicode case folding, so
// "  Vitamin   D " and "VITAMIN D" both become "vitamin d".
//
// Examples:
//
//	"Ibuprofen"        → "ibuprofen"
//	"  Low  FODMAP "   → "low fodmap"
//	"Grüße"            → "grüsse"
//	"   "              → ""
func TagName(input string) string {
	// A Caser holds state; build one per call.
	return cases.Fold().String(DisplayName(input))
}
