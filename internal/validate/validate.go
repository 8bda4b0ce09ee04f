// Package validate enforces the identifier and working-directory-path rules
// of spec.md §3 / §4.A. Validators are pure and perform no I/O.
// internal/crud runs the id chain at the start of each operation; for
// put/insert/update/delete that is inside the queued task, so an invalid id
// is reported through the task's outcome after the tasks queued ahead of it
// have run, not before the mutation is enqueued.
package validate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gitdocdb/gitdocdb/internal/gitdocerr"
	"github.com/gitdocdb/gitdocdb/internal/types"
)

// IDValidator checks one rule against a candidate document id.
// Validators are composed with Chain so that callers get the first
// violated rule, not all of them at once.
type IDValidator func(id string) error

// Chain runs validators in order and stops at the first error.
func Chain(validators ...IDValidator) IDValidator {
	return func(id string) error {
		for _, v := range validators {
			if err := v(id); err != nil {
				return err
			}
		}
		return nil
	}
}

// NotEmpty rejects the empty id.
func NotEmpty() IDValidator {
	return func(id string) error {
		if id == "" {
			return fmt.Errorf("%w: id must not be empty", gitdocerr.ErrInvalidIDLength)
		}
		return nil
	}
}

// MaxLength rejects ids longer than max code units. max <= 0 means
// types.DefaultMaxIDLength.
func MaxLength(max int) IDValidator {
	if max <= 0 {
		max = types.DefaultMaxIDLength
	}
	return func(id string) error {
		if len([]rune(id)) > max {
			return fmt.Errorf("%w: id %q exceeds %d characters", gitdocerr.ErrInvalidIDLength, id, max)
		}
		return nil
	}
}

// allowedIDChars reports whether r is permitted anywhere in an id:
// letters, digits, and  _ - . ( ) [ ] /
func allowedIDChars(r rune) bool {
	switch r {
	case '_', '-', '.', '(', ')', '[', ']', '/':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// AllowedCharset rejects any id containing a character outside the
// permitted set.
func AllowedCharset() IDValidator {
	return func(id string) error {
		for _, r := range id {
			if !allowedIDChars(r) {
				return fmt.Errorf("%w: id %q contains disallowed character %q", gitdocerr.ErrInvalidIDCharacter, id, r)
			}
		}
		return nil
	}
}

// NoLeadingUnderscoreOrDot rejects ids starting with '_' or '.'.
func NoLeadingUnderscoreOrDot() IDValidator {
	return func(id string) error {
		if strings.HasPrefix(id, "_") || strings.HasPrefix(id, ".") {
			return fmt.Errorf("%w: id %q must not start with '_' or '.'", gitdocerr.ErrInvalidIDCharacter, id)
		}
		return nil
	}
}

// NoTrailingDotOrSlash rejects ids ending with '.' or '/'.
func NoTrailingDotOrSlash() IDValidator {
	return func(id string) error {
		if strings.HasSuffix(id, ".") || strings.HasSuffix(id, "/") {
			return fmt.Errorf("%w: id %q must not end with '.' or '/'", gitdocerr.ErrInvalidIDCharacter, id)
		}
		return nil
	}
}

// ID returns the standard validator chain for document identifiers
// (spec.md §3), with maxLen <= 0 meaning the default of 64.
func ID(maxLen int) IDValidator {
	return Chain(
		NotEmpty(),
		MaxLength(maxLen),
		AllowedCharset(),
		NoLeadingUnderscoreOrDot(),
		NoTrailingDotOrSlash(),
	)
}

// WorkingDir validates an absolute working-directory path against the
// platform-dependent maximum total length (spec.md §3). maxLen <= 0 means
// types.DefaultWorkingDirPathLength.
func WorkingDir(path string, maxLen int) error {
	if maxLen <= 0 {
		maxLen = types.DefaultWorkingDirPathLength
	}
	if len(path) > maxLen {
		return fmt.Errorf("%w: working directory path %q exceeds %d characters", gitdocerr.ErrInvalidWorkingDirectoryPathLength, path, maxLen)
	}
	return nil
}
