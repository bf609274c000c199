// Package pattern provides the prompt pattern catalog and two-phase matcher
// used to detect interactive prompts in assistant output.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Category controls which scans a pattern participates in.
type Category string

const (
	// CategoryConfirmation marks prompts that ask for user approval.
	CategoryConfirmation Category = "confirmation"
	// CategoryAlways marks patterns scanned on every evaluation.
	CategoryAlways Category = "always"
)

// Kind tags a pattern for policy evaluation.
type Kind string

const (
	// KindGeneric is an ordinary confirmation prompt.
	KindGeneric Kind = "generic"
	// KindTrustRoot is a directory trust prompt.
	KindTrustRoot Kind = "trust-root"
	// KindStartup is a startup/ready detector, accepted exactly once.
	KindStartup Kind = "startup"
)

var (
	// ErrDuplicateID is returned when registering a pattern whose ID is taken.
	ErrDuplicateID = errors.New("pattern id already registered")
	// ErrInvalidPattern is returned when a pattern definition is malformed.
	ErrInvalidPattern = errors.New("invalid pattern")
)

// Response describes what to write to the assistant when a pattern is
// accepted. It is a tagged variant: a single literal, an ordered keystroke
// sequence, or a function of the extracted capture values.
type Response struct {
	literal  string
	sequence []string
	compute  func(captures map[string]string) string
}

// Literal returns a Response that writes a single string.
func Literal(s string) Response {
	return Response{literal: s}
}

// Sequence returns a Response that writes each part in order.
func Sequence(parts ...string) Response {
	return Response{sequence: parts}
}

// Computed returns a Response resolved from capture values at match time.
func Computed(fn func(captures map[string]string) string) Response {
	return Response{compute: fn}
}

// Resolve produces the concrete ordered writes for this response.
func (r Response) Resolve(captures map[string]string) []string {
	switch {
	case r.compute != nil:
		return []string{r.compute(captures)}
	case r.sequence != nil:
		return r.sequence
	case r.literal != "":
		return []string{r.literal}
	default:
		return nil
	}
}

// IsZero reports whether no response is defined.
func (r Response) IsZero() bool {
	return r.literal == "" && r.sequence == nil && r.compute == nil
}

// Pattern is an immutable definition of a detectable prompt shape.
type Pattern struct {
	// ID uniquely identifies the pattern within a registry.
	ID string
	// Regex matches the rendered screen text; named groups become captures.
	Regex string
	// Trigger is an optional literal substring used as a cheap pre-filter,
	// compared case-insensitively so it never gates out text the regex
	// would match. Empty means "always scan".
	Trigger string
	// Category controls scan filtering.
	Category Category
	// Kind tags the pattern for policy evaluation.
	Kind Kind
	// Response is written to the assistant on acceptance.
	Response Response
	// Notify fires a notification when the pattern is decided.
	Notify bool
	// OnceOnly retires the pattern after its first successful auto-accept.
	OnceOnly bool

	re           *regexp.Regexp
	triggerLower string
}

// Validate checks the pattern definition and compiles its regex.
func (p *Pattern) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidPattern)
	}
	if p.Regex == "" {
		return fmt.Errorf("%w: %s: missing regex", ErrInvalidPattern, p.ID)
	}
	re, err := regexp.Compile(p.Regex)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPattern, p.ID, err)
	}
	switch p.Category {
	case "":
		p.Category = CategoryConfirmation
	case CategoryConfirmation, CategoryAlways:
	default:
		return fmt.Errorf("%w: %s: unknown category %q", ErrInvalidPattern, p.ID, p.Category)
	}
	switch p.Kind {
	case "":
		p.Kind = KindGeneric
	case KindGeneric, KindTrustRoot, KindStartup:
	default:
		return fmt.Errorf("%w: %s: unknown kind %q", ErrInvalidPattern, p.ID, p.Kind)
	}
	p.re = re
	p.triggerLower = strings.ToLower(p.Trigger)
	return nil
}

// MatchResult is produced per scan for every regex occurrence. It is
// ephemeral and never persisted.
type MatchResult struct {
	// PatternID identifies the pattern that fired.
	PatternID string
	// Kind is copied from the pattern for policy evaluation.
	Kind Kind
	// MatchedText is the exact text the regex matched.
	MatchedText string
	// Captures holds named capture group values.
	Captures map[string]string
	// Response is the resolved ordered writes for this occurrence.
	Response []string
	// Notify is copied from the pattern.
	Notify bool
	// OnceOnly is copied from the pattern.
	OnceOnly bool
}
