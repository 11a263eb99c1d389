// Package errors defines the typed error kinds the query core raises, per
// the error handling design: fatal errors (parse, config, root) propagate to
// the caller; per-file errors (access, parse-tree) are absorbed into the
// predicate truth-value layer and only surface under verbose logging.
package errors

import (
	"fmt"
	"time"
)

// QueryParseError reports a malformed query string with a character (rune)
// position and an expected-token hint. Fatal.
type QueryParseError struct {
	Pos        int
	Expected   string
	Suggestion string
	Underlying error
	Timestamp  time.Time
}

func NewQueryParseError(pos int, expected string, err error) *QueryParseError {
	return &QueryParseError{Pos: pos, Expected: expected, Underlying: err, Timestamp: time.Now()}
}

func (e *QueryParseError) Error() string {
	msg := fmt.Sprintf("query parse error at position %d: expected %s", e.Pos, e.Expected)
	if e.Underlying != nil {
		msg += fmt.Sprintf(": %v", e.Underlying)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *QueryParseError) Unwrap() error { return e.Underlying }

// UnknownPredicateError is raised at parse-finalization when a predicate
// name does not resolve in the registry. Fatal, raised before walking
// begins.
type UnknownPredicateError struct {
	Name       string
	Suggestion string
	Timestamp  time.Time
}

func NewUnknownPredicateError(name, suggestion string) *UnknownPredicateError {
	return &UnknownPredicateError{Name: name, Suggestion: suggestion, Timestamp: time.Now()}
}

func (e *UnknownPredicateError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown predicate %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown predicate %q", e.Name)
}

// InvalidValueError reports an unparsable predicate value: a size or time
// qualifier, a regular expression, or a glob with an invalid escape. Fatal.
type InvalidValueError struct {
	Predicate  string
	Value      string
	Underlying error
	Timestamp  time.Time
}

func NewInvalidValueError(predicate, value string, err error) *InvalidValueError {
	return &InvalidValueError{Predicate: predicate, Value: value, Underlying: err, Timestamp: time.Now()}
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %q for predicate %q: %v", e.Value, e.Predicate, e.Underlying)
}

func (e *InvalidValueError) Unwrap() error { return e.Underlying }

// RootError reports a missing or non-directory root path. Fatal.
type RootError struct {
	Root       string
	Underlying error
	Timestamp  time.Time
}

func NewRootError(root string, err error) *RootError {
	return &RootError{Root: root, Underlying: err, Timestamp: time.Now()}
}

func (e *RootError) Error() string {
	return fmt.Sprintf("root %q is not usable: %v", e.Root, e.Underlying)
}

func (e *RootError) Unwrap() error { return e.Underlying }

// FileAccessError reports a per-file metadata or content read failure.
// Non-fatal: the predicate that triggered it evaluates false and the file
// is excluded; verbose mode logs the cause via internal/debug.
type FileAccessError struct {
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

func NewFileAccessError(path, op string, err error) *FileAccessError {
	return &FileAccessError{Path: path, Operation: op, Underlying: err, Timestamp: time.Now()}
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

func (e *FileAccessError) Unwrap() error { return e.Underlying }

// ParseTreeError reports a language-parser failure for one file. Non-fatal:
// the syntax-tree slot records the failure and all semantic predicates for
// that file evaluate false.
type ParseTreeError struct {
	Path       string
	Language   string
	Underlying error
	Timestamp  time.Time
}

func NewParseTreeError(path, language string, err error) *ParseTreeError {
	return &ParseTreeError{Path: path, Language: language, Underlying: err, Timestamp: time.Now()}
}

func (e *ParseTreeError) Error() string {
	return fmt.Sprintf("parse tree error for %s (%s): %v", e.Path, e.Language, e.Underlying)
}

func (e *ParseTreeError) Unwrap() error { return e.Underlying }

// InterruptError signals external cancellation of an in-progress walk.
type InterruptError struct {
	Timestamp time.Time
}

func NewInterruptError() *InterruptError {
	return &InterruptError{Timestamp: time.Now()}
}

func (e *InterruptError) Error() string { return "search interrupted" }
