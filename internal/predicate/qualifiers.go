package predicate

import (
	"strconv"
	"strings"

	rdumperrors "github.com/rdump-dev/rdump/internal/errors"
)

// splitComparator recognizes the comparator set of §3 (<, >, =, ≤, ≥) —
// both the ASCII two-character spellings and the literal Unicode glyphs —
// at the front of a qualifier value, defaulting to "=" when none is
// present so a bare "1kb" is a convenient shorthand for "=1kb".
func splitComparator(s string) (cmp, rest string) {
	switch {
	case strings.HasPrefix(s, "<="), strings.HasPrefix(s, "≤"):
		return "<=", strings.TrimPrefix(strings.TrimPrefix(s, "<="), "≤")
	case strings.HasPrefix(s, ">="), strings.HasPrefix(s, "≥"):
		return ">=", strings.TrimPrefix(strings.TrimPrefix(s, ">="), "≥")
	case strings.HasPrefix(s, "<"):
		return "<", s[1:]
	case strings.HasPrefix(s, ">"):
		return ">", s[1:]
	case strings.HasPrefix(s, "="):
		return "=", s[1:]
	default:
		return "=", s
	}
}

func splitNumberUnit(s string) (number, unit string) {
	i := 0
	for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	return s[:i], strings.ToLower(strings.TrimSpace(s[i:]))
}

func compareOrdered(cmp string, actual, want float64) bool {
	switch cmp {
	case "<":
		return actual < want
	case ">":
		return actual > want
	case "<=":
		return actual <= want
	case ">=":
		return actual >= want
	default:
		return actual == want
	}
}

// sizeUnitBytes implements the size unit set of §3 with the 1024-based
// multiplier fixed by §9's open-question decision.
func sizeUnitBytes(unit string) (float64, bool) {
	switch unit {
	case "", "b":
		return 1, true
	case "kb":
		return 1024, true
	case "mb":
		return 1024 * 1024, true
	case "gb":
		return 1024 * 1024 * 1024, true
	}
	return 0, false
}

// ParseSize parses a size_qualifier value (§3) into a comparator and a
// byte threshold.
func ParseSize(value string) (cmp string, bytes float64, err error) {
	cmp, rest := splitComparator(strings.TrimSpace(value))
	numStr, unit := splitNumberUnit(strings.TrimSpace(rest))
	num, perr := strconv.ParseFloat(numStr, 64)
	if perr != nil {
		return "", 0, rdumperrors.NewInvalidValueError("size", value, perr)
	}
	mult, ok := sizeUnitBytes(unit)
	if !ok {
		return "", 0, rdumperrors.NewInvalidValueError("size", value, errUnknownUnit(unit))
	}
	return cmp, num * mult, nil
}

// timeUnitSeconds implements the time unit set of §3.
func timeUnitSeconds(unit string) (float64, bool) {
	switch unit {
	case "s":
		return 1, true
	case "m":
		return 60, true
	case "h":
		return 3600, true
	case "d":
		return 86400, true
	case "w":
		return 7 * 86400, true
	case "y":
		return 365 * 86400, true
	}
	return 0, false
}

// ParseTime parses a time_qualifier value (§3) into a comparator, a
// threshold in seconds, and the duration of one unit (used by "=" to
// decide "within one unit of", §4.3).
func ParseTime(value string) (cmp string, seconds, unitSeconds float64, err error) {
	cmp, rest := splitComparator(strings.TrimSpace(value))
	numStr, unit := splitNumberUnit(strings.TrimSpace(rest))
	num, perr := strconv.ParseFloat(numStr, 64)
	if perr != nil {
		return "", 0, 0, rdumperrors.NewInvalidValueError("modified", value, perr)
	}
	unitSeconds, ok := timeUnitSeconds(unit)
	if !ok {
		return "", 0, 0, rdumperrors.NewInvalidValueError("modified", value, errUnknownUnit(unit))
	}
	return cmp, num * unitSeconds, unitSeconds, nil
}

type unitError string

func (e unitError) Error() string { return "unrecognized unit " + strconv.Quote(string(e)) }

func errUnknownUnit(unit string) error { return unitError(unit) }
