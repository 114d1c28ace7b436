package realip

import (
	"errors"
	"fmt"
	"strings"
)

// errStopScan ends a segment scan early without reporting a failure.
var errStopScan = errors.New("stop scan")

// leftmostForwardedFor returns the for= value of the left-most RFC 7239
// element. Later elements are never consulted, so ok is false when the first
// element has no for= parameter. Malformed input yields ok == false.
func leftmostForwardedFor(value string) (forwardedFor string, ok bool) {
	err := scanForwardedSegments(value, ',', func(element string) error {
		v, _, err := forwardedElementFor(element)
		if err != nil {
			return err
		}

		forwardedFor = v
		return errStopScan
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return "", false
	}

	return forwardedFor, forwardedFor != ""
}

// forwardedElementFor returns the for parameter of a single element. Names
// are matched case-insensitively and a repeated for parameter is an error.
func forwardedElementFor(element string) (forwardedFor string, hasFor bool, err error) {
	err = scanForwardedSegments(element, ';', func(param string) error {
		key, value, found := strings.Cut(param, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !found || key == "" || value == "" {
			return fmt.Errorf("invalid forwarded parameter %q", param)
		}

		if !strings.EqualFold(key, "for") {
			return nil
		}
		if hasFor {
			return fmt.Errorf("duplicate for parameter in element %q", element)
		}

		if value[0] == '"' {
			value, err = unquoteForwardedValue(value)
			if err != nil {
				return err
			}
		}

		forwardedFor = strings.TrimSpace(value)
		hasFor = forwardedFor != ""
		return nil
	})

	return forwardedFor, hasFor, err
}

// scanForwardedSegments splits value by delimiter, ignoring delimiters inside
// quoted strings.
func scanForwardedSegments(value string, delimiter byte, onSegment func(string) error) error {
	start := 0
	inQuotes := false
	escaped := false

	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inQuotes:
			escaped = true
		case ch == '"':
			inQuotes = !inQuotes
		case ch == delimiter && !inQuotes:
			if segment := strings.TrimSpace(value[start:i]); segment != "" {
				if err := onSegment(segment); err != nil {
					return err
				}
			}
			start = i + 1
		}
	}

	if inQuotes || escaped {
		return fmt.Errorf("unterminated quoted string in %q", value)
	}

	if segment := strings.TrimSpace(value[start:]); segment != "" {
		return onSegment(segment)
	}
	return nil
}

// unquoteForwardedValue strips the quotes of an RFC 7230 quoted-string and
// resolves backslash escapes.
func unquoteForwardedValue(value string) (string, error) {
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return "", fmt.Errorf("invalid quoted string %q", value)
	}

	var b strings.Builder
	b.Grow(len(value) - 2)
	escaped := false

	for i := 1; i < len(value)-1; i++ {
		ch := value[i]
		switch {
		case escaped:
			b.WriteByte(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			return "", fmt.Errorf("unexpected quote in %q", value)
		default:
			b.WriteByte(ch)
		}
	}

	if escaped {
		return "", fmt.Errorf("unterminated escape in %q", value)
	}

	return b.String(), nil
}
