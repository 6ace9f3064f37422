package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	openFenceRe  = regexp.MustCompile("^```(?:json|JSON)?[ \t]*\r?\n?")
	closeFenceRe = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// ParseError carries the raw model text that failed to decode.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", ErrParse, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ParseJSON strips code fences and decodes the remaining text strictly.
// Numbers decode as json.Number so values round-trip exactly.
func ParseJSON(raw string) (any, error) {
	var v any
	if err := decodeStrict(StripFences(raw), &v); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return v, nil
}

// ExtractArray decodes a JSON array from raw. It trusts the text first and only
// then searches for the outermost balanced [...] block embedded in prose.
func ExtractArray(raw string) ([]any, error) {
	cleaned := StripFences(raw)

	var arr []any
	err := decodeStrict(cleaned, &arr)
	if err == nil {
		return arr, nil
	}

	for start := strings.IndexByte(cleaned, '['); start >= 0; {
		if block := balancedBlock(cleaned[start:], '[', ']'); block != "" {
			arr = nil
			if decodeStrict(block, &arr) == nil {
				return arr, nil
			}
		}
		next := strings.IndexByte(cleaned[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, &ParseError{Raw: raw, Err: err}
}

// DecodeInto parses raw and re-decodes the value into T. lenient selects
// ExtractArray instead of ParseJSON as the first stage.
func DecodeInto[T any](raw string, lenient bool) (T, error) {
	var out T

	var v any
	var err error
	if lenient {
		v, err = ExtractArray(raw)
	} else {
		v, err = ParseJSON(raw)
	}
	if err != nil {
		return out, err
	}

	b, err := json.Marshal(v)
	if err != nil {
		return out, &ParseError{Raw: raw, Err: err}
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, &ParseError{Raw: raw, Err: err}
	}
	return out, nil
}

// StripFences removes a code fence wrapping the whole text. Fence markers
// elsewhere, including inside string literals, are left alone.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !openFenceRe.MatchString(s) {
		return s
	}
	s = openFenceRe.ReplaceAllString(s, "")
	s = closeFenceRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Strings keeps the non-empty string elements of arr, trimmed.
func Strings(arr []any) []string {
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func decodeStrict(s string, v any) error {
	if s == "" {
		return errors.New("empty input")
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

// balancedBlock returns the prefix of s (which starts with open) up to its matching
// close, ignoring brackets inside string literals. It returns "" when unbalanced.
func balancedBlock(s string, open, close byte) string {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
