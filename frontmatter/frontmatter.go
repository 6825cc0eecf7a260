// Package frontmatter splits content files into a metadata block and a
// markdown body.
//
// A document looks like this:
//
//	---
//	title: Kickoff
//	date: 2019-01-05
//	hide
//	---
//	# Kickoff
//
// Metadata lines are "key: value" pairs split on the first colon. A line
// without a colon is a bare key with an empty value, which is how flags
// such as hide are written.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMissingDelimiter is returned when a document does not open with a
	// complete metadata block.
	ErrMissingDelimiter = errors.New("missing front matter delimiter")

	// ErrMissingKey is returned by Require when a key is absent or empty.
	ErrMissingKey = errors.New("missing required key")

	// ErrInvalidValue is returned when a value cannot be converted.
	ErrInvalidValue = errors.New("invalid value")
)

// Delimiter is the marker line that opens and closes the metadata block.
const Delimiter = "---"

// fmRegexp matches a delimiter line.
var fmRegexp = regexp.MustCompile(`(?m)^[ \t]*---[ \t]*\r?$`)

// KeyError describes a problem with a single metadata key.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return e.Key + ": " + e.Err.Error()
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// byteOrderMark is written at the start of UTF-8 files by some editors.
const byteOrderMark = "\ufeff"

// Split separates the metadata block from the body. The body is returned
// byte for byte, starting after the newline that ends the second delimiter.
func Split(b []byte) (meta, body []byte, err error) {
	subs := fmRegexp.Split(strings.TrimPrefix(string(b), byteOrderMark), 3)
	if len(subs) != 3 {
		return nil, nil, ErrMissingDelimiter
	}
	if s := strings.TrimSpace(subs[0]); len(s) > 0 {
		return nil, nil, ErrMissingDelimiter
	}
	rest := subs[2]
	if strings.HasPrefix(rest, "\n") {
		rest = rest[1:]
	}
	return []byte(subs[1]), []byte(rest), nil
}

// Parse splits b and parses the metadata block.
func Parse(b []byte) (*Metadata, []byte, error) {
	meta, body, err := Split(b)
	if err != nil {
		return nil, nil, err
	}
	return parseMetadata(meta), body, nil
}

func parseMetadata(b []byte) *Metadata {
	m := new(Metadata)
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, _ := strings.Cut(line, ":")
		m.Set(key, value)
	}
	return m
}

// Join writes a document with the given metadata and body. Parse(Join(m, body))
// yields m and body again as long as keys contain no colon and values carry
// no surrounding whitespace or newlines.
func Join(m *Metadata, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(Delimiter + "\n")
	for _, k := range m.Keys() {
		v, _ := m.Lookup(k)
		buf.WriteString(k)
		if v != "" {
			buf.WriteString(": ")
			buf.WriteString(v)
		}
		buf.WriteByte('\n')
	}
	buf.WriteString(Delimiter + "\n")
	buf.Write(body)
	return buf.Bytes()
}

// Metadata holds the key/value pairs of a metadata block. Keys are
// case-insensitive and a repeated key replaces the earlier value.
type Metadata struct {
	keys   []string
	values map[string]string
}

// Set stores value under key.
func (m *Metadata) Set(key, value string) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = strings.TrimSpace(value)
}

// Keys returns the keys in the order they first appeared.
func (m *Metadata) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of distinct keys.
func (m *Metadata) Len() int {
	return len(m.keys)
}

// Lookup returns the value for key and whether it was present.
func (m *Metadata) Lookup(key string) (string, bool) {
	v, ok := m.values[strings.ToLower(key)]
	return v, ok
}

// Has reports whether key is present, with or without a value.
func (m *Metadata) Has(key string) bool {
	_, ok := m.Lookup(key)
	return ok
}

// String returns the value for key, or def when the key is absent.
func (m *Metadata) String(key, def string) string {
	if v, ok := m.Lookup(key); ok {
		return v
	}
	return def
}

// Require returns the value for key, failing when it is absent or empty.
func (m *Metadata) Require(key string) (string, error) {
	v, ok := m.Lookup(key)
	if !ok || v == "" {
		return "", &KeyError{Key: key, Err: ErrMissingKey}
	}
	return v, nil
}

// Int returns the integer value for key, or def when the key is absent or empty.
func (m *Metadata) Int(key string, def int) (int, error) {
	v, ok := m.Lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, &KeyError{Key: key, Err: fmt.Errorf("%w: %q is not a number", ErrInvalidValue, v)}
	}
	return n, nil
}

// Date parses the required value for key with layout.
func (m *Metadata) Date(key, layout string) (time.Time, error) {
	v, err := m.Require(key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		return time.Time{}, &KeyError{Key: key, Err: fmt.Errorf("%w: %q does not match %s", ErrInvalidValue, v, layout)}
	}
	return t, nil
}
