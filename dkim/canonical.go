package dkim

import (
	"fmt"
	"strings"
)

// Canonicalization identifies a header or body canonicalization algorithm
// per RFC 4871 Section 3.4.
type Canonicalization uint8

const (
	// Simple tolerates almost no modification of the message in transit.
	Simple Canonicalization = iota

	// Relaxed tolerates whitespace changes and header field name case
	// changes.
	Relaxed
)

type canonicalizer struct {
	name   string
	header func(name, value string) string
	body   func(body string) string
}

var canonicalizers = [...]canonicalizer{
	Simple: {
		name:   "simple",
		header: simpleHeader,
		body:   simpleBody,
	},
	Relaxed: {
		name:   "relaxed",
		header: relaxedHeader,
		body:   relaxedBody,
	},
}

// Canonicalizations returns all supported canonicalizations.
func Canonicalizations() []Canonicalization {
	return []Canonicalization{Simple, Relaxed}
}

// ParseCanonicalization returns the canonicalization with the given name.
// Names are matched case-insensitively.
func ParseCanonicalization(name string) (Canonicalization, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range Canonicalizations() {
		if canonicalizers[c].name == name {
			return c, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedCanonicalization, name)
}

// String returns the name used in the c= tag.
func (c Canonicalization) String() string {
	if !c.valid() {
		return fmt.Sprintf("Canonicalization(%d)", uint8(c))
	}

	return canonicalizers[c].name
}

// Header canonicalizes a single header field. The result carries no line
// terminator. Unknown values canonicalize like Simple.
func (c Canonicalization) Header(name, value string) string {
	return c.canonicalizer().header(name, value)
}

// Body canonicalizes a message body whose lines are already terminated by
// CRLF. Unknown values canonicalize like Simple.
func (c Canonicalization) Body(body string) string {
	return c.canonicalizer().body(body)
}

func (c Canonicalization) canonicalizer() canonicalizer {
	if !c.valid() {
		return canonicalizers[Simple]
	}

	return canonicalizers[c]
}

// MarshalText implements encoding.TextMarshaler.
func (c Canonicalization) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCanonicalization, uint8(c))
	}

	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Canonicalization) UnmarshalText(text []byte) error {
	parsed, err := ParseCanonicalization(string(text))
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}

func (c Canonicalization) valid() bool {
	return int(c) < len(canonicalizers)
}

func simpleHeader(name, value string) string {
	return name + ":" + value
}

func relaxedHeader(name, value string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	return name + ":" + strings.TrimSpace(collapseSpace(value, isHeaderSpace))
}

func simpleBody(body string) string {
	return trimTrailingLines(body)
}

func relaxedBody(body string) string {
	if body == "" {
		return crlf
	}

	body = collapseSpace(body, isBodySpace)
	body = strings.ReplaceAll(body, " "+crlf, crlf)

	return trimTrailingLines(body)
}

// trimTrailingLines makes body end in exactly one CRLF.
func trimTrailingLines(body string) string {
	if body == "" {
		return crlf
	}

	if !strings.HasSuffix(body, crlf) {
		return body + crlf
	}

	for strings.HasSuffix(body, crlf+crlf) {
		body = body[:len(body)-len(crlf)]
	}

	return body
}

// collapseSpace replaces every run of bytes matched by isSpace with a single
// space.
func collapseSpace(s string, isSpace func(byte) bool) string {
	var b strings.Builder
	b.Grow(len(s))

	inRun := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isSpace(ch) {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}

			continue
		}

		inRun = false
		b.WriteByte(ch)
	}

	return b.String()
}

func isHeaderSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	}

	return false
}

func isBodySpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\v', '\f':
		return true
	}

	return false
}
