package dkim

import (
	"bytes"
	"fmt"
	"strings"
)

// Message is the message being signed. The signer only reads it.
type Message interface {
	// MatchingHeaderLines returns the header lines whose field name is in
	// names (case-insensitive), in message order. Each line is the full
	// "Name: value" text; folded continuation lines stay in place.
	MatchingHeaderLines(names []string) []string

	// Body returns the body exactly as it will be transmitted, with the
	// content transfer encoding already applied.
	Body() ([]byte, error)
}

// RawMessage is an RFC 5322 message split into header lines and body.
type RawMessage struct {
	headers []string
	body    []byte
}

// NewRawMessage builds a message from header lines and a body.
func NewRawMessage(headers []string, body []byte) *RawMessage {
	return &RawMessage{headers: headers, body: body}
}

// ParseMessage splits a raw message at the first empty line. Lines may end
// in CRLF or bare LF; continuation lines of folded fields are rejoined with
// CRLF.
func ParseMessage(raw []byte) (*RawMessage, error) {
	msg := &RawMessage{}
	rest := raw

	for len(rest) > 0 {
		line, next, found := bytes.Cut(rest, []byte("\n"))
		if !found {
			next = nil
		}

		line = bytes.TrimSuffix(line, []byte("\r"))
		rest = next

		if len(line) == 0 {
			msg.body = rest
			return msg, nil
		}

		if line[0] == ' ' || line[0] == '\t' {
			if len(msg.headers) == 0 {
				return nil, fmt.Errorf("%w: continuation line without field", ErrMalformedHeader)
			}

			msg.headers[len(msg.headers)-1] += crlf + string(line)

			continue
		}

		if bytes.IndexByte(line, ':') < 0 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
		}

		msg.headers = append(msg.headers, string(line))
	}

	return msg, nil
}

// MatchingHeaderLines implements Message.
func (m *RawMessage) MatchingHeaderLines(names []string) []string {
	set := nameSet(names)

	var lines []string
	for _, line := range m.headers {
		if set[fieldName(line)] {
			lines = append(lines, line)
		}
	}

	return lines
}

// NonMatchingHeaderLines returns the header lines whose field name is not
// in ignore, in message order.
func (m *RawMessage) NonMatchingHeaderLines(ignore []string) []string {
	set := nameSet(ignore)

	var lines []string
	for _, line := range m.headers {
		if !set[fieldName(line)] {
			lines = append(lines, line)
		}
	}

	return lines
}

// Body implements Message.
func (m *RawMessage) Body() ([]byte, error) {
	return m.body, nil
}

// Bytes reassembles the message with CRLF line endings in the header.
func (m *RawMessage) Bytes() []byte {
	var b bytes.Buffer
	for _, line := range m.headers {
		b.WriteString(line)
		b.WriteString(crlf)
	}

	b.WriteString(crlf)
	b.Write(m.body)

	return b.Bytes()
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[strings.ToLower(strings.TrimSpace(name))] = true
	}

	return set
}

func fieldName(line string) string {
	name, _, _ := strings.Cut(line, ":")
	return strings.ToLower(strings.TrimSpace(name))
}

// toCRLF converts bare CR and bare LF line terminators to CRLF.
func toCRLF(body []byte) string {
	var b strings.Builder
	b.Grow(len(body) + len(body)/32)

	for i := 0; i < len(body); i++ {
		switch ch := body[i]; ch {
		case '\r':
			b.WriteString(crlf)
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case '\n':
			b.WriteString(crlf)
		default:
			b.WriteByte(ch)
		}
	}

	return b.String()
}
