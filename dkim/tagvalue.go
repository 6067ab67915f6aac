package dkim

import (
	"slices"
	"strings"
)

const (
	crlf = "\r\n"

	// fws is the folding whitespace inserted between physical lines.
	fws = crlf + "\t"
)

// MaxLineLength is the maximum number of characters a folded line of the
// signature header carries after its indent.
const MaxLineLength = 67

// tagOrder is the order in which tags appear in the DKIM-Signature header.
// Tags not listed here sort after all listed ones.
var tagOrder = []string{"v", "a", "q", "c", "t", "s", "d", "i", "h", "z", "l", "bh", "b"}

// Tag is a single tag=value pair of a tag list.
type Tag struct {
	Name  string
	Value string
}

// TagList is an ordered tag=value list (RFC 4871 Section 3.2). Tags are kept
// in the DKIM-Signature header order no matter in which order they are set.
type TagList struct {
	tags []Tag
}

func tagRank(name string) int {
	if i := slices.Index(tagOrder, name); i >= 0 {
		return i
	}

	return len(tagOrder)
}

// Set adds a tag or replaces the value of an existing one.
func (l *TagList) Set(name, value string) {
	for i := range l.tags {
		if l.tags[i].Name == name {
			l.tags[i].Value = value
			return
		}
	}

	rank := tagRank(name)
	pos := len(l.tags)
	for i, t := range l.tags {
		if tagRank(t.Name) > rank {
			pos = i
			break
		}
	}

	l.tags = slices.Insert(l.tags, pos, Tag{Name: name, Value: value})
}

// Get returns the value of a tag.
func (l *TagList) Get(name string) (string, bool) {
	for _, t := range l.tags {
		if t.Name == name {
			return t.Value, true
		}
	}

	return "", false
}

// Tags returns a copy of the tags in header order.
func (l *TagList) Tags() []Tag {
	return slices.Clone(l.tags)
}

// Fold serializes the list as "tag=value;" pairs separated by single spaces,
// breaking lines with CRLF and a tab so that no line exceeds MaxLineLength.
// The result ends with a final folded line holding the empty "b=" tag for
// the signature, which is appended once computed.
func (l *TagList) Fold() string {
	var b strings.Builder
	col := 0

	for i, t := range l.tags {
		pair := t.Name + "=" + t.Value + ";"

		if len(pair) > MaxLineLength {
			if segments := splitPair(t.Name, pair); len(segments) > 1 {
				if i == 0 {
					b.WriteByte(' ')
				} else {
					b.WriteString(fws)
				}

				b.WriteString(strings.Join(segments, fws))
				col = len(segments[len(segments)-1])

				continue
			}
		}

		if col+len(pair)+1 > MaxLineLength {
			b.WriteString(fws)
			b.WriteString(pair)
			col = len(pair)
		} else {
			b.WriteByte(' ')
			b.WriteString(pair)
			col += len(pair) + 1
		}
	}

	b.WriteString(fws)
	b.WriteString("b=")

	return strings.TrimSpace(b.String())
}

// splitPair splits an over-long "tag=value;" pair at the places where the
// DKIM grammar allows folding whitespace inside the value: after ":" in h=,
// after "|" in z= and anywhere in base64 values. Pairs of other tags are
// returned whole.
func splitPair(name, pair string) []string {
	prefix := len(name) + 1

	var breakAfter func(i int) bool
	switch name {
	case "h":
		breakAfter = func(i int) bool { return i >= prefix && pair[i] == ':' }
	case "z":
		breakAfter = func(i int) bool { return i >= prefix && pair[i] == '|' }
	case "bh", "b":
		breakAfter = func(i int) bool { return i >= prefix-1 }
	default:
		return []string{pair}
	}

	var segments []string
	start := 0

	for len(pair)-start > MaxLineLength {
		cut := -1
		for i := start + MaxLineLength - 1; i >= start; i-- {
			if breakAfter(i) {
				cut = i + 1
				break
			}
		}

		if cut < 0 {
			for i := start + MaxLineLength; i < len(pair)-1; i++ {
				if breakAfter(i) {
					cut = i + 1
					break
				}
			}
		}

		if cut < 0 || cut >= len(pair) {
			break
		}

		segments = append(segments, pair[start:cut])
		start = cut
	}

	return append(segments, pair[start:])
}

// foldSignature wraps base64 signature text. The first fragment fills the
// current line, which already holds offset characters; every further
// fragment starts a new folded line of at most MaxLineLength characters.
func foldSignature(sig string, offset int) string {
	avail := max(MaxLineLength-offset, 1)

	var b strings.Builder
	b.Grow(len(sig) + len(sig)/MaxLineLength*len(fws) + len(fws))

	for len(sig) > avail {
		b.WriteString(sig[:avail])
		b.WriteString(fws)
		sig = sig[avail:]
		avail = MaxLineLength
	}

	b.WriteString(sig)

	return b.String()
}
