package dkim

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultHeaders is the template of header fields signed when present in
// the message.
var DefaultHeaders = []string{
	"Content-Description", "Content-ID", "Content-Type", "Content-Transfer-Encoding", "Cc",
	"Date", "From", "In-Reply-To", "List-Subscribe", "List-Post", "List-Owner", "List-Id",
	"List-Archive", "List-Help", "List-Unsubscribe", "MIME-Version", "Message-ID", "Resent-Sender",
	"Resent-Cc", "Resent-Date", "Resent-To", "Reply-To", "References", "Resent-Message-ID",
	"Resent-From", "Sender", "Subject", "To",
}

// mandatoryHeaders must be found in every signed message.
var mandatoryHeaders = []string{"From", "Subject"}

// HeaderSet is an insertion-ordered set of header field names. Names are
// compared case-insensitively and keep the spelling they were added with.
type HeaderSet struct {
	names []string
	index map[string]struct{}
}

// NewHeaderSet returns a set holding names in order, without duplicates.
func NewHeaderSet(names ...string) *HeaderSet {
	s := &HeaderSet{index: make(map[string]struct{}, len(names))}
	for _, name := range names {
		s.Add(name)
	}

	return s
}

// Add appends name unless it is empty or already present. It reports
// whether the set changed.
func (s *HeaderSet) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || s.Contains(name) {
		return false
	}

	if s.index == nil {
		s.index = make(map[string]struct{})
	}

	s.names = append(s.names, name)
	s.index[strings.ToLower(name)] = struct{}{}

	return true
}

// Remove drops the first occurrence of name, keeping the order of the
// remaining names. It reports whether the set changed.
func (s *HeaderSet) Remove(name string) bool {
	key := strings.ToLower(strings.TrimSpace(name))
	if _, ok := s.index[key]; !ok {
		return false
	}

	i := slices.IndexFunc(s.names, func(n string) bool { return strings.ToLower(n) == key })
	s.names = slices.Delete(s.names, i, i+1)
	delete(s.index, key)

	return true
}

// Contains reports whether name is in the set.
func (s *HeaderSet) Contains(name string) bool {
	_, ok := s.index[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Names returns the names in insertion order.
func (s *HeaderSet) Names() []string {
	return slices.Clone(s.names)
}

// Len returns the number of names.
func (s *HeaderSet) Len() int {
	return len(s.names)
}

// headerField is a header line split at its first colon. The value keeps
// its leading whitespace and any folding.
type headerField struct {
	name  string
	value string
}

func splitHeader(line string) (headerField, error) {
	name, value, ok := strings.Cut(line, ":")
	if !ok {
		return headerField{}, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
	}

	return headerField{name: name, value: value}, nil
}

// selectHeaders returns the message's header fields named in set, in the
// order they appear in the message. It fails when a mandatory field is
// missing.
func selectHeaders(msg Message, set *HeaderSet) ([]headerField, error) {
	lines := msg.MatchingHeaderLines(set.Names())

	fields := make([]headerField, 0, len(lines))
	found := make(map[string]bool, len(lines))

	for _, line := range lines {
		f, err := splitHeader(line)
		if err != nil {
			return nil, err
		}

		fields = append(fields, f)
		found[strings.ToLower(strings.TrimSpace(f.name))] = true
	}

	var missing []string
	for _, name := range mandatoryHeaders {
		if !found[strings.ToLower(name)] {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: could not find %s for signing", ErrMissingHeader, strings.Join(missing, ", "))
	}

	return fields, nil
}

// signedHeaderNames renders the h= tag value.
func signedHeaderNames(fields []headerField) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimSpace(f.name)
	}

	return strings.Join(names, ":")
}
