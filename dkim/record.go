package dkim

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"mime/quotedprintable"
	"slices"
	"strings"
)

// Record is a parsed DKIM key record as published in DNS (RFC 4871
// Section 3.6.1).
type Record struct {
	// Version is the v= tag, "DKIM1" when absent.
	Version string

	// Hashes lists the acceptable hash algorithms of the h= tag. Nil means
	// all algorithms are allowed.
	Hashes []string

	// KeyType is the k= tag, "rsa" when absent.
	KeyType string

	// Notes is the decoded n= tag.
	Notes string

	// Services lists the s= service types, ["*"] when absent.
	Services []string

	// Flags lists the t= flags.
	Flags []string

	// PublicKey is the decoded p= tag.
	PublicKey *rsa.PublicKey
}

// Testing reports whether the domain is testing DKIM (flag "y").
func (r *Record) Testing() bool {
	return slices.Contains(r.Flags, "y")
}

// ParseRecord parses the text of a DKIM key record and decodes its RSA
// public key.
func ParseRecord(txt string) (*Record, error) {
	r := &Record{
		Version:  "DKIM1",
		KeyType:  "rsa",
		Services: []string{"*"},
	}

	seen := make(map[string]bool)
	var rawKey string
	var hasKey bool

	for i, part := range strings.Split(txt, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: tag without value: %q", ErrRecordMalformed, part)
		}

		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)

		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate tag %q", ErrRecordMalformed, name)
		}
		seen[name] = true

		switch name {
		case "v":
			if i != 0 {
				return nil, fmt.Errorf("%w: v= must be the first tag", ErrRecordMalformed)
			}

			if value != "DKIM1" {
				return nil, fmt.Errorf("%w: unsupported version %q", ErrRecordMalformed, value)
			}

			r.Version = value

		case "h":
			r.Hashes = splitList(value)

		case "k":
			r.KeyType = strings.ToLower(value)

		case "n":
			notes, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(value)))
			if err != nil {
				notes = []byte(value)
			}

			r.Notes = string(notes)

		case "s":
			r.Services = splitList(value)

		case "t":
			r.Flags = splitList(value)

		case "p":
			rawKey = stripSpace(value)
			hasKey = true
		}
	}

	if !hasKey {
		return nil, fmt.Errorf("%w: no p= tag", ErrRecordMalformed)
	}

	if r.KeyType != "rsa" {
		return nil, fmt.Errorf("%w: key type %q is not rsa", ErrKeyUndecodable, r.KeyType)
	}

	key, err := decodePublicKey(rawKey)
	if err != nil {
		return nil, err
	}

	r.PublicKey = key

	return r, nil
}

// FormatRecord renders the TXT record value publishing pub for DKIM.
func FormatRecord(pub *rsa.PublicKey) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("%w: rsa public key must not be nil", ErrInvalidKey)
	}

	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	return "v=DKIM1; k=rsa; p=" + base64.StdEncoding.EncodeToString(der), nil
}

// decodePublicKey decodes the base64 p= value. SubjectPublicKeyInfo is
// tried first and a bare PKCS#1 key second.
func decodePublicKey(raw string) (*rsa.PublicKey, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: key has been revoked", ErrKeyUndecodable)
	}

	der, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyUndecodable, err)
	}

	if pub, err := x509.ParsePKIXPublicKey(der); err == nil {
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: key type %T is not rsa", ErrKeyUndecodable, pub)
		}

		return rsaPub, nil
	}

	pub, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyUndecodable, err)
	}

	return pub, nil
}

func splitList(value string) []string {
	var items []string
	for item := range strings.SplitSeq(value, ":") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			items = append(items, item)
		}
	}

	return items
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x80 && isHeaderSpace(byte(r)) {
			return -1
		}

		return r
	}, s)
}
