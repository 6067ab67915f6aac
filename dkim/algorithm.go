package dkim

import (
	"crypto"
	"fmt"
	"strings"

	// Register the hash implementations used by the catalog.
	_ "crypto/sha1"
	_ "crypto/sha256"
)

// Algorithm identifies a DKIM signing algorithm per RFC 4871 Section 3.3.
type Algorithm uint8

const (
	// RSASHA256 is RSASSA-PKCS1-v1_5 using SHA-256. It is the default.
	RSASHA256 Algorithm = iota

	// RSASHA1 is RSASSA-PKCS1-v1_5 using SHA-1.
	RSASHA1
)

// Signature scheme identifiers.
const (
	SchemeRSAPKCS1v15 = "rsassa-pkcs1-v1_5"
)

type algorithmEntry struct {
	name   string
	hash   crypto.Hash
	scheme string
}

var algorithms = [...]algorithmEntry{
	RSASHA256: {name: "rsa-sha256", hash: crypto.SHA256, scheme: SchemeRSAPKCS1v15},
	RSASHA1:   {name: "rsa-sha1", hash: crypto.SHA1, scheme: SchemeRSAPKCS1v15},
}

// Algorithms returns all supported signing algorithms.
func Algorithms() []Algorithm {
	return []Algorithm{RSASHA256, RSASHA1}
}

// ParseAlgorithm returns the algorithm with the given a= tag value. Names are
// matched case-insensitively.
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, a := range Algorithms() {
		if algorithms[a].name == name {
			return a, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
}

// String returns the value used in the a= tag.
func (a Algorithm) String() string {
	if !a.valid() {
		return fmt.Sprintf("Algorithm(%d)", uint8(a))
	}

	return algorithms[a].name
}

// Hash returns the hash function of the algorithm, zero for an unknown one.
func (a Algorithm) Hash() crypto.Hash {
	if !a.valid() {
		return 0
	}

	return algorithms[a].hash
}

// Scheme returns the signature scheme identifier of the algorithm, empty
// for an unknown one.
func (a Algorithm) Scheme() string {
	if !a.valid() {
		return ""
	}

	return algorithms[a].scheme
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedAlgorithm, uint8(a))
	}

	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}

func (a Algorithm) valid() bool {
	return int(a) < len(algorithms)
}
