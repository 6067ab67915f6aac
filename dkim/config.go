package dkim

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the file form of a Signer configuration.
//
//	domain: example.com
//	selector: mail
//	identity: noreply@example.com
//	key-file: /etc/dkim/mail.key
//	algorithm: rsa-sha256
//	canonicalization: relaxed/simple
//	body-length: false
//	z-tag: false
//	headers:
//	  add: [X-Campaign]
//	  remove: [Sender]
type Config struct {
	// Domain is the signing domain (d=). Required.
	Domain string `yaml:"domain"`

	// Selector is the key selector (s=). Required.
	Selector string `yaml:"selector"`

	// Identity is the optional agent or user identifier (i=).
	Identity string `yaml:"identity,omitempty"`

	// KeyFile is the path of the RSA private key, PEM or DER. Required.
	KeyFile string `yaml:"key-file"`

	// Algorithm is the signing algorithm. Defaults to rsa-sha256.
	Algorithm Algorithm `yaml:"algorithm"`

	// Canonicalization is "header/body", for example "relaxed/simple". A
	// single name applies to the header with simple body canonicalization.
	// Defaults to "relaxed/simple".
	Canonicalization string `yaml:"canonicalization,omitempty"`

	// BodyLength adds the l= tag.
	BodyLength bool `yaml:"body-length"`

	// ZTag adds the z= tag.
	ZTag bool `yaml:"z-tag"`

	// Headers adjusts the DefaultHeaders template.
	Headers HeadersConfig `yaml:"headers,omitempty"`
}

// HeadersConfig lists header field names added to or removed from the
// signed set. Removals are applied after additions.
type HeadersConfig struct {
	Add    []string `yaml:"add,omitempty"`
	Remove []string `yaml:"remove,omitempty"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes a YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return &cfg, nil
}

// ParseCanonicalizationPair parses a c= style "header/body" value. A
// missing body part means simple.
func ParseCanonicalizationPair(s string) (header, body Canonicalization, err error) {
	headerName, bodyName, _ := strings.Cut(s, "/")

	header, err = ParseCanonicalization(headerName)
	if err != nil {
		return 0, 0, err
	}

	body = Simple
	if bodyName != "" {
		body, err = ParseCanonicalization(bodyName)
		if err != nil {
			return 0, 0, err
		}
	}

	return header, body, nil
}

// NewSigner loads the key file and returns a configured Signer.
func (c *Config) NewSigner() (*Signer, error) {
	if c.KeyFile == "" {
		return nil, fmt.Errorf("%w: key-file is required", ErrInvalidKey)
	}

	key, err := LoadPrivateKey(c.KeyFile)
	if err != nil {
		return nil, err
	}

	s, err := NewSigner(c.Domain, c.Selector, key)
	if err != nil {
		return nil, err
	}

	if err := c.Apply(s); err != nil {
		return nil, err
	}

	return s, nil
}

// Apply sets every option of c except domain, selector and key on s.
func (c *Config) Apply(s *Signer) error {
	if err := s.SetAlgorithm(c.Algorithm); err != nil {
		return err
	}

	if c.Canonicalization != "" {
		header, body, err := ParseCanonicalizationPair(c.Canonicalization)
		if err != nil {
			return err
		}

		if err := s.SetHeaderCanonicalization(header); err != nil {
			return err
		}

		if err := s.SetBodyCanonicalization(body); err != nil {
			return err
		}
	}

	if err := s.SetIdentity(c.Identity); err != nil {
		return err
	}

	s.SetBodyLength(c.BodyLength)
	s.SetZTag(c.ZTag)

	for _, name := range c.Headers.Add {
		s.AddHeader(name)
	}

	for _, name := range c.Headers.Remove {
		s.RemoveHeader(name)
	}

	return nil
}
