package dkim

import (
	"bytes"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/idna"
)

// SignatureHeader is the name of the header field produced by Sign.
const SignatureHeader = "DKIM-Signature"

// maxLabelLength is the maximum length of a DNS label.
const maxLabelLength = 63

// Signer produces DKIM-Signature header lines for one signing domain,
// selector and key.
//
// A Signer is configured once and then used for any number of sequential
// Sign calls. It holds no per-message state, but setters must not run
// concurrently with Sign; use one Signer per goroutine for parallel
// signing.
type Signer struct {
	domain      string
	selector    string
	identity    string
	headers     *HeaderSet
	headerCanon Canonicalization
	bodyCanon   Canonicalization
	bodyLength  bool
	zTag        bool
	key         *rsa.PrivateKey
	alg         Algorithm
	bound       *binding
	now         func() time.Time
	logger      *slog.Logger
}

// NewSigner creates a Signer using rsa-sha256, relaxed header and simple
// body canonicalization and the DefaultHeaders template.
func NewSigner(domain, selector string, key *rsa.PrivateKey) (*Signer, error) {
	asciiDomain, err := validateDomain(domain)
	if err != nil {
		return nil, err
	}

	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, fmt.Errorf("%w: selector must not be empty", ErrInvalidSelector)
	}

	bound, err := bind(RSASHA256, key)
	if err != nil {
		return nil, err
	}

	return &Signer{
		domain:      asciiDomain,
		selector:    selector,
		headers:     NewHeaderSet(DefaultHeaders...),
		headerCanon: Relaxed,
		bodyCanon:   Simple,
		key:         key,
		alg:         RSASHA256,
		bound:       bound,
		now:         time.Now,
		logger:      slog.New(slog.DiscardHandler),
	}, nil
}

// validateDomain checks that domain is a host name of at least two labels
// and returns its ASCII form.
func validateDomain(domain string) (string, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return "", fmt.Errorf("%w: domain must not be empty", ErrInvalidDomain)
	}

	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidDomain, domain, err)
	}

	labels := strings.Split(ascii, ".")
	if len(labels) < 2 {
		return "", fmt.Errorf("%w: %q is not a multi-label domain", ErrInvalidDomain, domain)
	}

	for _, label := range labels {
		if label == "" || len(label) > maxLabelLength {
			return "", fmt.Errorf("%w: %q has an invalid label", ErrInvalidDomain, domain)
		}
	}

	return ascii, nil
}

// Domain returns the signing domain (d=) in ASCII form.
func (s *Signer) Domain() string { return s.domain }

// Selector returns the selector (s=).
func (s *Signer) Selector() string { return s.selector }

// Identity returns the agent or user identifier (i=), empty when unset.
func (s *Signer) Identity() string { return s.identity }

// Algorithm returns the signing algorithm (a=).
func (s *Signer) Algorithm() Algorithm { return s.alg }

// HeaderCanonicalization returns the header canonicalization.
func (s *Signer) HeaderCanonicalization() Canonicalization { return s.headerCanon }

// BodyCanonicalization returns the body canonicalization.
func (s *Signer) BodyCanonicalization() Canonicalization { return s.bodyCanon }

// BodyLength reports whether the l= tag is emitted.
func (s *Signer) BodyLength() bool { return s.bodyLength }

// ZTag reports whether the z= tag is emitted.
func (s *Signer) ZTag() bool { return s.zTag }

// Headers returns the names of the header fields signed when present, in
// template order.
func (s *Signer) Headers() []string { return s.headers.Names() }

// SetIdentity sets the i= tag. The identity must contain "@" and its domain
// part must be the signing domain or one of its subdomains. The domain part
// is stored in ASCII form. An empty identity removes the tag.
func (s *Signer) SetIdentity(identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		s.identity = ""
		return nil
	}

	at := strings.LastIndexByte(identity, '@')
	if at < 0 {
		return fmt.Errorf("%w: %q has no domain part", ErrIdentityMismatch, identity)
	}

	domain, err := idna.Lookup.ToASCII(identity[at+1:])
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrIdentityMismatch, identity, err)
	}

	domain = strings.ToLower(domain)
	if domain != s.domain && !strings.HasSuffix(domain, "."+s.domain) {
		return fmt.Errorf("%w: the domain part of %q has to be %s or its subdomain", ErrIdentityMismatch, identity, s.domain)
	}

	s.identity = identity[:at+1] + domain

	return nil
}

// SetAlgorithm selects the signing algorithm and binds it to the key.
func (s *Signer) SetAlgorithm(alg Algorithm) error {
	bound, err := bind(alg, s.key)
	if err != nil {
		return err
	}

	s.alg = alg
	s.bound = bound

	return nil
}

// SetKey replaces the private key and rebinds the current algorithm.
func (s *Signer) SetKey(key *rsa.PrivateKey) error {
	bound, err := bind(s.alg, key)
	if err != nil {
		return err
	}

	s.key = key
	s.bound = bound

	return nil
}

// SetHeaderCanonicalization sets the header canonicalization.
func (s *Signer) SetHeaderCanonicalization(c Canonicalization) error {
	if !c.valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedCanonicalization, c)
	}

	s.headerCanon = c

	return nil
}

// SetBodyCanonicalization sets the body canonicalization.
func (s *Signer) SetBodyCanonicalization(c Canonicalization) error {
	if !c.valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedCanonicalization, c)
	}

	s.bodyCanon = c

	return nil
}

// SetBodyLength enables the l= tag holding the canonical body length in
// bytes.
func (s *Signer) SetBodyLength(enabled bool) { s.bodyLength = enabled }

// SetZTag enables the z= tag carrying copies of the signed header fields.
func (s *Signer) SetZTag(enabled bool) { s.zTag = enabled }

// AddHeader appends a header field name to the signed set unless present.
func (s *Signer) AddHeader(name string) bool { return s.headers.Add(name) }

// RemoveHeader removes a header field name from the signed set.
func (s *Signer) RemoveHeader(name string) bool { return s.headers.Remove(name) }

// SetClock replaces the time source of the t= tag. Nil restores time.Now.
func (s *Signer) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}

	s.now = now
}

// SetLogger sets the logger receiving a debug record per Sign call. Nil
// discards.
func (s *Signer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s.logger = logger
}

// Sign returns the complete DKIM-Signature header line for msg, without a
// trailing line terminator. It must be placed before all other header
// fields of the message.
func (s *Signer) Sign(msg Message) (string, error) {
	start := time.Now()

	header, err := s.sign(msg)

	logger := s.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("dkim sign result",
		slog.String("domain", s.domain),
		slog.String("selector", s.selector),
		slog.String("algorithm", s.alg.String()),
		slog.Duration("duration", time.Since(start)),
		slog.Any("error", err),
	)

	return header, err
}

func (s *Signer) sign(msg Message) (string, error) {
	if s.bound == nil {
		return "", fmt.Errorf("%w: signer was not created with NewSigner", ErrConfiguration)
	}

	fields, err := selectHeaders(msg, s.headers)
	if err != nil {
		return "", err
	}

	raw, err := msg.Body()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBody, err)
	}

	body := s.bodyCanon.Body(toCRLF(raw))

	tags := s.buildTags(fields, body)
	folded := tags.Fold()

	sig, err := s.bound.sign(s.signedData(fields, folded))
	if err != nil {
		return "", err
	}

	encoded := base64.StdEncoding.EncodeToString(sig)

	return SignatureHeader + ": " + folded + foldSignature(encoded, len("b=")+1), nil
}

// buildTags seeds the tag list for a message whose selected header fields
// and canonical body are given.
func (s *Signer) buildTags(fields []headerField, body string) *TagList {
	tags := &TagList{}
	tags.Set("v", "1")
	tags.Set("a", s.alg.String())
	tags.Set("q", "dns/txt")
	tags.Set("c", s.headerCanon.String()+"/"+s.bodyCanon.String())
	tags.Set("t", strconv.FormatInt(s.now().Unix(), 10))
	tags.Set("s", s.selector)
	tags.Set("d", s.domain)

	if s.identity != "" {
		tags.Set("i", quotedPrintable(s.identity))
	}

	tags.Set("h", signedHeaderNames(fields))

	if s.zTag {
		tags.Set("z", zTagValue(fields))
	}

	if s.bodyLength {
		tags.Set("l", strconv.Itoa(len(body)))
	}

	tags.Set("bh", base64.StdEncoding.EncodeToString(s.bound.digest([]byte(body))))

	return tags
}

// signedData builds the bytes covered by the signature: each selected
// header field canonicalized and CRLF terminated, then the signature header
// itself with an empty b= and no terminator.
func (s *Signer) signedData(fields []headerField, folded string) []byte {
	var b bytes.Buffer
	for _, f := range fields {
		b.WriteString(s.headerCanon.Header(f.name, f.value))
		b.WriteString(crlf)
	}

	b.WriteString(s.headerCanon.Header(SignatureHeader, " "+folded))

	return b.Bytes()
}
