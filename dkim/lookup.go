package dkim

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Resolver looks up DNS TXT records. *net.Resolver implements it.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// RecordName returns the DNS name of the key record for selector and
// domain: <selector>._domainkey.<domain>.
func RecordName(selector, domain string) string {
	return strings.TrimSpace(selector) + "._domainkey." + strings.TrimSpace(domain)
}

// CheckPublicKey looks up the key record for selector and domain and
// verifies that it publishes a decodable RSA public key. It does not check
// that the key pairs with any private key.
//
// Every call queries DNS; use ctx to bound the lookup. When resolver is nil,
// net.DefaultResolver is used.
func CheckPublicKey(ctx context.Context, resolver Resolver, domain, selector string) (*Record, error) {
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	name := RecordName(selector, domain)

	txts, err := resolver.LookupTXT(ctx, name)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNoRecord, name)
		}

		return nil, fmt.Errorf("%w: %s: %w", ErrLookup, name, err)
	}

	if len(txts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRecord, name)
	}

	var firstErr error
	for _, txt := range txts {
		record, err := ParseRecord(txt)
		if err == nil {
			return record, nil
		}

		if firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil, firstErr
}

// CheckPublicKey checks that a public key is published for the signer's
// domain and selector.
func (s *Signer) CheckPublicKey(ctx context.Context, resolver Resolver) (*Record, error) {
	return CheckPublicKey(ctx, resolver, s.domain, s.selector)
}
