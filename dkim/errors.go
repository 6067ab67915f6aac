package dkim

import (
	"errors"
	"fmt"
)

// Error classes. Every error created by this package matches exactly one of
// them with errors.Is; I/O errors of the writer are returned as is.
var (
	// ErrConfiguration is returned by constructors and setters when the
	// signer configuration is invalid. Sign returns it only for a Signer
	// that was not created with NewSigner.
	ErrConfiguration = errors.New("dkim: configuration error")

	// ErrPrecondition is returned by Sign when the message cannot be signed
	// as given. The signer stays usable for a corrected message.
	ErrPrecondition = errors.New("dkim: signing precondition failed")

	// ErrCrypto is returned by Sign when the hash or signature primitive
	// fails.
	ErrCrypto = errors.New("dkim: crypto operation failed")

	// ErrLookup is returned by the public key check.
	ErrLookup = errors.New("dkim: public key lookup failed")
)

// Configuration errors.
var (
	// ErrInvalidDomain is returned when the signing domain is empty or is not
	// a multi-label host name.
	ErrInvalidDomain = fmt.Errorf("%w: invalid signing domain", ErrConfiguration)

	// ErrInvalidSelector is returned when the selector is empty after
	// trimming.
	ErrInvalidSelector = fmt.Errorf("%w: invalid selector", ErrConfiguration)

	// ErrIdentityMismatch is returned when the identity's domain is neither
	// the signing domain nor one of its subdomains.
	ErrIdentityMismatch = fmt.Errorf("%w: identity does not match signing domain", ErrConfiguration)

	// ErrUnsupportedAlgorithm is returned for an unknown signing algorithm
	// or one whose hash is not linked into the binary.
	ErrUnsupportedAlgorithm = fmt.Errorf("%w: unsupported signing algorithm", ErrConfiguration)

	// ErrUnsupportedCanonicalization is returned for an unknown
	// canonicalization name.
	ErrUnsupportedCanonicalization = fmt.Errorf("%w: unsupported canonicalization", ErrConfiguration)

	// ErrInvalidKey is returned when key material is missing, cannot be
	// decoded, is not RSA or is too small.
	ErrInvalidKey = fmt.Errorf("%w: invalid key material", ErrConfiguration)
)

// Signing precondition errors.
var (
	// ErrMissingHeader is returned when a mandatory header field (From,
	// Subject) is absent from the message.
	ErrMissingHeader = fmt.Errorf("%w: mandatory header missing", ErrPrecondition)

	// ErrMalformedHeader is returned when a header line has no colon.
	ErrMalformedHeader = fmt.Errorf("%w: malformed header line", ErrPrecondition)

	// ErrBody is returned when the message body cannot be obtained.
	ErrBody = fmt.Errorf("%w: message body unavailable", ErrPrecondition)
)

// Lookup errors.
var (
	// ErrNoRecord is returned when no TXT record exists for the selector
	// and domain.
	ErrNoRecord = fmt.Errorf("%w: no dkim record", ErrLookup)

	// ErrRecordMalformed is returned when the TXT record cannot be parsed as
	// a DKIM key record.
	ErrRecordMalformed = fmt.Errorf("%w: malformed dkim record", ErrLookup)

	// ErrKeyUndecodable is returned when the record's p= tag is empty or
	// does not decode to an RSA public key.
	ErrKeyUndecodable = fmt.Errorf("%w: public key cannot be decoded", ErrLookup)
)
