// Package dkim produces DomainKeys Identified Mail signatures per RFC 4871.
//
// It builds the DKIM-Signature header line for an outgoing message: the
// selected header fields and the body are canonicalized, the body is hashed,
// the tag list is folded to 67 columns and the header data is signed with an
// RSA key. Verification of received mail is out of scope; CheckPublicKey
// only confirms that a key is published in DNS.
//
// # Supported Algorithms
//
//   - rsa-sha256 (RSASSA-PKCS1-v1_5 with SHA-256, the default)
//   - rsa-sha1 (RSASSA-PKCS1-v1_5 with SHA-1)
//
// # Canonicalization
//
// Header and body canonicalization are chosen independently from Simple and
// Relaxed. The default is relaxed headers and simple body.
//
// # Signing Messages
//
//	key, err := dkim.LoadPrivateKey("/etc/dkim/mail.key")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	signer, err := dkim.NewSigner("example.com", "mail", key)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := signer.SetIdentity("noreply@example.com"); err != nil {
//	    log.Fatal(err)
//	}
//
//	msg, err := dkim.ParseMessage(raw)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	header, err := signer.Sign(msg)
//
// The returned line must be placed before all other header fields.
// WriteSigned does that and writes the complete message:
//
//	err := dkim.WriteSigned(conn, signer, msg, "Bcc")
//
// A Signer is reusable for any number of sequential Sign calls. Setters must
// not run while a Sign call is in flight.
//
// # Configuration Files
//
// Config holds the same settings in YAML form:
//
//	cfg, err := dkim.LoadConfig("dkim.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	signer, err := cfg.NewSigner()
//
// # Checking Published Keys
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//
//	record, err := signer.CheckPublicKey(ctx, nil)
//
// # Errors
//
// Errors match one of ErrConfiguration, ErrPrecondition, ErrCrypto or
// ErrLookup with errors.Is, as well as the more specific sentinel.
package dkim
