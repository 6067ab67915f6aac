package dkim

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// Minimum RSA key size in bits. RFC 4871 Section 3.3.3 requires verifiers
// to accept keys from 512 bits, signers should not go below 1024.
const minRSAKeyBits = 1024

// ParsePrivateKey decodes an RSA private key. Input may be PEM or raw DER;
// PKCS#8 is tried first and PKCS#1 second.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty key data", ErrInvalidKey)
	}

	der := data
	if block, _ := pem.Decode(data); block != nil {
		der = block.Bytes
	}

	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: key type %T is not rsa", ErrInvalidKey, key)
		}

		return rsaKey, nil
	}

	key, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	return key, nil
}

// LoadPrivateKey reads and decodes an RSA private key file.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	return ParsePrivateKey(data)
}

func checkRSAKey(key *rsa.PrivateKey) error {
	if key == nil {
		return fmt.Errorf("%w: rsa private key must not be nil", ErrInvalidKey)
	}

	if key.N == nil || key.N.BitLen() < minRSAKeyBits {
		return fmt.Errorf("%w: rsa key must be at least %d bits", ErrInvalidKey, minRSAKeyBits)
	}

	if err := key.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	return nil
}

// binding is an algorithm bound to a private key. It is built eagerly when
// the algorithm or key is set so that Sign never meets a configuration
// problem.
type binding struct {
	alg Algorithm
	key *rsa.PrivateKey
}

func bind(alg Algorithm, key *rsa.PrivateKey) (*binding, error) {
	if !alg.valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}

	if !alg.Hash().Available() {
		return nil, fmt.Errorf("%w: hash %s is not available", ErrUnsupportedAlgorithm, alg.Hash())
	}

	if alg.Scheme() != SchemeRSAPKCS1v15 {
		return nil, fmt.Errorf("%w: scheme %s", ErrUnsupportedAlgorithm, alg.Scheme())
	}

	if err := checkRSAKey(key); err != nil {
		return nil, err
	}

	return &binding{alg: alg, key: key}, nil
}

func (b *binding) digest(data []byte) []byte {
	h := b.alg.Hash().New()
	h.Write(data)

	return h.Sum(nil)
}

func (b *binding) sign(data []byte) ([]byte, error) {
	sig, err := rsa.SignPKCS1v15(rand.Reader, b.key, b.alg.Hash(), b.digest(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}

	return sig, nil
}
