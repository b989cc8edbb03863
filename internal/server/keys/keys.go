// Package keys owns the RSA signing key pair used for session tokens.
// A Provider is built either from literal PEM strings or from two file
// paths; invalid or absent files cause a fresh pair to be generated and
// persisted back to those paths.
package keys

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/filex"
)

const (
	// DefaultPublicKeyFile and DefaultPrivateKeyFile are used when no key
	// sources are configured at all.
	DefaultPublicKeyFile  = "rsa_keys/pubkey.pem"
	DefaultPrivateKeyFile = "rsa_keys/privkey.pem"

	keyBits = 2048
)

// Provider holds a validated RSA key pair. It is read-only after
// construction and safe to share across concurrent verifications.
type Provider struct {
	publicPEM  []byte
	privatePEM []byte
	public     *rsa.PublicKey
	private    *rsa.PrivateKey
}

// Obtain resolves a Provider from the two sources.
//
// If both sources parse as PEM key material they are used as-is and no file
// I/O happens. Otherwise they are treated as file paths: existing files with
// mutually valid content are loaded; anything else causes a fresh 2048-bit
// pair to be generated and written to those paths (creating the directory if
// needed). Valid existing files are never overwritten.
//
// The only failure mode is persistence of newly generated keys, reported as
// common.ErrorKeyGeneration.
func Obtain(public, private string) (*Provider, error) {
	if p, err := fromPEM([]byte(public), []byte(private)); err == nil {
		return p, nil
	}

	pubFile, privFile := public, private
	if pubFile == "" {
		pubFile = DefaultPublicKeyFile
	}
	if privFile == "" {
		privFile = DefaultPrivateKeyFile
	}

	if filex.FileExists(pubFile) && filex.FileExists(privFile) {
		pubPEM, errPub := os.ReadFile(pubFile)
		privPEM, errPriv := os.ReadFile(privFile)
		if errPub == nil && errPriv == nil {
			if p, err := fromPEM(pubPEM, privPEM); err == nil {
				return p, nil
			}
		}
	}

	return generate(pubFile, privFile)
}

// FromPEM builds a Provider from literal PEM strings without touching the
// filesystem. It fails if either half does not parse as RSA key material.
func FromPEM(public, private string) (*Provider, error) {
	return fromPEM([]byte(public), []byte(private))
}

// Public returns the verification half of the pair.
func (p *Provider) Public() *rsa.PublicKey { return p.public }

// Private returns the signing half of the pair.
func (p *Provider) Private() *rsa.PrivateKey { return p.private }

// PublicPEM returns the PEM encoding of the public key.
func (p *Provider) PublicPEM() string { return string(p.publicPEM) }

// PrivatePEM returns the PEM encoding of the private key.
func (p *Provider) PrivatePEM() string { return string(p.privatePEM) }

// Equal reports whether two Providers resolved to byte-identical key
// material. Intended for diagnostics and tests.
func (p *Provider) Equal(other *Provider) bool {
	if other == nil {
		return false
	}
	return bytes.Equal(p.publicPEM, other.publicPEM) &&
		bytes.Equal(p.privatePEM, other.privatePEM)
}

func fromPEM(pubPEM, privPEM []byte) (*Provider, error) {
	pub, err := parsePublicKey(pubPEM)
	if err != nil {
		return nil, err
	}
	priv, err := parsePrivateKey(privPEM)
	if err != nil {
		return nil, err
	}
	return &Provider{
		publicPEM:  pubPEM,
		privatePEM: privPEM,
		public:     pub,
		private:    priv,
	}, nil
}

func generate(pubFile, privFile string) (*Provider, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorKeyGeneration, err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorKeyGeneration, err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubDER,
	})

	for _, f := range []string{pubFile, privFile} {
		if _, err := filex.EnsureParentDir(f); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorKeyGeneration, err)
		}
	}
	if err := os.WriteFile(pubFile, pubPEM, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorKeyGeneration, err)
	}
	if err := os.WriteFile(privFile, privPEM, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorKeyGeneration, err)
	}

	return &Provider{
		publicPEM:  pubPEM,
		privatePEM: privPEM,
		public:     &key.PublicKey,
		private:    key,
	}, nil
}

func parsePublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		if rsaKey, ok := key.(*rsa.PublicKey); ok {
			return rsaKey, nil
		}
		return nil, errors.New("public key is not RSA")
	}
	return x509.ParsePKCS1PublicKey(block.Bytes)
}

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return rsaKey, nil
}
