package packet

import (
	"crypto/rand"
	"io"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/algorithm"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/s2k"
)

// Config collects the knobs this package's encoders need but its
// decoders never do: which cipher to wrap a fresh session key with,
// how to derive a key from a passphrase, and where to read randomness
// from. A nil *Config, or a zero-valued field within one, falls back
// to the same defaults GnuPG-compatible implementations use, mirrored
// from the nil-safe pattern s2k.Config already follows.
type Config struct {
	// DefaultCipher is used to encrypt a session key when a caller
	// does not specify one explicitly. Defaults to AES-128.
	DefaultCipher algorithm.CipherFunction
	// S2K configures how a passphrase is turned into a symmetric key
	// for an encrypted private key packet. Defaults to s2k.Config's
	// own defaults (iterated, salted SHA-1).
	S2K *s2k.Config
	// Rand is the source of randomness for session keys, IVs, ElGamal
	// ephemeral exponents, and PKCS1 padding. Defaults to
	// crypto/rand.Reader.
	Rand io.Reader
}

// Cipher returns the cipher function to use when wrapping a fresh
// session key, defaulting to AES-128 for a nil Config or unset field.
func (c *Config) Cipher() algorithm.CipherFunction {
	if c == nil || c.DefaultCipher == 0 {
		return algorithm.CipherAES128
	}
	return c.DefaultCipher
}

// S2KConfig returns the configured S2K parameters, or nil (s2k.New's
// own defaults) for a nil Config or unset field.
func (c *Config) S2KConfig() *s2k.Config {
	if c == nil {
		return nil
	}
	return c.S2K
}

// Random returns the configured source of randomness, defaulting to
// crypto/rand.Reader for a nil Config or unset field.
func (c *Config) Random() io.Reader {
	if c == nil || c.Rand == nil {
		return rand.Reader
	}
	return c.Rand
}
