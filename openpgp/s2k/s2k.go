// Package s2k implements the RFC 4880 section 3.7.1 string-to-key
// transforms: Simple, Salted, and Iterated-and-Salted. A Params value
// is the decoded form of the 2-to-11-octet S2K specifier that prefixes
// a passphrase-protected secret key or a symmetric-key-encrypted
// session key.
package s2k

import (
	"hash"
	"io"
	"strconv"

	_ "crypto/md5"                    // registers crypto.MD5
	_ "crypto/sha1"                   // registers crypto.SHA1
	_ "crypto/sha256"                 // registers crypto.SHA256, crypto.SHA224
	_ "crypto/sha512"                 // registers crypto.SHA384, crypto.SHA512
	_ "golang.org/x/crypto/ripemd160" // registers crypto.RIPEMD160

	"github.com/letsencrypt-labs/pgpcodec/openpgp/algorithm"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/errors"
)

// Mode identifies which of the three RFC 4880 S2K specifier types a
// Params value encodes.
type Mode uint8

const (
	ModeSimple         Mode = 0
	ModeSalted         Mode = 1
	ModeIteratedSalted Mode = 3
)

// Params is the decoded form of an S2K specifier: its mode, hash
// algorithm, salt (Salted and IteratedSalted only), and iteration
// count (IteratedSalted only, already expanded from its single-octet
// encoded form via the RFC 4880 formula).
type Params struct {
	Mode  Mode
	Hash  algorithm.Hash
	Salt  []byte
	Count int
}

// Config collects parameters for constructing a new S2K specifier. A
// nil *Config selects the library's defaults: IteratedSalted, SHA-1,
// and an iteration count of 65536. In a non-nil Config a zero Hash or
// S2KCount selects SHA-1 or 65536; Mode is used as given, and its zero
// value is ModeSimple.
type Config struct {
	Mode     Mode
	Hash     algorithm.Hash
	S2KCount int
}

func (c *Config) mode() Mode {
	if c == nil {
		return ModeIteratedSalted
	}
	return c.Mode
}

func (c *Config) hash() algorithm.Hash {
	if c == nil || c.Hash == 0 {
		return algorithm.HashSHA1
	}
	return c.Hash
}

func (c *Config) encodedCount() uint8 {
	if c == nil || c.S2KCount == 0 {
		return 96 // decodes to 65536, the historical default
	}
	i := c.S2KCount
	switch {
	case i < 1024:
		i = 1024
	case i > 65011712:
		i = 65011712
	}
	return EncodeCount(i)
}

// EncodeCount converts an iteration count in [1024, 65011712] to the
// single octet form RFC 4880 section 3.7.7.1 stores on the wire, the
// smallest encodable value that is >= i.
func EncodeCount(i int) uint8 {
	if i < 1024 || i > 65011712 {
		panic("s2k: count out of range [1024, 65011712]")
	}
	for encoded := 0; encoded < 256; encoded++ {
		if DecodeCount(uint8(encoded)) >= i {
			return uint8(encoded)
		}
	}
	return 255
}

// DecodeCount expands a single-octet encoded iteration count into the
// actual byte count of passphrase-derived material to be hashed, per
// RFC 4880 section 3.7.7.1: (16 + (c & 15)) << ((c >> 4) + 6).
func DecodeCount(c uint8) int {
	return (16 + int(c&15)) << (uint(c>>4) + 6)
}

// Parse decodes an S2K specifier from r: one mode octet, one hash
// algorithm octet, and then a mode-dependent tail (nothing for
// Simple, an 8-octet salt for Salted, an 8-octet salt plus one count
// octet for IteratedSalted).
func Parse(r io.Reader) (*Params, error) {
	var head [2]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, unexpectEOF(err)
	}

	mode := Mode(head[0])
	h := algorithm.Hash(head[1])
	if _, ok := h.CryptoHash(); !ok {
		return nil, errors.UnsupportedError("s2k hash algorithm " + strconv.Itoa(int(h)) + " (known ids: " + algorithm.KnownHashIDs() + ")")
	}

	p := &Params{Mode: mode, Hash: h}

	switch mode {
	case ModeSimple:
		return p, nil
	case ModeSalted:
		p.Salt = make([]byte, 8)
		if _, err := io.ReadFull(r, p.Salt); err != nil {
			return nil, unexpectEOF(err)
		}
		return p, nil
	case ModeIteratedSalted:
		p.Salt = make([]byte, 8)
		if _, err := io.ReadFull(r, p.Salt); err != nil {
			return nil, unexpectEOF(err)
		}
		var countOctet [1]byte
		if _, err := io.ReadFull(r, countOctet[:]); err != nil {
			return nil, unexpectEOF(err)
		}
		p.Count = DecodeCount(countOctet[0])
		return p, nil
	default:
		return nil, errors.UnsupportedError("s2k mode " + strconv.Itoa(int(mode)) + " (known ids: 0, 1, 3)")
	}
}

// Serialize writes p's wire form to w.
func (p *Params) Serialize(w io.Writer) error {
	id, _ := hashToID(p.Hash)
	switch p.Mode {
	case ModeSimple:
		_, err := w.Write([]byte{byte(ModeSimple), id})
		return err
	case ModeSalted:
		buf := append([]byte{byte(ModeSalted), id}, p.Salt...)
		_, err := w.Write(buf)
		return err
	case ModeIteratedSalted:
		buf := append([]byte{byte(ModeIteratedSalted), id}, p.Salt...)
		buf = append(buf, EncodeCount(p.Count))
		_, err := w.Write(buf)
		return err
	default:
		return errors.InvalidArgumentError("s2k: unknown mode")
	}
}

// New builds a Params from a Config, drawing a fresh random salt from
// rand for Salted and IteratedSalted modes.
func New(rand io.Reader, c *Config) (*Params, error) {
	p := &Params{Mode: c.mode(), Hash: c.hash()}
	switch p.Mode {
	case ModeSimple:
		return p, nil
	case ModeSalted:
		p.Salt = make([]byte, 8)
		if _, err := io.ReadFull(rand, p.Salt); err != nil {
			return nil, err
		}
		return p, nil
	case ModeIteratedSalted:
		p.Salt = make([]byte, 8)
		if _, err := io.ReadFull(rand, p.Salt); err != nil {
			return nil, err
		}
		p.Count = DecodeCount(c.encodedCount())
		return p, nil
	default:
		return nil, errors.InvalidArgumentError("s2k: unknown mode")
	}
}

// Derive runs the string-to-key transform described by p over
// passphrase, producing outLen bytes of derived key material.
func (p *Params) Derive(passphrase []byte, outLen int) ([]byte, error) {
	ch, ok := p.Hash.CryptoHash()
	if !ok || !ch.Available() {
		return nil, errors.UnsupportedError("s2k hash not available: " + p.Hash.String())
	}
	h := ch.New()
	out := make([]byte, outLen)

	switch p.Mode {
	case ModeSimple:
		simple(out, h, passphrase)
	case ModeSalted:
		salted(out, h, passphrase, p.Salt)
	case ModeIteratedSalted:
		iterated(out, h, passphrase, p.Salt, p.Count)
	default:
		return nil, errors.InvalidArgumentError("s2k: unknown mode")
	}
	return out, nil
}

var zero [1]byte

func simple(out []byte, h hash.Hash, in []byte) {
	salted(out, h, in, nil)
}

func salted(out []byte, h hash.Hash, in, salt []byte) {
	var digest []byte
	done := 0
	for i := 0; done < len(out); i++ {
		h.Reset()
		for j := 0; j < i; j++ {
			h.Write(zero[:])
		}
		h.Write(salt)
		h.Write(in)
		digest = h.Sum(digest[:0])
		done += copy(out[done:], digest)
	}
}

func iterated(out []byte, h hash.Hash, in, salt []byte, count int) {
	combined := make([]byte, len(salt)+len(in))
	copy(combined, salt)
	copy(combined[len(salt):], in)

	if count < len(combined) {
		count = len(combined)
	}

	var digest []byte
	done := 0
	for i := 0; done < len(out); i++ {
		h.Reset()
		for j := 0; j < i; j++ {
			h.Write(zero[:])
		}
		written := 0
		for written < count {
			if written+len(combined) > count {
				h.Write(combined[:count-written])
				written = count
			} else {
				h.Write(combined)
				written += len(combined)
			}
		}
		digest = h.Sum(digest[:0])
		done += copy(out[done:], digest)
	}
}

func hashToID(h algorithm.Hash) (byte, bool) {
	if _, ok := h.CryptoHash(); ok {
		return byte(h), true
	}
	return 0, false
}

func unexpectEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
