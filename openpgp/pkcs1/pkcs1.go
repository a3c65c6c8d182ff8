// Package pkcs1 implements the EME-PKCS1-v1_5 padding used by RFC
// 4880 to wrap a session key for a Public-Key Encrypted Session Key
// Packet. It is reused, unmodified, for ElGamal: the RFC repurposes
// the RSA padding method for ElGamal's plaintext block even though
// ElGamal has no PKCS#1 standard of its own.
package pkcs1

import (
	"io"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/errors"
)

// Pad encodes message m into an EME-PKCS1-v1_5 block of exactly k
// octets: 0x00 0x02 PS 0x00 m, where PS is k-len(m)-3 non-zero random
// octets drawn from rand. It fails if m does not fit with at least 8
// octets of padding, per RFC 2313.
func Pad(rand io.Reader, k int, m []byte) ([]byte, error) {
	if len(m) > k-11 {
		return nil, errors.InvalidArgumentError("pkcs1: message too long for modulus")
	}

	em := make([]byte, k)
	em[0] = 0
	em[1] = 2

	ps := em[2 : k-len(m)-1]
	if err := nonZeroRandom(rand, ps); err != nil {
		return nil, err
	}
	em[k-len(m)-1] = 0
	copy(em[k-len(m):], m)
	return em, nil
}

// nonZeroRandom fills b with cryptographically random octets, none of
// which are zero, as required by the PS field of EME-PKCS1-v1_5.
func nonZeroRandom(rand io.Reader, b []byte) error {
	for i := 0; i < len(b); {
		buf := make([]byte, len(b)-i)
		if _, err := io.ReadFull(rand, buf); err != nil {
			return err
		}
		for _, v := range buf {
			if v != 0 {
				b[i] = v
				i++
			}
		}
	}
	return nil
}

// Unpad decodes an EME-PKCS1-v1_5 block of exactly k octets and
// returns the enclosed message. It rejects a block whose padding
// contains a zero octet in PS, whose leading two octets are not
// 0x00 0x02, or whose zero separator is missing.
//
// The comparisons below are not constant time with respect to the
// plaintext length, matching the RSA/ElGamal unwrap path this feeds.
// Callers exposed to a Bleichenbacher-style padding oracle should
// treat all PaddingError variants identically rather than branching
// on which check failed.
func Unpad(em []byte) ([]byte, error) {
	if len(em) < 11 {
		return nil, errors.PaddingError("block too short")
	}
	if em[0] != 0 || em[1] != 2 {
		return nil, errors.PaddingError("invalid block header")
	}

	sepIndex := -1
	for i := 2; i < len(em); i++ {
		if em[i] == 0 {
			sepIndex = i
			break
		}
	}
	if sepIndex < 0 {
		return nil, errors.PaddingError("missing zero separator")
	}
	if sepIndex < 10 {
		return nil, errors.PaddingError("padding string too short")
	}
	for _, b := range em[2:sepIndex] {
		if b == 0 {
			return nil, errors.PaddingError("zero octet in padding string")
		}
	}

	return em[sepIndex+1:], nil
}
