// Package elgamal implements the ElGamal public-key encryption
// algorithm as used by RFC 4880 to wrap a session key, following the
// classic crypto/elgamal package design that shipped alongside Go's
// own (now removed) OpenPGP implementation. It is not a general
// purpose ElGamal implementation: it exists to serve exactly the
// session-key-wrap use case the codec's PKESK packet needs.
package elgamal

import (
	"errors"
	"io"
	"math/big"
)

// PublicKey represents an ElGamal public key.
type PublicKey struct {
	G, P, Y *big.Int
}

// PrivateKey represents an ElGamal private key.
type PrivateKey struct {
	PublicKey
	X *big.Int
}

// Encrypt encrypts the given message to the public key pub. c1 and c2
// are the two components of the ElGamal ciphertext; msg must be
// smaller than pub.P.
//
// Callers almost always want to run msg through an EME-PKCS1-v1_5 pad
// first (see the pkcs1 package): ElGamal alone has no notion of
// padding, so an unpadded ciphertext carries no integrity signal.
func Encrypt(rand io.Reader, pub *PublicKey, msg []byte) (c1, c2 *big.Int, err error) {
	m := new(big.Int).SetBytes(msg)
	if m.Cmp(pub.P) >= 0 {
		return nil, nil, errors.New("elgamal: message representative is too large for the group")
	}

	k, err := randomInZpStar(rand, pub.P)
	if err != nil {
		return nil, nil, err
	}

	c1 = new(big.Int).Exp(pub.G, k, pub.P)
	s := new(big.Int).Exp(pub.Y, k, pub.P)
	c2 = s.Mul(s, m)
	c2.Mod(c2, pub.P)

	return c1, c2, nil
}

// Decrypt decrypts the ElGamal ciphertext (c1, c2) with priv and
// returns the resulting message.
func Decrypt(priv *PrivateKey, c1, c2 *big.Int) (msg []byte, err error) {
	if priv.P == nil || priv.P.Sign() == 0 {
		return nil, errors.New("elgamal: invalid private key")
	}

	s := new(big.Int).Exp(c1, priv.X, priv.P)
	s.ModInverse(s, priv.P)
	s.Mul(s, c2)
	s.Mod(s, priv.P)
	return s.Bytes(), nil
}

// randomInZpStar returns a random integer in [2, p-2], the exponent
// range ElGamal requires to avoid the degenerate subgroup elements.
func randomInZpStar(rand io.Reader, p *big.Int) (*big.Int, error) {
	pMinus2 := new(big.Int).Sub(p, big.NewInt(2))
	k, err := randInt(rand, pMinus2)
	if err != nil {
		return nil, err
	}
	return k.Add(k, big.NewInt(2)), nil
}

// randInt returns a uniform random value in [0, max) read from rand.
func randInt(rand io.Reader, max *big.Int) (*big.Int, error) {
	k := new(big.Int)
	byteLen := (max.BitLen() + 7) / 8
	bytes := make([]byte, byteLen)
	for {
		if _, err := io.ReadFull(rand, bytes); err != nil {
			return nil, err
		}
		k.SetBytes(bytes)
		if k.Cmp(max) < 0 {
			return k, nil
		}
	}
}
