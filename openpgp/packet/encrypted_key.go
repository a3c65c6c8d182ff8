package packet

import (
	"bytes"
	"encoding/binary"
	"io"
	"math/big"
	"strconv"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/algorithm"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/elgamal"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/encoding"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/errors"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/pkcs1"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/sessionkey"
)

// EncryptedKey represents a version 3 Public-Key Encrypted Session
// Key Packet (tag 1), RFC 4880 section 5.1. Only the ElGamal
// algorithm is supported for the wrap itself; a packet naming any
// other algorithm parses (the key id and algorithm id are always
// readable) but cannot be decrypted or constructed by this package.
type EncryptedKey struct {
	Version int
	KeyId   uint64
	Algo    algorithm.PublicKeyAlgorithm

	// CipherFunc and Key are only valid after a successful Decrypt.
	// Key holds the unwrapped session key in locked, zero-on-destroy
	// memory; callers must call Key.Destroy once they are done with it.
	CipherFunc algorithm.CipherFunction
	Key        *sessionkey.Key

	c1, c2 *encoding.MPI // ElGamal ciphertext components
}

// Parse decodes a PKESK packet body (everything after the packet
// header) into e.
func (e *EncryptedKey) Parse(body []byte) error {
	return e.parse(bytes.NewReader(body))
}

func (e *EncryptedKey) parse(r io.Reader) error {
	var buf [9]byte
	if _, err := readFull(r, buf[:1]); err != nil {
		return err
	}
	e.Version = int(buf[0])
	if e.Version != 3 {
		return errors.UnsupportedError("PKESK version " + strconv.Itoa(e.Version) + " (known ids: 3)")
	}

	if _, err := readFull(r, buf[:8]); err != nil {
		return err
	}
	e.KeyId = binary.BigEndian.Uint64(buf[:8])

	if _, err := readFull(r, buf[:1]); err != nil {
		return err
	}
	e.Algo = algorithm.PublicKeyAlgorithm(buf[0])

	switch e.Algo {
	case algorithm.PubKeyAlgoElGamal:
		e.c1 = new(encoding.MPI)
		if _, err := e.c1.ReadFrom(r); err != nil {
			return err
		}
		e.c2 = new(encoding.MPI)
		if _, err := e.c2.ReadFrom(r); err != nil {
			return err
		}
	default:
		// Algorithm recognized at the registry level but not wrapped
		// by this implementation; the packet still parses so callers
		// can at least report the key id and algorithm involved.
	}
	return nil
}

// Decrypt unwraps the session key carried by e using priv, which must
// be the ElGamal private key named by e.KeyId (e.KeyId of 0 means
// "try this key regardless", RFC 4880 section 5.1's wildcard id).
func (e *EncryptedKey) Decrypt(priv *PrivateKey) error {
	if e.KeyId != 0 && e.KeyId != priv.PublicKey.KeyId {
		return errors.InvalidArgumentError("cannot decrypt PKESK for key id " +
			strconv.FormatUint(e.KeyId, 16) + " with private key id " + strconv.FormatUint(priv.PublicKey.KeyId, 16))
	}
	if e.Algo != algorithm.PubKeyAlgoElGamal {
		return errors.UnsupportedError("PKESK algorithm " + strconv.Itoa(int(e.Algo)) + " (known ids: " + algorithm.KnownPublicKeyAlgorithmIDs() + ")")
	}
	if priv.PublicKey.PubKeyAlgo != algorithm.PubKeyAlgoElGamal {
		return errors.InvalidArgumentError("private key algorithm does not match PKESK algorithm")
	}

	elgamalPriv := priv.elgamalPrivateKey()
	c1 := new(big.Int).SetBytes(e.c1.Bytes())
	c2 := new(big.Int).SetBytes(e.c2.Bytes())

	em, err := elgamal.Decrypt(elgamalPriv, c1, c2)
	if err != nil {
		return err
	}

	k := (elgamalPriv.P.BitLen() + 7) / 8
	if len(em) < k {
		padded := make([]byte, k)
		copy(padded[k-len(em):], em)
		em = padded
	}

	keyBlock, err := pkcs1.Unpad(em)
	if err != nil {
		return err
	}
	if len(keyBlock) < 3 {
		return errors.StructuralError("PKESK plaintext too short")
	}

	e.CipherFunc = algorithm.CipherFunction(keyBlock[0])
	if !e.CipherFunc.IsSupported() {
		return errors.UnsupportedError("cipher function " + strconv.Itoa(int(e.CipherFunc)) + " (known ids: " + algorithm.KnownCipherFunctionIDs() + ")")
	}

	key := keyBlock[1 : len(keyBlock)-2]
	expected := uint16(keyBlock[len(keyBlock)-2])<<8 | uint16(keyBlock[len(keyBlock)-1])
	if encoding.Checksum(key) != expected {
		return errors.ChecksumError("PKESK session key checksum mismatch")
	}

	e.Key = sessionkey.New(key)
	return nil
}

// Serialize writes the encrypted key packet to w.
func (e *EncryptedKey) Serialize(w io.Writer) error {
	if e.Algo != algorithm.PubKeyAlgoElGamal {
		return errors.InvalidArgumentError("cannot serialize PKESK for algorithm " + strconv.Itoa(int(e.Algo)))
	}
	mpiLen := int(e.c1.EncodedLength()) + int(e.c2.EncodedLength())
	packetLen := 1 + 8 + 1 + mpiLen

	if err := serializeHeader(w, TagEncryptedKey, packetLen); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(e.Version)}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, e.KeyId); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(e.Algo)}); err != nil {
		return err
	}
	if _, err := w.Write(e.c1.EncodedBytes()); err != nil {
		return err
	}
	_, err := w.Write(e.c2.EncodedBytes())
	return err
}

// SerializeEncryptedKey wraps key (a session key held in locked
// memory, with its leading cipher-function octet and trailing
// two-octet checksum appended here per the caller's choice of
// cipherFunc) to pub and writes the resulting PKESK packet to w. Only
// ElGamal public keys are accepted; see the allow-list rationale in
// this package's design notes.
func SerializeEncryptedKey(w io.Writer, rand io.Reader, pub *PublicKey, cipherFunc algorithm.CipherFunction, key *sessionkey.Key) error {
	if pub.PubKeyAlgo != algorithm.PubKeyAlgoElGamal {
		return errors.UnsupportedError("cannot wrap a session key to public key algorithm " + strconv.Itoa(int(pub.PubKeyAlgo)) + " (known ids: " + algorithm.KnownPublicKeyAlgorithmIDs() + ")")
	}

	keyBytes := key.Bytes()
	keyBlock := make([]byte, 1+len(keyBytes)+2)
	keyBlock[0] = byte(cipherFunc)
	copy(keyBlock[1:], keyBytes)
	checksum := encoding.Checksum(keyBytes)
	keyBlock[1+len(keyBytes)] = byte(checksum >> 8)
	keyBlock[1+len(keyBytes)+1] = byte(checksum)

	elgamalPub := &elgamal.PublicKey{
		P: new(big.Int).SetBytes(pub.Material.P.Bytes()),
		G: new(big.Int).SetBytes(pub.Material.G.Bytes()),
		Y: new(big.Int).SetBytes(pub.Material.Y.Bytes()),
	}

	k := (elgamalPub.P.BitLen() + 7) / 8
	em, err := pkcs1.Pad(rand, k, keyBlock)
	if err != nil {
		return err
	}

	c1, c2, err := elgamal.Encrypt(rand, elgamalPub, em)
	if err != nil {
		return errors.InvalidArgumentError("ElGamal encryption failed: " + err.Error())
	}

	e := &EncryptedKey{
		Version: 3,
		KeyId:   pub.KeyId,
		Algo:    algorithm.PubKeyAlgoElGamal,
		c1:      new(encoding.MPI).SetBig(c1),
		c2:      new(encoding.MPI).SetBig(c2),
	}
	return e.Serialize(w)
}
