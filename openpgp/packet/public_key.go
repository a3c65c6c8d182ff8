package packet

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"io"
	"strconv"
	"time"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/algorithm"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/encoding"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/errors"
)

const (
	versionSize   = 1
	timestampSize = 4
	algorithmSize = 1
)

// PKMaterial is the algorithm-specific half of a public-key packet's
// body: the MPI fields that differ by PubKeyAlgo.
type PKMaterial struct {
	// RSA
	N, E *encoding.MPI
	// DSA
	P, Q, G, Y *encoding.MPI
	// ElGamal reuses P, G, Y above; it has no Q.
}

// PublicKey represents a version 4 OpenPGP public key packet (tag 6)
// or public subkey packet (tag 14). RFC 4880, section 5.5.2.
type PublicKey struct {
	Version      int
	IsSubkey     bool
	CreationTime time.Time
	PubKeyAlgo   algorithm.PublicKeyAlgorithm
	Material     PKMaterial

	Fingerprint []byte // 20 bytes, v4 SHA-1 fingerprint
	KeyId       uint64
}

// Parse decodes a public-key packet body (everything after the packet
// header) into pk.
func (pk *PublicKey) Parse(body []byte) error {
	return pk.parse(bytes.NewReader(body))
}

// parse reads a public-key packet body (everything after the packet
// header) from r.
func (pk *PublicKey) parse(r io.Reader) error {
	var buf [6]byte
	if _, err := readFull(r, buf[:]); err != nil {
		return err
	}
	if buf[0] != 4 {
		return errors.UnsupportedError("public key version " + strconv.Itoa(int(buf[0])) + " (known ids: 4)")
	}
	pk.Version = 4
	pk.CreationTime = time.Unix(int64(binary.BigEndian.Uint32(buf[1:5])), 0)
	pk.PubKeyAlgo = algorithm.PublicKeyAlgorithm(buf[5])

	var err error
	switch pk.PubKeyAlgo {
	case algorithm.PubKeyAlgoRSA, algorithm.PubKeyAlgoRSAEncryptOnly, algorithm.PubKeyAlgoRSASignOnly:
		err = pk.parseRSA(r)
	case algorithm.PubKeyAlgoDSA:
		err = pk.parseDSA(r)
	case algorithm.PubKeyAlgoElGamal:
		err = pk.parseElGamal(r)
	default:
		err = errors.UnsupportedError("public key algorithm " + strconv.Itoa(int(pk.PubKeyAlgo)) + " (known ids: " + algorithm.KnownPublicKeyAlgorithmIDs() + ")")
	}
	if err != nil {
		return err
	}

	pk.setFingerprintAndKeyId()
	return nil
}

func (pk *PublicKey) parseRSA(r io.Reader) error {
	pk.Material.N = new(encoding.MPI)
	if _, err := pk.Material.N.ReadFrom(r); err != nil {
		return err
	}
	pk.Material.E = new(encoding.MPI)
	if _, err := pk.Material.E.ReadFrom(r); err != nil {
		return err
	}
	if len(pk.Material.E.Bytes()) > 3 {
		return errors.UnsupportedError("large RSA public exponent")
	}
	return nil
}

func (pk *PublicKey) parseDSA(r io.Reader) error {
	for _, m := range []**encoding.MPI{&pk.Material.P, &pk.Material.Q, &pk.Material.G, &pk.Material.Y} {
		*m = new(encoding.MPI)
		if _, err := (*m).ReadFrom(r); err != nil {
			return err
		}
	}
	return nil
}

func (pk *PublicKey) parseElGamal(r io.Reader) error {
	for _, m := range []**encoding.MPI{&pk.Material.P, &pk.Material.G, &pk.Material.Y} {
		*m = new(encoding.MPI)
		if _, err := (*m).ReadFrom(r); err != nil {
			return err
		}
	}
	return nil
}

// setFingerprintAndKeyId computes the v4 fingerprint: a SHA-1 digest
// over a synthetic 0x99-tagged packet header followed by the key
// body, RFC 4880 section 12.2. The key id is the fingerprint's low 8
// bytes.
func (pk *PublicKey) setFingerprintAndKeyId() {
	h := sha1.New()
	if err := pk.serializeForHash(h); err != nil {
		panic(err) // hash.Hash.Write never fails
	}
	pk.Fingerprint = h.Sum(nil)
	pk.KeyId = binary.BigEndian.Uint64(pk.Fingerprint[12:20])
}

// serializeForHash writes the 0x99-prefixed form of the key used both
// to derive the fingerprint and (by a signature packet, out of scope
// here) to hash the key for a self-signature.
func (pk *PublicKey) serializeForHash(w io.Writer) error {
	length := versionSize + timestampSize + algorithmSize + pk.algorithmSpecificByteCount()
	if _, err := w.Write([]byte{0x99, byte(length >> 8), byte(length)}); err != nil {
		return err
	}
	return pk.serializeWithoutHeaders(w)
}

func (pk *PublicKey) algorithmSpecificByteCount() int {
	switch pk.PubKeyAlgo {
	case algorithm.PubKeyAlgoRSA, algorithm.PubKeyAlgoRSAEncryptOnly, algorithm.PubKeyAlgoRSASignOnly:
		return int(pk.Material.N.EncodedLength() + pk.Material.E.EncodedLength())
	case algorithm.PubKeyAlgoDSA:
		return int(pk.Material.P.EncodedLength() + pk.Material.Q.EncodedLength() +
			pk.Material.G.EncodedLength() + pk.Material.Y.EncodedLength())
	case algorithm.PubKeyAlgoElGamal:
		return int(pk.Material.P.EncodedLength() + pk.Material.G.EncodedLength() + pk.Material.Y.EncodedLength())
	default:
		panic("packet: unknown public key algorithm in algorithmSpecificByteCount")
	}
}

// Serialize writes pk as a complete public-key (or public-subkey)
// packet, including its header, to w.
func (pk *PublicKey) Serialize(w io.Writer) error {
	length := versionSize + timestampSize + algorithmSize + pk.algorithmSpecificByteCount()
	tag := TagPublicKey
	if pk.IsSubkey {
		tag = TagPublicSubkey
	}
	if err := serializeHeader(w, tag, length); err != nil {
		return err
	}
	return pk.serializeWithoutHeaders(w)
}

func (pk *PublicKey) serializeWithoutHeaders(w io.Writer) error {
	t := uint32(pk.CreationTime.Unix())
	if _, err := w.Write([]byte{
		byte(pk.Version),
		byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t),
		byte(pk.PubKeyAlgo),
	}); err != nil {
		return err
	}

	switch pk.PubKeyAlgo {
	case algorithm.PubKeyAlgoRSA, algorithm.PubKeyAlgoRSAEncryptOnly, algorithm.PubKeyAlgoRSASignOnly:
		if _, err := w.Write(pk.Material.N.EncodedBytes()); err != nil {
			return err
		}
		_, err := w.Write(pk.Material.E.EncodedBytes())
		return err
	case algorithm.PubKeyAlgoDSA:
		for _, m := range []*encoding.MPI{pk.Material.P, pk.Material.Q, pk.Material.G, pk.Material.Y} {
			if _, err := w.Write(m.EncodedBytes()); err != nil {
				return err
			}
		}
		return nil
	case algorithm.PubKeyAlgoElGamal:
		for _, m := range []*encoding.MPI{pk.Material.P, pk.Material.G, pk.Material.Y} {
			if _, err := w.Write(m.EncodedBytes()); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.InvalidArgumentError("packet: unknown public key algorithm")
	}
}
