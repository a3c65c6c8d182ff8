package packet

import (
	"bytes"
	"crypto/cipher"
	"crypto/dsa"
	"crypto/rsa"
	"crypto/sha1"
	"io"
	"math/big"
	"strconv"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/algorithm"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/elgamal"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/encoding"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/errors"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/s2k"
)

// s2kUsage is the convention octet RFC 4880 section 5.5.3 overloads:
// 0 means the private key material that follows is unencrypted and
// checksummed with the plain two-octet sum; 254 and 255 mean it is
// symmetrically encrypted, checksummed (after decryption) with a
// SHA-1 digest or the plain sum respectively. Any other value is the
// legacy pre-RFC-4880 convention: the octet itself is a cipher
// algorithm id, no S2K specifier follows on the wire, an implicit
// Simple/MD5 S2K is assumed, and the checksum is the plain sum.
type s2kUsage uint8

const (
	usageUnencrypted s2kUsage = 0
	usageSHA1Check   s2kUsage = 254
	usageSumCheck    s2kUsage = 255
)

// PrivateKey represents a version 4 OpenPGP secret-key packet (tag 5)
// or secret-subkey packet (tag 7). RFC 4880, section 5.5.3.
type PrivateKey struct {
	PublicKey PublicKey
	IsSubkey  bool

	Encrypted bool // true until a successful Decrypt call, when s2k-protected

	usage      s2kUsage
	cipher     algorithm.CipherFunction
	s2kParams  *s2k.Params
	iv         []byte
	encrypted  []byte // ciphertext of the algorithm-specific secret fields, present while Encrypted

	// material, once decrypted (or if never encrypted):
	rsaPriv     *rsa.PrivateKey
	dsaX        *big.Int
	elgamalPriv *elgamal.PrivateKey
}

// Parse decodes a secret-key packet body (everything after the packet
// header) into pk.
func (pk *PrivateKey) Parse(body []byte) error {
	return pk.parse(bytes.NewReader(body))
}

func (pk *PrivateKey) parse(r io.Reader) error {
	if err := pk.PublicKey.parse(r); err != nil {
		return err
	}

	var buf [1]byte
	if _, err := readFull(r, buf[:]); err != nil {
		return err
	}
	pk.usage = s2kUsage(buf[0])

	switch pk.usage {
	case usageUnencrypted:
		pk.Encrypted = false
	case usageSHA1Check, usageSumCheck:
		if _, err := readFull(r, buf[:]); err != nil {
			return err
		}
		pk.cipher = algorithm.CipherFunction(buf[0])
		if !pk.cipher.IsSupported() {
			return errors.UnsupportedError("secret key cipher " + strconv.Itoa(int(pk.cipher)) + " (known ids: " + algorithm.KnownCipherFunctionIDs() + ")")
		}
		params, err := s2k.Parse(r)
		if err != nil {
			return err
		}
		pk.s2kParams = params
		pk.Encrypted = true
	default:
		// Legacy convention: the usage octet is itself the cipher
		// algorithm id, with no S2K specifier on the wire.
		pk.cipher = algorithm.CipherFunction(pk.usage)
		if !pk.cipher.IsSupported() {
			return errors.UnsupportedError("secret key s2k usage convention " + strconv.Itoa(int(pk.usage)) + " (known ids: 0, 254, 255, or a supported cipher id: " + algorithm.KnownCipherFunctionIDs() + ")")
		}
		pk.s2kParams = &s2k.Params{Mode: s2k.ModeSimple, Hash: algorithm.HashMD5}
		pk.Encrypted = true
	}

	if pk.Encrypted {
		pk.iv = make([]byte, pk.cipher.BlockSize())
		if _, err := readFull(r, pk.iv); err != nil {
			return err
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	if !pk.Encrypted {
		plain, err := stripChecksum(data, false)
		if err != nil {
			return err
		}
		return pk.parseSecretMaterial(plain)
	}

	pk.encrypted = data
	return nil
}

// stripChecksum validates and removes the trailing checksum from
// decrypted (or, for usage 0, plaintext) secret-key material: either
// a SHA-1 digest (sha1Checksum == true) or the plain two-octet sum.
func stripChecksum(data []byte, sha1Checksum bool) ([]byte, error) {
	if sha1Checksum {
		if len(data) < sha1.Size {
			return nil, errors.StructuralError("truncated secret key data")
		}
		body := data[:len(data)-sha1.Size]
		h := sha1.New()
		h.Write(body)
		if !bytes.Equal(h.Sum(nil), data[len(data)-sha1.Size:]) {
			return nil, errors.ChecksumError("secret key SHA-1 checksum mismatch")
		}
		return body, nil
	}

	if len(data) < 2 {
		return nil, errors.StructuralError("truncated secret key data")
	}
	body := data[:len(data)-2]
	want := uint16(data[len(data)-2])<<8 | uint16(data[len(data)-1])
	if encoding.Checksum(body) != want {
		return nil, errors.ChecksumError("secret key checksum mismatch")
	}
	return body, nil
}

// Decrypt decrypts pk's secret material with the given passphrase,
// deriving the symmetric key via pk's S2K parameters.
func (pk *PrivateKey) Decrypt(passphrase []byte) error {
	if !pk.Encrypted {
		return nil
	}

	key, err := pk.s2kParams.Derive(passphrase, pk.cipher.KeySize())
	if err != nil {
		return err
	}

	block, err := newAESCipher(pk.cipher, key)
	if err != nil {
		return err
	}
	stream := cipher.NewCFBDecrypter(block, pk.iv)
	plain := make([]byte, len(pk.encrypted))
	stream.XORKeyStream(plain, pk.encrypted)

	body, err := stripChecksum(plain, pk.usage == usageSHA1Check)
	if err != nil {
		return err
	}
	if err := pk.parseSecretMaterial(body); err != nil {
		return err
	}

	pk.Encrypted = false
	pk.encrypted = nil
	return nil
}

func (pk *PrivateKey) parseSecretMaterial(data []byte) error {
	buf := bytes.NewReader(data)
	switch pk.PublicKey.PubKeyAlgo {
	case algorithm.PubKeyAlgoRSA, algorithm.PubKeyAlgoRSAEncryptOnly, algorithm.PubKeyAlgoRSASignOnly:
		return pk.parseRSASecret(buf)
	case algorithm.PubKeyAlgoDSA:
		return pk.parseDSASecret(buf)
	case algorithm.PubKeyAlgoElGamal:
		return pk.parseElGamalSecret(buf)
	default:
		return errors.UnsupportedError("secret key algorithm " + strconv.Itoa(int(pk.PublicKey.PubKeyAlgo)) + " (known ids: " + algorithm.KnownPublicKeyAlgorithmIDs() + ")")
	}
}

func (pk *PrivateKey) parseRSASecret(r io.Reader) error {
	d := new(encoding.MPI)
	if _, err := d.ReadFrom(r); err != nil {
		return err
	}
	p := new(encoding.MPI)
	if _, err := p.ReadFrom(r); err != nil {
		return err
	}
	q := new(encoding.MPI)
	if _, err := q.ReadFrom(r); err != nil {
		return err
	}
	// The final MPI, the multiplicative inverse of q mod p, is
	// recomputed by Precompute rather than trusted from the wire.
	if _, err := new(encoding.MPI).ReadFrom(r); err != nil {
		return err
	}

	priv := new(rsa.PrivateKey)
	priv.PublicKey = rsa.PublicKey{
		N: pk.PublicKey.Material.N.Big(),
		E: int(pk.PublicKey.Material.E.Big().Int64()),
	}
	priv.D = d.Big()
	priv.Primes = []*big.Int{p.Big(), q.Big()}
	if err := priv.Validate(); err != nil {
		return errors.KeyInvalidError(err.Error())
	}
	priv.Precompute()
	pk.rsaPriv = priv
	return nil
}

func (pk *PrivateKey) parseDSASecret(r io.Reader) error {
	x := new(encoding.MPI)
	if _, err := x.ReadFrom(r); err != nil {
		return err
	}
	priv := &dsa.PrivateKey{
		PublicKey: dsa.PublicKey{
			Parameters: dsa.Parameters{
				P: pk.PublicKey.Material.P.Big(),
				Q: pk.PublicKey.Material.Q.Big(),
				G: pk.PublicKey.Material.G.Big(),
			},
			Y: pk.PublicKey.Material.Y.Big(),
		},
		X: x.Big(),
	}
	if err := validateDSAParameters(priv); err != nil {
		return err
	}
	pk.dsaX = priv.X
	return nil
}

func (pk *PrivateKey) parseElGamalSecret(r io.Reader) error {
	x := new(encoding.MPI)
	if _, err := x.ReadFrom(r); err != nil {
		return err
	}
	priv := &elgamal.PrivateKey{
		PublicKey: elgamal.PublicKey{
			P: pk.PublicKey.Material.P.Big(),
			G: pk.PublicKey.Material.G.Big(),
			Y: pk.PublicKey.Material.Y.Big(),
		},
		X: x.Big(),
	}
	if err := validateElGamalParameters(priv); err != nil {
		return err
	}
	pk.elgamalPriv = priv
	return nil
}

// elgamalPrivateKey returns pk's decrypted ElGamal private key, or
// nil if pk does not hold one (callers are expected to have already
// checked PublicKey.PubKeyAlgo).
func (pk *PrivateKey) elgamalPrivateKey() *elgamal.PrivateKey {
	return pk.elgamalPriv
}

// NewElGamalPrivateKey wraps an already generated ElGamal key pair as
// an unencrypted secret-key packet. pub's Material must already agree
// with priv's group and public value; callers that generate keys from
// scratch are expected to build pub.Material from priv.PublicKey
// directly.
func NewElGamalPrivateKey(pub PublicKey, priv *elgamal.PrivateKey) *PrivateKey {
	return &PrivateKey{PublicKey: pub, elgamalPriv: priv}
}

// validateDSAParameters cross-checks that x, y, g, p, q are
// internally consistent, rejecting a secret key whose components
// were tampered with or corrupted rather than trusting them blindly.
func validateDSAParameters(priv *dsa.PrivateKey) error {
	p, q, g, x, y := priv.P, priv.Q, priv.G, priv.X, priv.Y
	one := big.NewInt(1)
	if g.Cmp(one) <= 0 || y.Cmp(one) <= 0 || g.Cmp(p) > 0 {
		return errors.KeyInvalidError("dsa: invalid group")
	}
	if p.Cmp(q) <= 0 {
		return errors.KeyInvalidError("dsa: invalid group prime")
	}
	pSub1 := new(big.Int).Sub(p, one)
	if q.BitLen() < 150 || new(big.Int).Mod(pSub1, q).Sign() != 0 {
		return errors.KeyInvalidError("dsa: invalid order")
	}
	if !q.ProbablyPrime(32) || new(big.Int).Exp(g, q, p).Cmp(one) != 0 {
		return errors.KeyInvalidError("dsa: invalid order")
	}
	if new(big.Int).Exp(g, x, p).Cmp(y) != 0 {
		return errors.KeyInvalidError("dsa: mismatching values")
	}
	return nil
}

// validateElGamalParameters mirrors validateDSAParameters for the
// ElGamal group, additionally rejecting a generator of conspicuously
// small order (a cheap sanity check, not a full order computation).
func validateElGamalParameters(priv *elgamal.PrivateKey) error {
	p, g, x, y := priv.P, priv.G, priv.X, priv.Y
	one := big.NewInt(1)
	if g.Cmp(one) <= 0 || y.Cmp(one) <= 0 || g.Cmp(p) > 0 {
		return errors.KeyInvalidError("elgamal: invalid group")
	}
	if p.BitLen() < 1024 {
		return errors.KeyInvalidError("elgamal: group order too small")
	}
	pSub1 := new(big.Int).Sub(p, one)
	if new(big.Int).Exp(g, pSub1, p).Cmp(one) != 0 {
		return errors.KeyInvalidError("elgamal: invalid group")
	}

	gExpI := new(big.Int).Set(g)
	threshold := 2 << 17
	for i := 1; i < threshold; i++ {
		gExpI.Mod(new(big.Int).Mul(gExpI, g), p)
		if gExpI.Cmp(one) == 0 {
			return errors.KeyInvalidError("elgamal: order too small")
		}
	}
	if new(big.Int).Exp(g, x, p).Cmp(y) != 0 {
		return errors.KeyInvalidError("elgamal: mismatching values")
	}
	return nil
}

// Serialize writes pk as a complete secret-key (or secret-subkey)
// packet. pk must be unencrypted: Serialize never re-encrypts.
func (pk *PrivateKey) Serialize(w io.Writer) error {
	if pk.Encrypted {
		return errors.InvalidArgumentError("cannot serialize an encrypted private key")
	}

	var body bytes.Buffer
	if err := pk.serializeSecretMaterial(&body); err != nil {
		return err
	}
	keyBytes := body.Bytes()
	plain := encoding.AppendChecksum(append([]byte{}, keyBytes...), keyBytes)

	var pubBody bytes.Buffer
	if err := pk.PublicKey.serializeWithoutHeaders(&pubBody); err != nil {
		return err
	}

	length := pubBody.Len() + 1 + len(plain)
	tag := TagPrivateKey
	if pk.IsSubkey {
		tag = TagPrivateSubkey
	}
	if err := serializeHeader(w, tag, length); err != nil {
		return err
	}
	if _, err := w.Write(pubBody.Bytes()); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(usageUnencrypted)}); err != nil {
		return err
	}
	_, err := w.Write(plain)
	return err
}

func (pk *PrivateKey) serializeSecretMaterial(w io.Writer) error {
	switch pk.PublicKey.PubKeyAlgo {
	case algorithm.PubKeyAlgoRSA, algorithm.PubKeyAlgoRSAEncryptOnly, algorithm.PubKeyAlgoRSASignOnly:
		if pk.rsaPriv == nil {
			return errors.InvalidArgumentError("no RSA secret material to serialize")
		}
		qInv := new(big.Int).ModInverse(pk.rsaPriv.Primes[1], pk.rsaPriv.Primes[0])
		for _, m := range []*encoding.MPI{
			new(encoding.MPI).SetBig(pk.rsaPriv.D),
			new(encoding.MPI).SetBig(pk.rsaPriv.Primes[0]),
			new(encoding.MPI).SetBig(pk.rsaPriv.Primes[1]),
			new(encoding.MPI).SetBig(qInv),
		} {
			if _, err := w.Write(m.EncodedBytes()); err != nil {
				return err
			}
		}
		return nil
	case algorithm.PubKeyAlgoDSA:
		if pk.dsaX == nil {
			return errors.InvalidArgumentError("no DSA secret material to serialize")
		}
		_, err := w.Write(new(encoding.MPI).SetBig(pk.dsaX).EncodedBytes())
		return err
	case algorithm.PubKeyAlgoElGamal:
		if pk.elgamalPriv == nil {
			return errors.InvalidArgumentError("no ElGamal secret material to serialize")
		}
		_, err := w.Write(new(encoding.MPI).SetBig(pk.elgamalPriv.X).EncodedBytes())
		return err
	default:
		return errors.UnsupportedError("secret key algorithm " + strconv.Itoa(int(pk.PublicKey.PubKeyAlgo)) + " (known ids: " + algorithm.KnownPublicKeyAlgorithmIDs() + ")")
	}
}
