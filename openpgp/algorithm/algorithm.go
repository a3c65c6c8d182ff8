// Package algorithm holds the closed, process-wide registries of
// RFC 4880 §9 algorithm identifiers used by the codec and key-material
// packages. The tables are pure data, built once at init time and never
// mutated, so they need no synchronization.
package algorithm

import (
	"crypto"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PublicKeyAlgorithm identifies a public-key algorithm as used in an
// OpenPGP packet. RFC 4880, section 9.1.
type PublicKeyAlgorithm uint8

const (
	PubKeyAlgoRSA            PublicKeyAlgorithm = 1
	PubKeyAlgoRSAEncryptOnly PublicKeyAlgorithm = 2
	PubKeyAlgoRSASignOnly    PublicKeyAlgorithm = 3
	PubKeyAlgoElGamal        PublicKeyAlgorithm = 16
	PubKeyAlgoDSA            PublicKeyAlgorithm = 17
)

var pubKeyAlgoNames = map[PublicKeyAlgorithm]string{
	PubKeyAlgoRSA:            "RSA",
	PubKeyAlgoRSAEncryptOnly: "RSA (encrypt only)",
	PubKeyAlgoRSASignOnly:    "RSA (sign only)",
	PubKeyAlgoElGamal:        "ElGamal",
	PubKeyAlgoDSA:            "DSA",
	18:                       "ECDH",
	19:                       "ECDSA",
	20:                       "Reserved (formerly ElGamal Encrypt or Sign)",
	22:                       "EdDSA",
}

// CanEncrypt reports whether this algorithm can be used to encrypt a
// session key (used to wrap a PKESK).
func (a PublicKeyAlgorithm) CanEncrypt() bool {
	switch a {
	case PubKeyAlgoRSA, PubKeyAlgoRSAEncryptOnly, PubKeyAlgoElGamal:
		return true
	}
	return false
}

func (a PublicKeyAlgorithm) String() string {
	if name, ok := pubKeyAlgoNames[a]; ok {
		return name
	}
	return fmt.Sprintf("unknown public-key algorithm %d", uint8(a))
}

// KnownPublicKeyAlgorithmIDs lists the registry's recognized public-key
// algorithm ids, for use in descriptive "unknown id" error messages.
func KnownPublicKeyAlgorithmIDs() string {
	ids := make([]int, 0, len(pubKeyAlgoNames))
	for id := range pubKeyAlgoNames {
		ids = append(ids, int(id))
	}
	return joinKnownIDs(ids)
}

// CipherFunction represents the different block ciphers supported by
// OpenPGP. RFC 4880, section 9.2.
type CipherFunction uint8

const (
	Cipher3DES     CipherFunction = 2
	CipherCAST5    CipherFunction = 3
	CipherAES128   CipherFunction = 7
	CipherAES192   CipherFunction = 8
	CipherAES256   CipherFunction = 9
)

type cipherInfo struct {
	name      string
	keySize   int
	blockSize int
	supported bool
}

var cipherInfos = map[CipherFunction]cipherInfo{
	Cipher3DES:   {"3DES", 24, 8, false},
	CipherCAST5:  {"CAST5", 16, 8, false},
	CipherAES128: {"AES-128", 16, 16, true},
	CipherAES192: {"AES-192", 24, 16, true},
	CipherAES256: {"AES-256", 32, 16, true},
}

// KeySize returns the key size, in bytes, for the given cipher function.
// It returns 0 for an unrecognized cipher.
func (c CipherFunction) KeySize() int {
	return cipherInfos[c].keySize
}

// BlockSize returns the block size, in bytes, for the given cipher
// function. It returns 0 for an unrecognized cipher.
func (c CipherFunction) BlockSize() int {
	return cipherInfos[c].blockSize
}

// IsSupported reports whether this library implements the given
// cipher function for the IPDP pipeline. Only AES-128/192/256 are
// supported; all other RFC 4880 cipher ids are recognized so that
// an unsupported cipher can still be named in an error, but none of
// them are wired into the encrypt/decrypt path.
func (c CipherFunction) IsSupported() bool {
	return cipherInfos[c].supported
}

func (c CipherFunction) String() string {
	if info, ok := cipherInfos[c]; ok {
		return info.name
	}
	return fmt.Sprintf("unknown cipher function %d", uint8(c))
}

// KnownCipherFunctionIDs lists the registry's recognized cipher
// function ids, for use in descriptive "unknown id" error messages.
func KnownCipherFunctionIDs() string {
	ids := make([]int, 0, len(cipherInfos))
	for id := range cipherInfos {
		ids = append(ids, int(id))
	}
	return joinKnownIDs(ids)
}

// Hash represents an RFC 4880, section 9.4 hash algorithm identifier.
type Hash uint8

const (
	HashMD5       Hash = 1
	HashSHA1      Hash = 2
	HashRIPEMD160 Hash = 3
	HashSHA256    Hash = 8
	HashSHA384    Hash = 9
	HashSHA512    Hash = 10
	HashSHA224    Hash = 11
)

var hashToCryptoHash = map[Hash]crypto.Hash{
	HashMD5:       crypto.MD5,
	HashSHA1:      crypto.SHA1,
	HashRIPEMD160: crypto.RIPEMD160,
	HashSHA256:    crypto.SHA256,
	HashSHA384:    crypto.SHA384,
	HashSHA512:    crypto.SHA512,
	HashSHA224:    crypto.SHA224,
}

// CryptoHash returns the crypto.Hash that implements this hash
// algorithm, and whether the id is recognized at all.
func (h Hash) CryptoHash() (crypto.Hash, bool) {
	ch, ok := hashToCryptoHash[h]
	return ch, ok
}

func (h Hash) String() string {
	if ch, ok := hashToCryptoHash[h]; ok {
		return ch.String()
	}
	return fmt.Sprintf("unknown hash algorithm %d", uint8(h))
}

// KnownHashIDs lists the registry's recognized hash algorithm ids, for
// use in descriptive "unknown id" error messages.
func KnownHashIDs() string {
	ids := make([]int, 0, len(hashToCryptoHash))
	for id := range hashToCryptoHash {
		ids = append(ids, int(id))
	}
	return joinKnownIDs(ids)
}

// joinKnownIDs renders a sorted, comma-separated id list for an
// "unknown id, known ids are: ..." error message.
func joinKnownIDs(ids []int) string {
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}

// CompressionAlgo represents an RFC 4880, section 9.3 compression
// algorithm identifier. Decompression itself is out of scope for this
// library; the table exists purely so a compressed-data packet can be
// rejected with a descriptive Unsupported error naming the algorithm.
type CompressionAlgo uint8

const (
	CompressionNone  CompressionAlgo = 0
	CompressionZIP   CompressionAlgo = 1
	CompressionZLIB  CompressionAlgo = 2
	CompressionBZIP2 CompressionAlgo = 3
)

var compressionNames = map[CompressionAlgo]string{
	CompressionNone:  "uncompressed",
	CompressionZIP:   "ZIP",
	CompressionZLIB:  "ZLIB",
	CompressionBZIP2: "BZIP2",
}

func (c CompressionAlgo) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}
	if c >= 100 && c <= 110 {
		return fmt.Sprintf("private/experimental compression algorithm %d", uint8(c))
	}
	return fmt.Sprintf("unknown compression algorithm %d", uint8(c))
}

// IsPrivateOrExperimental reports whether id falls in the RFC 4880
// private/experimental placeholder range, which carries no defined
// semantics.
func IsPrivateOrExperimental(id uint8) bool {
	return id >= 100 && id <= 110
}
