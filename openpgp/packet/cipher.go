package packet

import (
	"crypto/aes"
	"crypto/cipher"
	"strconv"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/algorithm"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/errors"
)

// newAESCipher constructs a block cipher for one of the AES variants
// this library supports; any other cipher function id is rejected
// before reaching here by CipherFunction.IsSupported checks.
func newAESCipher(c algorithm.CipherFunction, key []byte) (cipher.Block, error) {
	if !c.IsSupported() {
		return nil, errors.UnsupportedError("cipher function " + strconv.Itoa(int(c)) + " (known ids: " + algorithm.KnownCipherFunctionIDs() + ")")
	}
	if len(key) != c.KeySize() {
		return nil, errors.InvalidArgumentError("wrong key size for cipher function " + strconv.Itoa(int(c)))
	}
	return aes.NewCipher(key)
}
