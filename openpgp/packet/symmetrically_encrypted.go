package packet

import (
	"bytes"
	"crypto/cipher"
	"crypto/sha1"
	"io"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/algorithm"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/errors"
)

// ipdpVersion is the only version this library (or RFC 4880) defines
// for the Sym. Encrypted Integrity Protected Data Packet.
const ipdpVersion = 1

// mdcTrailerLength is the size, in bytes, of a serialized MDC packet:
// its fixed two-octet header plus the 20-byte digest.
const mdcTrailerLength = 2 + mdcLength

// DecryptSymmetricallyEncrypted reads a complete Sym. Encrypted
// Integrity Protected Data Packet (tag 18) body from body (everything
// after the packet header) and returns its decrypted, integrity
// checked payload: the concatenated plaintext packets the prefix and
// trailing MDC packet wrapped. RFC 4880, section 5.13.
//
// The returned payload has NOT been re-parsed into packets; callers
// typically feed it straight back into NewReader.
func DecryptSymmetricallyEncrypted(body []byte, cipherFunc algorithm.CipherFunction, key []byte) ([]byte, error) {
	if len(body) < 1 {
		return nil, errors.StructuralError("empty integrity-protected data packet")
	}
	if body[0] != ipdpVersion {
		return nil, errors.UnsupportedError("integrity-protected data packet version")
	}
	ciphertext := body[1:]

	blockSize := cipherFunc.BlockSize()
	if len(ciphertext) < blockSize+2+mdcTrailerLength {
		return nil, errors.StructuralError("truncated integrity-protected data packet")
	}

	block, err := newAESCipher(cipherFunc, key)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, blockSize)
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(plaintext, ciphertext)

	// Quick check: the two octets following the random prefix block
	// must repeat its last two octets. A wrong key almost certainly
	// fails this cheaply, before the SHA-1 digest is even computed.
	// Reported as the same error as an MDC mismatch below: a caller
	// must not be able to tell which check failed.
	if plaintext[blockSize-2] != plaintext[blockSize] || plaintext[blockSize-1] != plaintext[blockSize+1] {
		return nil, errors.ErrMDCHashMismatch
	}

	hashed := plaintext[:len(plaintext)-mdcLength]
	trailer := plaintext[len(plaintext)-mdcTrailerLength:]
	if err := checkMDCHeader(trailer[:2]); err != nil {
		return nil, err
	}

	h := sha1.New()
	h.Write(hashed)
	if !bytes.Equal(h.Sum(nil), plaintext[len(plaintext)-mdcLength:]) {
		return nil, errors.ErrMDCHashMismatch
	}

	payload := plaintext[blockSize+2 : len(plaintext)-mdcTrailerLength]
	return payload, nil
}

// SerializeSymmetricallyEncrypted wraps payload (the already
// serialized inner packets, typically a single literal data packet)
// in a Sym. Encrypted Integrity Protected Data Packet and writes it to
// w, RFC 4880 section 5.13. rand supplies the random prefix block.
func SerializeSymmetricallyEncrypted(w io.Writer, rand io.Reader, cipherFunc algorithm.CipherFunction, key []byte, payload []byte) error {
	block, err := newAESCipher(cipherFunc, key)
	if err != nil {
		return err
	}
	blockSize := cipherFunc.BlockSize()

	prefix := make([]byte, blockSize+2)
	if _, err := io.ReadFull(rand, prefix[:blockSize]); err != nil {
		return err
	}
	prefix[blockSize] = prefix[blockSize-2]
	prefix[blockSize+1] = prefix[blockSize-1]

	h := sha1.New()
	h.Write(prefix)
	h.Write(payload)
	h.Write([]byte{0xD3, 0x14})
	digest := h.Sum(nil)

	plaintext := make([]byte, 0, len(prefix)+len(payload)+mdcTrailerLength)
	plaintext = append(plaintext, prefix...)
	plaintext = append(plaintext, payload...)
	plaintext = append(plaintext, 0xD3, 0x14)
	plaintext = append(plaintext, digest...)

	ciphertext := make([]byte, len(plaintext))
	iv := make([]byte, blockSize)
	cipher.NewCFBEncrypter(block, iv).XORKeyStream(ciphertext, plaintext)

	if err := serializeHeader(w, TagSymmetricallyEncryptedMDC, 1+len(ciphertext)); err != nil {
		return err
	}
	if _, err := w.Write([]byte{ipdpVersion}); err != nil {
		return err
	}
	_, err = w.Write(ciphertext)
	return err
}
