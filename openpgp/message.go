// Package openpgp implements reading and writing of the subset of RFC
// 4880 OpenPGP messages this library supports: a Public-Key Encrypted
// Session Key packet wrapping a symmetric session key with ElGamal,
// followed by a Sym. Encrypted Integrity Protected Data Packet
// carrying a literal data packet. Packet-level types live in the
// packet subpackage; this package composes them into the message
// pipeline a caller actually wants: "decrypt this stream with this
// private key."
package openpgp

import (
	"bytes"
	"io"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/errors"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/packet"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/sessionkey"
)

// Message holds the decrypted result of reading an encrypted OpenPGP
// message: the literal data packet's metadata and content.
type Message struct {
	Format   byte
	FileName string
	Body     []byte
}

// ReadMessage reads a complete OpenPGP message from r: a PKESK packet
// naming priv's key id, followed by a Sym. Encrypted Integrity
// Protected Data Packet, and decrypts it, verifying the embedded MDC.
// priv must already be decrypted (see (*packet.PrivateKey).Decrypt)
// if it was passphrase protected on disk.
func ReadMessage(r io.Reader, priv *packet.PrivateKey) (*Message, error) {
	rd := packet.NewReader(r)

	esk, err := nextEncryptedKey(rd)
	if err != nil {
		return nil, err
	}

	if err := esk.Decrypt(priv); err != nil {
		return nil, err
	}
	defer esk.Key.Destroy()

	raw, err := rd.Next()
	if err != nil {
		if err == packet.ErrNoMorePackets {
			return nil, errors.StructuralError("message ends before integrity-protected data packet")
		}
		return nil, err
	}
	if raw.Tag != packet.TagSymmetricallyEncryptedMDC {
		return nil, errors.StructuralError("expected integrity-protected data packet")
	}

	payload, err := packet.DecryptSymmetricallyEncrypted(raw.Body, esk.CipherFunc, esk.Key.Bytes())
	if err != nil {
		return nil, err
	}

	return parseLiteralPayload(payload)
}

// nextEncryptedKey skips over any leading packets this library
// doesn't care about (there are none in the messages this library
// itself produces, but a well-behaved reader doesn't assume that)
// until it finds the PKESK packet, or the stream ends.
func nextEncryptedKey(rd *packet.Reader) (*packet.EncryptedKey, error) {
	for {
		raw, err := rd.Next()
		if err != nil {
			if err == packet.ErrNoMorePackets {
				return nil, errors.StructuralError("message has no encrypted session key packet")
			}
			return nil, err
		}
		if raw.Tag != packet.TagEncryptedKey {
			continue
		}
		esk := new(packet.EncryptedKey)
		if err := esk.Parse(raw.Body); err != nil {
			return nil, err
		}
		return esk, nil
	}
}

func parseLiteralPayload(payload []byte) (*Message, error) {
	rd := packet.NewReader(bytes.NewReader(payload))
	raw, err := rd.Next()
	if err != nil {
		return nil, err
	}
	if raw.Tag != packet.TagLiteralData {
		return nil, errors.StructuralError("integrity-protected data packet did not contain literal data")
	}

	lit := new(packet.LiteralData)
	if err := lit.Parse(raw.Body); err != nil {
		return nil, err
	}
	return &Message{Format: lit.Format, FileName: lit.FileName, Body: lit.Body}, nil
}

// EncryptMessage writes a complete encrypted OpenPGP message to w:
// a PKESK packet wrapping a fresh session key to pub, followed by the
// literal data named by fileName/body as a Sym. Encrypted Integrity
// Protected Data Packet. config may be nil to use the library's
// defaults (AES-128, crypto/rand.Reader).
func EncryptMessage(w io.Writer, pub *packet.PublicKey, fileName string, body []byte, config *packet.Config) error {
	cipherFunc := config.Cipher()
	rand := config.Random()

	keyBytes := make([]byte, cipherFunc.KeySize())
	if _, err := io.ReadFull(rand, keyBytes); err != nil {
		return err
	}
	key := sessionkey.New(keyBytes)
	defer key.Destroy()
	for i := range keyBytes {
		keyBytes[i] = 0
	}

	if err := packet.SerializeEncryptedKey(w, rand, pub, cipherFunc, key); err != nil {
		return err
	}

	lit := &packet.LiteralData{Format: 'b', FileName: fileName, Body: body}
	var litBuf bytes.Buffer
	if err := lit.Serialize(&litBuf); err != nil {
		return err
	}

	return packet.SerializeSymmetricallyEncrypted(w, rand, cipherFunc, key.Bytes(), litBuf.Bytes())
}
