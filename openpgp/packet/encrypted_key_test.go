package packet

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/algorithm"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/sessionkey"
)

func TestEncryptedKeySerializeParseDecryptRoundTrip(t *testing.T) {
	priv := testElGamalPrivateKey()
	pub := priv.PublicKey

	sessionKeyBytes := make([]byte, algorithm.CipherAES256.KeySize())
	if _, err := rand.Read(sessionKeyBytes); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	sessionKey := sessionkey.New(sessionKeyBytes)
	defer sessionKey.Destroy()

	var buf bytes.Buffer
	if err := SerializeEncryptedKey(&buf, rand.Reader, &pub, algorithm.CipherAES256, sessionKey); err != nil {
		t.Fatalf("SerializeEncryptedKey: %v", err)
	}

	rd := NewReader(&buf)
	raw, err := rd.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if raw.Tag != TagEncryptedKey {
		t.Fatalf("got tag %d, want %d", raw.Tag, TagEncryptedKey)
	}

	esk := new(EncryptedKey)
	if err := esk.Parse(raw.Body); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if esk.KeyId != pub.KeyId {
		t.Errorf("got key id %x, want %x", esk.KeyId, pub.KeyId)
	}

	if err := esk.Decrypt(priv); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if esk.CipherFunc != algorithm.CipherAES256 {
		t.Errorf("got cipher %v, want AES-256", esk.CipherFunc)
	}
	defer esk.Key.Destroy()
	if !bytes.Equal(esk.Key.Bytes(), sessionKeyBytes) {
		t.Errorf("got session key %x, want %x", esk.Key.Bytes(), sessionKeyBytes)
	}
}

func TestEncryptedKeyDecryptRejectsWrongKeyId(t *testing.T) {
	priv := testElGamalPrivateKey()
	pub := priv.PublicKey

	sessionKey := sessionkey.New([]byte("0123456789abcdef"))
	defer sessionKey.Destroy()

	var buf bytes.Buffer
	if err := SerializeEncryptedKey(&buf, rand.Reader, &pub, algorithm.CipherAES128, sessionKey); err != nil {
		t.Fatalf("SerializeEncryptedKey: %v", err)
	}

	rd := NewReader(&buf)
	raw, _ := rd.Next()
	esk := new(EncryptedKey)
	if err := esk.Parse(raw.Body); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	esk.KeyId ^= 1

	if err := esk.Decrypt(priv); err == nil {
		t.Fatal("expected error for mismatched key id")
	}
}

func TestEncryptedKeyParseRejectsUnsupportedVersion(t *testing.T) {
	body := []byte{6, 0, 0, 0, 0, 0, 0, 0, 1, byte(algorithm.PubKeyAlgoElGamal)}
	esk := new(EncryptedKey)
	if err := esk.Parse(body); err == nil {
		t.Fatal("expected error for unsupported PKESK version")
	}
}

func TestEncryptedKeyParseAllowsUnknownAlgorithm(t *testing.T) {
	body := []byte{3, 0, 0, 0, 0, 0, 0, 0, 1, 99}
	esk := new(EncryptedKey)
	if err := esk.Parse(body); err != nil {
		t.Fatalf("expected unknown-algorithm PKESK body to still parse, got %v", err)
	}
	if esk.KeyId != 1 {
		t.Errorf("got key id %d, want 1", esk.KeyId)
	}
}

func TestSerializeEncryptedKeyRejectsNonElGamalPublicKey(t *testing.T) {
	pub := &PublicKey{PubKeyAlgo: algorithm.PubKeyAlgoRSA}
	sessionKey := sessionkey.New([]byte("k"))
	defer sessionKey.Destroy()
	err := SerializeEncryptedKey(&bytes.Buffer{}, rand.Reader, pub, algorithm.CipherAES128, sessionKey)
	if err == nil {
		t.Fatal("expected error wrapping a session key to an RSA public key")
	}
}
