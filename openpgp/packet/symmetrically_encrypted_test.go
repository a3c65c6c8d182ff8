package packet

import (
	"bytes"
	"crypto/rand"
	"testing"
	"time"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/algorithm"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/errors"
)

func testKey(t *testing.T, cipherFunc algorithm.CipherFunction) []byte {
	key := make([]byte, cipherFunc.KeySize())
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return key
}

func TestSymmetricallyEncryptedRoundTrip(t *testing.T) {
	key := testKey(t, algorithm.CipherAES256)

	lit := &LiteralData{Format: 'b', Time: time.Unix(1, 0), Body: []byte("the quick brown fox")}
	var litBuf bytes.Buffer
	if err := lit.Serialize(&litBuf); err != nil {
		t.Fatalf("Serialize literal: %v", err)
	}

	var buf bytes.Buffer
	if err := SerializeSymmetricallyEncrypted(&buf, rand.Reader, algorithm.CipherAES256, key, litBuf.Bytes()); err != nil {
		t.Fatalf("SerializeSymmetricallyEncrypted: %v", err)
	}

	rd := NewReader(&buf)
	raw, err := rd.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if raw.Tag != TagSymmetricallyEncryptedMDC {
		t.Fatalf("got tag %d, want %d", raw.Tag, TagSymmetricallyEncryptedMDC)
	}

	payload, err := DecryptSymmetricallyEncrypted(raw.Body, algorithm.CipherAES256, key)
	if err != nil {
		t.Fatalf("DecryptSymmetricallyEncrypted: %v", err)
	}
	if !bytes.Equal(payload, litBuf.Bytes()) {
		t.Fatalf("got payload %x, want %x", payload, litBuf.Bytes())
	}

	inner := new(LiteralData)
	innerRd := NewReader(bytes.NewReader(payload))
	innerRaw, err := innerRd.Next()
	if err != nil {
		t.Fatalf("inner Next: %v", err)
	}
	if err := inner.parse(innerRaw.bodyReader()); err != nil {
		t.Fatalf("inner parse: %v", err)
	}
	if !bytes.Equal(inner.Body, lit.Body) {
		t.Errorf("got inner body %q, want %q", inner.Body, lit.Body)
	}
}

func TestSymmetricallyEncryptedRejectsWrongKey(t *testing.T) {
	key := testKey(t, algorithm.CipherAES128)
	wrongKey := testKey(t, algorithm.CipherAES128)

	var buf bytes.Buffer
	if err := SerializeSymmetricallyEncrypted(&buf, rand.Reader, algorithm.CipherAES128, key, []byte("payload")); err != nil {
		t.Fatalf("SerializeSymmetricallyEncrypted: %v", err)
	}

	rd := NewReader(&buf)
	raw, _ := rd.Next()
	_, err := DecryptSymmetricallyEncrypted(raw.Body, algorithm.CipherAES128, wrongKey)
	if err == nil {
		t.Fatal("expected error decrypting with the wrong key")
	}
	if err != errors.ErrMDCHashMismatch {
		t.Errorf("got error %v, want ErrMDCHashMismatch (must be indistinguishable from a tampered-payload failure)", err)
	}
}

func TestSymmetricallyEncryptedDetectsTampering(t *testing.T) {
	key := testKey(t, algorithm.CipherAES128)

	var buf bytes.Buffer
	if err := SerializeSymmetricallyEncrypted(&buf, rand.Reader, algorithm.CipherAES128, key, []byte("payload")); err != nil {
		t.Fatalf("SerializeSymmetricallyEncrypted: %v", err)
	}

	rd := NewReader(&buf)
	raw, _ := rd.Next()
	raw.Body[len(raw.Body)-1] ^= 0xFF // flip a bit in the trailing MDC digest ciphertext

	_, err := DecryptSymmetricallyEncrypted(raw.Body, algorithm.CipherAES128, key)
	if err == nil {
		t.Fatal("expected tampering to be detected")
	}
	if err != errors.ErrMDCHashMismatch {
		t.Errorf("got error %v, want ErrMDCHashMismatch (must be indistinguishable from a wrong-key failure)", err)
	}
}

func TestDecryptSymmetricallyEncryptedRejectsTruncated(t *testing.T) {
	if _, err := DecryptSymmetricallyEncrypted([]byte{1, 2, 3}, algorithm.CipherAES128, testKey(t, algorithm.CipherAES128)); err == nil {
		t.Fatal("expected error for truncated packet")
	}
}
