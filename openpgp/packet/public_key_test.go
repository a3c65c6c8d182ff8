package packet

import (
	"bytes"
	"testing"
	"time"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/algorithm"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/encoding"
)

func testElGamalPublicKey() *PublicKey {
	return &PublicKey{
		Version:      4,
		CreationTime: time.Unix(1000000000, 0),
		PubKeyAlgo:   algorithm.PubKeyAlgoElGamal,
		Material: PKMaterial{
			P: encoding.NewMPI(bytes.Repeat([]byte{0xAB}, 16)),
			G: encoding.NewMPI([]byte{0x02}),
			Y: encoding.NewMPI(bytes.Repeat([]byte{0xCD}, 16)),
		},
	}
}

func TestPublicKeySerializeParseRoundTrip(t *testing.T) {
	pk := testElGamalPublicKey()

	var buf bytes.Buffer
	if err := pk.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	rd := NewReader(&buf)
	raw, err := rd.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if raw.Tag != TagPublicKey {
		t.Fatalf("got tag %d, want %d", raw.Tag, TagPublicKey)
	}

	parsed := new(PublicKey)
	if err := parsed.parse(raw.bodyReader()); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if parsed.PubKeyAlgo != pk.PubKeyAlgo {
		t.Errorf("got algo %v, want %v", parsed.PubKeyAlgo, pk.PubKeyAlgo)
	}
	if !parsed.CreationTime.Equal(pk.CreationTime) {
		t.Errorf("got creation time %v, want %v", parsed.CreationTime, pk.CreationTime)
	}
	if !bytes.Equal(parsed.Material.P.Bytes(), pk.Material.P.Bytes()) {
		t.Errorf("got P %x, want %x", parsed.Material.P.Bytes(), pk.Material.P.Bytes())
	}
	if len(parsed.Fingerprint) != 20 {
		t.Errorf("got fingerprint length %d, want 20", len(parsed.Fingerprint))
	}
}

func TestPublicKeyRejectsUnsupportedVersion(t *testing.T) {
	body := []byte{5, 0, 0, 0, 0, byte(algorithm.PubKeyAlgoRSA)}
	pk := new(PublicKey)
	if err := pk.parse(bytes.NewReader(body)); err == nil {
		t.Fatal("expected error for unsupported public key version")
	}
}

func TestPublicKeyRejectsUnknownAlgorithm(t *testing.T) {
	body := []byte{4, 0, 0, 0, 0, 99}
	pk := new(PublicKey)
	if err := pk.parse(bytes.NewReader(body)); err == nil {
		t.Fatal("expected error for unknown public key algorithm")
	}
}

func TestKeyIdDerivedFromFingerprint(t *testing.T) {
	pk := testElGamalPublicKey()
	var buf bytes.Buffer
	pk.Serialize(&buf)

	reparsed := new(PublicKey)
	rd := NewReader(&buf)
	raw, _ := rd.Next()
	if err := reparsed.parse(raw.bodyReader()); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if reparsed.KeyId == 0 {
		t.Fatal("key id was not derived")
	}
}
