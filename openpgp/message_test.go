package openpgp

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/algorithm"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/elgamal"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/encoding"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/packet"
)

// testGroupPrimeHex is the RFC 3526 1536-bit MODP group prime, a
// well-known safe prime with generator 2. A message round trip needs
// a modulus large enough to PKCS1-pad the wrapped session key block
// (cipher byte + key + checksum), which the small textbook group,
// p = 2357, used by the elgamal package's own tests is far too small
// for.
const testGroupPrimeHex = "FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD1" +
	"29024E088A67CC74020BBEA63B139B22514A08798E3404DD" +
	"EF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245" +
	"E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
	"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3D" +
	"C2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F" +
	"83655D23DCA3AD961C62F356208552BB9ED529077096966D" +
	"670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B" +
	"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9" +
	"DE2BCBF6955817183995497CEA956AE515D2261898FA0510" +
	"15728E5A8AACAA68FFFFFFFFFFFFFFFF"

// testKeyPair returns an ElGamal key pair over the RFC 3526 1536-bit
// MODP group, wrapped as a public/private key packet pair.
func testKeyPair() (*packet.PublicKey, *packet.PrivateKey) {
	p := new(big.Int)
	p.SetString(testGroupPrimeHex, 16)
	g := big.NewInt(2)
	x := new(big.Int).SetInt64(123456789012345)
	y := new(big.Int).Exp(g, x, p)

	pub := &packet.PublicKey{
		Version:      4,
		CreationTime: time.Unix(1000000000, 0),
		PubKeyAlgo:   algorithm.PubKeyAlgoElGamal,
		Material: packet.PKMaterial{
			P: new(encoding.MPI).SetBig(p),
			G: new(encoding.MPI).SetBig(g),
			Y: new(encoding.MPI).SetBig(y),
		},
	}
	// Round-trip through Serialize/Parse once so Fingerprint/KeyId are
	// populated exactly as a real caller who read this key off the
	// wire would see them.
	var buf bytes.Buffer
	pub.Serialize(&buf)
	rd := packet.NewReader(&buf)
	raw, _ := rd.Next()
	pub = new(packet.PublicKey)
	pub.Parse(raw.Body)

	priv := packet.NewElGamalPrivateKey(*pub, &elgamal.PrivateKey{
		PublicKey: elgamal.PublicKey{P: p, G: g, Y: y},
		X:         x,
	})
	return pub, priv
}

func TestEncryptReadMessageRoundTrip(t *testing.T) {
	pub, priv := testKeyPair()

	var buf bytes.Buffer
	if err := EncryptMessage(&buf, pub, "hello.txt", []byte("hello, world"), nil); err != nil {
		t.Fatalf("EncryptMessage: %v", err)
	}

	msg, err := ReadMessage(&buf, priv)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if msg.FileName != "hello.txt" {
		t.Errorf("got file name %q, want hello.txt", msg.FileName)
	}
	if !bytes.Equal(msg.Body, []byte("hello, world")) {
		t.Errorf("got body %q, want %q", msg.Body, "hello, world")
	}
}

func TestReadMessageRejectsWrongPrivateKey(t *testing.T) {
	pub, _ := testKeyPair()
	_, otherPriv := testKeyPair() // same key material, but force a key id mismatch below
	otherPriv.PublicKey.KeyId ^= 1

	var buf bytes.Buffer
	if err := EncryptMessage(&buf, pub, "hello.txt", []byte("hello"), nil); err != nil {
		t.Fatalf("EncryptMessage: %v", err)
	}

	if _, err := ReadMessage(&buf, otherPriv); err == nil {
		t.Fatal("expected error reading a message with the wrong private key")
	}
}

func TestEncryptMessageDefaultCipherIsAES128(t *testing.T) {
	pub, priv := testKeyPair()

	var buf bytes.Buffer
	if err := EncryptMessage(&buf, pub, "", []byte("x"), nil); err != nil {
		t.Fatalf("EncryptMessage: %v", err)
	}
	msg, err := ReadMessage(&buf, priv)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !bytes.Equal(msg.Body, []byte("x")) {
		t.Errorf("got body %q, want x", msg.Body)
	}
}
