package elgamal

import (
	"bytes"
	"crypto/rand"
	"math/big"
	"testing"
)

// A small, fixed ElGamal group for fast, deterministic tests. p is
// prime and g is a primitive root mod p; not suitable for real use —
// chosen only to keep exponentiation cheap.
func testKey() *PrivateKey {
	p := big.NewInt(2357)
	g := big.NewInt(2)
	x := big.NewInt(1751)

	priv := &PrivateKey{X: x}
	priv.P = p
	priv.G = g
	priv.Y = new(big.Int).Exp(g, x, p)
	return priv
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	priv := testKey()
	msg := big.NewInt(2035).Bytes() // must be smaller than p = 2357

	c1, c2, err := Encrypt(rand.Reader, &priv.PublicKey, msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := Decrypt(priv, c1, c2)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	got = bytes.TrimLeft(got, "\x00")
	want := bytes.TrimLeft(msg, "\x00")
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

func TestEncryptRejectsOversizedMessage(t *testing.T) {
	priv := testKey()
	tooBig := new(big.Int).Add(priv.P, big.NewInt(1)).Bytes()
	if _, _, err := Encrypt(rand.Reader, &priv.PublicKey, tooBig); err == nil {
		t.Fatal("expected error for a message representative larger than the modulus")
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	priv := testKey()
	msg := big.NewInt(1234).Bytes() // must be smaller than p = 2357

	c1a, _, err := Encrypt(rand.Reader, &priv.PublicKey, msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	c1b, _, err := Encrypt(rand.Reader, &priv.PublicKey, msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if c1a.Cmp(c1b) == 0 {
		t.Fatal("two encryptions of the same message produced the same ephemeral c1")
	}
}
