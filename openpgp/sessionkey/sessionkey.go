// Package sessionkey wraps decrypted OpenPGP session keys and
// passphrase-derived secret-key material in locked, zero-on-release
// memory, so a decoded plaintext key does not linger in the Go heap
// (and therefore in swap or a core dump) after its owner is done
// with it.
package sessionkey

import "github.com/awnumar/memguard"

// Key holds sensitive key material in a memguard.LockedBuffer: pages
// that cannot be swapped, and are wiped on Destroy or process exit.
type Key struct {
	buf *memguard.LockedBuffer
}

// New copies b into a freshly allocated locked buffer and returns a
// Key owning it. The caller remains responsible for wiping b itself
// if it came from an untrusted source buffer that should not outlive
// this call.
func New(b []byte) *Key {
	// memguard.NewBufferFromBytes wipes the slice it is given, so it
	// gets a copy and b is left as the caller passed it.
	src := make([]byte, len(b))
	copy(src, b)
	return &Key{buf: memguard.NewBufferFromBytes(src)}
}

// NewRandom allocates a locked buffer of n random bytes, used to mint
// a fresh session key when encrypting rather than decrypting.
func NewRandom(n int) *Key {
	return &Key{buf: memguard.NewBufferRandom(n)}
}

// Bytes returns the enclosed key material. The returned slice aliases
// locked memory and must not be retained past a call to Destroy.
func (k *Key) Bytes() []byte {
	return k.buf.Bytes()
}

// Destroy wipes and releases the underlying locked buffer. It is safe
// to call more than once.
func (k *Key) Destroy() {
	k.buf.Destroy()
}
