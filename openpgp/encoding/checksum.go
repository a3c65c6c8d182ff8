package encoding

// Checksum computes the RFC 4880 two-octet additive checksum: the sum
// of all input octets, modulo 65536, as a big-endian uint16. It is
// used both for unencrypted secret-key material and for the wrapped
// session-key blob built before ElGamal padding.
func Checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// AppendChecksum appends the two big-endian checksum octets of data to
// dst and returns the extended slice.
func AppendChecksum(dst, data []byte) []byte {
	sum := Checksum(data)
	return append(dst, byte(sum>>8), byte(sum))
}
