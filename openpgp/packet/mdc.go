package packet

import (
	"io"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/errors"
)

// mdcLength is the fixed SHA-1 digest size of a Modification Detection
// Code packet. RFC 4880, section 5.14.
const mdcLength = 20

// ModificationDetectionCode represents the trailing MDC packet (tag
// 19) of an integrity-protected data packet: a SHA-1 digest over
// everything preceding it, including the plaintext prefix and the
// MDC packet's own two-octet header.
type ModificationDetectionCode struct {
	Hash [mdcLength]byte
}

func (m *ModificationDetectionCode) parse(r io.Reader) error {
	_, err := readFull(r, m.Hash[:])
	return err
}

// Serialize writes m as a complete MDC packet, including its header,
// to w. RFC 4880 fixes this header to exactly 0xD3, 0x14.
func (m *ModificationDetectionCode) Serialize(w io.Writer) error {
	if err := serializeHeader(w, TagMDC, mdcLength); err != nil {
		return err
	}
	_, err := w.Write(m.Hash[:])
	return err
}

// checkMDCHeader validates that header is exactly the fixed two-octet
// MDC packet header RFC 4880 mandates, rather than trusting whatever
// serializeHeader happened to produce for tag 19 length 20 (which is
// the same bytes, but the pipeline checks this explicitly since a
// malformed header here is a sign of tampering, not a coding error).
func checkMDCHeader(header []byte) error {
	if len(header) != 2 || header[0] != 0xD3 || header[1] != 0x14 {
		return errors.StructuralError("malformed MDC packet header")
	}
	return nil
}
