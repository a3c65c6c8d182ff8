// Package packet implements parsing and serialization of OpenPGP
// packets, RFC 4880 section 4.
package packet

import (
	"bytes"
	"io"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/errors"
)

// Tag identifies the type of an OpenPGP packet, the 4- or 6-bit value
// carried in the packet header.
type Tag uint8

const (
	TagEncryptedKey                Tag = 1
	TagSignature                   Tag = 2
	TagSymmetricKeyEncrypted       Tag = 3
	TagOnePassSignature            Tag = 4
	TagPrivateKey                  Tag = 5
	TagPublicKey                   Tag = 6
	TagPrivateSubkey               Tag = 7
	TagCompressed                  Tag = 8
	TagSymmetricallyEncrypted      Tag = 9
	TagMDC                         Tag = 19
	TagLiteralData                 Tag = 11
	TagUserId                      Tag = 13
	TagPublicSubkey                Tag = 14
	TagUserAttribute               Tag = 17
	TagSymmetricallyEncryptedMDC   Tag = 18
)

// readFull wraps io.ReadFull, converting a bare io.EOF (truncation
// mid-field) into io.ErrUnexpectedEOF so a caller's EOF check only
// ever means "no more packets," never "packet cut short."
func readFull(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// readLength decodes a new-format packet body length octet sequence,
// RFC 4880 section 4.2.2: one-octet, two-octet, four-octet, or
// partial (power-of-two) lengths.
func readLength(r io.Reader) (length int64, isPartial bool, err error) {
	var buf [4]byte
	if _, err = readFull(r, buf[:1]); err != nil {
		return
	}
	switch {
	case buf[0] < 192:
		length = int64(buf[0])
	case buf[0] < 224:
		length = int64(buf[0]-192) << 8
		if _, err = readFull(r, buf[0:1]); err != nil {
			return
		}
		length += int64(buf[0]) + 192
	case buf[0] < 255:
		length = int64(1) << (buf[0] & 0x1f)
		isPartial = true
	default:
		if _, err = readFull(r, buf[0:4]); err != nil {
			return
		}
		length = int64(buf[0])<<24 | int64(buf[1])<<16 | int64(buf[2])<<8 | int64(buf[3])
	}
	return
}

// spanReader bounds Read to exactly n further bytes, treating an
// early EOF from the underlying reader as a truncated packet.
type spanReader struct {
	r io.Reader
	n int64
}

func (l *spanReader) Read(p []byte) (n int, err error) {
	if l.n <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > l.n {
		p = p[0:l.n]
	}
	n, err = l.r.Read(p)
	l.n -= int64(n)
	if l.n > 0 && err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return
}

// partialLengthReader streams a new-format packet body whose length
// was encoded as one or more partial (power-of-two) chunks followed
// by a final non-partial length, RFC 4880 section 4.2.2.4. Each chunk
// boundary re-invokes readLength on the underlying stream.
type partialLengthReader struct {
	r         io.Reader
	remaining int64
	isPartial bool
}

func (r *partialLengthReader) Read(p []byte) (n int, err error) {
	for r.remaining == 0 {
		if !r.isPartial {
			return 0, io.EOF
		}
		r.remaining, r.isPartial, err = readLength(r.r)
		if err != nil {
			return 0, err
		}
	}

	toRead := int64(len(p))
	if toRead > r.remaining {
		toRead = r.remaining
	}

	n, err = r.r.Read(p[:int(toRead)])
	r.remaining -= int64(n)
	if n < int(toRead) && err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return
}

// readHeader reads one packet header from r and returns the packet's
// tag along with a Reader bounded to exactly its body. The body may
// be fixed length (old format, or new format with a definite length)
// or open-ended (new format with partial lengths).
func readHeader(r io.Reader) (tag Tag, contents io.Reader, err error) {
	var buf [1]byte
	if _, err = io.ReadFull(r, buf[:1]); err != nil {
		return
	}
	if buf[0]&0x80 == 0 {
		err = errors.StructuralError("tag byte does not have MSB set")
		return
	}

	if buf[0]&0x40 == 0 {
		// Old format packet, RFC 4880 section 4.2.1.
		tag = Tag((buf[0] & 0x3f) >> 2)
		lengthType := buf[0] & 3
		if lengthType == 3 {
			// Indefinite length, RFC 4880 section 4.2.1: the body has
			// no declared length and runs to the end of the stream.
			// Only legal as the last packet read from r.
			contents = r
			return
		}
		lengthBytes := 1 << lengthType
		var lenBuf [4]byte
		if _, err = readFull(r, lenBuf[:lengthBytes]); err != nil {
			return
		}
		var length int64
		for i := 0; i < lengthBytes; i++ {
			length = length<<8 | int64(lenBuf[i])
		}
		contents = &spanReader{r, length}
		return
	}

	// New format packet, RFC 4880 section 4.2.2.
	tag = Tag(buf[0] & 0x3f)
	length, isPartial, err := readLength(r)
	if err != nil {
		return
	}
	if isPartial {
		contents = &partialLengthReader{remaining: length, isPartial: true, r: r}
	} else {
		contents = &spanReader{r, length}
	}
	return
}

// serializeHeader writes a new-format packet header for the given tag
// and body length to w.
func serializeHeader(w io.Writer, tag Tag, length int) error {
	if _, err := w.Write([]byte{0x80 | 0x40 | byte(tag)}); err != nil {
		return err
	}
	return writeNewFormatLength(w, length)
}

// writeNewFormatLength writes just the length-octet encoding of a
// new-format packet's definite body length, RFC 4880 section 4.2.2.
// Shared by serializeHeader (tag + length) and the final, non-partial
// chunk of a partial-length stream (length only, no tag).
func writeNewFormatLength(w io.Writer, length int) error {
	var buf [5]byte
	n := 0

	switch {
	case length < 192:
		buf[0] = byte(length)
		n = 1
	case length < 8384:
		length -= 192
		buf[0] = 192 + byte(length>>8)
		buf[1] = byte(length)
		n = 2
	default:
		buf[0] = 255
		buf[1] = byte(length >> 24)
		buf[2] = byte(length >> 16)
		buf[3] = byte(length >> 8)
		buf[4] = byte(length)
		n = 5
	}

	_, err := w.Write(buf[:n])
	return err
}

// serializeStreamHeader writes a new-format tag octet followed by a
// partial length octet announcing a first body chunk of
// 1<<chunkSizeLog2 octets; the caller writes that chunk and the rest
// of the body as partial chunks ending in a definite-length chunk.
func serializeStreamHeader(w io.Writer, tag Tag, chunkSizeLog2 uint8) error {
	_, err := w.Write([]byte{0x80 | 0x40 | byte(tag), 224 + chunkSizeLog2})
	return err
}

// Reader iterates over a sequence of concatenated OpenPGP packets,
// returning raw (tag, body) pairs rather than decoded packet values.
// Decoding a body into one of this package's concrete packet types
// (PublicKey, PrivateKey, EncryptedKey, LiteralData, ...) is the
// caller's job.
type Reader struct {
	r io.Reader
}

// NewReader returns a Reader over the concatenated OpenPGP packets in r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// RawPacket is one packet's tag and fully buffered body. Buffering
// simplifies the PKESK/IPDP/MDC/LiteralData decode operations this
// library cares about; none of them benefit from streaming the header
// decode itself. The one exception is the plaintext interior of a
// Sym. Encrypted Integrity Protected Data Packet, which this type
// does not model: see DecryptSymmetricallyEncrypted.
type RawPacket struct {
	Tag  Tag
	Body []byte
}

// ErrNoMorePackets is returned by Next when the underlying stream is
// exhausted.
var ErrNoMorePackets = io.EOF

// Next reads and fully buffers the next packet from r.
func (rd *Reader) Next() (*RawPacket, error) {
	tag, body, err := readHeader(rd.r)
	if err != nil {
		return nil, err
	}
	buf, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return &RawPacket{Tag: tag, Body: buf}, nil
}

// bodyReader returns an io.Reader over a RawPacket's buffered body,
// for decoders that want to use io.Reader-based field parsing rather
// than slicing buf by hand.
func (p *RawPacket) bodyReader() io.Reader {
	return bytes.NewReader(p.Body)
}
