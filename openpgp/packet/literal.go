package packet

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"

	"github.com/letsencrypt-labs/pgpcodec/openpgp/errors"
)

// LiteralData represents an OpenPGP literal data packet (tag 11), RFC
// 4880 section 5.9: the plaintext payload carried inside (or, for an
// unencrypted message, standing in place of) an integrity-protected
// data packet.
type LiteralData struct {
	// Format is 'b' (binary), 't' (text), or 'u' (UTF-8 text); this
	// library treats all three identically and never transcodes line
	// endings.
	Format byte
	// FileName is the original file name, empty if not set. RFC 4880
	// caps it at 255 octets.
	FileName string
	// Time is the modification time of the original file, or the
	// time of encryption if unknown.
	Time time.Time
	// Body is the packet's literal content.
	Body []byte
}

// ForEofLiteral is the RFC 4880 section 5.9 file name convention for
// data that should be displayed immediately rather than stored.
const ForEofLiteral = "_CONSOLE"

// Parse decodes a literal data packet body (everything after the
// packet header) into l.
func (l *LiteralData) Parse(body []byte) error {
	return l.parse(bytes.NewReader(body))
}

func (l *LiteralData) parse(r io.Reader) error {
	var buf [1]byte
	if _, err := readFull(r, buf[:]); err != nil {
		return err
	}
	l.Format = buf[0]

	var nameLen [1]byte
	if _, err := readFull(r, nameLen[:]); err != nil {
		return err
	}
	if nameLen[0] > 0 {
		name := make([]byte, nameLen[0])
		if _, err := readFull(r, name); err != nil {
			return err
		}
		l.FileName = string(name)
	}

	var ts [4]byte
	if _, err := readFull(r, ts[:]); err != nil {
		return err
	}
	l.Time = time.Unix(int64(binary.BigEndian.Uint32(ts[:])), 0)

	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	l.Body = body
	return nil
}

// Serialize writes l as a complete literal data packet, including its
// header, to w.
func (l *LiteralData) Serialize(w io.Writer) error {
	if len(l.FileName) > 255 {
		return errors.InvalidArgumentError("literal data file name longer than 255 octets")
	}

	length := 1 + 1 + len(l.FileName) + 4 + len(l.Body)
	if err := serializeHeader(w, TagLiteralData, length); err != nil {
		return err
	}
	return l.serializeWithoutHeader(w)
}

func (l *LiteralData) serializeWithoutHeader(w io.Writer) error {
	format := l.Format
	if format == 0 {
		format = 'b'
	}
	if _, err := w.Write([]byte{format, byte(len(l.FileName))}); err != nil {
		return err
	}
	if _, err := io.WriteString(w, l.FileName); err != nil {
		return err
	}
	t := uint32(l.Time.Unix())
	if _, err := w.Write([]byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}); err != nil {
		return err
	}
	_, err := w.Write(l.Body)
	return err
}

// SerializeLiteralStream writes a new-format literal data tag octet,
// then the header fields and body as a sequence of fixed power-of-two
// partial chunks, each preceded by its own length octet, terminated by
// a final definite-length chunk, RFC 4880 section 4.2.2.4. Used when
// the literal data's total size is not known up front.
func SerializeLiteralStream(w io.Writer, format byte, fileName string, modTime time.Time, body io.Reader, chunkSizeLog2 uint8) error {
	if len(fileName) > 255 {
		return errors.InvalidArgumentError("literal data file name longer than 255 octets")
	}
	// Only the tag octet here: partialChunkWriter writes every chunk's
	// length octet, including the first one.
	if _, err := w.Write([]byte{0x80 | 0x40 | byte(TagLiteralData)}); err != nil {
		return err
	}

	var header bytesWriter
	if err := (&LiteralData{Format: format, FileName: fileName, Time: modTime}).serializeWithoutHeader(&header); err != nil {
		return err
	}

	pw := &partialChunkWriter{w: w, chunkSizeLog2: chunkSizeLog2, chunk: make([]byte, 1<<chunkSizeLog2)}
	if _, err := pw.Write(header.data); err != nil {
		return err
	}
	if _, err := io.Copy(pw, body); err != nil {
		return err
	}
	return pw.Close()
}

// bytesWriter is a minimal io.Writer over a growable byte slice, used
// to assemble the literal packet's fixed header fields before they
// are split into the caller's chosen chunk size.
type bytesWriter struct{ data []byte }

func (b *bytesWriter) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

// partialChunkWriter buffers writes and flushes full chunkSize chunks
// as partial-length packet segments; Close flushes whatever remains
// as the final, definite-length chunk.
type partialChunkWriter struct {
	w             io.Writer
	chunkSizeLog2 uint8
	chunk         []byte
	pending       int
}

func (p *partialChunkWriter) Write(data []byte) (int, error) {
	written := 0
	for len(data) > 0 {
		n := copy(p.chunk[p.pending:], data)
		p.pending += n
		data = data[n:]
		written += n
		if p.pending == len(p.chunk) {
			if err := p.flushPartial(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (p *partialChunkWriter) flushPartial() error {
	if _, err := p.w.Write([]byte{224 + p.chunkSizeLog2}); err != nil {
		return err
	}
	if _, err := p.w.Write(p.chunk[:p.pending]); err != nil {
		return err
	}
	p.pending = 0
	return nil
}

func (p *partialChunkWriter) Close() error {
	if err := writeNewFormatLength(p.w, p.pending); err != nil {
		return err
	}
	_, err := p.w.Write(p.chunk[:p.pending])
	return err
}
