// Package codec implements the binary IR wire format of §4.5: VBR7
// (7 bits of payload per byte, high bit marks continuation) with
// zig-zag encoding for signed values, a leaf-first type table with
// forward-reference placeholders, constants encoded inline at each
// operand that uses them (there is no separate pool), lazily-read
// function body stubs, and an ar(1)-style archive container for
// bundling several modules into one file.
package codec

import (
	"bufio"
	"io"
)

// writeVBR7 writes v as a sequence of 7-bit groups, least significant
// first, with the high bit of each byte set on every byte but the
// last.
func writeVBR7(w io.ByteWriter, v uint64) error {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			if err := w.WriteByte(b | 0x80); err != nil {
				return err
			}
			continue
		}
		return w.WriteByte(b)
	}
}

// readVBR7 reads a value written by writeVBR7.
func readVBR7(r io.ByteReader) (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
}

// zigzagEncode maps a signed value onto the unsigned range so small
// magnitude negatives still encode in few VBR7 groups.
func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigzagDecode(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// writeSVBR7 writes a signed value using zig-zag + VBR7.
func writeSVBR7(w io.ByteWriter, v int64) error {
	return writeVBR7(w, zigzagEncode(v))
}

func readSVBR7(r io.ByteReader) (int64, error) {
	u, err := readVBR7(r)
	if err != nil {
		return 0, err
	}
	return zigzagDecode(u), nil
}

// writeBytes writes a length-prefixed byte string.
func writeBytes(w *bufio.Writer, b []byte) error {
	if err := writeVBR7(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r *bufio.Reader) ([]byte, error) {
	n, err := readVBR7(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
