package codec

import (
	"bufio"
	"fmt"

	"ssamid/internal/diag"
)

// Magic identifies an ssamid bitcode stream; Version gates forward
// compatibility (§4.5, §8 wire-format evolution).
const (
	Magic        = "SSAM"
	Version      = 1
)

func writeHeader(w *bufio.Writer) error {
	if _, err := w.WriteString(Magic); err != nil {
		return err
	}
	return writeVBR7(w, Version)
}

func readHeader(r *bufio.Reader) error {
	buf := make([]byte, len(Magic))
	if _, err := readFullOrErr(r, buf); err != nil {
		return err
	}
	if string(buf) != Magic {
		return diag.New(diag.CodecBadMagic, fmt.Sprintf("got magic %q", buf))
	}
	version, err := readVBR7(r)
	if err != nil {
		return diag.New(diag.CodecTruncated, "truncated while reading version")
	}
	if version != Version {
		return diag.New(diag.CodecBadVersion, fmt.Sprintf("stream version %d, reader supports %d", version, Version))
	}
	return nil
}

func readFullOrErr(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, diag.New(diag.CodecTruncated, "truncated header")
		}
	}
	return n, nil
}
