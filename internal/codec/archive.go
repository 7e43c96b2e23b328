package codec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/iancoleman/strcase"

	"ssamid/internal/diag"
)

// Archive bundles several encoded modules into one ar(1)-style
// container (§4.5 "archive format with a symbol-index member"),
// mirroring the common-unix-ar layout: a fixed magic, then one
// 60-byte header per member followed by its (even-padded) payload.
// The first member, "__.SYMDEF", is a symbol index mapping every
// defined function/global name across the archive to the byte offset
// of the member that defines it, so a linker resolving one symbol
// doesn't need to scan every member's type table.
type Archive struct {
	Members []ArchiveMember
}

// ArchiveMember is one bitcode module plus the metadata the original
// ArchiveWriter.cpp records per entry.
type ArchiveMember struct {
	Name    string
	UID     int
	GID     int
	Mode    uint32
	ModTime time.Time
	Data    []byte

	// Symbols lists the names this member defines; WriteArchive
	// consults it to build the index member. ReadArchive skips the
	// index member and leaves Symbols nil on every member it returns.
	Symbols []string
}

const (
	arMagic      = "!<arch>\n"
	arHeaderSize = 60
	symdefName   = "__.SYMDEF"
)

// NormalizeMemberName applies the archive's naming convention: member
// names are snake_case on disk regardless of how the caller spelled
// the originating module name, matching the original toolchain's
// practice of deriving archive member names from translation unit
// names rather than preserving arbitrary casing.
func NormalizeMemberName(name string) string {
	base := strings.TrimSuffix(name, ".bc")
	return strcase.ToSnake(base) + ".bc"
}

// WriteArchive serializes members to w in ar format, synthesizing a
// leading symbol-index member from each member's Symbols field.
func WriteArchive(w io.Writer, members []ArchiveMember) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(arMagic); err != nil {
		return err
	}

	offsets := make(map[string]int, len(members))
	pos := len(arMagic)

	// A dummy pass to compute offsets requires knowing header sizes in
	// advance for every prior member, including the symbol index, so
	// build the index payload first and account for its own header.
	index := buildSymbolIndex(members, &offsets, pos)
	if err := writeArchiveMember(bw, ArchiveMember{Name: symdefName, ModTime: indexModTime(members)}, index); err != nil {
		return err
	}

	for _, m := range members {
		norm := m
		norm.Name = NormalizeMemberName(m.Name)
		if err := writeArchiveMember(bw, norm, m.Data); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// buildSymbolIndex computes, for every member, the byte offset of its
// header once the index member itself (header, payload and padding)
// is accounted for, and returns the index payload. The decimal
// offsets are part of that payload, so the offsets are recomputed
// until the payload length stops changing; the length never shrinks
// as offsets grow, so the loop ends.
func buildSymbolIndex(members []ArchiveMember, offsets *map[string]int, startPos int) []byte {
	indexLen := 0
	for {
		var sb strings.Builder
		pos := startPos + arHeaderSize + indexLen
		for _, m := range members {
			if pos%2 != 0 {
				pos++
			}
			(*offsets)[m.Name] = pos
			for _, sym := range m.Symbols {
				fmt.Fprintf(&sb, "%s %d\n", sym, pos)
			}
			pos += arHeaderSize + len(m.Data)
		}
		if sb.Len() == indexLen {
			return []byte(sb.String())
		}
		indexLen = sb.Len()
	}
}

func indexModTime(members []ArchiveMember) time.Time {
	if len(members) == 0 {
		return time.Time{}
	}
	return members[0].ModTime
}

func writeArchiveMember(w *bufio.Writer, m ArchiveMember, data []byte) error {
	header := formatHeader(m, len(data))
	if _, err := w.WriteString(header); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if len(data)%2 != 0 {
		return w.WriteByte('\n')
	}
	return nil
}

// formatHeader renders the classic fixed-width ar(1) header: name(16)
// mtime(12) uid(6) gid(6) mode(8) size(10) end-marker(2).
func formatHeader(m ArchiveMember, size int) string {
	return fmt.Sprintf("%-16s%-12d%-6d%-6d%-8o%-10d`\n",
		truncate(m.Name, 16), m.ModTime.Unix(), m.UID, m.GID, m.Mode, size)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// ReadArchive parses an ar-format stream, skipping the synthesized
// symbol-index member and returning every bitcode member in file
// order.
func ReadArchive(r io.Reader) ([]ArchiveMember, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(arMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, diag.New(diag.CodecTruncated, "truncated archive magic")
	}
	if string(magic) != arMagic {
		return nil, diag.New(diag.CodecBadMagic, fmt.Sprintf("got archive magic %q", magic))
	}

	var members []ArchiveMember
	for {
		header := make([]byte, arHeaderSize)
		_, err := io.ReadFull(br, header)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, diag.New(diag.CodecTruncated, "truncated archive member header")
		}
		m, size, err := parseHeader(header)
		if err != nil {
			return nil, err
		}
		data := make([]byte, size)
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, diag.New(diag.CodecTruncated, "truncated archive member payload")
		}
		if size%2 != 0 {
			br.Discard(1)
		}
		if m.Name == symdefName {
			continue
		}
		m.Data = data
		members = append(members, m)
	}
	return members, nil
}

func parseHeader(header []byte) (ArchiveMember, int, error) {
	if len(header) != arHeaderSize {
		return ArchiveMember{}, 0, diag.New(diag.CodecTruncated, "short archive header")
	}
	name := strings.TrimSpace(string(header[0:16]))
	mtime, _ := strconv.ParseInt(strings.TrimSpace(string(header[16:28])), 10, 64)
	uid, _ := strconv.Atoi(strings.TrimSpace(string(header[28:34])))
	gid, _ := strconv.Atoi(strings.TrimSpace(string(header[34:40])))
	mode, _ := strconv.ParseUint(strings.TrimSpace(string(header[40:48])), 8, 32)
	size, err := strconv.Atoi(strings.TrimSpace(string(header[48:58])))
	if err != nil {
		return ArchiveMember{}, 0, diag.New(diag.CodecTruncated, "malformed archive member size")
	}
	return ArchiveMember{
		Name:    name,
		UID:     uid,
		GID:     gid,
		Mode:    uint32(mode),
		ModTime: time.Unix(mtime, 0),
	}, size, nil
}
