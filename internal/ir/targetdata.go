package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// TargetData describes the primitive widths, pointer width, and
// alignment a Module's struct layouts are computed against (§3.1).
// It is parsed from a compact string spec, grounded in the original
// implementation's TargetData.cpp layout string (e.g.
// "e-p:64:64-i64:64-i32:32-i16:16-i8:8-f32:32-f64:64").
type TargetData struct {
	LittleEndian bool
	PointerSize  int // bytes
	PointerAlign int // bytes
	IntAlign     map[int]int // bit-width -> byte alignment
	FloatAlign   map[int]int // bit-width -> byte alignment
}

// DefaultTargetData is a conservative little-endian, 64-bit-pointer
// layout used whenever a module does not specify one.
func DefaultTargetData() *TargetData {
	return &TargetData{
		LittleEndian: true,
		PointerSize:  8,
		PointerAlign: 8,
		IntAlign: map[int]int{
			8: 1, 16: 2, 32: 4, 64: 8,
		},
		FloatAlign: map[int]int{
			32: 4, 64: 8,
		},
	}
}

// ParseTargetData parses a TargetData signature string of the form
// "e|E - p:<size>:<align> - i<bits>:<align> - f<bits>:<align> ...".
func ParseTargetData(spec string) (*TargetData, error) {
	td := DefaultTargetData()
	if spec == "" {
		return td, nil
	}
	for _, tok := range strings.Split(spec, "-") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		switch {
		case tok == "e":
			td.LittleEndian = true
		case tok == "E":
			td.LittleEndian = false
		case strings.HasPrefix(tok, "p:"):
			parts := strings.Split(tok[2:], ":")
			if len(parts) < 2 {
				return nil, fmt.Errorf("targetdata: malformed pointer spec %q", tok)
			}
			size, err := strconv.Atoi(parts[0])
			if err != nil {
				return nil, fmt.Errorf("targetdata: bad pointer size in %q: %w", tok, err)
			}
			align, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, fmt.Errorf("targetdata: bad pointer align in %q: %w", tok, err)
			}
			td.PointerSize = size / 8
			td.PointerAlign = align / 8
		case strings.HasPrefix(tok, "i"):
			if err := parseWidthAlign(tok[1:], td.IntAlign); err != nil {
				return nil, fmt.Errorf("targetdata: %w", err)
			}
		case strings.HasPrefix(tok, "f"):
			if err := parseWidthAlign(tok[1:], td.FloatAlign); err != nil {
				return nil, fmt.Errorf("targetdata: %w", err)
			}
		default:
			return nil, fmt.Errorf("targetdata: unrecognized token %q", tok)
		}
	}
	return td, nil
}

func parseWidthAlign(rest string, into map[int]int) error {
	parts := strings.Split(rest, ":")
	if len(parts) == 0 {
		return fmt.Errorf("malformed width:align token %q", rest)
	}
	bits, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("bad bit width in %q: %w", rest, err)
	}
	align := bits / 8
	if len(parts) > 1 {
		a, err := strconv.Atoi(parts[1])
		if err != nil {
			return fmt.Errorf("bad alignment in %q: %w", rest, err)
		}
		align = a / 8
	}
	if align < 1 {
		align = 1
	}
	into[bits] = align
	return nil
}

// String renders the TargetData back into its signature form.
func (td *TargetData) String() string {
	var b strings.Builder
	if td.LittleEndian {
		b.WriteString("e")
	} else {
		b.WriteString("E")
	}
	fmt.Fprintf(&b, "-p:%d:%d", td.PointerSize*8, td.PointerAlign*8)
	for _, bits := range []int{8, 16, 32, 64} {
		if a, ok := td.IntAlign[bits]; ok {
			fmt.Fprintf(&b, "-i%d:%d", bits, a*8)
		}
	}
	for _, bits := range []int{32, 64} {
		if a, ok := td.FloatAlign[bits]; ok {
			fmt.Fprintf(&b, "-f%d:%d", bits, a*8)
		}
	}
	return b.String()
}

func (td *TargetData) alignOf(k Kind) int {
	switch k {
	case Bool, Int8, Uint8:
		return td.IntAlign[8]
	case Int16, Uint16:
		return td.IntAlign[16]
	case Int32, Uint32:
		return td.IntAlign[32]
	case Int64, Uint64:
		return td.IntAlign[64]
	case Float:
		return td.FloatAlign[32]
	case Double:
		return td.FloatAlign[64]
	case Pointer:
		return td.PointerAlign
	default:
		return 1
	}
}

func (td *TargetData) sizeOf(k Kind) int {
	switch k {
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32:
		return 4
	case Int64, Uint64:
		return 8
	case Float:
		return 4
	case Double:
		return 8
	case Pointer:
		return td.PointerSize
	default:
		return 0
	}
}
