package hack

import (
	"fmt"
	"strconv"
	"strings"
)

// Disassemble turns a sequence of machine words back into Hack instructions. A decoded
// AInstruction always has LocType Raw: label and variable names are long gone by the
// time a program is machine words, so round-tripping through Disassemble never
// recovers symbolic names (the symbol table exists only on the way in).
func Disassemble(words []uint16) (Program, error) {
	program := make(Program, 0, len(words))
	for i, w := range words {
		if w&0x8000 == 0 {
			program = append(program, AInstruction{LocType: Raw, LocName: strconv.Itoa(int(w & 0x7fff))})
			continue
		}
		comp := Comp((w >> 6) & 0x7f)
		dest := Dest((w >> 3) & 0x7)
		jump := Jump(w & 0x7)
		if _, ok := comp.MnemonicOf(); !ok {
			return nil, fmt.Errorf("hack: word %d (index %d): invalid comp code %07b", w, i, comp)
		}
		program = append(program, CInstruction{Comp: comp, Dest: dest, Jump: jump})
	}
	return program, nil
}

// ParseBinaryText parses the '0'/'1' textual .hack format (one 16-character line per
// instruction, blank lines ignored) into machine words, the inverse of Generate.
func ParseBinaryText(text string) ([]uint16, error) {
	var words []uint16
	for lineNo, line := range strings.Split(text, "\n") {
		line = strings.NewReplacer(" ", "", "\t", "", "\r", "").Replace(line)
		if line == "" {
			continue
		}
		if len(line) != 16 {
			return nil, fmt.Errorf("hack: line %d: expected 16 bits, got %d", lineNo+1, len(line))
		}
		val, err := strconv.ParseUint(line, 2, 16)
		if err != nil {
			return nil, fmt.Errorf("hack: line %d: %w", lineNo+1, err)
		}
		words = append(words, uint16(val))
	}
	return words, nil
}
