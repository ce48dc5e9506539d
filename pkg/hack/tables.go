package hack

// BuiltInTable maps every pre-seeded symbol to its fixed RAM address. The assembler's
// SymbolTable is seeded from this table before any user symbol is considered; these
// names can never be shadowed by a user label.
var BuiltInTable = map[string]uint16{
	// Virtual Machine specific aliases (see project 7/8)
	"SP": 0, "LCL": 1, "ARG": 2, "THIS": 3, "THAT": 4,
	// Named general purpose registers
	"R0": 0, "R1": 1, "R2": 2, "R3": 3, "R4": 4, "R5": 5,
	"R6": 6, "R7": 7, "R8": 8, "R9": 9, "R10": 10, "R11": 11,
	"R12": 12, "R13": 13, "R14": 14, "R15": 15,
	// Memory mapped I/O locations
	"SCREEN": 16384, "KBD": 24576,
}

// Comp is one of the 28 valid 7-bit { a, cccccc } computation codes. The value
// *is* the bit pattern that lands in bits 12..6 of a C-instruction word, so encoding a
// CInstruction is a shift, never a second lookup.
type Comp uint8

const (
	Comp0    Comp = 0b0101010
	Comp1    Comp = 0b0111111
	CompNeg1 Comp = 0b0111010

	CompD Comp = 0b0001100
	CompA Comp = 0b0110000
	CompM Comp = 0b1110000

	CompNotD Comp = 0b0001101
	CompNotA Comp = 0b0110001
	CompNotM Comp = 0b1110001

	CompNegD Comp = 0b0001111
	CompNegA Comp = 0b0110011
	CompNegM Comp = 0b1110011

	CompDPlus1 Comp = 0b0011111
	CompAPlus1 Comp = 0b0110111
	CompMPlus1 Comp = 0b1110111

	CompDMinus1 Comp = 0b0001110
	CompAMinus1 Comp = 0b0110010
	CompMMinus1 Comp = 0b1110010

	CompDPlusA Comp = 0b0000010
	CompDPlusM Comp = 0b1000010

	CompDMinusA Comp = 0b0010011
	CompDMinusM Comp = 0b1010011
	CompAMinusD Comp = 0b0000111
	CompMMinusD Comp = 0b1000111

	CompDAndA Comp = 0b0000000
	CompDAndM Comp = 0b1000000
	CompDOrA  Comp = 0b0010101
	CompDOrM  Comp = 0b1010101
)

// CompTable maps every accepted mnemonic spelling -- including the commutative aliases,
// "A+D" as well as "D+A" -- to its Comp code. 28 distinct codes, more than 28 string
// keys because of the aliases.
var CompTable = map[string]Comp{
	"0": Comp0, "1": Comp1, "-1": CompNeg1,
	"D": CompD, "A": CompA, "M": CompM,
	"!D": CompNotD, "!A": CompNotA, "!M": CompNotM,
	"-D": CompNegD, "-A": CompNegA, "-M": CompNegM,
	"D+1": CompDPlus1, "A+1": CompAPlus1, "M+1": CompMPlus1,
	"D-1": CompDMinus1, "A-1": CompAMinus1, "M-1": CompMMinus1,
	"D+A": CompDPlusA, "A+D": CompDPlusA,
	"D+M": CompDPlusM, "M+D": CompDPlusM,
	"D-A": CompDMinusA,
	"D-M": CompDMinusM,
	"A-D": CompAMinusD,
	"M-D": CompMMinusD,
	"D&A": CompDAndA, "A&D": CompDAndA,
	"D&M": CompDAndM, "M&D": CompDAndM,
	"D|A": CompDOrA, "A|D": CompDOrA,
	"D|M": CompDOrM, "M|D": CompDOrM,
}

// compMnemonic is the canonical (non-alias) reverse mapping, exposed through
// Comp.MnemonicOf; the disassembler uses it to reject invalid comp codes.
var compMnemonic = map[Comp]string{
	Comp0: "0", Comp1: "1", CompNeg1: "-1",
	CompD: "D", CompA: "A", CompM: "M",
	CompNotD: "!D", CompNotA: "!A", CompNotM: "!M",
	CompNegD: "-D", CompNegA: "-A", CompNegM: "-M",
	CompDPlus1: "D+1", CompAPlus1: "A+1", CompMPlus1: "M+1",
	CompDMinus1: "D-1", CompAMinus1: "A-1", CompMMinus1: "M-1",
	CompDPlusA: "D+A", CompDPlusM: "D+M",
	CompDMinusA: "D-A", CompDMinusM: "D-M",
	CompAMinusD: "A-D", CompMMinusD: "M-D",
	CompDAndA: "D&A", CompDAndM: "D&M",
	CompDOrA: "D|A", CompDOrM: "D|M",
}

// MnemonicOf returns the canonical mnemonic for a Comp code, and false for an invalid one.
func (c Comp) MnemonicOf() (string, bool) {
	m, ok := compMnemonic[c]
	return m, ok
}

// Dest is the 3-bit destination bitmask over {A, D, M}.
type Dest uint8

const (
	DestNull Dest = 0b000
	DestM    Dest = 0b001
	DestD    Dest = 0b010
	DestMD   Dest = 0b011
	DestA    Dest = 0b100
	DestAM   Dest = 0b101
	DestAD   Dest = 0b110
	DestAMD  Dest = 0b111
)

// DestTable accepts every order-insensitive multi-letter spelling: "AMD", "ADM",
// "MAD", ... all map to the same DestAMD bitmask.
var DestTable = map[string]Dest{
	"": DestNull, "M": DestM, "D": DestD, "A": DestA,
	"MD": DestMD, "DM": DestMD,
	"AM": DestAM, "MA": DestAM,
	"AD": DestAD, "DA": DestAD,
	"AMD": DestAMD, "ADM": DestAMD, "MAD": DestAMD, "MDA": DestAMD, "DAM": DestAMD, "DMA": DestAMD,
}

var destMnemonic = map[Dest]string{
	DestNull: "", DestM: "M", DestD: "D", DestA: "A",
	DestMD: "MD", DestAM: "AM", DestAD: "AD", DestAMD: "AMD",
}

func (d Dest) MnemonicOf() (string, bool) {
	m, ok := destMnemonic[d]
	return m, ok
}

// Has reports whether the bitmask includes the given single destination (DestA/D/M).
func (d Dest) Has(single Dest) bool { return d&single != 0 }

// Jump is the 3-bit branch-condition code.
type Jump uint8

const (
	JumpNull Jump = 0b000
	JGT      Jump = 0b001
	JEQ      Jump = 0b010
	JGE      Jump = 0b011
	JLT      Jump = 0b100
	JNE      Jump = 0b101
	JLE      Jump = 0b110
	JMP      Jump = 0b111
)

var JumpTable = map[string]Jump{
	"": JumpNull, "JGT": JGT, "JEQ": JEQ, "JGE": JGE,
	"JLT": JLT, "JNE": JNE, "JLE": JLE, "JMP": JMP,
}

var jumpMnemonic = map[Jump]string{
	JumpNull: "", JGT: "JGT", JEQ: "JEQ", JGE: "JGE",
	JLT: "JLT", JNE: "JNE", JLE: "JLE", JMP: "JMP",
}

func (j Jump) MnemonicOf() (string, bool) {
	m, ok := jumpMnemonic[j]
	return m, ok
}

// Should reports whether 'val', the signed ALU output, satisfies this jump condition.
func (j Jump) Should(val int16) bool {
	switch j {
	case JumpNull:
		return false
	case JGT:
		return val > 0
	case JEQ:
		return val == 0
	case JGE:
		return val >= 0
	case JLT:
		return val < 0
	case JNE:
		return val != 0
	case JLE:
		return val <= 0
	case JMP:
		return true
	default:
		return false
	}
}

// EvalComp computes the ALU result for 'comp' given the current D and A registers and
// the memory cell M = RAM[A]. All arithmetic wraps as 16-bit two's complement, which
// falls out of using Go's int16 directly.
func EvalComp(comp Comp, d, a, m int16) int16 {
	switch comp {
	case Comp0:
		return 0
	case Comp1:
		return 1
	case CompNeg1:
		return -1
	case CompD:
		return d
	case CompA:
		return a
	case CompM:
		return m
	case CompNotD:
		return ^d
	case CompNotA:
		return ^a
	case CompNotM:
		return ^m
	case CompNegD:
		return -d
	case CompNegA:
		return -a
	case CompNegM:
		return -m
	case CompDPlus1:
		return d + 1
	case CompAPlus1:
		return a + 1
	case CompMPlus1:
		return m + 1
	case CompDMinus1:
		return d - 1
	case CompAMinus1:
		return a - 1
	case CompMMinus1:
		return m - 1
	case CompDPlusA:
		return d + a
	case CompDPlusM:
		return d + m
	case CompDMinusA:
		return d - a
	case CompDMinusM:
		return d - m
	case CompAMinusD:
		return a - d
	case CompMMinusD:
		return m - d
	case CompDAndA:
		return d & a
	case CompDAndM:
		return d & m
	case CompDOrA:
		return d | a
	case CompDOrM:
		return d | m
	default:
		return 0
	}
}
