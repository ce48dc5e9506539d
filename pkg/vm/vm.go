// Package vm implements the Hack VM intermediate language: the tagged-variant
// instruction model, the text parser with label/function back-patching, and the
// lowering of stack-VM semantics down to Hack assembly (pkg/asm's instruction list,
// which then flows through the one and only machine-word encoder in pkg/hack).
package vm

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the VM intermediate language.
//
// We declare a shared 'Operation' interface for every macro operation available for the
// language and we define some other useful top-level struct such as Program and Module.
// Is important to note that a VM program can be composed of multiple translation units
// that can be also referenced as file or modules or also classes.

// A VM Program is a set of modules keyed by their file/module name, in the VM spec each
// Jack class is translated to its own .vm file (just like Java .class file) that can be
// handled as its own translation unit during the parsing or lowering phases. The module
// name also prefixes the 'static' segment symbols the lowerer allocates.
type Program map[string]Module

// A VM Module is just a linear list of VM operations/instructions
type Module []Operation

// Used to put together all operation in the VM language (Memory, Arithmetic, ... ops).
type Operation interface{}

// ----------------------------------------------------------------------------
// Memory Op

// In memory representation of a Memory operation for the VM language.
//
// In the VM intermediate language there are only two possible memory operation on the stack.
// We could either push a new value taken from the specified segment location on the stack's
// top or take the stack's top and saves its value at the specified segment location.
type MemoryOp struct {
	Operation OperationType // The type of operation, either 'push' or 'pop'
	Segment   SegmentType   // The named memory segment to use (this, that, temp, ...)
	Offset    uint16        // The specific location/offset inside of the memory segment
}

type OperationType string // Enum to manage the operation allowed for a MemoryOp

const (
	Push OperationType = "push"
	Pop  OperationType = "pop"
)

type SegmentType string // Enum to manage the segment accessible for a MemoryOp

const (
	Temp     SegmentType = "temp"     // Real segment used to store intermediate computations
	Constant SegmentType = "constant" // Virtual segment used to access numeric constant

	Local    SegmentType = "local"    // Real segment used to store local function variables
	Static   SegmentType = "static"   // Real segment used to store shared/static variables
	Argument SegmentType = "argument" // Real segment used to store function's argument

	This    SegmentType = "this"    // Virtual segment used to point to a specific memory location
	That    SegmentType = "that"    // Virtual segment used to point to a specific memory location
	Pointer SegmentType = "pointer" // Real segment w/ 2 location used to set the 'this' and 'that' pointers
)

// ----------------------------------------------------------------------------
// Arithmetic Op

// In memory representation of a Arithmetic operation for the VM language.
//
// In the VM intermediate language there are just a handful of operation available.
// In particular each operation acts directly on the top of the stack, of course we have both unary
// and binary operation, the specific management of each op will be handled in the lowering phase.
type ArithmeticOp struct{ Operation ArithOpType }

type ArithOpType string // Enum to manage the operation allowed for an ArithmeticOp

const (
	Eq ArithOpType = "eq" // Comparison operations
	Gt ArithOpType = "gt"
	Lt ArithOpType = "lt"

	Add ArithOpType = "add" // Arithmetic operations
	Sub ArithOpType = "sub"
	Neg ArithOpType = "neg"

	Not ArithOpType = "not" // Bitwise operations
	And ArithOpType = "and"
	Or  ArithOpType = "or"
)

// ----------------------------------------------------------------------------
// Control flow Ops

// LabelDecl binds a name to its own operation index in the module, scoped to the function
// it appears in (the same bare name can be reused freely across different functions).
type LabelDecl struct{ Name string }

// GotoOp is a conditional ('if-goto', pops the stack top and branches when it is
// non-zero) or unconditional ('goto') jump to a label in the same function. Target is
// the operation index the label resolved to, filled in by the parser's back-patching
// pass once the whole module has been read (forward references are legal).
type GotoOp struct {
	Jump   JumpType
	Label  string
	Target int
}

type JumpType string // Enum to manage the jump flavors of a GotoOp

const (
	Unconditional JumpType = "goto"
	Conditional   JumpType = "if-goto"
)

// ----------------------------------------------------------------------------
// Function Ops

// FuncDecl introduces a function and reserves NLocal zero-initialized local variables
// on the stack. Every label and goto that follows (until the next FuncDecl) is scoped
// to this function.
type FuncDecl struct {
	Name   string
	NLocal uint16
}

// FuncCallOp calls a function with the NArgs values currently on top of the stack.
// Target is the operation index of the callee's FuncDecl when it is declared in the
// same module, or -1 for a cross-module call (resolved by ResolveCalls against the
// full Program once every translation unit has been parsed).
type FuncCallOp struct {
	Name   string
	NArgs  uint16
	Target int
}

// ReturnOp pops the current call frame and transfers control back to the caller,
// leaving the callee's return value on top of the stack.
type ReturnOp struct{}
