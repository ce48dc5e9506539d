package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	pc "github.com/prataprc/goparsec"
)

// ErrUnresolvedLabel is returned when a goto/if-goto references a label that is never
// declared in the enclosing function.
var ErrUnresolvedLabel = errors.New("vm: unresolved label reference")

// ErrUnresolvedFunction is returned by ResolveCalls when a call references a function
// that no module in the program declares.
var ErrUnresolvedFunction = errors.New("vm: unresolved function reference")

// ErrDuplicateFunction is returned when the same function name is declared twice in
// one module.
var ErrDuplicateFunction = errors.New("vm: duplicate function declaration")

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the Parser Combinator for every token & instruction of the Vm language.
//
// Each parser combinator either manages an operation (MemoryOp, ArithmeticOp, ...) or some pieces
// of it: namely tokens and identifiers. Also we manage comments inside the codebase that can
// either present themselves at the beginning of the line or in the middle.

// Top level object, will generate the traversable AST based on the input plus the PCs below.
var ast = pc.NewAST("virtual_machine", 0)

var (
	// Parser combinator for a VM module/class, in the nand2tetris VM there's a Java like
	// behavior where a program is composed of multiple '.vm' file ('.class' in Java) where
	// each contains the bytecode for the specific module/class (a separate translation unit).
	pModule = ast.ManyUntil("module", nil, ast.OrdChoice("node", nil, pComment, pOperation), pc.End())

	// Parser combinator for '// ...' line and '/* ... */' block comments
	pComment = ast.OrdChoice("any_comment", nil,
		ast.And("comment", nil, pc.Atom("//", "//"), pc.Token(`(?m).*$`, "COMMENT")),
		pc.Token(`(?s)/\*.*?\*/`, "BLOCK_COMMENT"),
	)
	// Parser combinator for a generic VM operation (MemoryOp, ArithmeticOp, ...)
	pOperation = ast.OrdChoice("operation", nil,
		// Stack operation + label and jump operations
		pMemoryOp, pArithmeticOp, pLabelDecl, pGotoOp,
		// Function related operations and statements
		pFuncDecl, pFunCallOp, pReturnOp,
	)

	// Memory operation, compliant with the following syntax: "{push|pop} {segment} {index}"
	pMemoryOp = ast.And("memory_op", nil, pMemOpType, pSegment, pc.Int())
	// Arithmetic operation, could either be binary or unary (modifies only the Stack Pointer)
	pArithmeticOp = ast.And("arithmetic_op", nil, pArithOpType)

	// Label declaration, compliant with the following syntax: "label {symbol}"
	pLabelDecl = ast.And("label_decl", nil, pc.Atom("label", "LABEL"), pIdent)
	// Jump operation, compliant with the following syntax: "{if-goto|goto} {symbol}"
	pGotoOp = ast.And("goto_op", nil, pJumpType, pIdent)

	// Function declaration, compliant with the following syntax: "function {name} {n_locals}"
	pFuncDecl = ast.And("func_decl", nil, pc.Atom("function", "FUNC"), pIdent, pc.Int())
	// Function call operation, compliant with the following syntax: "call {name} {n_args}"
	pFunCallOp = ast.And("func_call", nil, pc.Atom("call", "CALL"), pIdent, pc.Int())
	// Return operation, compliant with the following syntax: "return"
	pReturnOp = ast.And("return_op", nil, pc.Atom("return", "RETURN"))
)

var (
	// Generic Identifier parser (for label and function declaration)
	// NOTE: An ident can be any sequence of letters, digits, and symbols (_, ., $, :).
	// NOTE: An ident cannot begin with a leading digit (a symbol is indeed allowed).
	pIdent = pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "IDENT")

	// Available memory operation type (only push and pop since it's stack based)
	pMemOpType = ast.OrdChoice("mem_op_type", nil, pc.Atom("push", "PUSH"), pc.Atom("pop", "POP"))
	// Available heap segments (they act as registers and are used alongside the stack)
	pSegment = ast.OrdChoice("mem_segment", nil,
		pc.Atom("argument", "ARGUMENT"), pc.Atom("local", "LOCAL"),
		pc.Atom("static", "STATIC"), pc.Atom("constant", "CONSTANT"),
		pc.Atom("this", "THIS"), pc.Atom("that", "THAT"),
		pc.Atom("temp", "TEMP"), pc.Atom("pointer", "POINTER"),
	)

	// Available arithmetic operation types
	pArithOpType = ast.OrdChoice("operations", nil,
		// Comparison operations available on the VM bytecode
		pc.Atom("eq", "EQ"), pc.Atom("gt", "GT"), pc.Atom("lt", "LT"),
		// Arithmetic operations available on the VM bytecode
		pc.Atom("add", "ADD"), pc.Atom("sub", "SUB"), pc.Atom("neg", "NEG"),
		// Bit-a-bit operations available on the VM bytecode
		pc.Atom("not", "NOT"), pc.Atom("and", "AND"), pc.Atom("or", "OR"),
	)

	// Jump types can either be conditional (if-goto) or unconditional (goto).
	// NOTE: 'if-goto' must come first, 'goto' is a prefix-free match but the shared
	// suffix means ordering the longer atom first costs nothing and protects against
	// future leftmost-match surprises.
	pJumpType = ast.OrdChoice("jump_type", nil, pc.Atom("if-goto", "IF-GOTO"), pc.Atom("goto", "GOTO"))
)

// ----------------------------------------------------------------------------
// Vm Parser

// This section defines the Parser for the nand2tetris Vm language.
//
// It uses parser combinators to obtain the AST from the source code (the latter can be provided)
// in multiple ways using a generic io.Reader, the library reads up the feature flags (as env vars):
// - PARSEC_DEBUG: Verbose logging to inspect which of the PCs gets triggered and match
// - EXPORT_AST:   Exports in the DEBUG_FOLDER a Graphviz representation of the AST
// - PRINT_AST:    Print on the stdout a textual representation of the AST
type Parser struct{ reader io.Reader }

// Initializes and returns to the caller a brand new 'Parser' struct.
// Requires the argument io.Reader 'r' to be valid and usable.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parser entrypoint divides the phases of the parsing pipeline:
// Text --> AST:      This step is done using PCs and returns a generic traversable AST
// AST --> IR:        This step is done by traversing the AST and extracting the 'vm.Module'
// IR --> backpatch:  Labels referenced before (or after) their declaration are resolved
// to concrete operation indices, scoped per enclosing function; same-module call targets
// are resolved too, cross-module ones are deferred to ResolveCalls.
func (p *Parser) Parse() (Module, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return nil, fmt.Errorf("vm: cannot read input: %w", err)
	}

	root, ok := p.FromSource(content)
	if !ok {
		return nil, fmt.Errorf("vm: failed to parse AST from input")
	}

	module, err := p.FromAST(root)
	if err != nil {
		return nil, err
	}
	if err := p.backpatch(module); err != nil {
		return nil, err
	}

	return module, nil
}

// Scans the textual input stream coming from the 'reader' method and returns a traversable AST
// (Abstract Syntax Tree) that can be eventually visited to extract/transform the info available.
func (p *Parser) FromSource(source []byte) (pc.Queryable, bool) {
	// Feature flag: Enable 'goparsec' library's debug logs
	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}

	// We generate the traversable Abstract Syntax Tree from the source content
	root, _ := ast.Parsewith(pModule, pc.NewScanner(source))

	// Feature flag: Enables export of the AST as Dot file (vm.ast.dot)
	if os.Getenv("EXPORT_AST") != "" {
		if file, err := os.Create(fmt.Sprintf("%s/vm.ast.dot", os.Getenv("DEBUG_FOLDER"))); err == nil {
			defer file.Close()
			file.WriteString(ast.Dotstring("\"VM AST\""))
		}
	}
	// Feature flag: Enables pretty printing of the AST on the console
	if os.Getenv("PRINT_AST") != "" {
		ast.Prettyprint()
	}

	return root, root != nil
}

// This function takes the root node of the raw parsed AST and does a DFS on it parsing
// one by one each subtree and returning a 'vm.Module' that can be used as in-memory and
// type-safe AST not dependent on the parsing library used.
func (p *Parser) FromAST(root pc.Queryable) (Module, error) {
	module := Module{}

	if root.GetName() != "module" {
		return nil, fmt.Errorf("vm: expected node 'module', found %s", root.GetName())
	}

	for _, child := range root.GetChildren() {
		var op Operation
		var err error

		switch child.GetName() {
		case "memory_op": // Memory operation subtree, appends 'vm.MemoryOp' to 'module'
			op, err = p.HandleMemoryOp(child)
		case "arithmetic_op": // Arithmetic operation subtree, appends 'vm.ArithmeticOp' to 'module'
			op, err = p.HandleArithmeticOp(child)
		case "label_decl": // Label declaration subtree, appends 'vm.LabelDecl' to 'module'
			op, err = p.HandleLabelDecl(child)
		case "goto_op": // Goto operation subtree, appends 'vm.GotoOp' to 'module'
			op, err = p.HandleGotoOp(child)
		case "func_decl": // Function declaration subtree, appends 'vm.FuncDecl' to 'module'
			op, err = p.HandleFuncDecl(child)
		case "return_op": // Return operation subtree, appends 'vm.ReturnOp' to 'module'
			op, err = p.HandleReturnOp(child)
		case "func_call": // Function call operation subtree, appends 'vm.FuncCallOp' to 'module'
			op, err = p.HandleFuncCall(child)
		case "comment", "BLOCK_COMMENT": // Comment nodes in the AST are just skipped
			continue
		default: // Error case, unrecognized subtree in the AST
			return nil, fmt.Errorf("vm: unrecognized node '%s'", child.GetName())
		}

		if err != nil {
			return nil, err
		}
		module = append(module, op)
	}

	return module, nil
}

// ScopedLabel returns the label name as back-patching (and the lowerer) sees it: bare
// when declared outside any function, '<function>$<label>' inside one, so that the same
// bare label name can be reused across functions without colliding.
func ScopedLabel(function, label string) string {
	if function == "" {
		return label
	}
	return function + "$" + label
}

// backpatch resolves every goto/if-goto to the operation index of its label and every
// same-module call to the operation index of its callee's declaration (in-place, which
// is why the handlers return value types and Module holds them by interface). A label
// reference that stays unresolved once the whole module has been swept is an error; a
// call that stays unresolved may still be satisfied by another translation unit and is
// left at Target -1 for ResolveCalls to vet.
func (p *Parser) backpatch(module Module) error {
	labels := map[string]int{}
	functions := map[string]int{}

	current := ""
	for i, op := range module {
		switch o := op.(type) {
		case LabelDecl:
			labels[ScopedLabel(current, o.Name)] = i
		case FuncDecl:
			if _, found := functions[o.Name]; found {
				return fmt.Errorf("%w: %q", ErrDuplicateFunction, o.Name)
			}
			functions[o.Name] = i
			current = o.Name
		}
	}

	current = ""
	for i, op := range module {
		switch o := op.(type) {
		case FuncDecl:
			current = o.Name
		case GotoOp:
			target, found := labels[ScopedLabel(current, o.Label)]
			if !found {
				return fmt.Errorf("%w: %q (operation %d)", ErrUnresolvedLabel, o.Label, i)
			}
			o.Target = target
			module[i] = o
		case FuncCallOp:
			if target, found := functions[o.Name]; found {
				o.Target = target
			} else {
				o.Target = -1
			}
			module[i] = o
		}
	}

	return nil
}

// ResolveCalls cross-checks every call in every module against the full set of function
// declarations in the program: this is what lets one translation unit call into another
// (Sys.init calling Main.main and so on), which a per-module back-patching pass cannot
// see. Every call target must be declared somewhere in the program.
func ResolveCalls(program Program) error {
	functions := map[string]bool{}
	for _, module := range program {
		for _, op := range module {
			if decl, ok := op.(FuncDecl); ok {
				functions[decl.Name] = true
			}
		}
	}

	for name, module := range program {
		for i, op := range module {
			call, ok := op.(FuncCallOp)
			if !ok {
				continue
			}
			if !functions[call.Name] {
				return fmt.Errorf("%w: %q (module %s, operation %d)", ErrUnresolvedFunction, call.Name, name, i)
			}
		}
	}

	return nil
}

// Specialized function to convert a "memory_op" node to a 'vm.MemoryOp'.
func (Parser) HandleMemoryOp(node pc.Queryable) (Operation, error) {
	if node.GetName() != "memory_op" {
		return nil, fmt.Errorf("vm: expected node 'memory_op', got %s", node.GetName())
	}
	if len(node.GetChildren()) != 3 {
		return nil, fmt.Errorf("vm: expected node with 3 leaf, got %d", len(node.GetChildren()))
	}

	operation := OperationType(node.GetChildren()[0].GetValue())
	segment := SegmentType(node.GetChildren()[1].GetValue())
	offset, err := strconv.ParseUint(node.GetChildren()[2].GetValue(), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("vm: failed to parse 'offset' in MemoryOp, got '%s'", node.GetChildren()[2].GetValue())
	}

	return MemoryOp{Operation: operation, Segment: segment, Offset: uint16(offset)}, nil
}

// Specialized function to convert a "arithmetic_op" node to a 'vm.ArithmeticOp'.
func (Parser) HandleArithmeticOp(node pc.Queryable) (Operation, error) {
	if node.GetName() != "arithmetic_op" {
		return nil, fmt.Errorf("vm: expected node 'arithmetic_op', got %s", node.GetName())
	}
	if len(node.GetChildren()) != 1 {
		return nil, fmt.Errorf("vm: expected node 'arithmetic_op' with 1 leaf, got %d", len(node.GetChildren()))
	}

	return ArithmeticOp{Operation: ArithOpType(node.GetChildren()[0].GetValue())}, nil
}

// Specialized function to convert a "label_decl" node to a 'vm.LabelDecl'.
func (Parser) HandleLabelDecl(node pc.Queryable) (Operation, error) {
	if node.GetName() != "label_decl" {
		return nil, fmt.Errorf("vm: expected node 'label_decl', got %s", node.GetName())
	}
	if len(node.GetChildren()) != 2 {
		return nil, fmt.Errorf("vm: expected node 'label_decl' with 2 leaf, got %d", len(node.GetChildren()))
	}

	return LabelDecl{Name: node.GetChildren()[1].GetValue()}, nil
}

// Specialized function to convert a "goto_op" node to a 'vm.GotoOp'.
func (Parser) HandleGotoOp(node pc.Queryable) (Operation, error) {
	if node.GetName() != "goto_op" {
		return nil, fmt.Errorf("vm: expected node 'goto_op', got %s", node.GetName())
	}
	if len(node.GetChildren()) != 2 {
		return nil, fmt.Errorf("vm: expected node 'goto_op' with 2 leaf, got %d", len(node.GetChildren()))
	}

	jump := JumpType(node.GetChildren()[0].GetValue())
	label := node.GetChildren()[1].GetValue()

	return GotoOp{Jump: jump, Label: label, Target: -1}, nil
}

// Specialized function to convert a "func_decl" node to a 'vm.FuncDecl'.
func (Parser) HandleFuncDecl(node pc.Queryable) (Operation, error) {
	if node.GetName() != "func_decl" {
		return nil, fmt.Errorf("vm: expected node 'func_decl', got %s", node.GetName())
	}
	if len(node.GetChildren()) != 3 {
		return nil, fmt.Errorf("vm: expected node 'func_decl' with 3 leaf, got %d", len(node.GetChildren()))
	}

	name := node.GetChildren()[1].GetValue()
	locals, err := strconv.ParseUint(node.GetChildren()[2].GetValue(), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("vm: failed to parse 'n_locals' in FuncDecl, got '%s'", node.GetChildren()[2].GetValue())
	}

	return FuncDecl{Name: name, NLocal: uint16(locals)}, nil
}

// Specialized function to convert a "return_op" node to a 'vm.ReturnOp'.
func (Parser) HandleReturnOp(node pc.Queryable) (Operation, error) {
	if node.GetName() != "return_op" {
		return nil, fmt.Errorf("vm: expected node 'return_op', got %s", node.GetName())
	}

	return ReturnOp{}, nil
}

// Specialized function to convert a "func_call" node to a 'vm.FuncCallOp'.
func (Parser) HandleFuncCall(node pc.Queryable) (Operation, error) {
	if node.GetName() != "func_call" {
		return nil, fmt.Errorf("vm: expected node 'func_call', got %s", node.GetName())
	}
	if len(node.GetChildren()) != 3 {
		return nil, fmt.Errorf("vm: expected node 'func_call' with 3 leaf, got %d", len(node.GetChildren()))
	}

	name := node.GetChildren()[1].GetValue()
	args, err := strconv.ParseUint(node.GetChildren()[2].GetValue(), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("vm: failed to parse 'n_args' in FuncCallOp, got '%s'", node.GetChildren()[2].GetValue())
	}

	return FuncCallOp{Name: name, NArgs: uint16(args), Target: -1}, nil
}
