package asm

import (
	"fmt"
	"io"
	"os"

	pc "github.com/prataprc/goparsec"
)

// Top level object, generates the traversable AST based on the input and the
// combinators below.
var ast = pc.NewAST("assembler", 0)

var (
	// An entire assembly program: a sequence of comments and instructions.
	pProgram = ast.ManyUntil("program", nil, ast.OrdChoice("item", nil, pComment, pInstruction), pc.End())

	// A generic instruction: C, A, or a label declaration.
	pInstruction = ast.OrdChoice("instruction", nil, pAInst, pLabelDecl, pCInst)
	// '// ...' line comments and '/* ... */' block comments.
	pComment = ast.OrdChoice("any_comment", nil,
		ast.And("comment", nil, pc.Atom("//", "//"), pc.Token(`(?m).*$`, "COMMENT")),
		pc.Token(`(?s)/\*.*?\*/`, "BLOCK_COMMENT"),
	)

	// `@location`
	pAInst = ast.And("a-inst", nil, pc.Atom("@", "@"), pLabel)
	// `(name)`
	pLabelDecl = ast.And("label-decl", nil, pc.Atom("(", "("), pLabel, pc.Atom(")", ")"))
	// `[dest=]comp[;jump]` -- dest and jump are each independently optional.
	pCInst = ast.And("c-inst", nil,
		ast.Maybe("maybe-assign", nil, ast.And("assign", nil, pDest, pc.Atom("=", "="))),
		pComp,
		ast.Maybe("maybe-goto", nil, ast.And("goto", nil, pc.Atom(";", ";"), pJump)),
	)
)

var (
	// A label can be any sequence of letters, digits, and symbols (_, ., $, :), but
	// cannot begin with a leading digit (a symbol is indeed allowed to).
	pLabel = ast.OrdChoice("label", nil, pc.Int(), pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "SYMBOL"))

	// Multi-letter forms are order-insensitive ("AMD", "ADM", "MAD", ...) and ordered
	// longest-first so goparsec's leftmost-match doesn't stop at a single-letter
	// prefix of a longer destination.
	pDest = ast.OrdChoice("dest", nil,
		pc.Atom("AMD", "AMD"), pc.Atom("ADM", "ADM"), pc.Atom("MAD", "MAD"),
		pc.Atom("MDA", "MDA"), pc.Atom("DAM", "DAM"), pc.Atom("DMA", "DMA"),
		pc.Atom("AM", "AM"), pc.Atom("MA", "MA"), pc.Atom("AD", "AD"),
		pc.Atom("DA", "DA"), pc.Atom("MD", "MD"), pc.Atom("DM", "DM"),
		pc.Atom("D", "D"), pc.Atom("A", "A"), pc.Atom("M", "M"),
	)

	// Multi-char comps ordered before the single-char ones they'd otherwise shadow;
	// commutative spellings ("A+D" as well as "D+A") are all accepted.
	pComp = ast.OrdChoice("comp", nil,
		pc.Atom("D&A", "D&A"), pc.Atom("A&D", "A&D"), pc.Atom("D&M", "D&M"), pc.Atom("M&D", "M&D"),
		pc.Atom("D|A", "D|A"), pc.Atom("A|D", "A|D"), pc.Atom("D|M", "D|M"), pc.Atom("M|D", "M|D"),
		pc.Atom("D+A", "D+A"), pc.Atom("A+D", "A+D"), pc.Atom("D+M", "D+M"), pc.Atom("M+D", "M+D"),
		pc.Atom("D-A", "D-A"), pc.Atom("D-M", "D-M"),
		pc.Atom("A-D", "A-D"), pc.Atom("M-D", "M-D"),
		pc.Atom("D+1", "D+1"), pc.Atom("A+1", "A+1"), pc.Atom("M+1", "M+1"),
		pc.Atom("D-1", "D-1"), pc.Atom("A-1", "A-1"), pc.Atom("M-1", "M-1"),
		pc.Atom("!D", "!D"), pc.Atom("!A", "!A"), pc.Atom("!M", "!M"),
		pc.Atom("-1", "-1"), pc.Atom("-D", "-D"), pc.Atom("-A", "-A"), pc.Atom("-M", "-M"),
		pc.Atom("0", "0"), pc.Atom("1", "1"),
		pc.Atom("D", "D"), pc.Atom("A", "A"), pc.Atom("M", "M"),
	)

	pJump = ast.OrdChoice("jump", nil,
		pc.Atom("JNE", "JNE"), pc.Atom("JEQ", "JEQ"),
		pc.Atom("JGT", "JGT"), pc.Atom("JGE", "JGE"),
		pc.Atom("JLT", "JLT"), pc.Atom("JLE", "JLE"),
		pc.Atom("JMP", "JMP"),
	)
)

// Parser drives the two-stage pipeline: source text -> goparsec AST -> asm.Program.
// It reads the same PARSEC_DEBUG / EXPORT_AST / PRINT_AST env-var feature flags the
// VM parser does, purely for interactive debugging of the grammar.
type Parser struct{ reader io.Reader }

func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

func (p *Parser) Parse() (Program, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return nil, fmt.Errorf("asm: cannot read input: %w", err)
	}

	root, ok := p.FromSource(content)
	if !ok {
		return nil, fmt.Errorf("asm: failed to parse AST from input")
	}

	return p.FromAST(root)
}

func (p *Parser) FromSource(source []byte) (pc.Queryable, bool) {
	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}

	root, _ := ast.Parsewith(pProgram, pc.NewScanner(source))

	if os.Getenv("EXPORT_AST") != "" {
		if file, err := os.Create(fmt.Sprintf("%s/asm.ast.dot", os.Getenv("DEBUG_FOLDER"))); err == nil {
			defer file.Close()
			file.WriteString(ast.Dotstring("\"Assembler AST\""))
		}
	}
	if os.Getenv("PRINT_AST") != "" {
		ast.Prettyprint()
	}

	return root, root != nil
}

func (p *Parser) FromAST(root pc.Queryable) (Program, error) {
	if root == nil {
		return nil, fmt.Errorf("asm: empty parse tree")
	}
	if root.GetName() != "program" {
		return nil, fmt.Errorf("asm: expected node 'program', found %s", root.GetName())
	}

	program := make(Program, 0, len(root.GetChildren()))
	for _, child := range root.GetChildren() {
		switch child.GetName() {
		case "a-inst":
			inst, err := p.handleAInst(child)
			if err != nil {
				return nil, err
			}
			program = append(program, inst)
		case "c-inst":
			inst, err := p.handleCInst(child)
			if err != nil {
				return nil, err
			}
			program = append(program, inst)
		case "label-decl":
			inst, err := p.handleLabelDecl(child)
			if err != nil {
				return nil, err
			}
			program = append(program, inst)
		case "comment", "BLOCK_COMMENT":
			continue
		default:
			return nil, fmt.Errorf("asm: unrecognized node %q", child.GetName())
		}
	}
	return program, nil
}

func (Parser) handleAInst(node pc.Queryable) (Instruction, error) {
	children := node.GetChildren()
	if len(children) != 2 {
		return nil, fmt.Errorf("asm: malformed a-inst node")
	}
	symbol := children[1]
	if symbol.GetName() != "INT" && symbol.GetName() != "SYMBOL" {
		return nil, fmt.Errorf("asm: expected token SYMBOL or INT, got %s", symbol.GetName())
	}
	return AInstruction{Location: symbol.GetValue()}, nil
}

func (Parser) handleCInst(node pc.Queryable) (Instruction, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("asm: malformed c-inst node")
	}
	maybeAssign, comp, maybeGoto := children[0], children[1], children[2]

	out := CInstruction{Comp: comp.GetValue()}

	if assignChildren := maybeAssign.GetChildren(); len(assignChildren) == 2 {
		out.Dest = assignChildren[0].GetValue()
	}
	if gotoChildren := maybeGoto.GetChildren(); len(gotoChildren) == 2 {
		out.Jump = gotoChildren[1].GetValue()
	}

	return out, nil
}

func (Parser) handleLabelDecl(node pc.Queryable) (Instruction, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("asm: malformed label-decl node")
	}
	symbol := children[1]
	if symbol.GetName() != "SYMBOL" && symbol.GetName() != "INT" {
		return nil, fmt.Errorf("asm: expected token SYMBOL, got %s", symbol.GetName())
	}
	return LabelDecl{Name: symbol.GetValue()}, nil
}
