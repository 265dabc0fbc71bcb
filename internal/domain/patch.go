package domain

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/token"

	"github.com/go-toolsmith/astcopy"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

// MaxEditsPerPatch caps the length of a patch's edit script.
const MaxEditsPerPatch = 3

// syntheticIdentity marks statements that do not come from the original
// program, such as inserted copies.
const syntheticIdentity = -1

var printerConfig = printer.Config{Mode: printer.UseSpaces | printer.TabIndent, Tabwidth: 8}

// Program is the original defective source. It is shared read-only by every
// patch derived from it.
type Program struct {
	name      string
	fset      *token.FileSet
	file      *ast.File
	suspicion *Suspicion
	policy    ReplacementPolicy
	maxEdits  int
	count     int
	// weights holds the suspicion of each original statement by identity.
	// When no statement carries a positive weight, unmapped statements fall
	// back to UnknownSuspicion.
	weights []float64
}

// ProgramOption customizes a Program.
type ProgramOption func(*Program)

// WithMaxEdits overrides MaxEditsPerPatch.
func WithMaxEdits(n int) ProgramOption {
	return func(p *Program) {
		if n > 0 {
			p.maxEdits = n
		}
	}
}

// WithReplacementPolicy overrides the default ReplaceExpr policy.
func WithReplacementPolicy(policy ReplacementPolicy) ProgramOption {
	return func(p *Program) {
		p.policy = policy
	}
}

// NewProgram wraps a parsed file. The file must not be modified afterwards.
func NewProgram(fset *token.FileSet, file *ast.File, suspicion *Suspicion, opts ...ProgramOption) *Program {
	if suspicion == nil {
		suspicion = NewSuspicion(nil)
	}

	p := &Program{
		name:      fset.Position(file.Package).Filename,
		fset:      fset,
		file:      file,
		suspicion: suspicion,
		policy:    DefaultReplacementPolicy(),
		maxEdits:  MaxEditsPerPatch,
	}

	for _, opt := range opts {
		opt(p)
	}

	file.Comments = outsideBodies(file)

	refs := collectStatements(file)
	p.count = len(refs)
	p.weights = make([]float64, len(refs))

	lenient := true

	for i, ref := range refs {
		p.weights[i] = suspicion.StatementSuspicion(fset, ref.stmt)
		if p.weights[i] > 0 {
			lenient = false
		}
	}

	if lenient {
		for i := range p.weights {
			p.weights[i] = UnknownSuspicion
		}
	}

	return p
}

// outsideBodies keeps the comments that lie outside every function body.
// Build constraints, cgo preambles and directives such as //go:embed survive
// rendering; comments between statements do not, since edits move
// statements away from them.
func outsideBodies(file *ast.File) []*ast.CommentGroup {
	var bodies []*ast.BlockStmt

	ast.Inspect(file, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncDecl:
			if n.Body != nil {
				bodies = append(bodies, n.Body)
			}

			return false
		case *ast.FuncLit:
			bodies = append(bodies, n.Body)
			return false
		}

		return true
	})

	var kept []*ast.CommentGroup

outer:
	for _, g := range file.Comments {
		for _, b := range bodies {
			if g.Pos() >= b.Lbrace && g.End() <= b.Rbrace {
				continue outer
			}
		}

		kept = append(kept, g)
	}

	return kept
}

// ParseProgram parses src and wraps it as a Program.
func ParseProgram(filename string, src []byte, suspicion *Suspicion, opts ...ProgramOption) (*Program, error) {
	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	return NewProgram(fset, file, suspicion, opts...), nil
}

// Name is the file name the program was parsed from.
func (p *Program) Name() string { return p.name }

// FileSet returns the positions of the original source.
func (p *Program) FileSet() *token.FileSet { return p.fset }

// Suspicion returns the read-only line weights.
func (p *Program) Suspicion() *Suspicion { return p.suspicion }

// StatementCount is the number of mutable statements in the original.
func (p *Program) StatementCount() int { return p.count }

// MaxEdits is the edit cap applied to every patch.
func (p *Program) MaxEdits() int { return p.maxEdits }

// Render prints the original program.
func (p *Program) Render() ([]byte, error) {
	return render(p.fset, p.file)
}

// NewPatch returns an unedited copy of the program.
func (p *Program) NewPatch() *Patch {
	file := cloneFile(p.file)
	ids := make(map[ast.Stmt]int, p.count)

	for i, ref := range collectStatements(file) {
		ids[ref.stmt] = i
	}

	return &Patch{prog: p, file: file, ids: ids, relocated: make(map[ast.Stmt]bool)}
}

// Patch is a program variant: a private syntax tree plus the edit script
// that produced it from the original.
type Patch struct {
	prog *Program
	file *ast.File
	ids  map[ast.Stmt]int
	// relocated marks position-less copies that carry an original identity,
	// such as both sides of a Swap.
	relocated map[ast.Stmt]bool
	history   []appliedEdit
	// trial patches only check that edits apply and are not counted in
	// metrics until kept.
	trial bool
}

type appliedEdit struct {
	edit m.Edit
	// origin is edit expressed in original statement identities, nil when
	// it touched a synthetic statement.
	origin m.Edit
}

// Program returns the original this patch derives from.
func (p *Patch) Program() *Program { return p.prog }

// Copy deep-clones the patch. The copy shares nothing mutable with p.
func (p *Patch) Copy() *Patch {
	file := cloneFile(p.file)
	ids := make(map[ast.Stmt]int, len(p.ids))
	relocated := make(map[ast.Stmt]bool, len(p.relocated))

	src := collectStatements(p.file)
	dst := collectStatements(file)

	for i := range src {
		if id, ok := p.ids[src[i].stmt]; ok {
			ids[dst[i].stmt] = id
		}

		if p.relocated[src[i].stmt] {
			relocated[dst[i].stmt] = true
		}
	}

	history := make([]appliedEdit, len(p.history))
	copy(history, p.history)

	return &Patch{prog: p.prog, file: file, ids: ids, relocated: relocated, history: history, trial: p.trial}
}

// Edits returns the applied edit script in live coordinates.
func (p *Patch) Edits() []m.Edit {
	out := make([]m.Edit, 0, len(p.history))
	for _, h := range p.history {
		out = append(out, h.edit)
	}

	return out
}

// OriginEdits returns the applied edits addressed by original statement
// index. Edits that touched synthetic statements are omitted.
func (p *Patch) OriginEdits() []m.Edit {
	out := make([]m.Edit, 0, len(p.history))
	for _, h := range p.history {
		if h.origin != nil {
			out = append(out, h.origin)
		}
	}

	return out
}

// EditCount is the length of the edit script.
func (p *Patch) EditCount() int { return len(p.history) }

// StatementCount is the current number of mutable statements.
func (p *Patch) StatementCount() int {
	return len(collectStatements(p.file))
}

// Statements returns the current mutable statements in pre-order.
func (p *Patch) Statements() []ast.Stmt {
	refs := collectStatements(p.file)
	out := make([]ast.Stmt, 0, len(refs))

	for _, ref := range refs {
		out = append(out, ref.stmt)
	}

	return out
}

// Identity returns the original index of the i-th current statement, or -1
// for synthetic statements and out-of-range indices.
func (p *Patch) Identity(i int) int {
	refs := collectStatements(p.file)
	if i < 0 || i >= len(refs) {
		return syntheticIdentity
	}

	return p.identity(refs[i].stmt)
}

// IndexOfIdentity finds the current index of the statement that originated
// at original index id.
func (p *Patch) IndexOfIdentity(id int) (int, bool) {
	if id < 0 {
		return 0, false
	}

	for i, ref := range collectStatements(p.file) {
		if p.identity(ref.stmt) == id {
			return i, true
		}
	}

	return 0, false
}

func (p *Patch) identity(s ast.Stmt) int {
	if id, ok := p.ids[s]; ok {
		return id
	}

	return syntheticIdentity
}

// inheritIdentities gives the statements of clone the identities of the
// matching statements of orig.
func (p *Patch) inheritIdentities(orig, clone ast.Stmt) {
	src := collectStatements(orig)
	dst := collectStatements(clone)

	for i := range min(len(src), len(dst)) {
		if id, ok := p.ids[src[i].stmt]; ok {
			p.ids[dst[i].stmt] = id
			p.relocated[dst[i].stmt] = true
		}
	}
}

// Render prints the patched program.
func (p *Patch) Render() ([]byte, error) {
	return render(p.prog.fset, p.file)
}

// targetWeight is the suspicion s had in the original program. Expression
// edits inside s leave it unchanged; copies spliced in by Insert or Swap have
// no source position and weigh UnknownSuspicion.
func (p *Patch) targetWeight(s ast.Stmt) float64 {
	id := p.identity(s)
	if id == syntheticIdentity || p.relocated[s] {
		return UnknownSuspicion
	}

	return p.prog.weights[id]
}

// render prints the package clause and then each declaration with the
// comments in its own range, so text spliced in without positions cannot pull
// a comment into a neighbouring declaration. The result is gofmt-formatted.
func render(fset *token.FileSet, file *ast.File) ([]byte, error) {
	var buf bytes.Buffer

	header := &ast.File{Package: file.Package, Name: file.Name}
	for _, g := range file.Comments {
		if g.End() < file.Name.Pos() {
			header.Comments = append(header.Comments, g)
		}
	}

	if err := printerConfig.Fprint(&buf, fset, header); err != nil {
		return nil, fmt.Errorf("failed to render program: %w", err)
	}

	for _, d := range file.Decls {
		buf.WriteString("\n\n")

		node := &printer.CommentedNode{Node: d, Comments: file.Comments}
		if err := printerConfig.Fprint(&buf, fset, node); err != nil {
			return nil, fmt.Errorf("failed to render program: %w", err)
		}
	}

	buf.WriteString("\n")

	// Output gofmt cannot parse is left for the compiler to reject.
	if out, err := format.Source(buf.Bytes()); err == nil {
		return out, nil
	}

	return buf.Bytes(), nil
}

func cloneFile(f *ast.File) *ast.File {
	c := *f
	c.Name = astcopy.Ident(f.Name)
	c.Decls = make([]ast.Decl, len(f.Decls))
	c.Imports = nil
	c.Comments = f.Comments
	c.Scope = nil
	c.Unresolved = nil

	for i, d := range f.Decls {
		c.Decls[i] = astcopy.Decl(d)

		switch cd := c.Decls[i].(type) {
		case *ast.FuncDecl:
			cd.Doc = d.(*ast.FuncDecl).Doc
		case *ast.GenDecl:
			cd.Doc = d.(*ast.GenDecl).Doc
		}

		gd, ok := c.Decls[i].(*ast.GenDecl)
		if !ok || gd.Tok != token.IMPORT {
			continue
		}

		for _, spec := range gd.Specs {
			if is, ok := spec.(*ast.ImportSpec); ok {
				c.Imports = append(c.Imports, is)
			}
		}
	}

	return &c
}

func cloneStmt(s ast.Stmt) ast.Stmt {
	c := astcopy.Stmt(s)
	invalidatePositions(c)

	return c
}

func cloneExpr(e ast.Expr) ast.Expr {
	c := astcopy.Expr(e)
	invalidatePositions(c)

	return c
}
