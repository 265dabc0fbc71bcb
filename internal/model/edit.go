package model

import (
	"fmt"
	"go/token"
)

// EditKind names the variant of an Edit.
type EditKind string

// Available edit kinds.
const (
	EditDelete         EditKind = "delete"
	EditInsert         EditKind = "insert"
	EditSwap           EditKind = "swap"
	EditReplaceExpr    EditKind = "replace_expr"
	EditMutateBinaryOp EditKind = "mutate_binary_op"
	EditNegate         EditKind = "negate"
)

// Edit is one atomic transformation of a program. Statement coordinates
// index the current pre-order list of mutable statements.
//
// Edits are values; Relocate returns a copy instead of modifying the receiver.
type Edit interface {
	Kind() EditKind
	TargetIndex() int
	// DonorIndex reports the donor statement for variants that have one.
	DonorIndex() (int, bool)
	// Relocate returns the same edit addressed at new statement coordinates.
	// The donor argument is ignored by variants without a donor.
	Relocate(target, donor int) Edit
	// Key is a structural identity used to deduplicate candidate edits.
	Key() string
	String() string

	isEdit()
}

const noIndex = -1

func editKey(kind EditKind, target, donor, targetExpr, donorExpr int) string {
	return fmt.Sprintf("%s:%d:%d:%d:%d", kind, target, donor, targetExpr, donorExpr)
}

// Delete removes the target statement.
type Delete struct {
	Target int
}

// Kind implements Edit.
func (Delete) Kind() EditKind { return EditDelete }

// TargetIndex implements Edit.
func (e Delete) TargetIndex() int { return e.Target }

// DonorIndex implements Edit.
func (Delete) DonorIndex() (int, bool) { return noIndex, false }

// Relocate implements Edit.
func (e Delete) Relocate(target, _ int) Edit {
	e.Target = target
	return e
}

// Key implements Edit.
func (e Delete) Key() string { return editKey(EditDelete, e.Target, noIndex, noIndex, noIndex) }

func (e Delete) String() string { return fmt.Sprintf("delete stmt#%d", e.Target) }

func (Delete) isEdit() {}

// Insert places a copy of the donor statement immediately before the target.
type Insert struct {
	Target int
	Donor  int
}

// Kind implements Edit.
func (Insert) Kind() EditKind { return EditInsert }

// TargetIndex implements Edit.
func (e Insert) TargetIndex() int { return e.Target }

// DonorIndex implements Edit.
func (e Insert) DonorIndex() (int, bool) { return e.Donor, true }

// Relocate implements Edit.
func (e Insert) Relocate(target, donor int) Edit {
	e.Target, e.Donor = target, donor
	return e
}

// Key implements Edit.
func (e Insert) Key() string { return editKey(EditInsert, e.Target, e.Donor, noIndex, noIndex) }

func (e Insert) String() string {
	return fmt.Sprintf("insert stmt#%d before stmt#%d", e.Donor, e.Target)
}

func (Insert) isEdit() {}

// Swap exchanges the target and donor statements.
type Swap struct {
	Target int
	Donor  int
}

// Kind implements Edit.
func (Swap) Kind() EditKind { return EditSwap }

// TargetIndex implements Edit.
func (e Swap) TargetIndex() int { return e.Target }

// DonorIndex implements Edit.
func (e Swap) DonorIndex() (int, bool) { return e.Donor, true }

// Relocate implements Edit.
func (e Swap) Relocate(target, donor int) Edit {
	e.Target, e.Donor = target, donor
	return e
}

// Key implements Edit.
func (e Swap) Key() string { return editKey(EditSwap, e.Target, e.Donor, noIndex, noIndex) }

func (e Swap) String() string { return fmt.Sprintf("swap stmt#%d with stmt#%d", e.Target, e.Donor) }

func (Swap) isEdit() {}

// ReplaceExpr replaces the TargetExpr-th replaceable expression of the
// target with a copy of the DonorExpr-th replaceable expression of the donor.
type ReplaceExpr struct {
	Target     int
	Donor      int
	TargetExpr int
	DonorExpr  int
}

// Kind implements Edit.
func (ReplaceExpr) Kind() EditKind { return EditReplaceExpr }

// TargetIndex implements Edit.
func (e ReplaceExpr) TargetIndex() int { return e.Target }

// DonorIndex implements Edit.
func (e ReplaceExpr) DonorIndex() (int, bool) { return e.Donor, true }

// Relocate implements Edit.
func (e ReplaceExpr) Relocate(target, donor int) Edit {
	e.Target, e.Donor = target, donor
	return e
}

// Key implements Edit.
func (e ReplaceExpr) Key() string {
	return editKey(EditReplaceExpr, e.Target, e.Donor, e.TargetExpr, e.DonorExpr)
}

func (e ReplaceExpr) String() string {
	return fmt.Sprintf("replace expr#%d of stmt#%d with expr#%d of stmt#%d", e.TargetExpr, e.Target, e.DonorExpr, e.Donor)
}

func (ReplaceExpr) isEdit() {}

// MutateBinaryOp changes the operator of the Expr-th replaceable binary
// expression of the target.
type MutateBinaryOp struct {
	Target int
	Expr   int
	Op     token.Token
}

// Kind implements Edit.
func (MutateBinaryOp) Kind() EditKind { return EditMutateBinaryOp }

// TargetIndex implements Edit.
func (e MutateBinaryOp) TargetIndex() int { return e.Target }

// DonorIndex implements Edit.
func (MutateBinaryOp) DonorIndex() (int, bool) { return noIndex, false }

// Relocate implements Edit.
func (e MutateBinaryOp) Relocate(target, _ int) Edit {
	e.Target = target
	return e
}

// Key implements Edit.
func (e MutateBinaryOp) Key() string {
	return editKey(EditMutateBinaryOp, e.Target, noIndex, e.Expr, int(e.Op))
}

func (e MutateBinaryOp) String() string {
	return fmt.Sprintf("set operator of binary#%d in stmt#%d to %s", e.Expr, e.Target, e.Op)
}

func (MutateBinaryOp) isEdit() {}

// Negate wraps the Expr-th negatable expression of the target in a logical
// not, or unwraps it when it already is one.
type Negate struct {
	Target int
	Expr   int
}

// Kind implements Edit.
func (Negate) Kind() EditKind { return EditNegate }

// TargetIndex implements Edit.
func (e Negate) TargetIndex() int { return e.Target }

// DonorIndex implements Edit.
func (Negate) DonorIndex() (int, bool) { return noIndex, false }

// Relocate implements Edit.
func (e Negate) Relocate(target, _ int) Edit {
	e.Target = target
	return e
}

// Key implements Edit.
func (e Negate) Key() string { return editKey(EditNegate, e.Target, noIndex, e.Expr, noIndex) }

func (e Negate) String() string { return fmt.Sprintf("negate expr#%d of stmt#%d", e.Expr, e.Target) }

func (Negate) isEdit() {}

// EditStrings renders a script for logs and reports.
func EditStrings(edits []Edit) []string {
	out := make([]string, 0, len(edits))
	for _, e := range edits {
		out = append(out, e.String())
	}

	return out
}
