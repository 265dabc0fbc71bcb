package domain

import (
	"go/ast"
	"go/token"
	"log/slog"
	"slices"

	"golang.org/x/tools/go/ast/astutil"
	"gorepair.dev/pkg/gorepair/internal/metrics"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

// ApplyEdit validates and performs edit. It reports false, leaving the
// script unchanged, when the edit is out of range, targets a statement with
// no suspicion, would exceed the edit cap or is structurally invalid.
func (p *Patch) ApplyEdit(edit m.Edit) (applied bool) {
	if edit == nil || len(p.history) >= p.prog.maxEdits {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Debug("edit rejected after panic", "edit", edit.String(), "panic", r)

			applied = false
		}
	}()

	refs := collectStatements(p.file)

	t := edit.TargetIndex()
	if t < 0 || t >= len(refs) {
		return false
	}

	target := refs[t]
	if p.targetWeight(target.stmt) <= 0 {
		return false
	}

	var donor stmtRef

	d, hasDonor := edit.DonorIndex()
	if hasDonor {
		if d < 0 || d >= len(refs) {
			return false
		}

		donor = refs[d]
	}

	origin := p.originOf(edit, target, donor, hasDonor)

	switch e := edit.(type) {
	case m.Delete:
		applied = p.applyDelete(target)
	case m.Insert:
		applied = p.applyInsert(target, donor)
	case m.Swap:
		applied = p.applySwap(target, donor)
	case m.ReplaceExpr:
		applied = p.applyReplaceExpr(target, donor, e)
	case m.MutateBinaryOp:
		applied = p.applyMutateBinaryOp(target, e)
	case m.Negate:
		applied = p.applyNegate(target, e)
	}

	if applied {
		p.history = append(p.history, appliedEdit{edit: edit, origin: origin})

		if !p.trial {
			metrics.EditsApplied.WithLabelValues(string(edit.Kind())).Inc()
		}
	}

	return applied
}

// newTrial returns a fresh patch whose edits are not counted until commit.
func (p *Program) newTrial() *Patch {
	t := p.NewPatch()
	t.trial = true

	return t
}

// commit counts the edits of a trial patch that is kept.
func (p *Patch) commit() *Patch {
	if !p.trial {
		return p
	}

	p.trial = false

	for _, h := range p.history {
		metrics.EditsApplied.WithLabelValues(string(h.edit.Kind())).Inc()
	}

	return p
}

// ApplyEdits applies the script in order and returns how many edits took.
func (p *Patch) ApplyEdits(edits ...m.Edit) int {
	n := 0

	for _, e := range edits {
		if p.ApplyEdit(e) {
			n++
		}
	}

	return n
}

func (p *Patch) originOf(edit m.Edit, target, donor stmtRef, hasDonor bool) m.Edit {
	tid := p.identity(target.stmt)
	if tid == syntheticIdentity {
		return nil
	}

	did := syntheticIdentity
	if hasDonor {
		did = p.identity(donor.stmt)
		if did == syntheticIdentity {
			return nil
		}
	}

	return edit.Relocate(tid, did)
}

func (p *Patch) applyDelete(target stmtRef) bool {
	return rewriteChild(target.parent, target.stmt, func(c *astutil.Cursor) bool {
		if c.Index() < 0 {
			return false
		}

		c.Delete()

		return true
	})
}

func (p *Patch) applyInsert(target, donor stmtRef) bool {
	return rewriteChild(target.parent, target.stmt, func(c *astutil.Cursor) bool {
		if c.Index() < 0 {
			return false
		}

		c.InsertBefore(cloneStmt(donor.stmt))

		return true
	})
}

func (p *Patch) applySwap(target, donor stmtRef) bool {
	if target.stmt == donor.stmt || contains(target.stmt, donor.stmt) || contains(donor.stmt, target.stmt) {
		return false
	}

	if !inList(target) || !inList(donor) {
		return false
	}

	targetClone := cloneStmt(target.stmt)
	donorClone := cloneStmt(donor.stmt)

	p.inheritIdentities(target.stmt, targetClone)
	p.inheritIdentities(donor.stmt, donorClone)

	if !rewriteChild(target.parent, target.stmt, func(c *astutil.Cursor) bool {
		c.Replace(donorClone)
		return true
	}) {
		return false
	}

	if !rewriteChild(donor.parent, donor.stmt, func(c *astutil.Cursor) bool {
		c.Replace(targetClone)
		return true
	}) {
		// Undo the first half so a failed swap leaves the tree untouched.
		rewriteChild(target.parent, donorClone, func(c *astutil.Cursor) bool {
			c.Replace(target.stmt)
			return true
		})

		return false
	}

	return true
}

func (p *Patch) applyReplaceExpr(target, donor stmtRef, e m.ReplaceExpr) bool {
	targetSites := replaceableSites(target.stmt)
	donorSites := replaceableSites(donor.stmt)

	if e.TargetExpr < 0 || e.TargetExpr >= len(targetSites) || e.DonorExpr < 0 || e.DonorExpr >= len(donorSites) {
		return false
	}

	if target.stmt == donor.stmt && e.TargetExpr == e.DonorExpr {
		return false
	}

	ts := targetSites[e.TargetExpr]
	ds := donorSites[e.DonorExpr]

	if ts.expr == ds.expr || !p.prog.policy.Allows(ts.expr, ds.expr, ts.cond) {
		return false
	}

	replacement := cloneExpr(ds.expr)

	return rewriteChild(ts.parent, ts.expr, func(c *astutil.Cursor) bool {
		c.Replace(replacement)
		return true
	})
}

func (p *Patch) applyMutateBinaryOp(target stmtRef, e m.MutateBinaryOp) bool {
	sites := relationalSites(target.stmt)
	if e.Expr < 0 || e.Expr >= len(sites) {
		return false
	}

	be, ok := sites[e.Expr].expr.(*ast.BinaryExpr)
	if !ok || !slices.Contains(operatorAlternatives(be.Op), e.Op) {
		return false
	}

	be.Op = e.Op

	return true
}

func (p *Patch) applyNegate(target stmtRef, e m.Negate) bool {
	sites := negatableSites(target.stmt)
	if e.Expr < 0 || e.Expr >= len(sites) {
		return false
	}

	site := sites[e.Expr]

	var replacement ast.Expr
	if u, ok := site.expr.(*ast.UnaryExpr); ok && u.Op == token.NOT {
		replacement = u.X
	} else {
		operand := site.expr
		if _, ok := operand.(*ast.BinaryExpr); ok {
			operand = &ast.ParenExpr{X: operand}
		}

		replacement = &ast.UnaryExpr{Op: token.NOT, X: operand}
	}

	return rewriteChild(site.parent, site.expr, func(c *astutil.Cursor) bool {
		c.Replace(replacement)
		return true
	})
}
