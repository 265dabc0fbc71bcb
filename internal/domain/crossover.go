package domain

import (
	"slices"

	m "gorepair.dev/pkg/gorepair/internal/model"
)

// Crossover recombines two parents at a random cut over original statement
// coordinates and returns both children.
func (g *PatchGenerator) Crossover(p, q *Patch) (*Patch, *Patch) {
	count := g.prog.StatementCount()
	if count <= 1 {
		return p.Copy(), q.Copy()
	}

	return g.crossoverAt(p, q, g.rng.Intn(count))
}

// crossoverAt builds child A from p's edits at or before cut and q's edits
// after it; child B takes the rest.
func (g *PatchGenerator) crossoverAt(p, q *Patch, cut int) (*Patch, *Patch) {
	pHead, pTail := splitAt(p.OriginEdits(), cut)
	qHead, qTail := splitAt(q.OriginEdits(), cut)

	return g.replay(slices.Concat(pHead, qTail)), g.replay(slices.Concat(qHead, pTail))
}

func splitAt(edits []m.Edit, cut int) ([]m.Edit, []m.Edit) {
	var head, tail []m.Edit

	for _, e := range edits {
		if e.TargetIndex() <= cut {
			head = append(head, e)
		} else {
			tail = append(tail, e)
		}
	}

	return head, tail
}

// replay applies an origin-addressed script to a fresh copy of the program,
// resolving each original statement to wherever it currently sits. Edits
// whose statements no longer exist are skipped.
func (g *PatchGenerator) replay(script []m.Edit) *Patch {
	child := g.prog.NewPatch()

	for _, e := range script {
		target, ok := child.IndexOfIdentity(e.TargetIndex())
		if !ok {
			continue
		}

		donor := syntheticIdentity

		if id, hasDonor := e.DonorIndex(); hasDonor {
			donor, ok = child.IndexOfIdentity(id)
			if !ok {
				continue
			}
		}

		child.ApplyEdit(e.Relocate(target, donor))
	}

	return child
}
