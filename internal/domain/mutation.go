package domain

import (
	"math/rand"
	"reflect"

	m "gorepair.dev/pkg/gorepair/internal/model"
)

const (
	// coreOperatorRatio is the share of random edits drawn from
	// delete/insert/swap; the rest are expression edits.
	coreOperatorRatio     = 0.75
	sameFunctionDonorBias = 0.8
	sameKindDonorBias     = 0.7
)

var (
	coreOperators       = []m.EditKind{m.EditDelete, m.EditInsert, m.EditSwap}
	expressionOperators = []m.EditKind{m.EditReplaceExpr, m.EditMutateBinaryOp, m.EditNegate}
)

// DoMutations walks a snapshot of the current statements and, for each one
// with a positive weight, applies a random edit with probability
// rate × weight. It stops at the edit cap.
func (p *Patch) DoMutations(rate float64, rng *rand.Rand) {
	if rate <= 0 || rng == nil || len(p.history) >= p.prog.maxEdits {
		return
	}

	for _, ref := range collectStatements(p.file) {
		if len(p.history) >= p.prog.maxEdits {
			return
		}

		weight := p.targetWeight(ref.stmt)
		if weight <= 0 {
			continue
		}

		if rng.Float64() > rate || rng.Float64() > weight {
			continue
		}

		live := collectStatements(p.file)

		idx := indexOfStmt(live, ref.stmt)
		if idx < 0 {
			continue
		}

		if edit := p.randomEdit(live, idx, rng); edit != nil {
			p.ApplyEdit(edit)
		}
	}
}

func chooseOperator(rng *rand.Rand) m.EditKind {
	if rng.Float64() < coreOperatorRatio {
		return coreOperators[rng.Intn(len(coreOperators))]
	}

	return expressionOperators[rng.Intn(len(expressionOperators))]
}

func (p *Patch) randomEdit(refs []stmtRef, idx int, rng *rand.Rand) m.Edit {
	switch chooseOperator(rng) {
	case m.EditDelete:
		return m.Delete{Target: idx}
	case m.EditInsert:
		return m.Insert{Target: idx, Donor: rng.Intn(len(refs))}
	case m.EditSwap:
		if len(refs) < 2 {
			return nil
		}

		donor := rng.Intn(len(refs) - 1)
		if donor >= idx {
			donor++
		}

		return m.Swap{Target: idx, Donor: donor}
	case m.EditReplaceExpr:
		return randomReplaceExpr(refs, idx, rng)
	case m.EditMutateBinaryOp:
		sites := relationalSites(refs[idx].stmt)
		if len(sites) == 0 {
			return nil
		}

		i := rng.Intn(len(sites))
		ops := operatorAlternatives(binaryOp(sites[i].expr))

		return m.MutateBinaryOp{Target: idx, Expr: i, Op: ops[rng.Intn(len(ops))]}
	case m.EditNegate:
		sites := negatableSites(refs[idx].stmt)
		if len(sites) == 0 {
			return nil
		}

		return m.Negate{Target: idx, Expr: weightedSite(sites, rng)}
	}

	return nil
}

func randomReplaceExpr(refs []stmtRef, idx int, rng *rand.Rand) m.Edit {
	target := refs[idx]

	targetSites := replaceableSites(target.stmt)
	if len(targetSites) == 0 {
		return nil
	}

	var donors []int

	for i, ref := range refs {
		if len(replaceableSites(ref.stmt)) > 0 {
			donors = append(donors, i)
		}
	}

	if rng.Float64() < sameFunctionDonorBias {
		donors = preferDonors(donors, func(i int) bool { return refs[i].fn == target.fn })
	}

	if rng.Float64() < sameKindDonorBias {
		kind := reflect.TypeOf(target.stmt)
		donors = preferDonors(donors, func(i int) bool { return reflect.TypeOf(refs[i].stmt) == kind })
	}

	if len(donors) == 0 {
		return nil
	}

	donor := donors[rng.Intn(len(donors))]

	return m.ReplaceExpr{
		Target:     idx,
		Donor:      donor,
		TargetExpr: weightedSite(targetSites, rng),
		DonorExpr:  weightedSite(replaceableSites(refs[donor].stmt), rng),
	}
}

// preferDonors narrows donors to those matching keep, unless none do.
func preferDonors(donors []int, keep func(int) bool) []int {
	var out []int

	for _, d := range donors {
		if keep(d) {
			out = append(out, d)
		}
	}

	if len(out) == 0 {
		return donors
	}

	return out
}

// weightedSite draws a site index proportionally to exprPriority.
func weightedSite(sites []exprSite, rng *rand.Rand) int {
	total := 0.0
	for _, s := range sites {
		total += exprPriority(s.expr)
	}

	r := rng.Float64() * total
	for i, s := range sites {
		r -= exprPriority(s.expr)
		if r < 0 {
			return i
		}
	}

	return len(sites) - 1
}
