package domain

import (
	"log/slog"
	"math"
	"slices"
	"sort"

	m "gorepair.dev/pkg/gorepair/internal/model"
)

const (
	maxTargetStatements        = 12
	maxDonorStatements         = 24
	maxInsertDonorsPerTarget   = 4
	maxSwapDonorsPerTarget     = 4
	maxReplaceExprIndices      = 6
	maxReplaceEditsPerPair     = 4
	maxNegateExprIndices       = 24
	maxBinaryExprIndices       = 6
	maxBinaryEditsPerStatement = 6
	maxSingleEditPool          = 96
	maxCombinationPool         = 24
	maxTwoEditAttempts         = 120
	singleEditRatio            = 0.75
)

type seedQuota struct {
	kind  m.EditKind
	limit int
}

// seedOrder is the round-robin order of the single-edit pool; expression
// edits come first.
var seedOrder = []seedQuota{
	{kind: m.EditMutateBinaryOp, limit: 24},
	{kind: m.EditReplaceExpr, limit: 30},
	{kind: m.EditNegate, limit: 16},
	{kind: m.EditDelete, limit: 96},
	{kind: m.EditInsert, limit: 16},
	{kind: m.EditSwap, limit: 12},
}

// SeedPool is the validated single-edit candidate set of a program.
type SeedPool struct {
	// Targets and Donors are original statement indices in ranking order.
	Targets []int
	Donors  []int
	ByKind  map[m.EditKind][]m.Edit
	// Merged interleaves ByKind round-robin in seedOrder, capped at
	// maxSingleEditPool.
	Merged []m.Edit
}

type poolBuilder struct {
	prog   *Program
	seen   map[string]struct{}
	byKind map[m.EditKind][]m.Edit
	limits map[m.EditKind]int
}

func (b *poolBuilder) full(kind m.EditKind) bool {
	return len(b.byKind[kind]) >= b.limits[kind]
}

// add keeps e if it is new, under its kind's quota and applies cleanly to a
// fresh copy of the program.
func (b *poolBuilder) add(e m.Edit) bool {
	if b.full(e.Kind()) {
		return false
	}

	key := e.Key()
	if _, dup := b.seen[key]; dup {
		return false
	}

	b.seen[key] = struct{}{}

	if !b.prog.newTrial().ApplyEdit(e) {
		return false
	}

	b.byKind[e.Kind()] = append(b.byKind[e.Kind()], e)

	return true
}

// SeedPool enumerates and validates single-edit candidates in priority order.
func (g *PatchGenerator) SeedPool() SeedPool {
	base := g.prog.NewPatch()
	refs := collectStatements(base.file)
	targets := rankTargets(base, refs)
	donors := rankDonors(g.prog, refs)

	b := &poolBuilder{
		prog:   g.prog,
		seen:   make(map[string]struct{}),
		byKind: make(map[m.EditKind][]m.Edit),
		limits: make(map[m.EditKind]int, len(seedOrder)),
	}

	for _, q := range seedOrder {
		b.limits[q.kind] = q.limit
	}

	b.binaryEdits(refs, targets)
	b.replaceEdits(refs, targets, donors)
	b.negateEdits(refs, targets)

	for _, t := range targets {
		b.add(m.Delete{Target: t})
	}

	b.donorEdits(targets, donors, maxInsertDonorsPerTarget, func(t, d int) m.Edit { return m.Insert{Target: t, Donor: d} })
	b.donorEdits(targets, donors, maxSwapDonorsPerTarget, func(t, d int) m.Edit { return m.Swap{Target: t, Donor: d} })

	pool := SeedPool{Targets: targets, Donors: donors, ByKind: b.byKind}
	pool.Merged = mergeRoundRobin(b.byKind)

	slog.Debug("built seed pool", "targets", len(targets), "donors", len(donors), "candidates", len(pool.Merged))

	return pool
}

func (b *poolBuilder) binaryEdits(refs []stmtRef, targets []int) {
	for _, t := range targets {
		if b.full(m.EditMutateBinaryOp) {
			return
		}

		sites := relationalSites(refs[t].stmt)
		added := 0

		for i := range min(len(sites), maxBinaryExprIndices) {
			for _, op := range operatorAlternatives(binaryOp(sites[i].expr)) {
				if added >= maxBinaryEditsPerStatement {
					break
				}

				if b.add(m.MutateBinaryOp{Target: t, Expr: i, Op: op}) {
					added++
				}
			}
		}
	}
}

func (b *poolBuilder) replaceEdits(refs []stmtRef, targets, donors []int) {
	for _, t := range targets {
		targetSites := replaceableSites(refs[t].stmt)
		targetExprs := byPriority(targetSites, maxReplaceExprIndices)

		for _, d := range replaceDonors(refs, t, donors) {
			if b.full(m.EditReplaceExpr) {
				return
			}

			donorSites := replaceableSites(refs[d].stmt)
			added := 0

		pair:
			for _, ti := range targetExprs {
				for _, di := range byPriority(donorSites, len(donorSites)) {
					if added >= maxReplaceEditsPerPair {
						break pair
					}

					if t == d && ti == di {
						continue
					}

					if !b.prog.policy.Allows(targetSites[ti].expr, donorSites[di].expr, targetSites[ti].cond) {
						continue
					}

					if b.add(m.ReplaceExpr{Target: t, Donor: d, TargetExpr: ti, DonorExpr: di}) {
						added++
					}
				}
			}
		}
	}
}

func (b *poolBuilder) negateEdits(refs []stmtRef, targets []int) {
	for _, t := range targets {
		sites := negatableSites(refs[t].stmt)
		for i := range min(len(sites), maxNegateExprIndices) {
			if b.full(m.EditNegate) {
				return
			}

			b.add(m.Negate{Target: t, Expr: i})
		}
	}
}

func (b *poolBuilder) donorEdits(targets, donors []int, perTarget int, build func(t, d int) m.Edit) {
	for _, t := range targets {
		added := 0

		for _, d := range donors {
			if added >= perTarget {
				break
			}

			if d != t && b.add(build(t, d)) {
				added++
			}
		}
	}
}

// replaceDonors orders donor candidates for ReplaceExpr: the target itself is
// included and donors from the target's function come first.
func replaceDonors(refs []stmtRef, t int, donors []int) []int {
	all := make([]int, 0, len(donors)+1)
	all = append(all, donors...)

	if !slices.Contains(all, t) {
		all = append(all, t)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return refs[all[i]].fn == refs[t].fn && refs[all[j]].fn != refs[t].fn
	})

	return all
}

// byPriority returns up to limit site indices ordered by exprPriority.
func byPriority(sites []exprSite, limit int) []int {
	idx := make([]int, len(sites))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return exprPriority(sites[idx[a]].expr) > exprPriority(sites[idx[b]].expr)
	})

	if len(idx) > limit {
		idx = idx[:limit]
	}

	return idx
}

// rankTargets orders eligible statements by suspicion and thins the ranking
// evenly when it is longer than maxTargetStatements.
func rankTargets(base *Patch, refs []stmtRef) []int {
	type ranked struct {
		idx    int
		weight float64
	}

	var rs []ranked

	for i, ref := range refs {
		if w := base.targetWeight(ref.stmt); w > 0 {
			rs = append(rs, ranked{idx: i, weight: w})
		}
	}

	sort.SliceStable(rs, func(a, b int) bool { return rs[a].weight > rs[b].weight })

	ordered := make([]int, len(rs))
	for i, r := range rs {
		ordered[i] = r.idx
	}

	return spread(ordered, maxTargetStatements)
}

// spread picks limit evenly spaced entries of ranked, always keeping the
// first.
func spread(ranked []int, limit int) []int {
	if len(ranked) <= limit {
		return ranked
	}

	out := make([]int, 0, limit)
	for i := range limit {
		out = append(out, ranked[i*len(ranked)/limit])
	}

	return out
}

func rankDonors(prog *Program, refs []stmtRef) []int {
	scores := make([]float64, len(refs))
	idx := make([]int, len(refs))

	for i, ref := range refs {
		idx[i] = i
		scores[i] = prog.suspicion.DonorScore(prog.fset, ref.stmt)
	}

	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	if len(idx) > maxDonorStatements {
		idx = idx[:maxDonorStatements]
	}

	return idx
}

func mergeRoundRobin(byKind map[m.EditKind][]m.Edit) []m.Edit {
	var merged []m.Edit

	for round := 0; len(merged) < maxSingleEditPool; round++ {
		progressed := false

		for _, q := range seedOrder {
			edits := byKind[q.kind]
			if round >= len(edits) {
				continue
			}

			progressed = true

			merged = append(merged, edits[round])
			if len(merged) == maxSingleEditPool {
				break
			}
		}

		if !progressed {
			break
		}
	}

	return merged
}

// GuidedPatches returns up to n distinct seeds: mostly single edits from the
// seed pool, then two-edit combinations of its best entries. Seeds that
// render to the same text, or to the original, are dropped.
func (g *PatchGenerator) GuidedPatches(n int) []*Patch {
	if n <= 0 {
		return nil
	}

	pool := g.SeedPool().Merged
	seen := make(map[string]struct{})

	if src, err := g.prog.Render(); err == nil {
		seen[string(src)] = struct{}{}
	}

	out := make([]*Patch, 0, n)
	keep := func(p *Patch) {
		src, err := p.Render()
		if err != nil {
			return
		}

		if _, dup := seen[string(src)]; dup {
			return
		}

		seen[string(src)] = struct{}{}
		out = append(out, p.commit())
	}

	singleQuota := min(n, max(1, int(math.Round(float64(n)*singleEditRatio))))
	next := 0

	takeSingles := func(limit int) {
		for ; next < len(pool) && len(out) < limit; next++ {
			p := g.prog.newTrial()
			if p.ApplyEdit(pool[next]) {
				keep(p)
			}
		}
	}

	takeSingles(singleQuota)

	prefix := pool[:min(len(pool), maxCombinationPool)]
	attempts := 0

combos:
	for i := range prefix {
		for j := i + 1; j < len(prefix); j++ {
			for _, pair := range [][2]m.Edit{{prefix[i], prefix[j]}, {prefix[j], prefix[i]}} {
				if len(out) >= n || attempts >= maxTwoEditAttempts {
					break combos
				}

				attempts++

				p := g.prog.newTrial()
				if p.ApplyEdit(pair[0]) && p.ApplyEdit(pair[1]) {
					keep(p)
				}
			}
		}
	}

	takeSingles(n)

	slog.Debug("generated guided seeds", "requested", n, "generated", len(out), "pool", len(pool), "pair_attempts", attempts)

	return out
}
