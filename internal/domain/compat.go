package domain

import "go/ast"

// ExprKind is the syntactic category of an expression.
type ExprKind string

// Expression kinds known to the replacement policy.
const (
	KindCall       ExprKind = "call"
	KindSelector   ExprKind = "selector"
	KindIndex      ExprKind = "index"
	KindBinary     ExprKind = "binary"
	KindUnary      ExprKind = "unary"
	KindParen      ExprKind = "paren"
	KindTypeAssert ExprKind = "type_assert"
	KindSlice      ExprKind = "slice"
	KindOther      ExprKind = "other"
)

func exprKind(e ast.Expr) ExprKind {
	switch e.(type) {
	case *ast.CallExpr:
		return KindCall
	case *ast.SelectorExpr:
		return KindSelector
	case *ast.IndexExpr:
		return KindIndex
	case *ast.BinaryExpr:
		return KindBinary
	case *ast.UnaryExpr:
		return KindUnary
	case *ast.ParenExpr:
		return KindParen
	case *ast.TypeAssertExpr:
		return KindTypeAssert
	case *ast.SliceExpr:
		return KindSlice
	}

	return KindOther
}

// KindPair is a (target, donor) combination of expression kinds.
type KindPair struct {
	Target ExprKind
	Donor  ExprKind
}

// ReplacementPolicy decides which donor expressions may replace a target.
type ReplacementPolicy struct {
	cross map[KindPair]bool
}

// DefaultCrossKindPairs lists the cross-kind substitutions allowed by default.
var DefaultCrossKindPairs = []KindPair{
	{Target: KindBinary, Donor: KindCall},
	{Target: KindCall, Donor: KindSelector},
	{Target: KindSelector, Donor: KindCall},
	{Target: KindParen, Donor: KindBinary},
	{Target: KindBinary, Donor: KindParen},
}

// NewReplacementPolicy builds a policy that allows same-kind replacements plus
// the given cross-kind pairs.
func NewReplacementPolicy(pairs ...KindPair) ReplacementPolicy {
	cross := make(map[KindPair]bool, len(pairs))
	for _, p := range pairs {
		cross[p] = true
	}

	return ReplacementPolicy{cross: cross}
}

// DefaultReplacementPolicy returns the policy used by the search.
func DefaultReplacementPolicy() ReplacementPolicy {
	return NewReplacementPolicy(DefaultCrossKindPairs...)
}

// KindsCompatible reports whether a donor of kind d may replace a target of
// kind t, ignoring boolean context.
func (p ReplacementPolicy) KindsCompatible(t, d ExprKind) bool {
	return t == d || p.cross[KindPair{Target: t, Donor: d}]
}

// Allows reports whether donor may replace target. A branch condition only
// takes boolean-shaped donors; any other slot rejects a boolean-shaped donor
// unless the target is boolean-shaped too.
func (p ReplacementPolicy) Allows(target, donor ast.Expr, condition bool) bool {
	if !p.KindsCompatible(exprKind(target), exprKind(donor)) {
		return false
	}

	donorBool := isLikelyBoolean(donor)
	if condition {
		return donorBool
	}

	return !donorBool || isLikelyBoolean(target)
}
