package domain

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

// exprSite is an expression together with the node that owns its slot.
type exprSite struct {
	expr   ast.Expr
	parent ast.Node
	// cond is set for branch conditions: if/for conditions and the case
	// expressions of a tagless switch.
	cond bool
}

type switchKind int

const (
	switchTagged switchKind = iota
	switchTagless
	switchType
)

// walkExprs visits the expressions under root in pre-order, skipping function
// literals, type positions and assignment targets.
func walkExprs(root ast.Node, visit func(site exprSite)) {
	var switches []switchKind

	astutil.Apply(root, func(c *astutil.Cursor) bool {
		n := c.Node()
		if isTypeSlot(c, switches) {
			return false
		}

		switch s := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.SwitchStmt:
			if s.Tag == nil {
				switches = append(switches, switchTagless)
			} else {
				switches = append(switches, switchTagged)
			}
		case *ast.TypeSwitchStmt:
			switches = append(switches, switchType)
		case *ast.ArrayType, *ast.MapType, *ast.ChanType, *ast.FuncType,
			*ast.StructType, *ast.InterfaceType, *ast.Ellipsis:
			return false
		}

		e, ok := n.(ast.Expr)
		if !ok || isAssignTarget(c) {
			return true
		}

		visit(exprSite{expr: e, parent: c.Parent(), cond: isConditionSlot(c, switches)})

		return true
	}, func(c *astutil.Cursor) bool {
		switch c.Node().(type) {
		case *ast.SwitchStmt, *ast.TypeSwitchStmt:
			switches = switches[:len(switches)-1]
		}

		return true
	})
}

func isTypeSlot(c *astutil.Cursor, switches []switchKind) bool {
	switch p := c.Parent().(type) {
	case *ast.CompositeLit, *ast.TypeAssertExpr, *ast.ValueSpec, *ast.Field, *ast.TypeSpec:
		return c.Name() == "Type"
	case *ast.CaseClause:
		return c.Name() == "List" && len(switches) > 0 && switches[len(switches)-1] == switchType
	case *ast.CallExpr:
		// make(T, ...) and new(T)
		if id, ok := p.Fun.(*ast.Ident); ok && (id.Name == "make" || id.Name == "new") {
			return c.Name() == "Args" && c.Index() == 0
		}
	}

	return false
}

func isAssignTarget(c *astutil.Cursor) bool {
	switch c.Parent().(type) {
	case *ast.AssignStmt:
		return c.Name() == "Lhs"
	case *ast.IncDecStmt:
		return c.Name() == "X"
	case *ast.RangeStmt:
		return c.Name() == "Key" || c.Name() == "Value"
	}

	return false
}

func isConditionSlot(c *astutil.Cursor, switches []switchKind) bool {
	switch c.Parent().(type) {
	case *ast.IfStmt, *ast.ForStmt:
		return c.Name() == "Cond"
	case *ast.CaseClause:
		return c.Name() == "List" && len(switches) > 0 && switches[len(switches)-1] == switchTagless
	}

	return false
}

// isReplaceable reports whether an expression may be the subject of a
// ReplaceExpr edit. Literals, bare names and key/value pairs are excluded.
func isReplaceable(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.CallExpr, *ast.SelectorExpr, *ast.IndexExpr, *ast.BinaryExpr,
		*ast.UnaryExpr, *ast.ParenExpr, *ast.SliceExpr:
		return true
	case *ast.TypeAssertExpr:
		return e.Type != nil
	}

	return false
}

func replaceableSites(root ast.Node) []exprSite {
	var sites []exprSite

	walkExprs(root, func(site exprSite) {
		if isReplaceable(site.expr) {
			sites = append(sites, site)
		}
	})

	return sites
}

// relationalSites are the binary comparisons whose operator can be mutated.
func relationalSites(root ast.Node) []exprSite {
	var sites []exprSite

	walkExprs(root, func(site exprSite) {
		if be, ok := site.expr.(*ast.BinaryExpr); ok && len(operatorAlternatives(be.Op)) > 0 {
			sites = append(sites, site)
		}
	})

	return sites
}

// negatableSites are boolean operands of && and || plus branch conditions.
func negatableSites(root ast.Node) []exprSite {
	var sites []exprSite

	walkExprs(root, func(site exprSite) {
		if !isNegatableKind(site.expr) {
			return
		}

		if be, ok := site.parent.(*ast.BinaryExpr); ok && (be.Op == token.LAND || be.Op == token.LOR) {
			sites = append(sites, site)
			return
		}

		if site.cond {
			sites = append(sites, site)
		}
	})

	return sites
}

func isNegatableKind(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.Ident:
		return e.Name != "true" && e.Name != "false"
	case *ast.SelectorExpr, *ast.IndexExpr, *ast.CallExpr, *ast.ParenExpr,
		*ast.UnaryExpr, *ast.BinaryExpr:
		return true
	}

	return false
}

// isLikelyBoolean is a syntactic guess at whether e yields a bool.
func isLikelyBoolean(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.Ident:
		return e.Name == "true" || e.Name == "false"
	case *ast.UnaryExpr:
		return e.Op == token.NOT
	case *ast.ParenExpr:
		return isLikelyBoolean(e.X)
	case *ast.BinaryExpr:
		switch e.Op {
		case token.LOR, token.LAND, token.EQL, token.NEQ,
			token.LSS, token.LEQ, token.GTR, token.GEQ:
			return true
		}
	}

	return false
}

var (
	orderingOps = []token.Token{token.LSS, token.LEQ, token.GTR, token.GEQ}
	equalityOps = []token.Token{token.EQL, token.NEQ}
)

// operatorAlternatives returns the other operators of op's family.
func operatorAlternatives(op token.Token) []token.Token {
	var family []token.Token

	switch op {
	case token.LSS, token.LEQ, token.GTR, token.GEQ:
		family = orderingOps
	case token.EQL, token.NEQ:
		family = equalityOps
	default:
		return nil
	}

	out := make([]token.Token, 0, len(family)-1)
	for _, alt := range family {
		if alt != op {
			out = append(out, alt)
		}
	}

	return out
}

func binaryOp(e ast.Expr) token.Token {
	if be, ok := e.(*ast.BinaryExpr); ok {
		return be.Op
	}

	return token.ILLEGAL
}

// exprPriority ranks expressions as edit material.
func exprPriority(e ast.Expr) float64 {
	switch e := e.(type) {
	case *ast.SelectorExpr:
		return 2.4
	case *ast.IndexExpr:
		return 2.8
	case *ast.CallExpr:
		return 2.6
	case *ast.BinaryExpr:
		if len(operatorAlternatives(e.Op)) > 0 {
			return 3.0
		}

		return 1.8
	}

	return 1.0
}
