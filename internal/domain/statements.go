package domain

import (
	"go/ast"
	"go/token"
	"reflect"

	"golang.org/x/tools/go/ast/astutil"
)

// stmtRef locates a mutable statement. parent and fn are lookup-only; edits
// always go through the parent's child slot.
type stmtRef struct {
	stmt   ast.Stmt
	parent ast.Node
	// fn is the enclosing *ast.FuncDecl or *ast.FuncLit, nil at package level.
	fn ast.Node
}

// isMutable reports whether a statement can be addressed by an edit.
func isMutable(s ast.Stmt) bool {
	switch s := s.(type) {
	case *ast.BlockStmt, *ast.CaseClause, *ast.CommClause, *ast.BadStmt:
		return false
	case *ast.EmptyStmt:
		return !s.Implicit
	}

	return true
}

// collectStatements lists the mutable statements under root in pre-order.
func collectStatements(root ast.Node) []stmtRef {
	var (
		refs  []stmtRef
		funcs []ast.Node
	)

	astutil.Apply(root, func(c *astutil.Cursor) bool {
		n := c.Node()
		switch n.(type) {
		case *ast.FuncDecl, *ast.FuncLit:
			funcs = append(funcs, n)
		}

		if s, ok := n.(ast.Stmt); ok && isMutable(s) {
			var fn ast.Node
			if len(funcs) > 0 {
				fn = funcs[len(funcs)-1]
			}

			refs = append(refs, stmtRef{stmt: s, parent: c.Parent(), fn: fn})
		}

		return true
	}, func(c *astutil.Cursor) bool {
		switch c.Node().(type) {
		case *ast.FuncDecl, *ast.FuncLit:
			funcs = funcs[:len(funcs)-1]
		}

		return true
	})

	return refs
}

func indexOfStmt(refs []stmtRef, s ast.Stmt) int {
	for i, ref := range refs {
		if ref.stmt == s {
			return i
		}
	}

	return -1
}

// contains reports whether n is a strict descendant of root.
func contains(root, n ast.Node) bool {
	found := false

	ast.Inspect(root, func(x ast.Node) bool {
		if found || x == nil {
			return false
		}

		if x == n && x != root {
			found = true
			return false
		}

		return true
	})

	return found
}

// rewriteChild finds child among the direct children of parent and hands its
// cursor to fn. It reports whether fn accepted the change.
func rewriteChild(parent, child ast.Node, fn func(c *astutil.Cursor) bool) bool {
	done := false

	astutil.Apply(parent, func(c *astutil.Cursor) bool {
		if done {
			return false
		}

		n := c.Node()
		if n == parent {
			return true
		}

		if n == child && c.Parent() == parent {
			done = fn(c)
		}

		return false
	}, nil)

	return done
}

// inList reports whether ref's statement sits in a statement list rather
// than a single slot such as ForStmt.Post or IfStmt.Init.
func inList(ref stmtRef) bool {
	return rewriteChild(ref.parent, ref.stmt, func(c *astutil.Cursor) bool {
		return c.Index() >= 0
	})
}

var posType = reflect.TypeOf(token.NoPos)

// invalidatePositions clears every position in the subtree so the nodes read
// as having no source location.
func invalidatePositions(root ast.Node) {
	ast.Inspect(root, func(n ast.Node) bool {
		if n == nil {
			return false
		}

		v := reflect.ValueOf(n)
		if v.Kind() != reflect.Pointer || v.IsNil() {
			return true
		}

		v = v.Elem()
		if v.Kind() != reflect.Struct {
			return true
		}

		for i := range v.NumField() {
			f := v.Field(i)
			if f.Type() == posType && f.CanSet() {
				f.SetInt(int64(token.NoPos))
			}
		}

		return true
	})
}
