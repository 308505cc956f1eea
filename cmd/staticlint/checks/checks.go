// Package checks holds the project specific analyzers run by staticlint.
package checks

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// calleeFunc resolves the package level function called by call, or nil.
func calleeFunc(pass *analysis.Pass, call *ast.CallExpr) *types.Func {
	if pass.TypesInfo == nil || call == nil {
		return nil
	}
	var id *ast.Ident
	switch fun := call.Fun.(type) {
	case *ast.SelectorExpr:
		id = fun.Sel
	case *ast.Ident:
		id = fun
	default:
		return nil
	}
	fn, ok := pass.TypesInfo.Uses[id].(*types.Func)
	if !ok || fn.Pkg() == nil {
		return nil
	}
	return fn
}

func isFunc(fn *types.Func, pkgPath, name string) bool {
	return fn != nil && fn.Pkg().Path() == pkgPath && fn.Name() == name
}

func inPackageSuffix(fn *types.Func, suffix string) bool {
	if fn == nil {
		return false
	}
	p := fn.Pkg().Path()
	return p == suffix || strings.HasSuffix(p, "/"+suffix)
}
