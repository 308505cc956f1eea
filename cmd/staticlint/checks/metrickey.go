package checks

import (
	"go/ast"
	"go/constant"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// MetricKey reports constant domain.Key components that are empty or contain
// a dot: the dotted form of such a key parses back into different components.
var MetricKey = &analysis.Analyzer{
	Name:     "metrickey",
	Doc:      "reports constant domain.Key parts that are empty or contain a dot",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      runMetricKey,
}

func runMetricKey(pass *analysis.Pass) (any, error) {
	insp, _ := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	if insp == nil {
		return nil, nil
	}

	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call, _ := n.(*ast.CallExpr)
		fn := calleeFunc(pass, call)
		if fn == nil || fn.Name() != "Key" || !inPackageSuffix(fn, "internal/domain") {
			return
		}
		for _, arg := range call.Args {
			tv, ok := pass.TypesInfo.Types[arg]
			if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
				continue
			}
			part := constant.StringVal(tv.Value)
			switch {
			case part == "":
				pass.Reportf(arg.Pos(), "empty metric key part")
			case strings.Contains(part, "."):
				pass.Reportf(arg.Pos(), "metric key part %q contains a dot", part)
			}
		}
	})
	return nil, nil
}
