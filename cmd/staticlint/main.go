// Command staticlint runs the vet passes, the staticcheck SA checks, ST1000
// and the project analyzers over the module.
//
// STATICLINT_DISABLE holds a comma separated list of analyzer names to skip.
package main

import (
	"os"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"

	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/buildtag"
	"golang.org/x/tools/go/analysis/passes/cgocall"
	"golang.org/x/tools/go/analysis/passes/composite"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shift"
	"golang.org/x/tools/go/analysis/passes/stdmethods"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/tests"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unsafeptr"
	"golang.org/x/tools/go/analysis/passes/unusedresult"

	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/gostaticanalysis/forcetypeassert"
	"github.com/gostaticanalysis/nilerr"

	"github.com/vshulcz/enginestats/cmd/staticlint/checks"
)

// vetPasses are the go vet analyzers the module is held to.
var vetPasses = []*analysis.Analyzer{
	assign.Analyzer,
	atomic.Analyzer,
	bools.Analyzer,
	buildtag.Analyzer,
	cgocall.Analyzer,
	composite.Analyzer,
	copylock.Analyzer,
	errorsas.Analyzer,
	httpresponse.Analyzer,
	loopclosure.Analyzer,
	lostcancel.Analyzer,
	nilfunc.Analyzer,
	printf.Analyzer,
	shift.Analyzer,
	stdmethods.Analyzer,
	structtag.Analyzer,
	tests.Analyzer,
	unmarshal.Analyzer,
	unreachable.Analyzer,
	unsafeptr.Analyzer,
	unusedresult.Analyzer,
}

func main() {
	multichecker.Main(filterAnalyzers(suite(), os.Getenv("STATICLINT_DISABLE"))...)
}

// suite assembles vet, every SA check, ST1000, the third party analyzers and
// the project checks.
func suite() []*analysis.Analyzer {
	out := append([]*analysis.Analyzer{}, vetPasses...)
	out = append(out, pick(staticcheck.Analyzers, func(name string) bool {
		return strings.HasPrefix(name, "SA")
	})...)
	out = append(out, pick(stylecheck.Analyzers, func(name string) bool {
		return name == "ST1000"
	})...)
	return append(out,
		nilerr.Analyzer,
		forcetypeassert.Analyzer,
		checks.OSExitMain,
		checks.MetricKey,
	)
}

func pick(set []*lint.Analyzer, keep func(name string) bool) []*analysis.Analyzer {
	var out []*analysis.Analyzer
	for _, a := range set {
		if a != nil && a.Analyzer != nil && keep(a.Analyzer.Name) {
			out = append(out, a.Analyzer)
		}
	}
	return out
}

// filterAnalyzers drops the analyzers named in the comma separated disabled list.
func filterAnalyzers(analyzers []*analysis.Analyzer, disabled string) []*analysis.Analyzer {
	skip := make(map[string]bool)
	for _, name := range strings.Split(disabled, ",") {
		skip[strings.TrimSpace(name)] = true
	}
	var filtered []*analysis.Analyzer
	for _, a := range analyzers {
		if !skip[a.Name] {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
