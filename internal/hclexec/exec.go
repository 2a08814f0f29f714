package hclexec

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Scope is the namespace a unit executes into.
type Scope interface {
	Get(name string) (cty.Value, bool)
	Set(name string, v cty.Value)
}

// ImportFunc resolves a dotted module name to the value bound under its alias.
type ImportFunc func(ctx context.Context, name string) (cty.Value, error)

// Exec runs the unit into scope. meta is exposed to the source as the
// "module" variable. Bindings already present in scope stay visible to
// expressions until the unit rebinds them. Failures are returned as
// *ExecError; bindings made before the failure remain in scope.
func (u *Unit) Exec(ctx context.Context, scope Scope, meta cty.Value, importFn ImportFunc) error {
	imported := make(map[string]cty.Value, len(u.imports))
	for _, imp := range u.imports {
		if err := ctx.Err(); err != nil {
			return &ExecError{File: u.filename, Err: err}
		}
		v, err := importFn(ctx, imp.Name)
		if err != nil {
			return &ExecError{File: u.filename, Err: fmt.Errorf("import %q at %s: %w", imp.Name, imp.Range, err)}
		}
		imported[imp.Alias] = v
	}

	functions := Functions()
	for _, name := range u.order {
		attr := u.attrs[name]
		evalCtx := &hcl.EvalContext{
			Variables: u.variables(attr.Expr, scope, imported, meta),
			Functions: functions,
		}
		v, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return &ExecError{File: u.filename, Err: diags}
		}
		scope.Set(name, v)
	}
	return nil
}

// variables builds the variable table for one expression from the names it
// actually reads. Unresolvable names are left out so HCL reports them.
func (u *Unit) variables(expr hcl.Expression, scope Scope, imported map[string]cty.Value, meta cty.Value) map[string]cty.Value {
	vars := make(map[string]cty.Value)
	for _, root := range analyze(expr).roots {
		if root == MetaVariable {
			vars[root] = meta
			continue
		}
		if v, ok := imported[root]; ok {
			vars[root] = v
			continue
		}
		if v, ok := scope.Get(root); ok {
			vars[root] = v
		}
	}
	return vars
}
