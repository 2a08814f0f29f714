package hclexec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// MetaVariable is the name module source uses to read its own identity.
const MetaVariable = "module"

// importBlock is the body of an `import "<name>" {}` block.
type importBlock struct {
	As *string `hcl:"as,optional"`
}

// Import is one import block of a compiled unit.
type Import struct {
	// Name is the dotted name of the imported module.
	Name string
	// Alias is the local name the module is bound to.
	Alias string
	// Range is where the block was declared.
	Range hcl.Range
}

// Unit is a compiled module body, ready to be executed any number of times.
type Unit struct {
	filename string
	imports  []Import
	attrs    map[string]*hclsyntax.Attribute
	deps     map[string][]string
	order    []string
}

// Filename returns the designator the unit was compiled against.
func (u *Unit) Filename() string { return u.filename }

// Imports returns the unit's imports in source order.
func (u *Unit) Imports() []Import {
	return append([]Import(nil), u.imports...)
}

// Attributes returns the bound names in the order Exec evaluates them.
func (u *Unit) Attributes() []string {
	return append([]string(nil), u.order...)
}

// Compile parses src and checks that it is a well formed module body.
// filename only serves diagnostics. Failures are returned as *CompileError.
func Compile(src []byte, filename string) (*Unit, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, &CompileError{File: filename, Diags: diags}
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, &CompileError{File: filename, Diags: hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported source syntax",
			Detail:   "Module source must use the HCL native syntax.",
		}}}
	}

	u := &Unit{
		filename: filename,
		attrs:    make(map[string]*hclsyntax.Attribute, len(body.Attributes)),
		deps:     make(map[string][]string, len(body.Attributes)),
	}

	aliases := make(map[string]hcl.Range)
	for _, block := range body.Blocks {
		imp, blockDiags := compileImport(block)
		diags = append(diags, blockDiags...)
		if blockDiags.HasErrors() {
			continue
		}
		if prev, dup := aliases[imp.Alias]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate import alias",
				Detail:   fmt.Sprintf("The name %q is already bound by the import at %s.", imp.Alias, prev),
				Subject:  imp.Range.Ptr(),
			})
			continue
		}
		aliases[imp.Alias] = imp.Range
		u.imports = append(u.imports, imp)
	}

	names := make([]string, 0, len(body.Attributes))
	for name, attr := range body.Attributes {
		if name == MetaVariable {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Reserved name",
				Detail:   fmt.Sprintf("The name %q is reserved for module metadata.", MetaVariable),
				Subject:  attr.NameRange.Ptr(),
			})
			continue
		}
		if prev, clash := aliases[name]; clash {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Attribute shadows an import",
				Detail:   fmt.Sprintf("The name %q is already bound by the import at %s.", name, prev),
				Subject:  attr.NameRange.Ptr(),
			})
			continue
		}
		a := analyze(attr.Expr)
		diags = append(diags, checkFunctions(attr, a.functions)...)
		u.attrs[name] = attr
		names = append(names, name)
	}

	// Source order.
	sort.Slice(names, func(i, j int) bool {
		return u.attrs[names[i]].SrcRange.Start.Byte < u.attrs[names[j]].SrcRange.Start.Byte
	})
	for _, name := range names {
		for _, root := range analyze(u.attrs[name].Expr).roots {
			if _, local := u.attrs[root]; local {
				u.deps[name] = append(u.deps[name], root)
			}
		}
	}

	order, orderDiags := u.evaluationOrder(names)
	diags = append(diags, orderDiags...)
	if diags.HasErrors() {
		return nil, &CompileError{File: filename, Diags: diags}
	}
	u.order = order
	return u, nil
}

func compileImport(block *hclsyntax.Block) (Import, hcl.Diagnostics) {
	rng := block.DefRange()
	if block.Type != "import" {
		return Import{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported block type",
			Detail:   fmt.Sprintf("Blocks of type %q are not expected here; only \"import\" blocks are allowed.", block.Type),
			Subject:  &rng,
		}}
	}
	if len(block.Labels) != 1 {
		return Import{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid import block",
			Detail:   "An import block takes exactly one label: the dotted name of the module to import.",
			Subject:  &rng,
		}}
	}

	name := block.Labels[0]
	if !ValidModuleName(name) {
		return Import{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid module name",
			Detail:   fmt.Sprintf("%q is not a dotted module name.", name),
			Subject:  block.LabelRanges[0].Ptr(),
		}}
	}

	var ib importBlock
	diags := gohcl.DecodeBody(block.Body, nil, &ib)
	if diags.HasErrors() {
		return Import{}, diags
	}

	alias := name[strings.LastIndexByte(name, '.')+1:]
	if ib.As != nil {
		alias = *ib.As
	}
	if !hclsyntax.ValidIdentifier(alias) || alias == MetaVariable {
		return Import{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid import alias",
			Detail:   fmt.Sprintf("%q cannot be used as a local name.", alias),
			Subject:  &rng,
		}}
	}
	return Import{Name: name, Alias: alias, Range: rng}, nil
}

func checkFunctions(attr *hclsyntax.Attribute, called []string) hcl.Diagnostics {
	var diags hcl.Diagnostics
	known := Functions()
	for _, fn := range called {
		if _, ok := known[fn]; !ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Call to unknown function",
				Detail:   fmt.Sprintf("There is no function named %q.", fn),
				Subject:  attr.Expr.Range().Ptr(),
			})
		}
	}
	return diags
}

// evaluationOrder sorts names so every attribute comes after the attributes
// it reads. Ties keep source order.
func (u *Unit) evaluationOrder(names []string) ([]string, hcl.Diagnostics) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(names))
	order := make([]string, 0, len(names))
	var diags hcl.Diagnostics

	var visit func(name string, chain []string)
	visit = func(name string, chain []string) {
		switch state[name] {
		case done:
			return
		case visiting:
			cycle := append(append([]string(nil), chain[indexOf(chain, name):]...), name)
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Cycle between attributes",
				Detail:   fmt.Sprintf("The attributes depend on each other: %s.", strings.Join(cycle, " -> ")),
				Subject:  u.attrs[name].NameRange.Ptr(),
			})
			return
		}
		state[name] = visiting
		for _, dep := range u.deps[name] {
			visit(dep, append(chain, name))
		}
		state[name] = done
		order = append(order, name)
	}

	for _, name := range names {
		visit(name, nil)
	}
	return order, diags
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return 0
}

// ValidModuleName reports whether name is a dotted sequence of identifiers.
func ValidModuleName(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if !hclsyntax.ValidIdentifier(part) {
			return false
		}
	}
	return true
}
