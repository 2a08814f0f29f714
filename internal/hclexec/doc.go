// Package hclexec compiles and executes module source.
//
// Module source is HCL native syntax. A body may contain attributes, which
// become the module's bindings, and import blocks, which bind other modules
// under a local alias:
//
//	import "package.module1" {
//	  as = "m1"
//	}
//
//	greeting = "hello"
//	message  = "${greeting} from ${module.name}, ${m1.message}"
//
// Compile parses the source and checks its shape. Exec resolves the imports
// in source order and then evaluates the attributes in dependency order,
// writing every result into the caller's scope as soon as it is known.
// Expressions can see the module's earlier bindings, the import aliases, the
// "module" metadata object and the standard function library.
package hclexec
