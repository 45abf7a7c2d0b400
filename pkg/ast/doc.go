// Package ast defines the abstract syntax tree for UCG source files.
//
// # Overview
//
// Every node in the tree carries the source position it was parsed from so
// that later stages (evaluation, import resolution, diagnostics) can report
// errors against the original file. Statements and expressions are separate
// interface hierarchies: a File is a flat list of statements, and statements
// contain expressions.
//
// The tree is immutable after parsing. The evaluator never rewrites nodes;
// closures and modules hold references into the tree for the lifetime of the
// program.
package ast
