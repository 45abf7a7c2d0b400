// Package build drives the evaluation of UCG files: it folds statements,
// records assertion results, buffers out artifacts, and memoizes imports.
//
// # Overview
//
// The Registry is the shared source registry. Every file is lexed, parsed
// and evaluated at most once per Registry; concurrent builds of independent
// roots wait on the in-flight evaluation of a shared import instead of
// repeating it. Import cycles are detected against the chain of files
// currently being evaluated and reported with the full chain.
//
// A fileBuilder runs one file's statements: `let` extends the file frame,
// `assert` records a pass/fail result without aborting, and `out` buffers
// the single emission artifact of a root file. Imported files must not
// declare an out.
package build
