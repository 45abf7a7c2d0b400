// Package eval implements the UCG value model and the type-inferring
// expression evaluator.
//
// # Overview
//
// Evaluation is a pure reduction from (environment, expression) to a Value.
// Values are immutable once created; tuple modification is copy-on-modify
// and environments are chained frames that are never mutated after a
// binding lands. Type rules are enforced dynamically at each operator with
// structural equality across all variants.
//
// # Components
//
// Value: the tagged variant type (int, float, str, bool, null, list, tuple,
// func, module, plus the lazy process-environment view).
//
// Env: a frame in the lexical environment chain. Closures and modules
// capture the frame they were defined in.
//
// Evaluator: the reduction engine. It delegates imports to an Importer so
// the build layer can memoize files and detect cycles, and reports asserts
// found in module bodies through a hook.
//
// # Errors
//
// All evaluation failures are *Error values classified by ErrorKind
// (NameError, TypeFail, ArityError, IndexError, ImportError, UserFail) and
// carry the source position of the offending expression.
package eval
