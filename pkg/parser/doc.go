// Package parser builds UCG syntax trees from token streams.
//
// # Overview
//
// The parser is a hand-written recursive-descent parser with a small
// Pratt-style precedence ladder for binary operators. It consumes the token
// stream produced by pkg/lexer and yields a *ast.File.
//
// # Error recovery
//
// Parse errors are positional. A statement that fails to parse is recorded
// and the parser resynchronizes at the next semicolon, so a single run can
// report every broken statement in a file. All collected errors are
// returned as an ErrorList.
package parser
