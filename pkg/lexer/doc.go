// Package lexer turns UCG source bytes into a token stream.
//
// # Overview
//
// The lexer is a single forward pass over the raw bytes with no lookahead
// beyond two characters. Every token carries its 1-based line/column
// position for diagnostics. Comments are discarded but still advance line
// counts so positions stay accurate.
//
// Lex errors (illegal bytes, unterminated strings) stop the scan. They are
// reported with the position of the offending byte, or, for a bad string
// literal, the position of its opening quote.
package lexer
