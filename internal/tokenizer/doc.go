// Package tokenizer implements the dialect-driven state machine that splits
// delimited text into values, records and comments.
//
// A dialect (Config) is compiled once into a Program: two 256-entry byte
// classifiers plus a reference to one of the sixteen shared transition
// tables. An Engine drives the table over input chunks of arbitrary size and
// reports boundaries to a Handler. Values that straddle chunks are collected
// in a pooled buffer.Partial, so no byte is scanned twice.
//
// The hot loop does a classifier lookup and one table index per byte. Every
// question about a state ("inside an escaped value?", "inside a comment?") is
// answered by a StateInfo computed when the table is built.
package tokenizer

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'csvkit.tokenizer'
func tracer() tracing.Trace {
	return tracing.Select("csvkit.tokenizer")
}
