// Package compiler turns query definitions written in YAML or CUE into
// ir.Query values.
//
// Both front-ends decode into a Definition first; Definition.Validate checks
// the semantic rules shared by every format and Build normalizes names to
// NFC and assigns edge ordinals.
package compiler
