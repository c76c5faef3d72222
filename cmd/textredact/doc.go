// Package textredact provides the command-line interface for textredact.
// It wires configuration, logging and the redaction engine into the text,
// json, yaml, files and serve subcommands.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/redactyl/textredact/cmd/textredact"
//	func main() { textredact.Execute() }
package textredact
