// Package redaction is the stable entry point for masking secrets in text,
// JSON and YAML. It composes the pattern engine with the tree redactor:
// pattern and literal-value rules always run over the raw text first, so a
// known secret is masked wherever it appears in a document, and key or path
// rules then run over the parsed tree.
//
// Example:
//
//	b := redaction.NewBuilder().AddKey("password").AddPath("auth.*")
//	if err := b.AddValues([]string{"hunter2"}); err != nil { /* handle */ }
//	r := b.Build()
//	out, err := r.RedactJSON(`{"auth":{"token":"t"},"note":"pw is hunter2"}`)
package redaction
