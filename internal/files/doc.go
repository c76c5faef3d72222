// Package files selects the text files a batch redaction run should touch:
// include/exclude globs, a size ceiling, default excludes for vendored and
// generated trees, and binary sniffing.
package files
