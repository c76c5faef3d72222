// Package config loads textredact configuration from local and global YAML
// files. Files are validated against an embedded JSON schema before they are
// decoded, and CLI code layers flags on top with the same precedence:
// flags > local file > global file.
package config
