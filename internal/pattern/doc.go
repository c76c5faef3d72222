// Package pattern implements the rule-driven text scanner. Every rule is a
// compiled expression plus the capture group that holds the sensitive value.
// Matches are collected against the original input first and only then
// substituted, one first occurrence per capture, in rule order.
package pattern
