package redaction

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/redactyl/textredact/internal/pattern"
	"github.com/redactyl/textredact/internal/tree"
)

// InvalidPatternError names every literal or expression that could not be
// compiled into a rule.
type InvalidPatternError = pattern.InvalidPatternError

// ParseError wraps the decoder diagnostic for a malformed JSON or YAML document.
type ParseError = tree.ParseError

var (
	ErrInvalidPattern = pattern.ErrInvalidPattern
	ErrParse          = tree.ErrParse
	ErrEncoding       = errors.New("invalid utf-8")
)

// EncodingError reports input that is not valid UTF-8. Offset is the byte
// offset of the first invalid sequence.
type EncodingError struct {
	Offset int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("input is not valid utf-8 (first invalid byte at offset %d)", e.Offset)
}

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// CheckUTF8 returns an *EncodingError when b is not valid UTF-8.
func CheckUTF8(b []byte) error {
	if utf8.Valid(b) {
		return nil
	}
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return &EncodingError{Offset: i}
		}
		i += size
	}
	return &EncodingError{}
}
