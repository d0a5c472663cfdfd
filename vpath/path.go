// Package vpath implements Path, a pure value type representing a tokenized
// sequence of filenames. It performs no I/O; all operations are value
// transformations over the token slice.
package vpath

import "bytes"

// Separator is the byte used to delimit path components in their string
// form.
const Separator = '/'

// Filename is a single path component, a raw byte sequence. Comparison
// between filenames is bytewise -- FFAT does no case folding or Unicode
// normalization.
type Filename []byte

// Equal reports whether two filenames are byte-for-byte identical.
func (f Filename) Equal(other Filename) bool {
	return bytes.Equal(f, other)
}

func (f Filename) String() string {
	return string(f)
}

// Path is an ordered sequence of filename tokens. The zero value is the
// root path.
type Path struct {
	tokens []Filename
}

// Root is the path with zero tokens.
func Root() Path {
	return Path{}
}

// New builds a Path directly from a sequence of tokens. The caller must not
// mutate the slice afterward.
func New(tokens ...Filename) Path {
	return Path{tokens: tokens}
}

// FromString splits s on Separator, dropping empty tokens produced by
// leading, trailing, or consecutive separators. "/" and "" both yield the
// root path.
func FromString(s string) Path {
	raw := []byte(s)
	var tokens []Filename
	var current []byte
	flush := func() {
		if len(current) > 0 {
			tokens = append(tokens, Filename(current))
			current = nil
		}
	}
	for _, b := range raw {
		if b == Separator {
			flush()
		} else {
			current = append(current, b)
		}
	}
	flush()
	return Path{tokens: tokens}
}

// IsRoot reports whether this path has zero tokens.
func (p Path) IsRoot() bool {
	return len(p.tokens) == 0
}

// Len returns the number of tokens in the path.
func (p Path) Len() int {
	return len(p.tokens)
}

// Tokens returns the path's tokens. The returned slice must not be
// mutated.
func (p Path) Tokens() []Filename {
	return p.tokens
}

// Parent returns the path with its last token removed, or (Path{}, false)
// for the root path.
func (p Path) Parent() (Path, bool) {
	if p.IsRoot() {
		return Path{}, false
	}
	return Path{tokens: p.tokens[:len(p.tokens)-1]}, true
}

// Name returns the last token, or (nil, false) for the root path.
func (p Path) Name() (Filename, bool) {
	if p.IsRoot() {
		return nil, false
	}
	return p.tokens[len(p.tokens)-1], true
}

// Concat returns a new path with token appended after this path's tokens.
func (p Path) Concat(token Filename) Path {
	next := make([]Filename, len(p.tokens)+1)
	copy(next, p.tokens)
	next[len(p.tokens)] = token
	return Path{tokens: next}
}

// HeadTail splits the path into its first token and the remaining path. For
// the root path it returns (nil, Root()).
func (p Path) HeadTail() (Filename, Path) {
	if p.IsRoot() {
		return nil, Root()
	}
	return p.tokens[0], Path{tokens: p.tokens[1:]}
}

// RelativeTo returns the tokens of p that come after ancestor's tokens, if
// ancestor is a prefix of p. It returns (Path{}, false) if ancestor is not a
// prefix of p.
func (p Path) RelativeTo(ancestor Path) (Path, bool) {
	if len(ancestor.tokens) > len(p.tokens) {
		return Path{}, false
	}
	for i, tok := range ancestor.tokens {
		if !tok.Equal(p.tokens[i]) {
			return Path{}, false
		}
	}
	return Path{tokens: p.tokens[len(ancestor.tokens):]}, true
}

// Equal reports whether two paths have identical token sequences.
func (p Path) Equal(other Path) bool {
	if len(p.tokens) != len(other.tokens) {
		return false
	}
	for i, tok := range p.tokens {
		if !tok.Equal(other.tokens[i]) {
			return false
		}
	}
	return true
}

// String re-emits the path with a leading separator; the root path renders
// as "/".
func (p Path) String() string {
	if p.IsRoot() {
		return string(Separator)
	}
	var buf bytes.Buffer
	for _, tok := range p.tokens {
		buf.WriteByte(Separator)
		buf.Write(tok)
	}
	return buf.String()
}
