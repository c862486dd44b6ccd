// Package dedup implements the keep-first de-duplication used by the
// importers.
//
// A Set remembers which business keys have already been emitted. Keys are
// built from one or more string parts joined by an unlikely separator and
// stored as 128-bit xxh3 digests, so memory stays flat regardless of how long
// the identifiers are (genomic coordinates such as "chr1:136025-136980" are
// typical). A 128-bit digest makes accidental collisions irrelevant at the
// scale of a single import run.
package dedup

import (
	"strings"

	"github.com/zeebo/xxh3"
)

const sep = '\x1f'

// Set is a seen-keys set with keep-first semantics. The zero value is not
// usable; call New.
type Set struct {
	seen map[xxh3.Uint128]struct{}
	b    strings.Builder
}

// New returns an empty Set sized for about hint keys.
func New(hint int) *Set {
	if hint < 0 {
		hint = 0
	}
	return &Set{seen: make(map[xxh3.Uint128]struct{}, hint)}
}

// Seen reports whether the key formed by parts was already recorded. When it
// was not, the key is recorded and Seen returns false, meaning the caller owns
// the first occurrence and should keep it.
func (s *Set) Seen(parts ...string) bool {
	h := s.hash(parts)
	if _, ok := s.seen[h]; ok {
		return true
	}
	s.seen[h] = struct{}{}
	return false
}

// Has reports whether the key is present without recording it.
func (s *Set) Has(parts ...string) bool {
	_, ok := s.seen[s.hash(parts)]
	return ok
}

// Len returns the number of distinct keys recorded.
func (s *Set) Len() int { return len(s.seen) }

func (s *Set) hash(parts []string) xxh3.Uint128 {
	if len(parts) == 1 {
		return xxh3.HashString128(parts[0])
	}
	s.b.Reset()
	for i, p := range parts {
		if i > 0 {
			s.b.WriteByte(sep)
		}
		s.b.WriteString(p)
	}
	return xxh3.HashString128(s.b.String())
}
