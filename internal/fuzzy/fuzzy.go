// Package fuzzy scores how well a short query matches a candidate name.
//
// The scorer walks a |query| x |target| grid once, rewarding matches at the
// start of the name, after separators, after case transitions and inside
// consecutive runs. It returns the score together with the matched byte
// offsets so callers can highlight the name.
package fuzzy

import (
	"sync"
	"unicode"
	"unicode/utf8"
)

// MatchResult is the outcome of scoring one target against one query.
// Score 0 means no match. Positions are ascending byte offsets into the
// original target, one per matched query rune.
type MatchResult struct {
	Score     int
	Positions []int
}

// Matched reports whether the query matched at all.
func (r MatchResult) Matched() bool {
	return r.Score > 0
}

const (
	bonusStart     = 8
	bonusSeparator = 5
	bonusCamel     = 2
	bonusCase      = 1

	// Runs longer than fullRunBonus earn half the bonus per extra char.
	fullRunBonus  = 3
	runBonus      = 6
	runBonusTrail = 3
)

// Scorer holds the grid buffers for repeated scoring. The zero value is
// ready to use. A Scorer must not be used from more than one goroutine at a
// time; use the package-level Score for concurrent callers.
type Scorer struct {
	target  []rune
	lower   []rune
	offsets []int
	query   []rune
	qlower  []rune
	scores  []int
	runs    []int
	prefix  []bool
}

// NewScorer returns an empty Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

var scorerPool = sync.Pool{
	New: func() any { return NewScorer() },
}

// Score scores target against query using a pooled Scorer.
func Score(target, query string, allowNonContiguous bool) MatchResult {
	s := scorerPool.Get().(*Scorer)
	r := s.Score(target, query, allowNonContiguous)
	scorerPool.Put(s)
	return r
}

// Score computes the fuzzy score of query against target. Matching ignores
// case and treats '/' and '\\' as the same character. With
// allowNonContiguous false the query must occur as a contiguous substring of
// the target for the first query character to be placed.
func (s *Scorer) Score(target, query string, allowNonContiguous bool) MatchResult {
	if target == "" || query == "" {
		return MatchResult{}
	}

	s.decodeQuery(query)
	s.decodeTarget(target)

	n, m := len(s.target), len(s.query)
	if n < m {
		return MatchResult{}
	}

	if !allowNonContiguous {
		s.computePrefix()
	}

	s.scores = grow(s.scores, n*m)
	s.runs = grow(s.runs, n*m)

	for qi := 0; qi < m; qi++ {
		row := qi * n
		for ti := 0; ti < n; ti++ {
			cur := row + ti

			left := 0
			if ti > 0 {
				left = s.scores[cur-1]
			}

			diag, run := 0, 0
			if qi > 0 && ti > 0 {
				diag = s.scores[cur-n-1]
				run = s.runs[cur-n-1]
			}

			// A later query rune can only extend a match of the earlier ones.
			charScore := 0
			if qi == 0 || diag > 0 {
				charScore = s.charScore(qi, ti, run)
			}

			if charScore > 0 && diag+charScore >= left &&
				(allowNonContiguous || qi > 0 || s.prefix[ti]) {
				s.scores[cur] = diag + charScore
				s.runs[cur] = run + 1
			} else {
				s.scores[cur] = left
				s.runs[cur] = 0
			}
		}
	}

	score := s.scores[n*m-1]
	if score == 0 {
		return MatchResult{}
	}

	return MatchResult{Score: score, Positions: s.positions(n, m)}
}

// charScore is the score of placing query rune qi on target rune ti, or 0
// when they do not match. run is the length of the match run ending at the
// diagonal predecessor.
func (s *Scorer) charScore(qi, ti, run int) int {
	if s.qlower[qi] != s.lower[ti] {
		return 0
	}

	score := 1

	if run > 0 {
		score += min(run, fullRunBonus)*runBonus + max(0, run-fullRunBonus)*runBonusTrail
	}

	if s.query[qi] == s.target[ti] {
		score += bonusCase
	}

	switch {
	case ti == 0:
		score += bonusStart
	case isSeparator(s.target[ti-1]):
		score += bonusSeparator
	case run == 0 && unicode.IsUpper(s.target[ti-1]):
		score += bonusCamel
	}

	return score
}

// positions walks back from the bottom-right cell and returns the matched
// byte offsets in ascending order.
func (s *Scorer) positions(n, m int) []int {
	out := make([]int, m)
	k := m
	qi, ti := m-1, n-1
	for qi >= 0 && ti >= 0 {
		if s.runs[qi*n+ti] == 0 {
			ti--
			continue
		}
		k--
		out[k] = s.offsets[ti]
		qi--
		ti--
	}
	return out[k:]
}

// computePrefix marks every target index at which the lowered query occurs
// literally.
func (s *Scorer) computePrefix() {
	n, m := len(s.lower), len(s.qlower)
	if cap(s.prefix) < n {
		s.prefix = make([]bool, n)
	}
	s.prefix = s.prefix[:n]

	for ti := 0; ti < n; ti++ {
		ok := ti+m <= n
		for j := 0; ok && j < m; j++ {
			ok = s.lower[ti+j] == s.qlower[j]
		}
		s.prefix[ti] = ok
	}
}

func (s *Scorer) decodeTarget(target string) {
	s.target = s.target[:0]
	s.lower = s.lower[:0]
	s.offsets = s.offsets[:0]
	for i, r := range target {
		s.target = append(s.target, r)
		s.lower = append(s.lower, fold(r))
		s.offsets = append(s.offsets, i)
	}
}

func (s *Scorer) decodeQuery(query string) {
	s.query = s.query[:0]
	s.qlower = s.qlower[:0]
	for _, r := range query {
		s.query = append(s.query, r)
		s.qlower = append(s.qlower, fold(r))
	}
}

// fold lower-cases r and maps '\\' onto '/'.
func fold(r rune) rune {
	if r < utf8.RuneSelf {
		switch {
		case r == '\\':
			return '/'
		case 'A' <= r && r <= 'Z':
			return r + ('a' - 'A')
		}
		return r
	}
	return unicode.ToLower(r)
}

func isSeparator(r rune) bool {
	switch r {
	case '/', '\\', '-', '_', ' ', '.':
		return true
	}
	return false
}

func grow(buf []int, n int) []int {
	if cap(buf) < n {
		return make([]int, n)
	}
	return buf[:n]
}
