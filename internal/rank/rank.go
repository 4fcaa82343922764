// Package rank filters and orders candidates for a query.
//
// A non-empty query scores every candidate with the fuzzy scorer, drops
// candidates that do not match, and orders the rest by score. Equal scores
// are ordered by a configurable SortCriterion. An empty query keeps every
// candidate and orders by the SortCriterion alone.
package rank

import (
	"cmp"
	"runtime"
	"slices"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/jump/internal/candidate"
	"github.com/Aman-CERP/jump/internal/fuzzy"
)

// DefaultParallelThreshold is the collection size from which scoring is
// spread across workers.
const DefaultParallelThreshold = 4096

// Options configures a Ranker.
type Options struct {
	// AllowNonContiguous permits scattered matches. When false the query
	// must appear as a substring of the name.
	AllowNonContiguous bool

	// Workers caps parallel scoring. Zero means GOMAXPROCS.
	Workers int

	// ParallelThreshold is the minimum collection size for parallel
	// scoring. Zero means DefaultParallelThreshold; negative disables it.
	ParallelThreshold int

	// Limit truncates the ranked result. Zero means no limit.
	Limit int
}

// DefaultOptions returns options for interactive use.
func DefaultOptions() Options {
	return Options{
		AllowNonContiguous: true,
		ParallelThreshold:  DefaultParallelThreshold,
	}
}

// Ranker ranks candidate collections. It is safe for concurrent use; each
// call borrows its own scorers.
type Ranker struct {
	opts Options
}

// NewRanker creates a Ranker.
func NewRanker(opts Options) *Ranker {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.ParallelThreshold == 0 {
		opts.ParallelThreshold = DefaultParallelThreshold
	}
	return &Ranker{opts: opts}
}

var defaultRanker = NewRanker(DefaultOptions())

// Rank ranks cands for query with the default options.
func Rank(cands []*candidate.Candidate, query string, tie SortCriterion) []*candidate.Candidate {
	return defaultRanker.Rank(cands, query, tie)
}

// Rank returns a new slice holding the candidates that match query, best
// first. It writes Weight and Matches on every candidate it keeps. The input
// slice is not reordered.
func (r *Ranker) Rank(cands []*candidate.Candidate, query string, tie SortCriterion) []*candidate.Candidate {
	var out []*candidate.Candidate
	if query == "" {
		out = r.unscored(cands, query)
	} else {
		out = r.scored(cands, query)
	}

	tieCmp := ComparatorFor(tie)
	if query == "" {
		slices.SortStableFunc(out, tieCmp)
	} else {
		slices.SortStableFunc(out, func(a, b *candidate.Candidate) int {
			if a.Weight != b.Weight {
				return cmp.Compare(b.Weight, a.Weight)
			}
			return tieCmp(a, b)
		})
	}

	if r.opts.Limit > 0 && len(out) > r.opts.Limit {
		out = out[:r.opts.Limit]
	}
	return out
}

// RankAll ranks the union of several kinds with a single tie-break. Kinds
// are concatenated in canonical order before ranking.
func (r *Ranker) RankAll(collections map[candidate.Kind][]*candidate.Candidate, query string, tie SortCriterion) []*candidate.Candidate {
	return r.Rank(Union(collections), query, tie)
}

// Union concatenates collections in canonical kind order.
func Union(collections map[candidate.Kind][]*candidate.Candidate) []*candidate.Candidate {
	total := 0
	for _, c := range collections {
		total += len(c)
	}
	all := make([]*candidate.Candidate, 0, total)
	for _, k := range candidate.Kinds() {
		all = append(all, collections[k]...)
	}
	return all
}

// unscored keeps every candidate and sets the length based fallback weight.
func (r *Ranker) unscored(cands []*candidate.Candidate, query string) []*candidate.Candidate {
	qlen := utf8.RuneCountInString(query)
	out := make([]*candidate.Candidate, 0, len(cands))
	for _, c := range cands {
		if c == nil {
			continue
		}
		c.Weight = utf8.RuneCountInString(c.Name) - qlen
		c.Matches = nil
		out = append(out, c)
	}
	return out
}

// scored scores every candidate and keeps the matches in input order.
func (r *Ranker) scored(cands []*candidate.Candidate, query string) []*candidate.Candidate {
	keep := make([]bool, len(cands))

	if r.opts.ParallelThreshold > 0 && len(cands) >= r.opts.ParallelThreshold && r.opts.Workers > 1 {
		r.scoreParallel(cands, query, keep)
	} else {
		scoreChunk(fuzzy.NewScorer(), cands, query, r.opts.AllowNonContiguous, keep)
	}

	out := make([]*candidate.Candidate, 0, len(cands)/4)
	for i, c := range cands {
		if keep[i] {
			out = append(out, c)
		}
	}
	return out
}

// scoreParallel splits cands into one contiguous chunk per worker. Chunks
// write disjoint candidates and disjoint ranges of keep.
func (r *Ranker) scoreParallel(cands []*candidate.Candidate, query string, keep []bool) {
	workers := r.opts.Workers
	size := (len(cands) + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < len(cands); start += size {
		end := min(start+size, len(cands))
		g.Go(func() error {
			scoreChunk(fuzzy.NewScorer(), cands[start:end], query, r.opts.AllowNonContiguous, keep[start:end])
			return nil
		})
	}
	_ = g.Wait()
}

func scoreChunk(s *fuzzy.Scorer, cands []*candidate.Candidate, query string, allowNonContiguous bool, keep []bool) {
	for i, c := range cands {
		if c == nil {
			continue
		}
		res := s.Score(c.Name, query, allowNonContiguous)
		if res.Score == 0 {
			continue
		}
		c.Weight = res.Score
		c.Matches = res.Positions
		keep[i] = true
	}
}
