package blocker

import (
	"github.com/ppiankov/offhours/internal/heuristics"
	"github.com/ppiankov/offhours/internal/uitree"
)

// Limits bound a single traversal of an untrusted tree.
type Limits struct {
	MaxDepth int
	MaxNodes int
}

// Candidate is a clickable node recognized as a decline control.
type Candidate struct {
	Node  uitree.Node
	Path  uitree.Path
	Match heuristics.Match
}

// ScanResult lists candidates in pre-order.
type ScanResult struct {
	Candidates []Candidate
	Visited    int
	Skipped    int // subtrees abandoned because a node panicked
	Truncated  bool
}

// First returns the first candidate in traversal order.
func (r ScanResult) First() (Candidate, bool) {
	if len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

// Scan walks root depth-first, pre-order, and collects decline candidates.
// A node whose accessors panic is skipped together with its subtree.
func Scan(root uitree.Node, h *heuristics.Heuristics, lim Limits) ScanResult {
	s := &scanner{h: h, lim: lim}
	if root != nil {
		s.visit(root, uitree.Path{}, 0)
	}
	return s.res
}

type scanner struct {
	h   *heuristics.Heuristics
	lim Limits
	res ScanResult
}

func (s *scanner) visit(n uitree.Node, path uitree.Path, depth int) {
	if n == nil {
		return
	}
	if (s.lim.MaxNodes > 0 && s.res.Visited >= s.lim.MaxNodes) || (s.lim.MaxDepth > 0 && depth > s.lim.MaxDepth) {
		s.res.Truncated = true
		return
	}
	s.res.Visited++

	kids, ok := s.inspect(n, path)
	if !ok {
		s.res.Skipped++
		return
	}
	for i, k := range kids {
		s.visit(k, path.Append(i), depth+1)
	}
}

// inspect reads one node. ok is false if any accessor panicked.
func (s *scanner) inspect(n uitree.Node, path uitree.Path) (kids []uitree.Node, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			kids, ok = nil, false
		}
	}()
	if n.Clickable() {
		if m, hit := s.h.MatchDecline(n.Label(), n.Description(), n.Identifier()); hit {
			s.res.Candidates = append(s.res.Candidates, Candidate{Node: n, Path: path, Match: m})
		}
	}
	return n.Children(), true
}
