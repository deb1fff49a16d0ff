package entity

import (
	"github.com/google/uuid"
)

// BreakdownDecision is the tri-state outcome of the decomposition decision.
// It is set exactly once per node, before children exist or before answer
// generation.
type BreakdownDecision int

const (
	BreakdownUndecided BreakdownDecision = iota
	BreakdownYes
	BreakdownNo
)

// LeafReason records why a node became a leaf.
type LeafReason int

const (
	LeafReasonNone LeafReason = iota
	LeafReasonMaxDepth
	LeafReasonSimple
	LeafReasonNoSubQuestions
	LeafReasonVague
)

// QuestionNode is the unit of the research tree. A node is either internal
// (Decision == BreakdownYes, non-empty children, answer filled by aggregation)
// or a leaf (Decision == BreakdownNo, answer generated directly). The parent
// exclusively owns its children; back-references to parent and original
// questions are plain text copied down for prompt context.
type QuestionNode struct {
	Id               uuid.UUID         `json:"id"`
	Question         string            `json:"question"`
	Depth            int               `json:"depth"`
	ParentQuestion   string            `json:"parent_question,omitempty"`
	OriginalQuestion string            `json:"original_question,omitempty"`
	Decision         BreakdownDecision `json:"-"`
	LeafReason       LeafReason        `json:"-"`
	NeedsBreakdown   bool              `json:"needs_breakdown"`
	Children         []*QuestionNode   `json:"children"`
	Answer           string            `json:"answer,omitempty"`
	Sources          []Source          `json:"sources,omitempty"`
	IsVague          bool              `json:"is_vague,omitempty"`
	MaxDepthReached  bool              `json:"max_depth_reached,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// Source is a provenance record attached to leaf nodes that performed
// retrieval. Deduplicated by URL.
type Source struct {
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Similarity float64 `json:"-"`
}

// MarkLeaf finalizes the breakdown decision as "no" with the given reason.
func (n *QuestionNode) MarkLeaf(reason LeafReason) {
	n.Decision = BreakdownNo
	n.NeedsBreakdown = false
	n.LeafReason = reason
	switch reason {
	case LeafReasonMaxDepth:
		n.MaxDepthReached = true
	case LeafReasonVague:
		n.IsVague = true
	}
}

// MarkInternal finalizes the breakdown decision as "yes".
func (n *QuestionNode) MarkInternal() {
	n.Decision = BreakdownYes
	n.NeedsBreakdown = true
}

// IsLeaf reports whether the node was decided as a leaf.
func (n *QuestionNode) IsLeaf() bool {
	return n.Decision == BreakdownNo
}

// CountNodes returns the total number of nodes in the subtree rooted here.
func (n *QuestionNode) CountNodes() int {
	if n == nil {
		return 0
	}
	count := 1
	for _, child := range n.Children {
		count += child.CountNodes()
	}
	return count
}

// MaxTreeDepth returns the deepest depth value present in the subtree.
func (n *QuestionNode) MaxTreeDepth() int {
	if n == nil {
		return 0
	}
	max := n.Depth
	for _, child := range n.Children {
		if d := child.MaxTreeDepth(); d > max {
			max = d
		}
	}
	return max
}

// Walk visits every node in the subtree, parent before children.
func (n *QuestionNode) Walk(visit func(*QuestionNode)) {
	if n == nil {
		return
	}
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// HasCompleteAnswers reports whether every leaf in the subtree carries a
// non-empty answer.
func (n *QuestionNode) HasCompleteAnswers() bool {
	if n.NeedsBreakdown {
		for _, child := range n.Children {
			if !child.HasCompleteAnswers() {
				return false
			}
		}
		return true
	}
	return n.Answer != ""
}

// HasMaxDepthDescendant reports whether any node in the subtree was truncated
// at the depth ceiling.
func (n *QuestionNode) HasMaxDepthDescendant() bool {
	if n.MaxDepthReached {
		return true
	}
	for _, child := range n.Children {
		if child.HasMaxDepthDescendant() {
			return true
		}
	}
	return false
}

// HasVagueDescendant reports whether any node in the subtree was answered
// with broad-topic guidance.
func (n *QuestionNode) HasVagueDescendant() bool {
	if n.IsVague {
		return true
	}
	for _, child := range n.Children {
		if child.HasVagueDescendant() {
			return true
		}
	}
	return false
}

// DedupSources collapses a source list by URL, keeping the first title seen
// and the highest similarity. Idempotent.
func DedupSources(sources []Source) []Source {
	seen := make(map[string]int)
	result := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s.URL == "" {
			continue
		}
		if idx, ok := seen[s.URL]; ok {
			if s.Similarity > result[idx].Similarity {
				result[idx].Similarity = s.Similarity
			}
			continue
		}
		seen[s.URL] = len(result)
		result = append(result, s)
	}
	return result
}
