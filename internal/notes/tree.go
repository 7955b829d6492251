package notes

import (
	"strings"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
)

// OrphanPolicy decides where a note whose parent is missing ends up.
type OrphanPolicy int

const (
	// OrphanPromote shows orphans at root level.
	OrphanPromote OrphanPolicy = iota
	// OrphanHide leaves orphans and their descendants out of the tree.
	OrphanHide
)

func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "promote":
		return OrphanPromote, nil
	case "hide":
		return OrphanHide, nil
	}
	return OrphanPromote, apperr.Validation("orphan_policy", "must be promote or hide")
}

func (p OrphanPolicy) String() string {
	if p == OrphanHide {
		return "hide"
	}
	return "promote"
}

// Node is a note with its direct children.
type Node struct {
	model.Note
	Children []*Node `json:"children"`
}

// BuildTree arranges notes into a forest. Roots and siblings keep the
// relative order of the input.
//
// A note is a root when it has no parent. With OrphanPromote a note whose
// parent is not in notes is a root too, and so is the first member of a
// parent cycle, which would otherwise be unreachable.
func BuildTree(notes []model.Note, policy OrphanPolicy) []*Node {
	known := make(map[string]bool, len(notes))
	for _, n := range notes {
		known[n.ID] = true
	}

	children := make(map[string][]int, len(notes))
	var roots []int
	for i, n := range notes {
		switch {
		case n.IsRoot():
			roots = append(roots, i)
		case !known[n.Parent()]:
			if policy == OrphanPromote {
				roots = append(roots, i)
			}
		default:
			children[n.Parent()] = append(children[n.Parent()], i)
		}
	}

	visited := make([]bool, len(notes))
	var build func(i int) *Node
	build = func(i int) *Node {
		visited[i] = true
		node := &Node{Note: notes[i], Children: []*Node{}}
		for _, c := range children[notes[i].ID] {
			if !visited[c] {
				node.Children = append(node.Children, build(c))
			}
		}
		return node
	}

	forest := make([]*Node, 0, len(roots))
	for _, i := range roots {
		if !visited[i] {
			forest = append(forest, build(i))
		}
	}
	if policy == OrphanPromote {
		for i := range notes {
			if !visited[i] {
				forest = append(forest, build(i))
			}
		}
	}
	return forest
}

// Descendants returns the ids of every note below id, breadth first.
func Descendants(notes []model.Note, id string) []string {
	children := make(map[string][]string, len(notes))
	for _, n := range notes {
		if !n.IsRoot() {
			children[n.Parent()] = append(children[n.Parent()], n.ID)
		}
	}

	seen := map[string]bool{id: true}
	var out []string
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range children[cur] {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
				queue = append(queue, c)
			}
		}
	}
	return out
}

// Row is one line of an outline.
type Row struct {
	Note        model.Note
	Depth       int
	HasChildren bool
	Expanded    bool
}

// Flatten walks the forest depth first. Children are listed only under
// nodes present in expanded.
func Flatten(roots []*Node, expanded map[string]bool) []Row {
	var rows []Row
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			open := expanded[n.ID]
			rows = append(rows, Row{Note: n.Note, Depth: depth, HasChildren: len(n.Children) > 0, Expanded: open})
			if open {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(roots, 0)
	return rows
}

// Count returns the number of nodes in the forest.
func Count(roots []*Node) int {
	n := 0
	for _, r := range roots {
		n += 1 + Count(r.Children)
	}
	return n
}
