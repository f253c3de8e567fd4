// backend/internal/domain/category/entity.go
package category

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// Category is one flat row as stored.
type Category struct {
	ID          int    `json:"id"`
	ParentID    int    `json:"parentId,omitempty"` // 0 = root
	DisplayName string `json:"displayName"`
	SortOrder   int    `json:"sortOrder,omitempty"`
}

// Node is one selectable entry of the category tree.
type Node struct {
	ID          int     `json:"id"`
	DisplayName string  `json:"displayName"`
	Children    []*Node `json:"children"`
}

var (
	ErrNotFound  = errors.New("category: not found")
	ErrInvalidID = errors.New("category: invalid id")
)

// Lookup returns the full category tree.
type Lookup interface {
	ListCategories(ctx context.Context) ([]*Node, error)
}

// BuildTree arranges flat rows into a tree. Rows whose parent is unknown are
// attached to the root. Siblings are ordered by SortOrder, then DisplayName.
func BuildTree(rows []Category) []*Node {
	nodes := make(map[int]*Node, len(rows))
	order := make(map[int]Category, len(rows))
	for _, r := range rows {
		if r.ID <= 0 {
			continue
		}
		nodes[r.ID] = &Node{
			ID:          r.ID,
			DisplayName: strings.TrimSpace(r.DisplayName),
			Children:    []*Node{},
		}
		order[r.ID] = r
	}

	roots := make([]*Node, 0)
	for _, r := range rows {
		n, ok := nodes[r.ID]
		if !ok {
			continue
		}
		parent, ok := nodes[r.ParentID]
		if r.ParentID == 0 || !ok || r.ParentID == r.ID {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	var sortLevel func(ns []*Node)
	sortLevel = func(ns []*Node) {
		sort.SliceStable(ns, func(i, j int) bool {
			a, b := order[ns[i].ID], order[ns[j].ID]
			if a.SortOrder != b.SortOrder {
				return a.SortOrder < b.SortOrder
			}
			return a.DisplayName < b.DisplayName
		})
		for _, n := range ns {
			sortLevel(n.Children)
		}
	}
	sortLevel(roots)
	return roots
}

// Find returns the node with id, searching depth-first.
func Find(tree []*Node, id int) (*Node, bool) {
	for _, n := range tree {
		if n.ID == id {
			return n, true
		}
		if c, ok := Find(n.Children, id); ok {
			return c, true
		}
	}
	return nil, false
}
