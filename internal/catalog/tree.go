package catalog

import (
	"sort"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// childIndex maps a parent id to its direct children. Roots live under uuid.Nil.
type childIndex map[uuid.UUID][]models.Category

func buildIndex(categories []models.Category) childIndex {
	idx := make(childIndex, len(categories))
	for _, c := range categories {
		parent := uuid.Nil
		if c.ParentID != nil {
			parent = *c.ParentID
		}
		idx[parent] = append(idx[parent], c)
	}
	for key := range idx {
		children := idx[key]
		sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	}
	return idx
}

// descendants returns root plus every category below it, breadth first.
func (idx childIndex) descendants(root uuid.UUID) []uuid.UUID {
	out := []uuid.UUID{root}
	seen := map[uuid.UUID]bool{root: true}
	for i := 0; i < len(out); i++ {
		for _, child := range idx[out[i]] {
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			out = append(out, child.ID)
		}
	}
	return out
}

// wouldCycle reports whether making parent the parent of id creates a loop.
func (idx childIndex) wouldCycle(id, parent uuid.UUID) bool {
	if id == parent {
		return true
	}
	for _, d := range idx.descendants(id) {
		if d == parent {
			return true
		}
	}
	return false
}

func (idx childIndex) tree(parent uuid.UUID) []CategoryNode {
	children := idx[parent]
	nodes := make([]CategoryNode, 0, len(children))
	for _, c := range children {
		nodes = append(nodes, CategoryNode{
			CategoryDTO: categoryDTO(c),
			Children:    idx.tree(c.ID),
		})
	}
	return nodes
}
