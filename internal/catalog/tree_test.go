package catalog

import (
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

func category(name string, parent *uuid.UUID) models.Category {
	return models.Category{ID: uuid.New(), Name: name, ParentID: parent, IsActive: true}
}

func TestChildIndexDescendantsAndCycles(t *testing.T) {
	root := category("Clothing", nil)
	men := category("Men", &root.ID)
	shirts := category("Shirts", &men.ID)
	other := category("Shoes", nil)

	idx := buildIndex([]models.Category{shirts, other, men, root})

	got := idx.descendants(root.ID)
	if len(got) != 3 || got[0] != root.ID || got[1] != men.ID || got[2] != shirts.ID {
		t.Fatalf("unexpected descendants %v", got)
	}
	if !idx.wouldCycle(root.ID, shirts.ID) {
		t.Fatal("moving a node under its grandchild must be a cycle")
	}
	if !idx.wouldCycle(men.ID, men.ID) {
		t.Fatal("a node cannot parent itself")
	}
	if idx.wouldCycle(shirts.ID, other.ID) {
		t.Fatal("moving to an unrelated root is not a cycle")
	}
}

func TestChildIndexTreeSortsByName(t *testing.T) {
	b := category("Bags", nil)
	a := category("Accessories", nil)
	belts := category("Belts", &a.ID)

	nodes := buildIndex([]models.Category{b, belts, a}).tree(uuid.Nil)
	if len(nodes) != 2 || nodes[0].Name != "Accessories" || nodes[1].Name != "Bags" {
		t.Fatalf("unexpected roots %+v", nodes)
	}
	if len(nodes[0].Children) != 1 || nodes[0].Children[0].Name != "Belts" {
		t.Fatalf("unexpected children %+v", nodes[0].Children)
	}
	if nodes[1].Children == nil || len(nodes[1].Children) != 0 {
		t.Fatalf("leaf children should be an empty slice, got %#v", nodes[1].Children)
	}
}
