package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewState_VisibilityIsCollapseAndExpand(t *testing.T) {
	s := NewViewState()
	group := "sales-owner:a"

	assert.False(t, s.DetailVisible(group, "row-1"), "details start collapsed")

	s.ToggleDetail("row-1")
	assert.True(t, s.DetailVisible(group, "row-1"))

	s.ToggleGroup(group)
	assert.False(t, s.DetailVisible(group, "row-1"))
	assert.True(t, s.IsExpanded("row-1"), "collapsing a group keeps the detail flag")

	s.ToggleGroup(group)
	assert.True(t, s.DetailVisible(group, "row-1"), "expanding the group restores the detail")

	s.ToggleDetail("row-1")
	assert.False(t, s.IsCollapsed(group), "collapsing a detail keeps the group flag")
}

func TestViewState_AncestorCollapse(t *testing.T) {
	s := NewViewState()
	parent := GroupPath("", DimensionSalesOwner, "a")
	child := GroupPath(parent, DimensionStatus, "Paid")

	s.ToggleDetail("row-1")
	s.SetCollapsed(parent, true)
	assert.True(t, s.IsCollapsed(child))
	assert.False(t, s.DetailVisible(child, "row-1"))
}

func TestViewState_SelectionAndReset(t *testing.T) {
	s := NewViewState()
	s.ToggleSelect("a")
	s.ToggleSelect("b")
	s.ToggleSelect("a")
	assert.Equal(t, 1, s.Selected())
	assert.True(t, s.IsSelected("b"))

	s.SetSort(SortByStatusSeverity, SortAsc)
	s.ToggleGroup("g")
	s.Reset()
	assert.Equal(t, 0, s.Selected())
	assert.False(t, s.IsCollapsed("g"))
	assert.Equal(t, SortByStatusSeverity, s.SortKey)
}

func TestViewState_Apply(t *testing.T) {
	s := NewViewState()
	groups := []Group{{Path: "a", Children: []Group{{Path: "a/b"}}}, {Path: "c"}}
	s.SetCollapsed("a/b", true)
	s.Apply(groups)
	assert.False(t, groups[0].Collapsed)
	assert.True(t, groups[0].Children[0].Collapsed)
	assert.False(t, groups[1].Collapsed)
}
