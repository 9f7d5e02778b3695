package dashboard

// ViewState holds the ephemeral client state layered over query results:
// sort choice, collapsed groups, expanded details and the selection.
// Collapse and expand flags are independent; toggling one never touches the other.
type ViewState struct {
	SortKey   SortKey
	SortDir   SortDir
	collapsed map[string]bool
	expanded  map[string]bool
	selected  map[string]bool
}

// NewViewState creates an empty state with the default sort
func NewViewState() *ViewState {
	return &ViewState{
		SortKey:   SortByCreationTime,
		SortDir:   SortDesc,
		collapsed: make(map[string]bool),
		expanded:  make(map[string]bool),
		selected:  make(map[string]bool),
	}
}

// SetSort changes the active sort
func (s *ViewState) SetSort(key SortKey, dir SortDir) {
	s.SortKey, s.SortDir = key, dir
}

// ToggleGroup flips the collapse flag of a group path
func (s *ViewState) ToggleGroup(path string) {
	s.collapsed[path] = !s.collapsed[path]
}

// SetCollapsed sets the collapse flag of a group path
func (s *ViewState) SetCollapsed(path string, collapsed bool) {
	s.collapsed[path] = collapsed
}

// IsCollapsed reports whether the group or any enclosing group is collapsed
func (s *ViewState) IsCollapsed(path string) bool {
	for p := path; p != ""; p = ParentPath(p) {
		if s.collapsed[p] {
			return true
		}
	}
	return false
}

// ToggleDetail flips the expand flag of a row's child list
func (s *ViewState) ToggleDetail(rowKey string) {
	s.expanded[rowKey] = !s.expanded[rowKey]
}

// IsExpanded reports whether a row's child list is expanded
func (s *ViewState) IsExpanded(rowKey string) bool {
	return s.expanded[rowKey]
}

// DetailVisible is true when the row's group is not collapsed and its detail is expanded
func (s *ViewState) DetailVisible(groupPath, rowKey string) bool {
	return !s.IsCollapsed(groupPath) && s.IsExpanded(rowKey)
}

// ToggleSelect flips the selection of a row
func (s *ViewState) ToggleSelect(rowKey string) {
	if s.selected[rowKey] {
		delete(s.selected, rowKey)
		return
	}
	s.selected[rowKey] = true
}

// IsSelected reports whether a row is selected
func (s *ViewState) IsSelected(rowKey string) bool {
	return s.selected[rowKey]
}

// Selected returns the number of selected rows
func (s *ViewState) Selected() int {
	return len(s.selected)
}

// ClearSelection drops the selection
func (s *ViewState) ClearSelection() {
	s.selected = make(map[string]bool)
}

// Reset clears group and detail state after a filter change. Sort is kept.
func (s *ViewState) Reset() {
	s.collapsed = make(map[string]bool)
	s.expanded = make(map[string]bool)
	s.ClearSelection()
}

// Apply stamps collapse flags onto groups
func (s *ViewState) Apply(groups []Group) {
	Walk(groups, func(g *Group) {
		g.Collapsed = s.collapsed[g.Path]
	})
}
