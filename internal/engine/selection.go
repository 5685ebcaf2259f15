package engine

import (
	"errors"
	"slices"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/typeid"
)

var ErrSelectionTooSmall = errors.New("at least two points must be selected")

// Selected returns the selected point IDs in selection order.
func (s *Scene) Selected() []string {
	return slices.Clone(s.selected)
}

func (s *Scene) IsSelected(id string) bool {
	return slices.Contains(s.selected, id)
}

func (s *Scene) ClearSelection() {
	s.selected = s.selected[:0]
}

// Select adds id to the selection. It reports whether id was newly added.
func (s *Scene) Select(id string) bool {
	if s.IsSelected(id) {
		return false
	}
	s.selected = append(s.selected, id)
	return true
}

func (s *Scene) deselect(id string) {
	s.selected = slices.DeleteFunc(s.selected, func(x string) bool { return x == id })
}

// ToggleSelect updates the selection for a click on id. With multi the point
// is added or removed; otherwise clicking the sole selected point clears the
// selection and clicking anything else selects just that point. It reports
// whether id ended up selected.
func (s *Scene) ToggleSelect(multi bool, id string) bool {
	if multi {
		if s.IsSelected(id) {
			s.deselect(id)
			return false
		}
		s.selected = append(s.selected, id)
		return true
	}
	if len(s.selected) == 1 && s.selected[0] == id {
		s.ClearSelection()
		return false
	}
	s.selected = append(s.selected[:0], id)
	return true
}

// ToggleSelectGroup is ToggleSelect applied to the whole group containing id.
func (s *Scene) ToggleSelectGroup(multi bool, id string) bool {
	members := s.GroupMembers(id)
	all := true
	for _, m := range members {
		if !s.IsSelected(m) {
			all = false
			break
		}
	}

	if multi {
		if all {
			for _, m := range members {
				s.deselect(m)
			}
			return false
		}
		for _, m := range members {
			s.Select(m)
		}
		return true
	}

	if all && len(members) == len(s.selected) {
		s.ClearSelection()
		return false
	}
	s.selected = append(s.selected[:0], members...)
	return true
}

// --- Groups ---

func (s *Scene) Groups() []*Group { return s.groups }

// GroupOf returns the group containing id, or nil.
func (s *Scene) GroupOf(id string) *Group {
	for _, g := range s.groups {
		if slices.Contains(g.Members, id) {
			return g
		}
	}
	return nil
}

// GroupMembers returns the members of id's group. A point outside any group
// is its own singleton group.
func (s *Scene) GroupMembers(id string) []string {
	if g := s.GroupOf(id); g != nil {
		return slices.Clone(g.Members)
	}
	return []string{id}
}

// GroupSelected makes the current selection a new group. Selected points
// leave their previous groups first.
func (s *Scene) GroupSelected() (*Group, error) {
	if len(s.selected) < 2 {
		return nil, ErrSelectionTooSmall
	}
	for _, id := range s.selected {
		s.RemoveFromGroup(id)
	}
	g := &Group{ID: typeid.NewGroupID(), Members: slices.Clone(s.selected)}
	s.groups = append(s.groups, g)
	return g, nil
}

// RemoveFromGroup takes id out of its group. Groups left with one member or
// fewer are dissolved.
func (s *Scene) RemoveFromGroup(id string) {
	for i, g := range s.groups {
		if !slices.Contains(g.Members, id) {
			continue
		}
		g.Members = slices.DeleteFunc(g.Members, func(x string) bool { return x == id })
		if len(g.Members) <= 1 {
			s.groups = slices.Delete(s.groups, i, i+1)
		}
		return
	}
}

func (s *Scene) UngroupSelected() {
	for _, id := range s.selected {
		s.RemoveFromGroup(id)
	}
}
