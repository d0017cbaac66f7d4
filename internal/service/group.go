package service

import "strings"

// Group is a logical parent slots attach to, so a whole subtree can be
// enabled or disabled at once. Groups never own the slots attached to them.
type Group struct {
	name    string
	parent  *Group
	enabled bool
	members map[*Slot]struct{}
}

// NewGroup creates an enabled group. parent may be nil for a root group.
func NewGroup(name string, parent *Group) *Group {
	return &Group{
		name:    name,
		parent:  parent,
		enabled: true,
		members: make(map[*Slot]struct{}),
	}
}

// Name returns the group name.
func (g *Group) Name() string {
	return g.name
}

// Parent returns the parent group, or nil for a root.
func (g *Group) Parent() *Group {
	return g.parent
}

// Path returns the slash-joined names from the root down to g.
func (g *Group) Path() string {
	var names []string
	for cur := g; cur != nil; cur = cur.parent {
		names = append(names, cur.name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "/")
}

// SetEnabled enables or disables the group and, through it, every descendant.
// The manager holds the channels of active slots under a disabled group on its
// next tick and stops ticking them until the group is enabled again.
func (g *Group) SetEnabled(enabled bool) {
	g.enabled = enabled
}

// Enabled reports whether g and all of its ancestors are enabled.
func (g *Group) Enabled() bool {
	for cur := g; cur != nil; cur = cur.parent {
		if !cur.enabled {
			return false
		}
	}
	return true
}

// Len returns the number of slots attached directly to g.
func (g *Group) Len() int {
	return len(g.members)
}

// Contains reports whether slot is attached directly to g.
func (g *Group) Contains(slot *Slot) bool {
	_, ok := g.members[slot]
	return ok
}

func (g *Group) attach(slot *Slot) {
	g.members[slot] = struct{}{}
}

func (g *Group) detach(slot *Slot) {
	delete(g.members, slot)
}
