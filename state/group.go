package state

import "strings"

// Group names a family of states under one namespace. A member state's
// full name is "Group:member", which is what handlers filter on.
type Group struct {
	name    string
	members []string
}

func NewGroup(name string, members ...string) Group {
	return Group{name: name, members: members}
}

func (g Group) Name() string { return g.name }

// State returns the namespaced name for member, or empty when member
// is not part of the group.
func (g Group) State(member string) string {
	for _, m := range g.members {
		if m == member {
			return g.name + ":" + m
		}
	}
	return ""
}

// All lists every namespaced state in declaration order.
func (g Group) All() []string {
	out := make([]string, len(g.members))
	for i, m := range g.members {
		out[i] = g.name + ":" + m
	}
	return out
}

// Contains reports whether a namespaced state belongs to this group.
func (g Group) Contains(state string) bool {
	prefix := g.name + ":"
	if !strings.HasPrefix(state, prefix) {
		return false
	}
	member := strings.TrimPrefix(state, prefix)
	for _, m := range g.members {
		if m == member {
			return true
		}
	}
	return false
}
