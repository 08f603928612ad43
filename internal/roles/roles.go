// Package roles holds the back-office role hierarchy: master > editor > viewer.
package roles

type Role string

const (
	Master Role = "master"
	Editor Role = "editor"
	Viewer Role = "viewer"
)

var rank = map[Role]int{
	Viewer: 1,
	Editor: 2,
	Master: 3,
}

func (r Role) Valid() bool {
	_, ok := rank[r]
	return ok
}

// Allows reports whether a user holding role may access a route gated by required.
// Unknown roles never pass.
func Allows(role, required Role) bool {
	have, ok := rank[role]
	if !ok {
		return false
	}
	need, ok := rank[required]
	if !ok {
		return false
	}
	return have >= need
}
