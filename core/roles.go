package core

// Role is a user's access level.
type Role string

const (
	RoleMember  Role = "member"
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
)

// roleRank orders roles for the hierarchy admin > creator > member.
var roleRank = map[Role]int{
	RoleMember:  1,
	RoleCreator: 2,
	RoleAdmin:   3,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Satisfies reports whether a holder of r may perform an action gated on
// required. Higher roles satisfy lower gates: an admin passes creator- and
// member-gated checks, a creator passes member-gated checks.
func (r Role) Satisfies(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	want, ok := roleRank[required]
	if !ok {
		return false
	}
	return have >= want
}
