package domain

// SecurityContext carries the identity resolved by the request gate for a
// single request. A zero value means the caller is unauthenticated.
type SecurityContext struct {
	Identity *User
}

// Authenticated reports whether an identity was resolved.
func (s SecurityContext) Authenticated() bool {
	return s.Identity != nil
}

// HasRole reports whether the resolved identity holds role.
func (s SecurityContext) HasRole(role Role) bool {
	return s.Identity.HasRole(role)
}

// CanActOn is the self-or-admin rule: the caller may act on a resource owned by
// ownerID when it is that owner or holds ADMIN. Unauthenticated is always false.
func CanActOn(sec SecurityContext, ownerID string) bool {
	if !sec.Authenticated() {
		return false
	}
	if sec.Identity.ID != "" && sec.Identity.ID == ownerID {
		return true
	}
	return sec.Identity.HasRole(RoleAdmin)
}
