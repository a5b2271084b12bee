package domain

import "slices"

// FeatureUserResource gates user management and file routes.
const FeatureUserResource = "user_resource"

// Role maps a role name to the features it grants.
type Role struct {
	Name     UserRole `bson:"name" json:"name"`
	Features []string `bson:"features" json:"features"`
}

// Grants reports whether the role includes feature.
func (r *Role) Grants(feature string) bool {
	if r == nil {
		return false
	}
	return slices.Contains(r.Features, feature)
}

// DefaultRoles are seeded on startup.
func DefaultRoles() []Role {
	return []Role{
		{Name: RoleManager, Features: []string{FeatureUserResource}},
		{Name: RoleAgent, Features: []string{FeatureUserResource}},
	}
}
