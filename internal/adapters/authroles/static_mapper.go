package authroles

import (
	"strings"

	domainauth "github.com/target/eventnav/internal/domain/auth"
)

// StaticRoleMapper maps IdP groups to roles by case-insensitive membership.
// Admin wins over user; anything else is a guest.
type StaticRoleMapper struct {
	AdminGroup string
	UserGroup  string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	if contains(groups, m.AdminGroup) {
		return domainauth.RoleAdmin
	}
	if contains(groups, m.UserGroup) {
		return domainauth.RoleUser
	}
	return domainauth.RoleGuest
}

func contains(groups []string, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return false
	}
	for _, g := range groups {
		if strings.EqualFold(strings.TrimSpace(g), want) {
			return true
		}
	}
	return false
}
