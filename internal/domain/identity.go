package domain

import (
	"fmt"
	"strings"
)

// AdminLevel is the privilege tier carried by an admin role. SuperAdmin
// outranks everything and is never organization-scoped.
type AdminLevel string

const (
	AdminLevelSuper        AdminLevel = "super_admin"
	AdminLevelOrganization AdminLevel = "organization_admin"
	AdminLevelFaculty      AdminLevel = "faculty_admin"
	AdminLevelRegular      AdminLevel = "regular_admin"
)

var adminLevelRanks = map[AdminLevel]int{
	AdminLevelSuper:        4,
	AdminLevelOrganization: 3,
	AdminLevelFaculty:      2,
	AdminLevelRegular:      1,
}

func ParseAdminLevel(raw string) (AdminLevel, error) {
	level := AdminLevel(strings.TrimSpace(strings.ToLower(raw)))
	if _, ok := adminLevelRanks[level]; !ok {
		return "", fmt.Errorf("unknown admin level %q", raw)
	}
	return level, nil
}

func (l AdminLevel) Rank() int { return adminLevelRanks[l] }

func (l AdminLevel) AtLeast(min AdminLevel) bool {
	return adminLevelRanks[l] >= adminLevelRanks[min]
}

// AdminRole is the decoded admin claim of an identity. OrganizationID is nil
// for unscoped roles; a scoped role may only act on resources of its own
// organization, SuperAdmin excepted.
type AdminRole struct {
	Level          AdminLevel `json:"admin_level"`
	OrganizationID *uint      `json:"organization_id,omitempty"`
	Permissions    []string   `json:"permissions,omitempty"`
}

func (r *AdminRole) HasPermission(required string) bool {
	if r == nil {
		return false
	}
	for _, p := range r.Permissions {
		if p == required {
			return true
		}
	}
	return false
}

// SessionUser is the identity resolved from a valid session. Admin is nil
// for regular (student) principals.
type SessionUser struct {
	ID        uint       `json:"id"`
	StudentID string     `json:"student_id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Admin     *AdminRole `json:"admin_role,omitempty"`
}

func (u *SessionUser) IsAdmin() bool { return u != nil && u.Admin != nil }

func (u *SessionUser) HasAdminLevel(min AdminLevel) bool {
	return u.IsAdmin() && u.Admin.Level.AtLeast(min)
}

// CanAccessOrganization reports whether the identity may act on resources of
// the given organization. SuperAdmin is unscoped; every other admin role is
// confined to its own organization when one is set.
func (u *SessionUser) CanAccessOrganization(orgID uint) bool {
	if !u.IsAdmin() {
		return false
	}
	if u.Admin.Level == AdminLevelSuper {
		return true
	}
	if u.Admin.OrganizationID == nil {
		return true
	}
	return *u.Admin.OrganizationID == orgID
}

func (u *SessionUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
