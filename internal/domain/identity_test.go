package domain

import "testing"

func uintPtr(v uint) *uint { return &v }

func TestParseAdminLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    AdminLevel
		wantErr bool
	}{
		{in: "super_admin", want: AdminLevelSuper},
		{in: " Organization_Admin ", want: AdminLevelOrganization},
		{in: "faculty_admin", want: AdminLevelFaculty},
		{in: "regular_admin", want: AdminLevelRegular},
		{in: "root", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseAdminLevel(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseAdminLevel(%q) expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAdminLevel(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAdminLevel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAdminLevelOrdering(t *testing.T) {
	if !AdminLevelSuper.AtLeast(AdminLevelOrganization) {
		t.Fatal("super admin should outrank organization admin")
	}
	if AdminLevelFaculty.AtLeast(AdminLevelOrganization) {
		t.Fatal("faculty admin should not outrank organization admin")
	}
	if !AdminLevelRegular.AtLeast(AdminLevelRegular) {
		t.Fatal("a level should satisfy itself as minimum")
	}
}

func TestSessionUserAdminChecks(t *testing.T) {
	student := &SessionUser{ID: 1, StudentID: "s-100"}
	if student.IsAdmin() {
		t.Fatal("student without role should not be admin")
	}
	if student.HasAdminLevel(AdminLevelRegular) {
		t.Fatal("student should not satisfy any admin level")
	}
	if student.CanAccessOrganization(7) {
		t.Fatal("student should not pass organization scope checks")
	}

	admin := &SessionUser{ID: 2, Admin: &AdminRole{Level: AdminLevelOrganization, OrganizationID: uintPtr(7)}}
	if !admin.HasAdminLevel(AdminLevelFaculty) {
		t.Fatal("organization admin should satisfy faculty minimum")
	}
	if admin.HasAdminLevel(AdminLevelSuper) {
		t.Fatal("organization admin should not satisfy super minimum")
	}
}

func TestCanAccessOrganizationScoping(t *testing.T) {
	scoped := &SessionUser{Admin: &AdminRole{Level: AdminLevelOrganization, OrganizationID: uintPtr(7)}}
	if !scoped.CanAccessOrganization(7) {
		t.Fatal("scoped admin should access its own organization")
	}
	if scoped.CanAccessOrganization(8) {
		t.Fatal("scoped admin should not access another organization")
	}

	super := &SessionUser{Admin: &AdminRole{Level: AdminLevelSuper, OrganizationID: uintPtr(7)}}
	if !super.CanAccessOrganization(8) {
		t.Fatal("super admin is unscoped regardless of organization_id")
	}

	unscoped := &SessionUser{Admin: &AdminRole{Level: AdminLevelFaculty}}
	if !unscoped.CanAccessOrganization(3) {
		t.Fatal("admin without organization_id is not scope-restricted")
	}
}

func TestAdminRolePermissions(t *testing.T) {
	role := &AdminRole{Level: AdminLevelRegular, Permissions: []string{"activities:read", "activities:write"}}
	if !role.HasPermission("activities:write") {
		t.Fatal("expected permission to be present")
	}
	if role.HasPermission("users:write") {
		t.Fatal("unexpected permission")
	}
	var nilRole *AdminRole
	if nilRole.HasPermission("anything") {
		t.Fatal("nil role has no permissions")
	}
}
