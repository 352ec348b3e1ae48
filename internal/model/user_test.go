package model

import "testing"

func TestRoleAtLeast(t *testing.T) {
	roles := []string{RoleUser, RoleManager, RoleAdmin}

	// Every role reaches itself and the roles below it.
	for i, role := range roles {
		for j, minimum := range roles {
			if got, want := RoleAtLeast(role, minimum), i >= j; got != want {
				t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", role, minimum, got, want)
			}
		}
	}

	// Unknown roles fail closed.
	for _, tt := range [][2]string{{"unknown", RoleUser}, {RoleAdmin, "unknown"}, {"", ""}, {"", RoleUser}} {
		if RoleAtLeast(tt[0], tt[1]) {
			t.Errorf("RoleAtLeast(%q, %q) = true, want false", tt[0], tt[1])
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleManager, RoleUser} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false", role)
		}
	}
	for _, role := range []string{"", "Admin", "owner"} {
		if ValidRole(role) {
			t.Errorf("ValidRole(%q) = true", role)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := map[string]bool{
		"":                 true,
		"short":            true,
		"1234567":          true,
		"12345678":         false,
		"a-valid-password": false,
	}

	for password, wantErr := range tests {
		err := ValidatePassword(password)
		if (err != nil) != wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", password, err, wantErr)
		}
	}
}
