package validation

import "testing"

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		ok       bool
	}{
		{name: "valid simple", username: "aoife", ok: true},
		{name: "valid with digits", username: "student2024", ok: true},
		{name: "valid with separator", username: "sean_og", ok: true},
		{name: "too short", username: "ab", ok: false},
		{name: "too long", username: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", ok: false},
		{name: "space", username: "two words", ok: false},
		{name: "symbol", username: "user!", ok: false},
		{name: "leading underscore", username: "_user", ok: false},
		{name: "trailing hyphen", username: "user-", ok: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateUsername(tc.username)
			if tc.ok && err != nil {
				t.Fatalf("expected %q to be valid, got error: %v", tc.username, err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected %q to be invalid", tc.username)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{name: "valid", password: "Sup3rSecret!pass", ok: true},
		{name: "too short", password: "Ab1!short", ok: false},
		{name: "no uppercase", password: "sup3rsecret!pass", ok: false},
		{name: "no lowercase", password: "SUP3RSECRET!PASS", ok: false},
		{name: "no digit", password: "SuperSecret!pass", ok: false},
		{name: "no special", password: "Sup3rSecretpass1", ok: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePassword(tc.password)
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected invalid")
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	if err := ValidateEmail("student@dkit.ie"); err != nil {
		t.Fatalf("expected valid email, got: %v", err)
	}
	if err := ValidateEmail("not-an-email"); err == nil {
		t.Fatal("expected invalid email")
	}
}
