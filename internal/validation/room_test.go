package validation

import "testing"

func TestValidateRoomName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		roomName string
		ok       bool
	}{
		{name: "valid plain", roomName: "Games Society", ok: true},
		{name: "valid with digits", roomName: "Year 2 CS", ok: true},
		{name: "minimum length", roomName: "abc", ok: true},
		{name: "too short", roomName: "ab", ok: false},
		{name: "too long", roomName: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", ok: false},
		{name: "leading space", roomName: " Games", ok: false},
		{name: "trailing space", roomName: "Games ", ok: false},
		{name: "reserved dashboard", roomName: "dashboard", ok: false},
		{name: "reserved mixed case", roomName: "Admin", ok: false},
		{name: "reserved api", roomName: "api", ok: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateRoomName(tc.roomName)
			if tc.ok && err != nil {
				t.Fatalf("expected %q to be valid, got error: %v", tc.roomName, err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected %q to be invalid", tc.roomName)
			}
		})
	}
}

func TestValidateRoomDescription(t *testing.T) {
	t.Parallel()

	if err := ValidateRoomDescription("a study room"); err != nil {
		t.Fatalf("expected valid description, got: %v", err)
	}

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidateRoomDescription(string(long)); err == nil {
		t.Fatal("expected over-length description to be invalid")
	}
}
