package utils

import "testing"

func TestValidGroupName(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"robotics", true},
		{"go-lang", true},
		{"sub_forum", true},
		{"42fans", true},
		{"", false},
		{"Robotics", false},
		{"has space", false},
		{"-leading", false},
		{"tabs\there", false},
	}
	for _, tc := range cases {
		if got := ValidGroupName(tc.name); got != tc.valid {
			t.Errorf("ValidGroupName(%q) = %v, want %v", tc.name, got, tc.valid)
		}
	}
}

func TestNormalizeGroupName(t *testing.T) {
	if got := NormalizeGroupName("  Robotics "); got != "robotics" {
		t.Errorf("NormalizeGroupName = %q, want %q", got, "robotics")
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":   "hello-world",
		"Go & Robotics": "go-robotics",
		"--trim--":      "trim",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
