package materials

import "testing"

func TestParseAccessRuleShapes(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		role  string
		admit bool
	}{
		{"absent is open", "", "Student", true},
		{"null is open", "null", "Student", true},
		{"list admits member", `["Faculty"]`, "Faculty", true},
		{"list denies non-member", `["Faculty"]`, "Student", false},
		{"flag object admits enabled", `{"Student":true,"Faculty":false}`, "Student", true},
		{"flag object denies disabled", `{"Student":true,"Faculty":false}`, "Faculty", false},
		{"canonical roles", `{"roles":["Faculty"]}`, "Student", false},
		{"canonical open", `{"open":true}`, "Student", true},
		{"empty list is open", `[]`, "Student", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule, _ := ParseAccessRule([]byte(tc.raw))
			if got := rule.Admits(tc.role); got != tc.admit {
				t.Fatalf("Admits(%q) = %v, want %v (rule %+v)", tc.role, got, tc.admit, rule)
			}
		})
	}
}

func TestAccessRuleRoundTrip(t *testing.T) {
	rule := RestrictedTo("Faculty", "Student")
	parsed, err := ParseAccessRule(rule.JSON())
	if err != nil {
		t.Fatalf("ParseAccessRule: %v", err)
	}
	if parsed.Open {
		t.Fatalf("restricted rule parsed as open")
	}
	if len(parsed.Roles) != 2 {
		t.Fatalf("roles = %v", parsed.Roles)
	}
}

func TestRestrictedToEmptyIsOpen(t *testing.T) {
	rule := RestrictedTo(" ", "")
	if !rule.Open {
		t.Fatalf("blank roles should resolve to open, got %+v", rule)
	}
}
