package materials

import (
	"encoding/json"
	"sort"
	"strings"

	"gorm.io/datatypes"
)

// AccessRule is the resolved form of a material's accessibility policy:
// either open to every resolvable role, or restricted to a set of role names.
// The loose wire shapes (a bare role list, or a role-keyed boolean object)
// are resolved here once, at the data-model boundary.
type AccessRule struct {
	Open  bool     `json:"open"`
	Roles []string `json:"roles,omitempty"`
}

func OpenAccess() AccessRule {
	return AccessRule{Open: true}
}

func RestrictedTo(roles ...string) AccessRule {
	cleaned := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r != "" {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) == 0 {
		return OpenAccess()
	}
	return AccessRule{Roles: cleaned}
}

// Admits reports whether a requester with the given role passes the rule.
// Callers must handle the empty role before asking; an empty role is a
// "role not set" outcome, not a deny.
func (r AccessRule) Admits(role string) bool {
	if r.Open || len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if strings.EqualFold(allowed, role) {
			return true
		}
	}
	return false
}

func (r AccessRule) JSON() datatypes.JSON {
	raw, err := json.Marshal(r)
	if err != nil {
		return datatypes.JSON([]byte(`{"open":true}`))
	}
	return raw
}

// ParseAccessRule accepts the canonical form plus the two legacy shapes:
// `["Faculty"]` and `{"Student":true,"Faculty":false}`. Absent or empty
// input means open.
func ParseAccessRule(raw []byte) (AccessRule, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return OpenAccess(), nil
	}

	var canonical AccessRule
	if err := json.Unmarshal(raw, &canonical); err == nil {
		if canonical.Open || len(canonical.Roles) > 0 {
			return RestrictedToOrOpen(canonical), nil
		}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return RestrictedTo(list...), nil
	}

	var flags map[string]bool
	if err := json.Unmarshal(raw, &flags); err == nil {
		roles := make([]string, 0, len(flags))
		for role, on := range flags {
			if on {
				roles = append(roles, role)
			}
		}
		sort.Strings(roles)
		return RestrictedTo(roles...), nil
	}

	return OpenAccess(), errUnrecognizedAccessShape
}

func RestrictedToOrOpen(r AccessRule) AccessRule {
	if r.Open {
		return OpenAccess()
	}
	return RestrictedTo(r.Roles...)
}

var errUnrecognizedAccessShape = jsonShapeError("unrecognized accessibility shape")

type jsonShapeError string

func (e jsonShapeError) Error() string { return string(e) }
