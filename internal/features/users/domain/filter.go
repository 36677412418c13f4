package domain

import "strings"

// Filter narrows the CRM list. Empty fields match everything.
type Filter struct {
	Query  string `query:"q"`
	Role   Role   `query:"role"`
	Status Status `query:"status"`
}

// Matches reports whether u passes the filter. Query matches name, email,
// company and phone case-insensitively.
func (f Filter) Matches(u User) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, field := range []string{u.Name, u.Email, u.Company, u.Phone} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Apply returns the users passing the filter, in order.
func (f Filter) Apply(list []User) []User {
	out := make([]User, 0, len(list))
	for _, u := range list {
		if f.Matches(u) {
			out = append(out, u)
		}
	}
	return out
}
