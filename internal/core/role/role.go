package role

import (
	"encoding/json"
	"fmt"
)

// Role is one of the four access levels. The zero value is Guest.
type Role int

const (
	Guest Role = iota
	User
	Editor
	Admin
)

var names = [...]string{
	Guest:  "guest",
	User:   "user",
	Editor: "editor",
	Admin:  "admin",
}

// All lists the roles in hierarchy order.
var All = []Role{Guest, User, Editor, Admin}

// Info is the static role description returned by the roles endpoint.
type Info struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Level       int    `json:"level"`
}

var infos = map[Role]Info{
	Guest:  {Name: "guest", Title: "Guest", Description: "Basic access to public tools", Level: 0},
	User:   {Name: "user", Title: "User", Description: "Access to user services", Level: 1},
	Editor: {Name: "editor", Title: "Editor", Description: "Manages content and documents", Level: 2},
	Admin:  {Name: "admin", Title: "Administrator", Description: "Full access to the system", Level: 3},
}

func (r Role) String() string {
	if r < Guest || r > Admin {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return names[r]
}

// Level is the position of the role in the hierarchy.
func (r Role) Level() int {
	return int(r)
}

// AtLeast reports whether r is at or above min in the hierarchy.
func (r Role) AtLeast(min Role) bool {
	return r.Level() >= min.Level()
}

func (r Role) Valid() bool {
	return r >= Guest && r <= Admin
}

// Persistable reports whether the role may be stored on a user record.
func (r Role) Persistable() bool {
	return r >= User && r <= Admin
}

func (r Role) Info() Info {
	return infos[r]
}

// Parse maps a role name to a Role.
func Parse(s string) (Role, error) {
	for i, n := range names {
		if n == s {
			return Role(i), nil
		}
	}
	return Guest, fmt.Errorf("unknown role %q", s)
}

// Infos returns the metadata of every role keyed by name.
func Infos() map[string]Info {
	out := make(map[string]Info, len(infos))
	for r, info := range infos {
		out[r.String()] = info
	}
	return out
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Set is a set of roles, serialized as a list of names.
type Set map[Role]struct{}

func NewSet(roles ...Role) Set {
	s := make(Set, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

func (s Set) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

func (s Set) Add(r Role) {
	s[r] = struct{}{}
}

// Names returns the member names in hierarchy order.
func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for _, r := range s.Slice() {
		out = append(out, r.String())
	}
	return out
}

// ParseSet builds a set from names, skipping unknown ones. A nil slice yields a nil set.
func ParseSet(names []string) Set {
	if names == nil {
		return nil
	}
	out := make(Set, len(names))
	for _, name := range names {
		if r, err := Parse(name); err == nil {
			out.Add(r)
		}
	}
	return out
}

// Slice returns the members in hierarchy order.
func (s Set) Slice() []Role {
	out := make([]Role, 0, len(s))
	for _, r := range All {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// MarshalJSON encodes a nil set as null so that "unrestricted" survives a round trip.
func (s Set) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(s.Slice())
}

// UnmarshalJSON ignores unknown role names so that stale config files still load.
func (s *Set) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Set, len(raw))
	for _, name := range raw {
		if r, err := Parse(name); err == nil {
			out.Add(r)
		}
	}
	*s = out
	return nil
}
