package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the authorization level of the console session. Real roles are
// totally ordered: RoleUser < RoleTrainer < RoleAdmin. RoleNone is the
// anonymous state and satisfies no requirement.
type Role int8

const (
	RoleNone Role = iota
	RoleUser
	RoleTrainer
	RoleAdmin
)

var roleTable = map[Role]struct {
	wire  string
	label string
}{
	RoleUser:    {wire: "user", label: "user"},
	RoleTrainer: {wire: "trainer", label: "trainer"},
	RoleAdmin:   {wire: "admin", label: "administrator"},
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "trainer":
		return RoleTrainer, nil
	case "user":
		return RoleUser, nil
	}
	return RoleNone, fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, ok := roleTable[r]
	return ok
}

// IsMinimumRole reports whether r satisfies the minimum requirement.
func (r Role) IsMinimumRole(minimum Role) bool {
	if !r.Valid() || !minimum.Valid() {
		return false
	}
	return r >= minimum
}

func (r Role) Label() string {
	if entry, ok := roleTable[r]; ok {
		return entry.label
	}
	return ""
}

func (r Role) String() string {
	if entry, ok := roleTable[r]; ok {
		return entry.wire
	}
	return "none"
}

func (r Role) IsAPIKeyRole() bool {
	return r == RoleUser || r == RoleTrainer
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = RoleNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
