package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of identities a user can hold. It never changes
// after the account is created.
type Role int

const (
	RoleUnknown Role = iota
	RoleStudent
	RoleAdmin
	RoleWorker
)

var roleNames = map[Role]string{
	RoleStudent: "STUDENT",
	RoleAdmin:   "ADMIN",
	RoleWorker:  "WORKER",
}

// ParseRole converts the stored representation into a Role.
func ParseRole(s string) (Role, error) {
	for role, name := range roleNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return role, nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value implements driver.Valuer.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return r.String(), nil
}

// Scan implements sql.Scanner.
func (r *Role) Scan(src any) error {
	text, err := scanText(src)
	if err != nil {
		return err
	}
	return r.UnmarshalText([]byte(text))
}

// User is an institution member: a reporting student, an administrator or
// a field worker.
type User struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	Role          Role
	ContactNumber string
	RollNumber    string
	FieldOfWork   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func scanText(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", fmt.Errorf("cannot scan NULL into enum")
	default:
		return "", fmt.Errorf("cannot scan %T into enum", src)
	}
}
