package domain

// Caller identifies who is invoking a lifecycle operation. It is resolved
// once at the transport boundary and passed explicitly.
type Caller struct {
	UserID string
	Role   Role
}

// Is reports whether the caller holds role.
func (c Caller) Is(role Role) bool {
	return c.Role == role
}
