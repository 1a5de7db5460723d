package domain

import "time"

// CategoryGroup partitions categories by the unit that services them.
type CategoryGroup string

const (
	CategoryGroupWorksAndEstate CategoryGroup = "WorksAndEstate"
	CategoryGroupITHelpdesk     CategoryGroup = "ITHelpdesk"
	CategoryGroupGeneral        CategoryGroup = "General"
)

// Category is a seeded lookup label attached to tickets.
type Category struct {
	ID        string
	Name      string
	Group     CategoryGroup
	CreatedAt time.Time
}

// Valid reports whether g is a known group.
func (g CategoryGroup) Valid() bool {
	switch g {
	case CategoryGroupWorksAndEstate, CategoryGroupITHelpdesk, CategoryGroupGeneral:
		return true
	}
	return false
}
