package models

import (
	"fmt"
	"time"
)

// ConceptView is a tagged filter over the concept query surface. Each variant
// carries an explicit predicate evaluated in memory over a page of concepts.
type ConceptView int

const (
	ViewAll ConceptView = iota
	ViewDue
	ViewNew
	ViewArchived
	ViewDeleted
)

var viewNames = [...]string{
	ViewAll:      "all",
	ViewDue:      "due",
	ViewNew:      "new",
	ViewArchived: "archived",
	ViewDeleted:  "deleted",
}

func (v ConceptView) String() string {
	if int(v) < len(viewNames) {
		return viewNames[v]
	}
	return fmt.Sprintf("view(%d)", int(v))
}

// ParseConceptView parses a view name; unknown names are an error.
func ParseConceptView(name string) (ConceptView, error) {
	for i, n := range viewNames {
		if n == name {
			return ConceptView(i), nil
		}
	}
	return 0, fmt.Errorf("invalid concept view: %q", name)
}

// Matches reports whether the concept belongs to the view at the given time.
func (v ConceptView) Matches(c *Concept, now time.Time) bool {
	switch v {
	case ViewAll:
		return c.Active()
	case ViewDue:
		return c.Active() && !c.Memory.NextReviewAt.After(now)
	case ViewNew:
		return c.Active() && c.Memory.State == StateNew
	case ViewArchived:
		return c.ArchivedAt != nil && c.DeletedAt == nil
	case ViewDeleted:
		return c.DeletedAt != nil
	}
	return false
}
