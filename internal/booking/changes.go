package booking

import (
	"fmt"
	"strings"
	"time"
)

const summaryTimeLayout = "2006-01-02 15:04"

type fieldChange struct {
	field  string
	before string
	after  string
}

func (c fieldChange) String() string {
	return fmt.Sprintf("%s: %s → %s", c.field, c.before, c.after)
}

// changeSet collects before/after pairs for the fields an edit touched.
type changeSet []fieldChange

func (cs *changeSet) time(field string, before, after time.Time) {
	if !before.Equal(after) {
		*cs = append(*cs, fieldChange{field, before.Format(summaryTimeLayout), after.Format(summaryTimeLayout)})
	}
}

func (cs *changeSet) text(field string, before, after *string) {
	b, a := deref(before), deref(after)
	if b != a {
		*cs = append(*cs, fieldChange{field, quoteOrEmpty(b), quoteOrEmpty(a)})
	}
}

// Summary renders the set as "field: before → after" entries joined by "; ".
func (cs changeSet) Summary() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, "; ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func quoteOrEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return fmt.Sprintf("%q", s)
}
