package classifier

import (
	"github.com/gyaneshwarpardhi/activity/internal/event"
)

// Classifier maps (source, code) pairs to activity categories.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	codes   map[int]event.Category
	tracked map[string]event.Category
	order   []string
}

// New builds a Classifier. A nil codes map selects event.DefaultSystemCodes.
// Duplicate tracked sources keep their first position.
func New(tracked []string, codes map[int]event.Category) *Classifier {
	if codes == nil {
		codes = event.DefaultSystemCodes()
	}
	c := &Classifier{
		codes:   make(map[int]event.Category, len(codes)),
		tracked: make(map[string]event.Category, len(tracked)),
		order:   make([]string, 0, len(tracked)),
	}
	for code, cat := range codes {
		c.codes[code] = cat
	}
	for _, src := range tracked {
		if _, dup := c.tracked[src]; dup || src == "" {
			continue
		}
		c.tracked[src] = event.AppCategory(src)
		c.order = append(c.order, src)
	}
	return c
}

// Classify returns the category for a record. Code rules win over source
// rules; anything unmatched is event.Other.
func (c *Classifier) Classify(source string, code int) event.Category {
	if cat, ok := c.codes[code]; ok {
		return cat
	}
	if cat, ok := c.tracked[source]; ok {
		return cat
	}
	return event.Other
}

// Tracked reports whether source is on the application whitelist.
func (c *Classifier) Tracked(source string) bool {
	_, ok := c.tracked[source]
	return ok
}

// AppCategories returns the application categories in whitelist order.
func (c *Classifier) AppCategories() []event.Category {
	out := make([]event.Category, 0, len(c.order))
	for _, src := range c.order {
		out = append(out, c.tracked[src])
	}
	return out
}

// ReportCategories returns every category that can carry duration, in the
// order a report presents them: Logon, Lock, then each application.
func (c *Classifier) ReportCategories() []event.Category {
	return append([]event.Category{event.Logon, event.Lock}, c.AppCategories()...)
}
