package providers

import (
	"strings"
)

// Item is one bookable unit a venue reported as available, after parsing.
type Item struct {
	Name  string
	Price float64
}

// Matcher decides whether an item belongs to a class.
type Matcher func(name string) bool

// Selector reduces the items of one class to a single representative.
type Selector func(items []Item) (Item, bool)

// ClassRule declares how one accommodation class is filled from a shared feed.
type ClassRule struct {
	Class  Class
	Match  Matcher
	Select Selector
	// Empty is the message used when nothing matched.
	Empty string
	// Format renders the message of the selected item. Nil means PerNightNamed.
	Format func(Item) string
}

// Split classifies items into every rule's class independently. An item may
// land in several classes. Every rule's class is present in the result.
func Split(items []Item, rules []ClassRule) Multi {
	out := make(Multi, len(rules))
	for _, rule := range rules {
		var matched []Item
		for _, it := range items {
			if rule.Match == nil || rule.Match(it.Name) {
				matched = append(matched, it)
			}
		}
		sel := rule.Select
		if sel == nil {
			sel = Cheapest
		}
		best, ok := sel(matched)
		if !ok {
			empty := rule.Empty
			if empty == "" {
				empty = "No " + string(rule.Class) + " sites available."
			}
			out[rule.Class] = Unavailable(empty)
			continue
		}
		msg := PerNightNamed(best.Price, best.Name)
		if rule.Format != nil {
			msg = rule.Format(best)
		}
		out[rule.Class] = Available(best.Price, msg)
	}
	return out
}

// Classes lists the classes declared by rules, in order.
func Classes(rules []ClassRule) []Class {
	out := make([]Class, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Class)
	}
	return out
}

// Contains matches names containing any keyword, case-insensitively.
func Contains(keywords ...string) Matcher {
	lower := lowerAll(keywords)
	return func(name string) bool {
		n := strings.ToLower(name)
		for _, k := range lower {
			if strings.Contains(n, k) {
				return true
			}
		}
		return false
	}
}

// OneOf matches names equal to any of names, case-insensitively.
func OneOf(names ...string) Matcher {
	lower := lowerAll(names)
	return func(name string) bool {
		n := strings.ToLower(strings.TrimSpace(name))
		for _, k := range lower {
			if n == k {
				return true
			}
		}
		return false
	}
}

// Cheapest picks the lowest price. Ties keep the first item seen.
func Cheapest(items []Item) (Item, bool) {
	var (
		best  Item
		found bool
	)
	for _, it := range items {
		if !found || it.Price < best.Price {
			best, found = it, true
		}
	}
	return best, found
}

// Priority picks the first name in preference order that is present,
// ignoring price.
func Priority(names ...string) Selector {
	return func(items []Item) (Item, bool) {
		for _, want := range names {
			for _, it := range items {
				if strings.EqualFold(strings.TrimSpace(it.Name), want) {
					return it, true
				}
			}
		}
		return Item{}, false
	}
}

// Prefer picks the named unit when present and otherwise the cheapest item.
func Prefer(name string) Selector {
	pick := Priority(name)
	return func(items []Item) (Item, bool) {
		if it, ok := pick(items); ok {
			return it, true
		}
		return Cheapest(items)
	}
}

// First picks the first item in feed order.
func First(items []Item) (Item, bool) {
	if len(items) == 0 {
		return Item{}, false
	}
	return items[0], true
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
