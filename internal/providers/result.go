package providers

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Class is an accommodation class key shared across venues.
type Class string

const (
	ClassTent         Class = "tent"
	ClassRV           Class = "rv"
	ClassLodging      Class = "lodging"
	ClassCabin        Class = "cabin"
	ClassYurt         Class = "yurt"
	ClassPlatformTent Class = "platform_tent"
)

// Result is the normalized answer for one venue or one accommodation class.
// Price is nil whenever Available is false.
type Result struct {
	Available bool     `json:"available"`
	Price     *float64 `json:"price"`
	Message   string   `json:"message"`
}

// Available builds a bookable result. Negative or non-finite prices cannot be
// quoted, so they collapse into an unavailable result.
func Available(price float64, message string) Result {
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return Unavailable(fmt.Sprintf("Invalid price %v returned by venue", price))
	}
	if message == "" {
		message = PerNight(price)
	}
	p := price
	return Result{Available: true, Price: &p, Message: message}
}

// Unavailable builds a result with no price.
func Unavailable(message string) Result {
	if message == "" {
		message = "Not available for selected dates"
	}
	return Result{Message: message}
}

// PerNight formats a nightly price the way every venue message does.
func PerNight(price float64) string {
	return fmt.Sprintf("$%.2f per night", price)
}

// PerNightNamed formats a nightly price followed by the unit name.
func PerNightNamed(price float64, name string) string {
	if name == "" {
		return PerNight(price)
	}
	return fmt.Sprintf("$%.2f per night - %s", price, name)
}

// Multi maps each declared class of a venue to its result.
type Multi map[Class]Result

// Outcome is what an adapter returns: either one result or one result per class.
type Outcome struct {
	Single  *Result
	Classes Multi
}

func SingleOutcome(r Result) Outcome { return Outcome{Single: &r} }

func MultiOutcome(m Multi) Outcome { return Outcome{Classes: m} }

// Uniform gives every declared class the same result, or a single result when
// the venue declares no classes.
func Uniform(classes []Class, r Result) Outcome {
	if len(classes) == 0 {
		return SingleOutcome(r)
	}
	m := make(Multi, len(classes))
	for _, c := range classes {
		m[c] = r
	}
	return MultiOutcome(m)
}

// IsMulti reports whether the outcome is keyed by class.
func (o Outcome) IsMulti() bool { return o.Single == nil && o.Classes != nil }

// Results flattens the outcome; single outcomes are keyed by the empty class.
func (o Outcome) Results() map[Class]Result {
	if o.Single != nil {
		return map[Class]Result{"": *o.Single}
	}
	return o.Classes
}

// AnyAvailable reports whether any class has a bookable unit.
func (o Outcome) AnyAvailable() bool {
	for _, r := range o.Results() {
		if r.Available {
			return true
		}
	}
	return false
}

// Best returns the cheapest available result, or the first unavailable one in
// class order when nothing is bookable.
func (o Outcome) Best() (Class, Result) {
	if o.Single != nil {
		return "", *o.Single
	}
	keys := o.SortedClasses()
	var (
		bestClass Class
		best      Result
		found     bool
	)
	for _, k := range keys {
		r := o.Classes[k]
		if !r.Available {
			continue
		}
		if !found || *r.Price < *best.Price {
			bestClass, best, found = k, r, true
		}
	}
	if found {
		return bestClass, best
	}
	if len(keys) == 0 {
		return "", Unavailable("")
	}
	return keys[0], o.Classes[keys[0]]
}

// SortedClasses returns the class keys in a stable order.
func (o Outcome) SortedClasses() []Class {
	keys := make([]Class, 0, len(o.Classes))
	for k := range o.Classes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// MarshalJSON writes single outcomes as the flat result object and multi
// outcomes as {class: result}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Single != nil {
		return json.Marshal(o.Single)
	}
	if o.Classes == nil {
		return json.Marshal(Unavailable(""))
	}
	return json.Marshal(o.Classes)
}

// UnmarshalJSON accepts both encodings produced by MarshalJSON.
func (o *Outcome) UnmarshalJSON(b []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	if _, ok := probe["available"]; ok {
		var r Result
		if err := json.Unmarshal(b, &r); err != nil {
			return err
		}
		*o = SingleOutcome(r)
		return nil
	}
	m := Multi{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*o = MultiOutcome(m)
	return nil
}
