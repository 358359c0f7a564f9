package catalog

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrUnknownDestination = errors.New("no itinerary found for destination")
	ErrUnknownLength      = errors.New("no itinerary found for trip length")
)

// Leg is one city of a fixed itinerary.
type Leg struct {
	City   string
	Nights int
}

var itineraries = map[string]map[int][]Leg{
	"northern-michigan": {
		1: {{"traverse-city", 1}},
		2: {{"traverse-city", 2}},
		3: {{"traverse-city", 2}, {"mackinac-city", 1}},
		4: {{"traverse-city", 2}, {"mackinac-city", 2}},
		5: {{"traverse-city", 2}, {"mackinac-city", 1}, {"pictured-rocks", 2}},
		6: {{"traverse-city", 2}, {"mackinac-city", 2}, {"pictured-rocks", 2}},
		7: {{"traverse-city", 2}, {"mackinac-city", 2}, {"pictured-rocks", 3}},
		8: {{"traverse-city", 3}, {"mackinac-city", 2}, {"pictured-rocks", 3}},
		9: {{"traverse-city", 3}, {"mackinac-city", 3}, {"pictured-rocks", 3}},
	},
	"arizona": {
		3: {{"phoenix", 1}, {"sedona", 1}, {"grand-canyon", 1}},
		5: {{"phoenix", 1}, {"sedona", 2}, {"grand-canyon", 2}},
		7: {{"phoenix", 2}, {"sedona", 2}, {"grand-canyon", 2}, {"page", 1}},
	},
	"washington": {
		3: {{"seattle", 1}, {"olympic", 2}},
		5: {{"seattle", 1}, {"olympic", 2}, {"mount-rainier", 2}},
		7: {{"seattle", 2}, {"olympic", 2}, {"mount-rainier", 2}, {"north-cascades", 1}},
	},
	"utah": {
		3: {{"zion", 2}, {"bryce-canyon", 1}},
		5: {{"zion", 2}, {"bryce-canyon", 1}, {"arches", 2}},
		7: {{"zion", 2}, {"bryce-canyon", 1}, {"arches", 2}, {"canyonlands", 2}},
	},
	"smoky-mountains": {
		3: {{"gatlinburg", 2}, {"cherokee", 1}},
		5: {{"gatlinburg", 2}, {"cherokee", 2}, {"pigeon-forge", 1}},
		7: {{"gatlinburg", 2}, {"cherokee", 2}, {"pigeon-forge", 2}, {"asheville", 1}},
	},
}

// Stop is an itinerary leg with concrete dates and the campgrounds to check.
type Stop struct {
	City        string       `json:"city"`
	StartDate   string       `json:"startDate"`
	EndDate     string       `json:"endDate"`
	Nights      int          `json:"nights"`
	Campgrounds []Campground `json:"campgrounds"`
}

// TripPlan is an expanded itinerary.
type TripPlan struct {
	DestinationID string `json:"destinationId"`
	TotalNights   int    `json:"totalNights"`
	StartDate     string `json:"startDate"`
	Stops         []Stop `json:"stops"`
	Timestamp     string `json:"timestamp,omitempty"`
}

// Destinations lists destination ids, sorted.
func Destinations() []string {
	out := make([]string, 0, len(itineraries))
	for d := range itineraries {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// TripLengths lists the night counts planned for a destination, ascending.
func TripLengths(destination string) []int {
	var out []int
	for n := range itineraries[destination] {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Expand dates each leg of the itinerary consecutively from start. Stop dates
// are written as M/D/YY without zero padding. startDate is echoed as given.
func Expand(destination string, nights int, start time.Time, startDate string) (TripPlan, error) {
	byLength, ok := itineraries[destination]
	if !ok {
		return TripPlan{}, fmt.Errorf("%w: %s", ErrUnknownDestination, destination)
	}
	legs, ok := byLength[nights]
	if !ok {
		return TripPlan{}, fmt.Errorf("%w: %s with %d nights", ErrUnknownLength, destination, nights)
	}

	plan := TripPlan{DestinationID: destination, TotalNights: nights, StartDate: startDate}
	cur := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for _, leg := range legs {
		end := cur.AddDate(0, 0, leg.Nights)
		plan.Stops = append(plan.Stops, Stop{
			City:        leg.City,
			StartDate:   cur.Format("1/2/06"),
			EndDate:     end.Format("1/2/06"),
			Nights:      leg.Nights,
			Campgrounds: Campgrounds(leg.City),
		})
		cur = end
	}
	return plan, nil
}
