package providers

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brensch/campcheck/internal/httpx"
)

// CapacityTier maps parties up to MaxGuests (inclusive) to the units that can
// host them, in preference order.
type CapacityTier struct {
	MaxGuests int
	Units     []string
}

// SelectTier returns the tier for a party, or false when the party is larger
// than every tier.
func SelectTier(tiers []CapacityTier, party int) (CapacityTier, bool) {
	for _, t := range tiers {
		if party <= t.MaxGuests {
			return t, true
		}
	}
	return CapacityTier{}, false
}

// MackinawCity reads the room grid of the mackinaw-city.com reservation system.
type MackinawCity struct {
	hotelID  int
	roomType int
	rateType string
	tiers    []CapacityTier
	sessions *httpx.Factory
}

const mackinawBase = "https://ssl.mackinaw-city.com"

// NewCabinsOfMackinaw builds the adapter for the Cabins of Mackinaw chalets.
func NewCabinsOfMackinaw(f *httpx.Factory) *MackinawCity {
	return &MackinawCity{
		hotelID:  13,
		roomType: 7,
		rateType: "Internet Special",
		tiers: []CapacityTier{
			{MaxGuests: 2, Units: []string{"Private Chalet - 1 Room Queen Bed"}},
			{MaxGuests: 4, Units: []string{"Private Chalet - 1 Room 2 Queen Beds", "Private Chalet - 2 Rooms, 2 Queen Beds and 2 TVs"}},
			{MaxGuests: 6, Units: []string{"Private Chalet - 3 Rooms, 2 Queen beds, Sofabed in Living Area, 2 TVs"}},
		},
		sessions: factoryOrDefault(f),
	}
}

func (m *MackinawCity) Name() string { return "mackinaw-city" }

func (m *MackinawCity) Classes() []Class { return nil }

func (m *MackinawCity) BookingURL() string {
	return fmt.Sprintf("%s/newreservations/request.php?HotelId=%d", mackinawBase, m.hotelID)
}

func (m *MackinawCity) FetchAvailability(ctx context.Context, q Query) Outcome {
	return SingleOutcome(m.check(ctx, q))
}

func (m *MackinawCity) check(ctx context.Context, q Query) Result {
	tier, ok := SelectTier(m.tiers, q.PartySize())
	if !ok {
		return ResultFromErr(&NoMatchError{Msg: fmt.Sprintf("No cabin fits a group of %d", q.PartySize())})
	}

	s := m.sessions.Session("mackinaw-city", httpx.SessionOptions{
		UserAgent: httpx.UserAgents[0],
		Headers:   map[string]string{"Accept": "*/*"},
	})

	// the room grid is empty unless the request carries the PHPSESSID issued here
	res, err := s.R().SetContext(ctx).Get(m.BookingURL())
	if err := expectOK("Failed to open reservation session", res, err); err != nil {
		return ResultFromErr(err)
	}
	if !hasCookie(s.GetClient().Jar, mackinawBase, "PHPSESSID") {
		return ResultFromErr(&ParseError{What: "Reservation session cookie not issued"})
	}

	res, err = s.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"roomtype":     strconv.Itoa(m.roomType),
			"selectdate":   q.Start.Format("01-02-2006"),
			"dayspan":      strconv.Itoa(q.Nights()),
			"numberrooms":  "1",
			"numberguests": strconv.Itoa(q.PartySize()),
			"ratetype":     m.rateType,
			"submit_x":     "true",
		}).
		Get(mackinawBase + "/newreservations/request.php")
	if err := expectOK("Failed to retrieve data", res, err); err != nil {
		return ResultFromErr(err)
	}
	b, err := body(res)
	if err != nil {
		return ResultFromErr(err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return ResultFromErr(&ParseError{What: "Failed to parse room grid", Err: err})
	}
	tables := doc.Find("table.data")
	if tables.Length() < 2 {
		return ResultFromErr(&ParseError{What: "Room grid not found"})
	}

	rates := map[string]string{}
	tables.Eq(1).Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		a, span := row.Find("a").First(), row.Find("span").First()
		if a.Length() == 0 || span.Length() == 0 {
			return
		}
		rates[strings.TrimSpace(a.Text())] = strings.TrimSpace(span.Text())
	})

	for _, unit := range tier.Units {
		quoted, ok := rates[unit]
		if !ok || strings.EqualFold(quoted, "not available") {
			continue
		}
		price, ok := parsePrice(quoted)
		if !ok {
			continue
		}
		return Available(price, PerNightNamed(price, unit))
	}
	return Unavailable("Not available for selected dates.")
}
