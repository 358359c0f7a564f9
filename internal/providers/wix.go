package providers

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/brensch/campcheck/internal/httpx"
)

const wixHotelsBase = "https://hotels.wixapps.net"

// WixHotels queries the Wix Hotels room search used by small lodges built on
// Wix. The instance token identifies the site and is embedded in its pages.
type WixHotels struct {
	instance string
	xsrf     string
	exclude  string
	opens    time.Time
	sessions *httpx.Factory
}

// NewFortSuperior builds the adapter for Fort Superior Camp Ground. The canvas
// tent barracks are group units and never quoted.
func NewFortSuperior(f *httpx.Factory) *WixHotels {
	return &WixHotels{
		instance: "e3V5_uiZIx5AVeNQI_FHABdSXKJTMzuM4gVL9oSpzVk.eyJpbnN0YW5jZUlkIjoiMmU5MGQ2YjktOWZlZC00MGNiLTlhMzItNzNlMWU3Yjk1ZDVkIiwiYXBwRGVmSWQiOiIxMzVhYWQ4Ni05MTI1LTYwNzQtNzM0Ni0yOWRjNmEzYzliY2YiLCJtZXRhU2l0ZUlkIjoiNTIwYTJjZDUtNjg4OC00NWFlLWI4ZDYtMTcxMzZiYmYyNTU5Iiwic2lnbkRhdGUiOiIyMDI0LTEwLTI1VDIxOjQ5OjQxLjYwMloiLCJ2ZW5kb3JQcm9kdWN0SWQiOiJob3RlbHMiLCJkZW1vTW9kZSI6ZmFsc2UsIm9yaWdpbkluc3RhbmNlSWQiOiIwYzFlYmI1ZC1mYTc2LTRkMDUtYWUyYS1lNjRiY2MyM2MyODkiLCJhaWQiOiI3ZDBlYTY5Zi03YWFmLTQyMTctYmFmNS04MDgxOWJlMDZiMWIiLCJiaVRva2VuIjoiN2M5YWZhNmMtZjc2NS0wNTY1LTIyZTQtNjRmMjhjMDY3ODA0Iiwic2l0ZU93bmVySWQiOiI4NGM4ZDM0Yi1mOWYyLTQyM2EtODFjYi04M2Y3YTI5ZTYzZGUifQ",
		xsrf:     "1729892982|vi-2-zPY5Kwr",
		exclude:  "Canvas Tent Barrack",
		opens:    day(2025, time.May, 16),
		sessions: factoryOrDefault(f),
	}
}

func (w *WixHotels) Name() string { return "wix-hotels" }

func (w *WixHotels) Classes() []Class { return []Class{ClassTent} }

func (w *WixHotels) BookingURL() string { return wixHotelsBase + "/index.html/rooms/" }

type wixSearchRequest struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
	Adults   string `json:"adults"`
}

type wixRoom struct {
	Room struct {
		Name string `json:"name"`
	} `json:"room"`
	Offer struct {
		PerNight json.RawMessage `json:"perNight"`
	} `json:"offer"`
}

func (w *WixHotels) FetchAvailability(ctx context.Context, q Query) Outcome {
	if err := seasonOpen(q, w.opens); err != nil {
		return failure(w.Classes(), err)
	}
	s := w.sessions.Session("wix-hotels", httpx.SessionOptions{
		Headers: map[string]string{
			"Accept":                 "application/json, text/plain, */*",
			"Origin":                 wixHotelsBase,
			"Referer":                w.BookingURL(),
			"x-wix-hotels-user-lang": "en",
			"x-wix-instance":         w.instance,
			"x-xsrf-token":           w.xsrf,
		},
	})
	res, err := s.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json;charset=UTF-8").
		SetBody(wixSearchRequest{
			CheckIn:  strconv.FormatInt(q.Start.UnixMilli(), 10),
			CheckOut: strconv.FormatInt(q.End.UnixMilli(), 10),
			Adults:   strconv.Itoa(q.PartySize()),
		}).
		Post(wixHotelsBase + "/api/rooms/search")
	if err := expectOK("Failed to retrieve data", res, err); err != nil {
		return failure(w.Classes(), err)
	}
	b, err := body(res)
	if err != nil {
		return failure(w.Classes(), err)
	}
	var rooms []wixRoom
	if err := json.Unmarshal(b, &rooms); err != nil {
		return failure(w.Classes(), &ParseError{What: "Invalid JSON response from API", Err: err})
	}

	// rooms come back in the site's display order; the first eligible one is quoted
	var items []Item
	for _, room := range rooms {
		price, ok := jsonPrice(room.Offer.PerNight)
		if !ok {
			continue
		}
		items = append(items, Item{Name: room.Room.Name, Price: price})
	}
	return MultiOutcome(Split(items, []ClassRule{{
		Class:  ClassTent,
		Match:  func(name string) bool { return !strings.Contains(name, w.exclude) },
		Select: First,
		Empty:  "No tent options available.",
	}}))
}
