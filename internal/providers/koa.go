package providers

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/brensch/campcheck/internal/httpx"
)

// KOA scrapes a koa.com campground reservation form. The venue throttles
// aggressively, so every attempt rotates the user agent, fetches a fresh
// anti-forgery token and backs off between attempts.
type KOA struct {
	slug     string
	base     string
	sessions *httpx.Factory
	retry    RetryPolicy
}

const koaBase = "https://koa.com"

// NewKOA builds the adapter for the campground at koa.com/campgrounds/<slug>/.
func NewKOA(slug string, f *httpx.Factory) *KOA {
	return &KOA{slug: slug, base: koaBase, sessions: factoryOrDefault(f), retry: DefaultRetryPolicy()}
}

// WithRetry replaces the retry policy.
func (k *KOA) WithRetry(p RetryPolicy) *KOA {
	k.retry = p
	return k
}

func (k *KOA) Name() string { return "koa" }

func (k *KOA) Classes() []Class { return []Class{ClassRV, ClassTent, ClassLodging} }

func (k *KOA) BookingURL() string { return k.pageURL() }

func (k *KOA) pageURL() string {
	return fmt.Sprintf("%s/campgrounds/%s/", k.base, k.slug)
}

var koaRules = []ClassRule{
	{Class: ClassRV, Match: Contains("rv", "full hook", "pull-thru", "hook-up"), Select: Cheapest, Empty: "No RV sites available."},
	{Class: ClassTent, Match: Contains("tent", "primitive"), Select: Cheapest, Empty: "No tent sites available."},
	{Class: ClassLodging, Match: Contains("cabin", "lodge", "cottage"), Select: Cheapest, Empty: "No lodging available."},
}

func (k *KOA) FetchAvailability(ctx context.Context, q Query) Outcome {
	out, err := k.retry.Do(ctx, "koa/"+k.slug, func(ctx context.Context, attempt int) (Outcome, error) {
		return k.attempt(ctx, q)
	})
	if err != nil {
		return failure(k.Classes(), err)
	}
	return out
}

func (k *KOA) attempt(ctx context.Context, q Query) (Outcome, error) {
	c := k.sessions.Session("koa", httpx.SessionOptions{
		Timeout:   10 * time.Second,
		UserAgent: httpx.RandomUserAgent(),
		Headers: map[string]string{
			"Referer":         k.pageURL(),
			"Origin":          k.base,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.5",
		},
	})

	res, err := c.R().SetContext(ctx).Get(k.pageURL())
	if err := expectOK("Failed to load reservation page", res, err); err != nil {
		return Outcome{}, err
	}
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return Outcome{}, &ParseError{What: "Failed to parse reservation page", Err: err}
	}
	token, ok := page.Find(`input[name="__RequestVerificationToken"]`).First().Attr("value")
	if !ok || token == "" {
		return Outcome{}, &ParseError{What: "Token not found in HTML"}
	}

	if err := k.retry.Pause(ctx, time.Second+500*time.Millisecond, 500*time.Millisecond); err != nil {
		return Outcome{}, err
	}

	// kids are folded into the adult count; the form prices by head count
	res, err = c.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"Reservation.SiteCategory":    "A",
			"Reservation.CheckInDate":     q.Start.Format("01/02/2006"),
			"Reservation.CheckOutDate":    q.End.Format("01/02/2006"),
			"Reservation.Adults":          strconv.Itoa(q.PartySize()),
			"Reservation.Kids":            "0",
			"Reservation.Free":            "0",
			"Reservation.Pets":            "No",
			"Reservation.EquipmentType":   "A",
			"Reservation.EquipmentLength": "0",
			"__RequestVerificationToken":  token,
		}).
		Post(k.pageURL() + "reserve/")
	if err := expectOK("Failed to submit reservation search", res, err); err != nil {
		return Outcome{}, err
	}
	if len(res.Body()) == 0 {
		return Outcome{}, &ParseError{What: "Empty reservation response"}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return Outcome{}, &ParseError{What: "Failed to parse reservation results", Err: err}
	}
	if strings.Contains(strings.ToLower(doc.Find("div.alert-danger").Text()), "rate limit") {
		return Outcome{}, ErrRateLimited
	}
	return MultiOutcome(Split(parseKOASiteTypes(doc), koaRules)), nil
}

// parseKOASiteTypes reads every site type row that carries a nightly quote.
// Rows without a title or with an unreadable price are skipped.
func parseKOASiteTypes(doc *goquery.Document) []Item {
	var items []Item
	doc.Find("div.reserve-sitetype-main-row").Each(func(_ int, row *goquery.Selection) {
		name := strings.TrimSpace(row.Find("h4.reserve-sitetype-title").First().Text())
		if name == "" {
			return
		}
		span := row.Find("div.reserve-quote-per-night strong span").First()
		if span.Length() == 0 {
			return
		}
		price, ok := parsePrice(span.Text())
		if !ok {
			return
		}
		items = append(items, Item{Name: name, Price: price})
	})
	return items
}
