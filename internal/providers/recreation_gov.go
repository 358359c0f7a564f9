package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/brensch/campcheck/internal/httpx"
)

const recGovBase = "https://www.recreation.gov"

// RecreationGov checks a recreation.gov facility site by site. A stay is
// bookable when at least one non-management site that fits the party is
// "Available" for every night.
type RecreationGov struct {
	facilityID   string
	facilityName string
	siteType     string
	rateKey      string
	fallback     float64
	sessions     *httpx.Factory
}

// NewAuTrainLake builds the adapter for Au Train Lake Campground, Hiawatha NF.
func NewAuTrainLake(f *httpx.Factory) *RecreationGov {
	return &RecreationGov{
		facilityID:   "233172",
		facilityName: "Au Train Lake Campground",
		siteType:     "Standard Nonelectric Site",
		rateKey:      "STANDARD NONELECTRIC",
		fallback:     24,
		sessions:     factoryOrDefault(f),
	}
}

func (r *RecreationGov) Name() string { return "recreation_gov" }

func (r *RecreationGov) Classes() []Class { return []Class{ClassTent, ClassRV} }

// BookingURL is the facility page.
func (r *RecreationGov) BookingURL() string {
	return recGovBase + "/camping/campgrounds/" + r.facilityID
}

// CampsiteURL links a single site.
func (r *RecreationGov) CampsiteURL(campsiteID string) string {
	if campsiteID == "" {
		return ""
	}
	return recGovBase + "/camping/campsites/" + campsiteID
}

type recGovCampsites struct {
	Campsites []struct {
		CampsiteID     string `json:"campsite_id"`
		CampsiteName   string `json:"campsite_name"`
		CampsiteType   string `json:"campsite_type"`
		SiteDetailsMap map[string]struct {
			AttributeValue json.RawMessage `json:"attribute_value"`
		} `json:"site_details_map"`
	} `json:"campsites"`
}

type recGovSiteAvailability struct {
	Availability struct {
		Availabilities map[string]string `json:"availabilities"`
	} `json:"availability"`
}

type recGovRates struct {
	RatesList []struct {
		SeasonStart string             `json:"season_start"`
		SeasonEnd   string             `json:"season_end"`
		PriceMap    map[string]float64 `json:"price_map"`
	} `json:"rates_list"`
}

type recGovSite struct {
	ID   string
	Name string
}

func (r *RecreationGov) FetchAvailability(ctx context.Context, q Query) Outcome {
	s := r.sessions.Session("recreation_gov", httpx.SessionOptions{
		Headers: map[string]string{
			"Accept":         "application/json, text/plain, */*",
			"sec-fetch-dest": "empty",
			"sec-fetch-mode": "cors",
			"sec-fetch-site": "same-origin",
		},
	})

	sites, err := r.eligibleSites(ctx, s, q.PartySize())
	if err != nil {
		return failure(r.Classes(), err)
	}
	if len(sites) == 0 {
		return failure(r.Classes(), &NoMatchError{Msg: "No suitable campsites found for your group size"})
	}

	var open []recGovSite
	for _, site := range sites {
		ok, err := r.siteOpen(ctx, s, site, q)
		if err != nil {
			// one unreadable site does not sink the facility
			slog.Warn("recreation.gov site availability failed", slog.String("site", site.ID), slog.Any("err", err))
			continue
		}
		if ok {
			open = append(open, site)
		}
	}
	if len(open) == 0 {
		return failure(r.Classes(), &NoMatchError{Msg: fmt.Sprintf("No available campsites at %s from %s to %s",
			r.facilityName, q.Start.Format("01/02/06"), q.End.Format("01/02/06"))})
	}

	price, err := r.nightlyRate(ctx, s, open[0], q.Start)
	if err != nil {
		slog.Warn("recreation.gov rates failed, using estimate", slog.String("facility", r.facilityID), slog.Any("err", err))
		return Uniform(r.Classes(), Available(r.fallback, fmt.Sprintf("%s (estimated) - %s", PerNight(r.fallback), r.siteType)))
	}
	return Uniform(r.Classes(), Available(price, PerNightNamed(price, r.siteType)))
}

func (r *RecreationGov) eligibleSites(ctx context.Context, s *resty.Client, party int) ([]recGovSite, error) {
	res, err := s.R().
		SetContext(ctx).
		SetHeader("Referer", r.BookingURL()).
		Get(fmt.Sprintf("%s/api/camps/campgrounds/%s/campsites", recGovBase, r.facilityID))
	if err := expectOK("Error fetching campsite data", res, err); err != nil {
		return nil, err
	}
	b, err := body(res)
	if err != nil {
		return nil, err
	}
	var parsed recGovCampsites
	if err := json.Unmarshal(b, &parsed); err != nil {
		slog.Error("campsites JSON decode failed", slog.Any("err", err), slog.String("body", clipBody(b)))
		return nil, &ParseError{What: "Error fetching campsite data", Err: err}
	}

	var out []recGovSite
	for _, c := range parsed.Campsites {
		if c.CampsiteType == "MANAGEMENT" {
			continue
		}
		min, max := 1, 8
		if v, ok := c.SiteDetailsMap["min_num_people"]; ok {
			if n, ok := attrInt(v.AttributeValue); ok {
				min = n
			}
		}
		if v, ok := c.SiteDetailsMap["max_num_people"]; ok {
			if n, ok := attrInt(v.AttributeValue); ok {
				max = n
			}
		}
		if party < min || party > max {
			continue
		}
		out = append(out, recGovSite{ID: c.CampsiteID, Name: c.CampsiteName})
	}
	return out, nil
}

// siteOpen reports whether every night of the stay is "Available" for the site.
func (r *RecreationGov) siteOpen(ctx context.Context, s *resty.Client, site recGovSite, q Query) (bool, error) {
	res, err := s.R().
		SetContext(ctx).
		SetHeader("Referer", r.CampsiteURL(site.ID)).
		Get(fmt.Sprintf("%s/api/camps/availability/campsite/%s/all", recGovBase, site.ID))
	if err := expectOK("availability GET failed", res, err); err != nil {
		return false, err
	}
	b, err := body(res)
	if err != nil {
		return false, err
	}
	var parsed recGovSiteAvailability
	if err := json.Unmarshal(b, &parsed); err != nil {
		return false, &ParseError{What: "availability JSON decode failed", Err: err}
	}
	for _, night := range q.NightDates() {
		// Recreation.gov keys nights as midnight Zulu.
		if parsed.Availability.Availabilities[night.Format("2006-01-02T00:00:00Z")] != "Available" {
			return false, nil
		}
	}
	return true, nil
}

// nightlyRate finds the configured site type in the season covering start, or
// the fallback when no season lists it.
func (r *RecreationGov) nightlyRate(ctx context.Context, s *resty.Client, site recGovSite, start time.Time) (float64, error) {
	res, err := s.R().
		SetContext(ctx).
		SetHeader("Referer", r.CampsiteURL(site.ID)).
		Get(fmt.Sprintf("%s/api/camps/campgrounds/%s/rates", recGovBase, r.facilityID))
	if err := expectOK("rates GET failed", res, err); err != nil {
		return 0, err
	}
	b, err := body(res)
	if err != nil {
		return 0, err
	}
	var parsed recGovRates
	if err := json.Unmarshal(b, &parsed); err != nil {
		return 0, &ParseError{What: "rates JSON decode failed", Err: err}
	}
	price := r.fallback
	for _, rate := range parsed.RatesList {
		from, err1 := time.Parse(time.RFC3339, rate.SeasonStart)
		to, err2 := time.Parse(time.RFC3339, rate.SeasonEnd)
		if err1 != nil || err2 != nil {
			continue
		}
		if start.Before(from) || start.After(to) {
			continue
		}
		for siteType, p := range rate.PriceMap {
			if strings.Contains(siteType, r.rateKey) {
				price = p
				break
			}
		}
	}
	return price, nil
}

func attrInt(raw json.RawMessage) (int, bool) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		return n, err == nil
	}
	return 0, false
}
