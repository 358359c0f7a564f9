package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mackinawGrid = `<html><body>
<table class="data"><tbody><tr><td>header</td></tr></tbody></table>
<table class="data"><tbody>
<tr><td><a>Private Chalet - 1 Room Queen Bed</a></td><td><span>$89.00</span></td></tr>
<tr><td><a>Private Chalet - 1 Room 2 Queen Beds</a></td><td><span>Not Available</span></td></tr>
<tr><td><a>Private Chalet - 2 Rooms, 2 Queen Beds and 2 TVs</a></td><td><span>$129.00</span></td></tr>
<tr><td><a>Private Chalet - 3 Rooms, 2 Queen beds, Sofabed in Living Area, 2 TVs</a></td><td><span>$179.00</span></td></tr>
</tbody></table>
</body></html>`

func mackinawServer(t *testing.T, setCookie bool) (*MackinawCity, func() int32) {
	f, hits := venueServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("submit_x") == "" {
			if setCookie {
				http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc", Path: "/"})
			}
			fmt.Fprint(w, "<html></html>")
			return
		}
		if _, err := r.Cookie("PHPSESSID"); err != nil {
			fmt.Fprint(w, "<html></html>")
			return
		}
		assert.Equal(t, "07-01-2030", r.URL.Query().Get("selectdate"))
		assert.Equal(t, "2", r.URL.Query().Get("dayspan"))
		fmt.Fprint(w, mackinawGrid)
	})
	return NewCabinsOfMackinaw(f), hits.Load
}

func TestMackinawTiers(t *testing.T) {
	tests := []struct {
		adults int
		want   string
	}{
		{2, "$89.00 per night - Private Chalet - 1 Room Queen Bed"},
		// the first 2-queen unit is sold out so the second one is quoted
		{4, "$129.00 per night - Private Chalet - 2 Rooms, 2 Queen Beds and 2 TVs"},
		{5, "$179.00 per night - Private Chalet - 3 Rooms, 2 Queen beds, Sofabed in Living Area, 2 TVs"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.adults), func(t *testing.T) {
			m, _ := mackinawServer(t, true)
			out := m.FetchAvailability(t.Context(), mustQuery(t, "07/01/30", "07/03/30", tt.adults, 0))
			require.NotNil(t, out.Single)
			assert.True(t, out.Single.Available)
			assert.Equal(t, tt.want, out.Single.Message)
		})
	}
}

func TestMackinawPartyTooLargeMakesNoCalls(t *testing.T) {
	m, hits := mackinawServer(t, true)
	out := m.FetchAvailability(t.Context(), mustQuery(t, "07/01/30", "07/03/30", 5, 2))
	require.NotNil(t, out.Single)
	assert.False(t, out.Single.Available)
	assert.Equal(t, "No cabin fits a group of 7", out.Single.Message)
	assert.Zero(t, hits())
}

func TestMackinawNeedsSessionCookie(t *testing.T) {
	m, hits := mackinawServer(t, false)
	out := m.FetchAvailability(t.Context(), mustQuery(t, "07/01/30", "07/03/30", 2, 0))
	assert.False(t, out.Single.Available)
	assert.Equal(t, "Reservation session cookie not issued", out.Single.Message)
	assert.Equal(t, int32(1), hits())
}

func TestAnchorInnPriority(t *testing.T) {
	f, _ := venueServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/hotels/3399/availabilities/v2", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("number_of_adults"))
		fmt.Fprint(w, `[
			{"unit":{"name":"Lake House"},"validRateTypeAvailabilities":[{"averagePricePerDay":99}]},
			{"unit":{"name":"King Room"},"validRateTypeAvailabilities":[{"averagePricePerDay":"189.50"}]},
			{"unit":{"name":"Single Queen Room"},"validRateTypeAvailabilities":[]},
			{"unit":{"name":"Penthouse"},"validRateTypeAvailabilities":[{"averagePricePerDay":50}]}
		]`)
	})
	p := NewAnchorInn(f)
	out := p.FetchAvailability(t.Context(), mustQuery(t, "07/01/30", "07/03/30", 2, 1))
	assertClasses(t, p, out)
	assertResultInvariant(t, out)
	// preference order wins over the cheaper Lake House
	assert.Equal(t, "$189.50 per night - King Room", out.Classes[ClassLodging].Message)
}

func TestAnchorInnNothingListed(t *testing.T) {
	f, _ := venueServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"unit":{"name":"Penthouse"},"validRateTypeAvailabilities":[{"averagePricePerDay":50}]}]`)
	})
	out := NewAnchorInn(f).FetchAvailability(t.Context(), mustQuery(t, "07/01/30", "07/03/30", 2, 0))
	assert.Equal(t, Unavailable("Not available for selected dates"), out.Classes[ClassLodging])
}

func newbookChart(button bool, price string) string {
	btn := ""
	if button {
		btn = `<button class="button" aria-label="Book now">Book</button>`
	}
	return `<div class="newbook_online_category_details">
		<h3><a href="#">Full Hookup 50 Amp</a></h3>
		<span class="newbook_online_from_price_text">` + price + `</span>` + btn + `
	</div>
	<div class="newbook_online_category_details"><h3><a>Tent</a></h3><span class="newbook_online_from_price_text">$10</span>` +
		`<button class="button" aria-label="Book now">Book</button></div>`
}

func TestTimberRidge(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Result
	}{
		{"first category bookable", newbookChart(true, "$65.00"), Available(65, "$65.00 per night - Full Hookup 50 Amp")},
		{"minimum stay", newbookChart(false, "$65.00"), Unavailable("Minimum stay requirement not met")},
		{"no price", newbookChart(true, "Call"), Unavailable("No options available.")},
		{"empty chart", `<div></div>`, Unavailable("No options available.")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := venueServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.NoError(t, r.ParseForm())
				assert.Equal(t, "availability_chart_responsive", r.PostForm.Get("newbook_api_action"))
				assert.Equal(t, "Jul 01 2030", r.PostForm.Get("available_from"))
				assert.Equal(t, "2", r.PostForm.Get("nights"))
				fmt.Fprint(w, tt.body)
			})
			out := NewTimberRidge(f).FetchAvailability(t.Context(), mustQuery(t, "07/01/30", "07/03/30", 2, 0))
			require.NotNil(t, out.Single)
			assert.Equal(t, tt.want, *out.Single)
		})
	}
}

func checkfrontItem(name, sleeps, price string) string {
	return `<div class="cf-item-data"><div class="cf-item-title-summary">
		<div class="cf-title"><h2>` + name + `</h2><div class="cf-price"><strong><span>` + price + `</span></strong></div></div>
		<div class="cf-item-summary"><p>` + sleeps + `</p></div>
	</div></div>`
}

func checkfrontJSON(t *testing.T, w http.ResponseWriter, html string) {
	t.Helper()
	assert.NoError(t, json.NewEncoder(w).Encode(checkfrontResponse{Inventory: html}))
}

func TestPaddlersVillage(t *testing.T) {
	f, _ := venueServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reserve/inventory/", r.URL.Path)
		switch r.URL.Query().Get("category_id") {
		case "2":
			checkfrontJSON(t, w, checkfrontItem("Small Yurt", "Sleeps 5", "$85.00")+checkfrontItem("Big Yurt", "Sleeps 8", "$120.00"))
		case "4":
			checkfrontJSON(t, w, `<p>Nothing available for the dates selected.</p>`)
		default:
			http.NotFound(w, r)
		}
	})
	p := NewPaddlersVillage(f)

	out := p.FetchAvailability(t.Context(), mustQuery(t, "07/01/30", "07/03/30", 2, 2))
	assertClasses(t, p, out)
	assertResultInvariant(t, out)
	assert.Equal(t, "$85.00 per night - Small Yurt", out.Classes[ClassYurt].Message)
	assert.Equal(t, "No platform tent options available.", out.Classes[ClassPlatformTent].Message)

	out = p.FetchAvailability(t.Context(), mustQuery(t, "07/01/30", "07/03/30", 4, 2))
	assert.Equal(t, "$120.00 per night - Big Yurt", out.Classes[ClassYurt].Message)
}

func TestPaddlersVillageCapacityTiers(t *testing.T) {
	f, hits := venueServer(t, func(w http.ResponseWriter, r *http.Request) {
		checkfrontJSON(t, w, checkfrontItem("Big Yurt", "Sleeps 8", "$120.00")+checkfrontItem("Small Yurt", "Sleeps 5", "$85.00"))
	})
	p := NewPaddlersVillage(f)

	tests := []struct {
		adults, kids int
		want         string
	}{
		{3, 2, "$85.00 per night - Small Yurt"},
		{6, 2, "$120.00 per night - Big Yurt"},
		{7, 2, "No suitable yurt found for your group size."},
		{10, 2, "No suitable yurt found for your group size."},
	}
	for _, tt := range tests {
		hits.Store(0)
		out := p.FetchAvailability(t.Context(), mustQuery(t, "07/01/30", "07/03/30", tt.adults, tt.kids))
		assertResultInvariant(t, out)
		assert.Equal(t, tt.want, out.Classes[ClassYurt].Message, "party of %d", tt.adults+tt.kids)
		if tt.adults+tt.kids > 8 {
			assert.False(t, out.AnyAvailable())
			assert.Equal(t, "No suitable platform tent found for your group size.", out.Classes[ClassPlatformTent].Message)
			assert.Zero(t, hits.Load(), "oversized party should not reach the venue")
		}
	}
}

func TestPaddlersVillageCategoryFailure(t *testing.T) {
	f, _ := venueServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("category_id") == "4" {
			http.Error(w, "nope", http.StatusBadGateway)
			return
		}
		checkfrontJSON(t, w, checkfrontItem("Big Yurt", "Sleeps 8", "$120.00"))
	})
	out := NewPaddlersVillage(f).FetchAvailability(t.Context(), mustQuery(t, "07/01/30", "07/03/30", 2, 0))
	assert.Equal(t, "No suitable yurt found for your group size.", out.Classes[ClassYurt].Message)
	assert.Equal(t, "Failed to retrieve platform tent data", out.Classes[ClassPlatformTent].Message)
}

func TestUncleDuckysAuTrain(t *testing.T) {
	f, _ := venueServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tabs", r.URL.Query().Get("options"))
		assert.Equal(t, "20300701", r.URL.Query().Get("cf-month"))
		checkfrontJSON(t, w, checkfrontItem("Rustic", "", "$40 - $60")+checkfrontItem("Premium", "", "$55.00")+checkfrontItem("Odd", "", "TBD"))
	})
	out := NewUncleDuckysAuTrain(f).FetchAvailability(t.Context(), mustQuery(t, "07/01/30", "07/03/30", 2, 0))
	require.NotNil(t, out.Single)
	assert.Equal(t, Available(50, "$50.00 per night"), *out.Single)
}

func TestUncleDuckysAuTrainEmptyInventory(t *testing.T) {
	f, _ := venueServer(t, func(w http.ResponseWriter, r *http.Request) { checkfrontJSON(t, w, "  ") })
	out := NewUncleDuckysAuTrain(f).FetchAvailability(t.Context(), mustQuery(t, "07/01/30", "07/03/30", 2, 0))
	assert.Equal(t, "No inventory data found.", out.Single.Message)
}

func TestFortSuperior(t *testing.T) {
	f, _ := venueServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rooms/search", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("x-wix-instance"))
		b, _ := io.ReadAll(r.Body)
		var req wixSearchRequest
		assert.NoError(t, json.Unmarshal(b, &req))
		assert.Equal(t, "3", req.Adults)
		fmt.Fprint(w, `[
			{"room":{"name":"Canvas Tent Barrack"},"offer":{"perNight":20}},
			{"room":{"name":"Sold Out Site"},"offer":{}},
			{"room":{"name":"Riverside Tent Site"},"offer":{"perNight":"$32.00"}},
			{"room":{"name":"Meadow Tent Site"},"offer":{"perNight":25}}
		]`)
	})
	p := NewFortSuperior(f)
	out := p.FetchAvailability(t.Context(), mustQuery(t, "07/01/30", "07/03/30", 2, 1))
	assertClasses(t, p, out)
	assert.Equal(t, "$32.00 per night - Riverside Tent Site", out.Classes[ClassTent].Message)
}

func TestFortSuperiorOnlyBarracks(t *testing.T) {
	f, _ := venueServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"room":{"name":"Canvas Tent Barrack"},"offer":{"perNight":20}}]`)
	})
	out := NewFortSuperior(f).FetchAvailability(t.Context(), mustQuery(t, "07/01/30", "07/03/30", 2, 0))
	assert.False(t, out.AnyAvailable())
	assert.True(t, strings.HasPrefix(out.Classes[ClassTent].Message, "No tent options"))
}
