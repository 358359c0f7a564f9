// Package catalog holds the static cities, campgrounds and trip itineraries
// served by the API.
package catalog

// City is a stop a trip can visit.
type City struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Region      string `json:"region"`
}

// Campground is a bookable venue within a city. Price is the typical nightly
// rate shown before availability is checked.
type Campground struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Price           float64    `json:"price"`
	Coordinates     [2]float64 `json:"coordinates"`
	ScraperFunction string     `json:"scraperFunction"`
}

var cities = []City{
	{
		ID:          "traverse-city",
		Name:        "Traverse City",
		Description: "A charming city in Northern Michigan, known for its beautiful beaches, wineries, and outdoor activities.",
		Region:      "Northern Michigan",
	},
	{
		ID:          "pictured-rocks",
		Name:        "Pictured Rocks",
		Description: "Famous for its colorful sandstone cliffs, beaches, and waterfalls along Lake Superior.",
		Region:      "Upper Peninsula",
	},
	{
		ID:          "mackinac-city",
		Name:        "Mackinac City",
		Description: "Gateway to Mackinac Island, offering stunning views of the Mackinac Bridge and historic sites.",
		Region:      "Northern Michigan",
	},
}

var campgrounds = map[string][]Campground{
	"traverse-city": {
		{"traverse-city-state-park", "Traverse City State Park", "Located on the east arm of Grand Traverse Bay, this park offers a beautiful beach and is close to the city.", 35, [2]float64{44.7631, -85.5789}, "scrape_traverseCityStatePark"},
		{"traverse-city-koa", "Traverse City KOA", "Family-friendly campground with amenities including a pool, mini-golf, and more.", 45, [2]float64{44.7215, -85.6382}, "scrape_traverseCityKoa"},
		{"uncle-duckys-paddlers-village", "Uncle Ducky's Paddlers Village", "Riverside camping with easy access to paddle sports and outdoor adventures.", 40, [2]float64{44.7398, -85.6208}, "scrape_uncleDuckysPaddlersVillage"},
		{"anchor-inn", "Anchor Inn", "Comfortable lodging near the water with various accommodation options.", 55, [2]float64{44.7456, -85.6102}, "scrape_anchorInn"},
		{"leelanau-pines", "Leelanau Pines", "Lakefront camping on Lake Leelanau with beautiful views and water activities.", 42, [2]float64{44.8890, -85.7213}, "scrape_leelanauPines"},
		{"timber-ridge", "Timber Ridge", "Wooded campground with various recreational activities and hiking trails.", 38, [2]float64{44.7299, -85.6891}, "scrape_timberRidge"},
	},
	"mackinac-city": {
		{"st-ignace-koa", "St. Ignace KOA", "Family-friendly KOA campground with views of the Straits of Mackinac.", 45, [2]float64{45.8852, -84.7289}, "scrape_stIgnaceKoa"},
		{"indian-river", "Indian River RV Resort", "Resort-style camping with river access and modern amenities.", 42, [2]float64{45.4156, -84.6123}, "scrape_indianRiver"},
		{"straits-state-park", "Straits State Park", "Scenic campground with stunning views of the Mackinac Bridge.", 32, [2]float64{45.8512, -84.7234}, "scrape_straitsStatePark"},
		{"cabins-of-mackinaw", "Cabins of Mackinaw", "Cozy cabins offering a rustic yet comfortable lodging experience near Mackinac Island.", 75, [2]float64{45.7821, -84.7257}, "scrape_cabinsOfMackinaw"},
		{"teepee-campground", "TeePee Campground", "Unique campground with teepee-style accommodations and views of the Mackinac Bridge.", 38, [2]float64{45.7834, -84.7301}, "scrape_teePeeCampground"},
	},
	"pictured-rocks": {
		{"munising-koa", "Munising KOA", "Located near Pictured Rocks, this KOA offers convenient access to all area attractions.", 38, [2]float64{46.4156, -86.6212}, "scrape_munisingKoa"},
		{"tourist-park", "Tourist Park Campground", "Municipal campground with beach access and proximity to Pictured Rocks.", 30, [2]float64{46.5789, -87.3912}, "scrape_touristPark"},
		{"uncle-duckys-au-train", "Uncle Ducky's - Au Train", "Adventure-focused campground with direct access to kayaking and outdoor activities.", 35, [2]float64{46.4323, -86.8456}, "scrape_uncleDuckysAuTrain"},
		{"fort-superior", "Fort Superior Campground", "Historic site camping with panoramic views of Lake Superior.", 32, [2]float64{46.5123, -86.4789}, "scrape_fortSuperior"},
		{"au-train-lake", "Au Train Lake Campground", "Peaceful lakeside camping with opportunities for fishing and water activities.", 24, [2]float64{46.4356, -86.8123}, "scrape_auTrainLakeCampground"},
	},
}

// Cities returns every city in display order.
func Cities() []City {
	return append([]City(nil), cities...)
}

// Campgrounds returns the campgrounds of a city. Unknown cities have none.
func Campgrounds(cityID string) []Campground {
	return append([]Campground{}, campgrounds[cityID]...)
}

// CampgroundByID finds a campground and the city it belongs to.
func CampgroundByID(id string) (Campground, string, bool) {
	for city, list := range campgrounds {
		for _, c := range list {
			if c.ID == id {
				return c, city, true
			}
		}
	}
	return Campground{}, "", false
}

// CampgroundIDs lists every catalogued campground id in city order.
func CampgroundIDs() []string {
	var out []string
	for _, city := range cities {
		for _, c := range campgrounds[city.ID] {
			out = append(out, c.ID)
		}
	}
	return out
}
