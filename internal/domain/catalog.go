package domain

import "strings"

// Category is a top-level event classification with its subcategories.
type Category struct {
	ID            string        `json:"id"`
	Label         string        `json:"label"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Subcategory refines a Category.
type Subcategory struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// CategoryStrange is the fallback for classifications outside the catalogue.
const CategoryStrange = "strange"

// Categories is the category catalogue.
var Categories = []Category{
	{ID: "crime", Label: "Crime", Subcategories: []Subcategory{
		{"fights", "Fights"}, {"robbery", "Robbery"}, {"altercations", "Altercations"},
		{"brawls", "Brawls"}, {"pickpockets", "Pickpockets"}, {"shoplifting", "Shoplifting"},
		{"antisocial", "Antisocial Behavior"}, {"arson", "Arson"},
	}},
	{ID: "transport", Label: "Transport", Subcategories: []Subcategory{
		{"road_collision", "Road Collision"}, {"bus_altercations", "Bus Altercations"},
		{"bus", "Bus"}, {"railways", "Railways/Train"}, {"tram", "Tram"},
		{"underground", "London Underground"}, {"cyclist", "Cyclist"},
		{"bus_fire", "Bus Fire"}, {"vehicle_fire", "Vehicle Fire"},
	}},
	{ID: "fire", Label: "Fire", Subcategories: []Subcategory{
		{"building_fire", "Building Fire"}, {"vehicle_fire", "Vehicle Fire"},
		{"wildfire", "Wildfire"}, {"arson", "Arson"}, {"explosion", "Explosion"},
	}},
	{ID: "emergency", Label: "Emergency", Subcategories: []Subcategory{
		{"medical", "Medical Emergency"}, {"evacuation", "Evacuation"},
		{"rescue", "Rescue Operation"}, {"hazmat", "Hazmat Incident"},
	}},
	{ID: "weather", Label: "Weather", Subcategories: []Subcategory{
		{"thunderstorms", "Thunderstorms"}, {"flooding", "Flooding"},
		{"extreme_weather", "Extreme Weather"}, {"ice_snow", "Ice/Snow"},
		{"fog", "Fog/Visibility Issues"}, {"heatwave", "Heatwave"}, {"wind", "High Winds"},
	}},
	{ID: "social_media", Label: "Social Media", Subcategories: []Subcategory{
		{"influencer", "Influencer Content"}, {"viral", "Viral Video"}, {"prank", "Prank"},
		{"challenge", "Challenge"}, {"attention_seeking", "Attention Seeking"},
	}},
	{ID: "public_event", Label: "Public Event", Subcategories: []Subcategory{
		{"protest", "Protest"}, {"demonstration", "Demonstration"}, {"gathering", "Gathering"},
		{"concert", "Concert"}, {"flashmob", "Flashmob"}, {"parade", "Parade"},
		{"festival", "Festival"},
	}},
	{ID: "celebrity", Label: "Celebrity", Subcategories: []Subcategory{
		{"spotted", "Celebrity Spotted"}, {"public_figure", "Public Figure"},
		{"viral_sighting", "Viral Sighting"}, {"meet_greet", "Meet & Greet"},
	}},
	{ID: CategoryStrange, Label: "Strange", Subcategories: []Subcategory{
		{"bizarre", "Bizarre"}, {"weird", "Weird"}, {"unexplained", "Unexplained"},
		{"myths_legends", "Myths & Legends"}, {"unknown", "Unknown"}, {"unusual", "Unusual"},
	}},
	{ID: "construction", Label: "Construction", Subcategories: []Subcategory{
		{"demolition", "Demolition"}, {"building", "Building Work"}, {"roadworks", "Roadworks"},
		{"accident", "Construction Accident"}, {"crane", "Crane Operation"},
	}},
	{ID: "accident", Label: "Accident", Subcategories: []Subcategory{
		{"injury", "Injury"}, {"property_damage", "Property Damage"}, {"slip_fall", "Slip/Fall"},
		{"workplace", "Workplace Accident"}, {"public_space", "Public Space"},
	}},
}

// Boroughs lists the 32 London boroughs and the City of London.
var Boroughs = []string{
	"Barking and Dagenham", "Barnet", "Bexley", "Brent", "Bromley", "Camden",
	"City of London", "Croydon", "Ealing", "Enfield", "Greenwich", "Hackney",
	"Hammersmith and Fulham", "Haringey", "Harrow", "Havering", "Hillingdon",
	"Hounslow", "Islington", "Kensington and Chelsea", "Kingston upon Thames",
	"Lambeth", "Lewisham", "Merton", "Newham", "Redbridge", "Richmond upon Thames",
	"Southwark", "Sutton", "Tower Hamlets", "Waltham Forest", "Wandsworth",
	"Westminster",
}

var (
	categoryIndex = func() map[string]*Category {
		m := make(map[string]*Category, len(Categories))
		for i := range Categories {
			m[Categories[i].ID] = &Categories[i]
		}
		return m
	}()
	boroughIndex = func() map[string]string {
		m := make(map[string]string, len(Boroughs))
		for _, b := range Boroughs {
			m[strings.ToLower(b)] = b
		}
		return m
	}()
)

// IsCategory reports whether id names a catalogue category.
func IsCategory(id string) bool {
	_, ok := categoryIndex[id]
	return ok
}

// NormalizeCategory maps free text onto a catalogue category id, falling back
// to CategoryStrange.
func NormalizeCategory(s string) string {
	id := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	if IsCategory(id) {
		return id
	}
	return CategoryStrange
}

// NormalizeSubcategories keeps the entries that belong to category.
func NormalizeSubcategories(category string, subs []string) []string {
	c, ok := categoryIndex[category]
	if !ok {
		return nil
	}
	var out []string
	for _, s := range subs {
		id := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
		for _, known := range c.Subcategories {
			if known.ID == id {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// IsBorough reports whether name is an exact catalogue borough.
func IsBorough(name string) bool {
	canonical, ok := boroughIndex[strings.ToLower(name)]
	return ok && canonical == name
}

// CanonicalBorough returns the catalogue spelling of name, matched
// case-insensitively.
func CanonicalBorough(name string) (string, bool) {
	canonical, ok := boroughIndex[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}
