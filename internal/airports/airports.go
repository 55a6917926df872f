package airports

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pmcosta/dealfinder/internal/airports/data"
)

// flagOffset maps an ASCII uppercase letter to its Unicode regional
// indicator symbol ('A' + 127397 = U+1F1E6).
const flagOffset = 127397

const globeFlag = "\U0001F30D"

type Airport struct {
	IATA        string `json:"iata"`
	City        string `json:"city"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	Continent   string `json:"continent"`
	AirportName string `json:"airport_name,omitempty"`
}

// FlagEmoji derives the country flag from the two-letter country code.
// Missing or malformed codes fall back to a globe glyph.
func (a Airport) FlagEmoji() string {
	cc := strings.ToUpper(a.CountryCode)
	if len(cc) != 2 {
		return globeFlag
	}
	r0, r1 := rune(cc[0]), rune(cc[1])
	if r0 < 'A' || r0 > 'Z' || r1 < 'A' || r1 > 'Z' {
		return globeFlag
	}
	return string(r0+flagOffset) + string(r1+flagOffset)
}

// DisplayName formats an airport for dropdowns: "🇵🇹 LIS (Lisbon)".
func (a Airport) DisplayName() string {
	return a.FlagEmoji() + " " + a.IATA + " (" + a.City + ")"
}

// Directory is the read-only airport dataset, loaded once at startup and
// shared by everything that needs lookups.
type Directory struct {
	airports []Airport
	byIATA   map[string]Airport
}

func Load() (*Directory, error) {
	return LoadBytes(data.Airports)
}

func LoadBytes(raw []byte) (*Directory, error) {
	var airports []Airport
	if err := json.Unmarshal(raw, &airports); err != nil {
		return nil, err
	}

	d := &Directory{
		airports: airports,
		byIATA:   make(map[string]Airport, len(airports)),
	}
	for _, a := range airports {
		d.byIATA[a.IATA] = a
	}
	return d, nil
}

func (d *Directory) Airport(iata string) (Airport, bool) {
	a, ok := d.byIATA[strings.ToUpper(iata)]
	return a, ok
}

func (d *Directory) ByContinent(continent string) []Airport {
	var result []Airport
	for _, a := range d.airports {
		if a.Continent == continent {
			result = append(result, a)
		}
	}
	return result
}

func (d *Directory) ByCountry(country string) []Airport {
	var result []Airport
	for _, a := range d.airports {
		if a.Country == country {
			result = append(result, a)
		}
	}
	return result
}

func (d *Directory) All() []Airport {
	result := make([]Airport, len(d.airports))
	copy(result, d.airports)
	return result
}

// Countries returns the unique country names, sorted.
func (d *Directory) Countries() []string {
	seen := make(map[string]bool)
	var result []string
	for _, a := range d.airports {
		if !seen[a.Country] {
			seen[a.Country] = true
			result = append(result, a.Country)
		}
	}
	sort.Strings(result)
	return result
}

// Continents returns the unique continent names, sorted.
func (d *Directory) Continents() []string {
	seen := make(map[string]bool)
	var result []string
	for _, a := range d.airports {
		if !seen[a.Continent] {
			seen[a.Continent] = true
			result = append(result, a.Continent)
		}
	}
	sort.Strings(result)
	return result
}
