// Package normalize maps one portal's loosely-typed record into the
// canonical Listing. Surviving schema drift is the whole job: every
// canonical attribute probes an ordered list of field-name synonyms
// (Spanish and English spellings, since the portals mix vocabularies) and
// takes the first non-empty hit. New portals are integrated by extending
// the synonym tables, not by adding code paths.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"habita-engine/internal/domain"
	"habita-engine/internal/scrape/extract"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 300

	defaultTitle        = "Propiedad"
	defaultNeighborhood = "N/A"
)

// Synonym tables, ordered by how often the spelling shows up across the
// supported portals. Tuned empirically; extend rather than reorder.
var (
	priceKeys        = []string{"salePrice", "rentPrice", "precio", "price", "canonicalPrice", "valor"}
	areaKeys         = []string{"area", "areaConstruida", "builtArea", "areaTotal", "metrosCuadrados", "m2"}
	linkKeys         = []string{"link", "url", "href"}
	titleKeys        = []string{"titulo", "title", "nombre", "propertyType"}
	neighborhoodKeys = []string{"barrio", "neighborhood", "sector", "location", "localidad"}
	cityKeys         = []string{"ciudad", "city"}
	bedroomKeys      = []string{"habitaciones", "bedrooms", "alcobas", "rooms"}
	bathroomKeys     = []string{"banos", "bathrooms"}
	parkingKeys      = []string{"garajes", "garages", "parqueaderos", "parking"}
	stratumKeys      = []string{"estrato", "stratum"}
	descriptionKeys  = []string{"descripcion", "description", "comment"}
	ageKeys          = []string{"antiguedad", "builtTime"}
	imageKeys        = []string{"image", "imagen", "img", "picture", "photo"}
)

// Normalize is a pure function: the same record always yields the same
// Listing. Individual field failures degrade to absent values, never to
// an error.
func Normalize(source string, rec extract.Record, fallbackCity, baseURL string) domain.Listing {
	price := resolvePrice(rec)
	area := resolveArea(rec)

	l := domain.Listing{
		Source:         source,
		Title:          truncate(probeString(rec, titleKeys, defaultTitle), maxTitleLen),
		Neighborhood:   probeString(rec, neighborhoodKeys, defaultNeighborhood),
		City:           probeString(rec, cityKeys, fallbackCity),
		Price:          price,
		PriceFormatted: FormatPrice(price),
		Area:           area,
		Bedrooms:       probeRaw(rec, bedroomKeys),
		Bathrooms:      probeRaw(rec, bathroomKeys),
		Parking:        probeRaw(rec, parkingKeys),
		Stratum:        probeRaw(rec, stratumKeys),
		Age:            probeRaw(rec, ageKeys),
		Description:    truncate(probeString(rec, descriptionKeys, ""), maxDescriptionLen),
		URL:            resolveLink(rec, baseURL),
		Image:          probeString(rec, imageKeys, ""),
	}

	if price != nil && area != nil && *area > 0 {
		ppa := int64(math.Round(float64(*price) / *area))
		l.PricePerArea = &ppa
	}
	return l
}

func resolvePrice(rec extract.Record) *int64 {
	for _, k := range priceKeys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch x := v.(type) {
		case float64:
			if x > 0 {
				n := int64(math.Round(x))
				return &n
			}
		default:
			if p := ParsePrice(stringify(v)); p != nil {
				return p
			}
		}
	}
	return nil
}

func resolveArea(rec extract.Record) *float64 {
	for _, k := range areaKeys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch x := v.(type) {
		case float64:
			if x > 0 {
				f := x
				return &f
			}
		default:
			if a := ParseArea(stringify(v)); a != nil {
				return a
			}
		}
	}
	return nil
}

// ParsePrice strips everything but digits and parses the remainder.
// Handles Colombian thousands-separator strings ("$ 350.000.000").
// Zero or empty resolves to absent.
func ParsePrice(s string) *int64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

var numberRe = regexp.MustCompile(`[0-9][0-9.,]*`)

// ParseArea pulls the first numeric-looking substring out of things like
// "85,5 m² construidos". Colombian portals use "." for thousands and ","
// for decimals, but not consistently; a lone dot followed by three digits
// is treated as a thousands separator.
func ParseArea(s string) *float64 {
	m := numberRe.FindString(s)
	if m == "" {
		return nil
	}
	m = strings.TrimRight(m, ".,")

	switch {
	case strings.Contains(m, ".") && strings.Contains(m, ","):
		m = strings.ReplaceAll(m, ".", "")
		m = strings.ReplaceAll(m, ",", ".")
	case dotIsThousands(m):
		m = strings.ReplaceAll(m, ".", "")
	default:
		m = strings.ReplaceAll(m, ",", ".")
	}

	f, err := strconv.ParseFloat(m, 64)
	if err != nil || f <= 0 {
		return nil
	}
	return &f
}

func dotIsThousands(s string) bool {
	i := strings.LastIndex(s, ".")
	if i < 0 {
		return false
	}
	return len(s)-i-1 == 3
}

// FormatPrice renders a price for display: "$345,000,000" or "N/A".
func FormatPrice(p *int64) string {
	if p == nil || *p <= 0 {
		return "N/A"
	}
	digits := strconv.FormatInt(*p, 10)
	var b strings.Builder
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func resolveLink(rec extract.Record, baseURL string) string {
	link := probeString(rec, linkKeys, "")
	if link == "" {
		return baseURL
	}
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return strings.TrimRight(baseURL, "/") + link
}

// probeString returns the first non-empty scalar among the synonyms,
// rendered as a string.
func probeString(rec extract.Record, keys []string, fallback string) string {
	for _, k := range keys {
		if s := stringify(rec[k]); strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return fallback
}

// probeRaw returns the first present value untouched; nil when all miss.
func probeRaw(rec extract.Record, keys []string) any {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		// maps/arrays are never a usable scalar
		return ""
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
