package domain

import (
	"strconv"
	"strings"
)

// Portal names accepted in Criteria.Sources.
const (
	SourceMetrocuadrado = "metrocuadrado"
	SourceFincaraiz     = "fincaraiz"
	SourceCiencuadras   = "ciencuadras"
)

// Criteria is a buyer's search request. It is immutable once a search
// begins; alerts persist it as JSON and replay it on each run.
type Criteria struct {
	City         string   `json:"city"`
	PropertyType string   `json:"property_type"`
	Transaction  string   `json:"transaction"` // venta | arriendo
	PriceMin     int64    `json:"price_min"`
	PriceMax     int64    `json:"price_max"` // 0 = unbounded
	AreaMin      float64  `json:"area_min"`
	AreaMax      float64  `json:"area_max"` // 0 = unbounded
	BedroomsMin  int      `json:"bedrooms_min"`
	BathroomsMin int      `json:"bathrooms_min"`
	StratumMin   int      `json:"stratum_min"`
	StratumMax   int      `json:"stratum_max"`
	Parking      bool     `json:"parking"`
	Sources      []string `json:"sources"`
	MaxResults   int      `json:"max_results"`
}

// Normalize fills the defaults a bare request is allowed to omit.
func (c *Criteria) Normalize() {
	c.City = strings.ToLower(strings.TrimSpace(c.City))
	if c.City == "" {
		c.City = "bogota"
	}
	c.PropertyType = strings.ToLower(strings.TrimSpace(c.PropertyType))
	if c.PropertyType == "" {
		c.PropertyType = "apartamento"
	}
	c.Transaction = strings.ToLower(strings.TrimSpace(c.Transaction))
	if c.Transaction != "arriendo" {
		c.Transaction = "venta"
	}
	if len(c.Sources) == 0 {
		c.Sources = []string{SourceMetrocuadrado, SourceFincaraiz, SourceCiencuadras}
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 30
	}
}

// WantsSource reports whether the portal name is in the selected set.
// An empty set means "all".
func (c Criteria) WantsSource(name string) bool {
	if len(c.Sources) == 0 {
		return true
	}
	for _, s := range c.Sources {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return true
		}
	}
	return false
}

// CoerceInt turns the mixed representations portals use for counts
// (3, 3.0, "3", "3 alcobas") into an int. The second return is false when
// the value is absent or not numeric-like; callers must treat that as
// "unknown", never as a reason to reject.
func CoerceInt(v any) (int, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), true
		}
		// leading digits of things like "3 alcobas" or "2+"
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i > 0 {
			n, _ := strconv.Atoi(s[:i])
			return n, true
		}
		return 0, false
	default:
		return 0, false
	}
}
