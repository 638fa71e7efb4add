// Package filter applies buyer criteria to merged listings. Portal
// coverage is inconsistent, so the one hard rule is that missing data is
// never grounds for exclusion: a constraint only fires when the listing
// has a known value for that attribute. Price and area get a fractional
// tolerance band on top, because values near a boundary are usually
// source noise rather than real mismatches.
package filter

import (
	"math"
	"strings"

	"habita-engine/internal/domain"
)

// DefaultSlack is the fractional allowance beyond a stated min/max bound.
// Empirically tuned; override via config.
const DefaultSlack = 0.15

type Engine struct {
	Slack float64
}

func New(slack float64) Engine {
	if slack <= 0 {
		slack = DefaultSlack
	}
	return Engine{Slack: slack}
}

// Apply keeps insertion order; presentation ordering happens after
// ranking, not here.
func (e Engine) Apply(listings []domain.Listing, c domain.Criteria) []domain.Listing {
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if e.keep(l, c) {
			out = append(out, l)
		}
	}
	return out
}

func (e Engine) keep(l domain.Listing, c domain.Criteria) bool {
	if l.Price != nil {
		// integer bounds so the boundary itself is inclusive
		if c.PriceMin > 0 && *l.Price < bandLow(c.PriceMin, e.Slack) {
			return false
		}
		if c.PriceMax > 0 && *l.Price > bandHigh(c.PriceMax, e.Slack) {
			return false
		}
	}

	if l.Area != nil {
		const eps = 1e-9
		if c.AreaMin > 0 && *l.Area < c.AreaMin*(1-e.Slack)-eps {
			return false
		}
		if c.AreaMax > 0 && *l.Area > c.AreaMax*(1+e.Slack)+eps {
			return false
		}
	}

	// exact minimum, no band
	if c.BedroomsMin > 0 {
		if n, ok := domain.CoerceInt(l.Bedrooms); ok && n < c.BedroomsMin {
			return false
		}
	}

	// reject only an explicit "no parking"; ambiguity is unknown, not no
	if c.Parking && explicitNone(l.Parking) {
		return false
	}

	if n, ok := domain.CoerceInt(l.Stratum); ok {
		if c.StratumMin > 0 && n < c.StratumMin {
			return false
		}
		if c.StratumMax > 0 && n > c.StratumMax {
			return false
		}
	}

	return true
}

func bandLow(min int64, slack float64) int64 {
	return int64(math.Round(float64(min) * (1 - slack)))
}

func bandHigh(max int64, slack float64) int64 {
	return int64(math.Round(float64(max) * (1 + slack)))
}

func explicitNone(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return !x
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		switch s {
		case "":
			return false
		case "no", "none", "ninguno", "sin parqueadero":
			return true
		}
		if n, ok := domain.CoerceInt(x); ok {
			return n == 0
		}
		return false
	default:
		if n, ok := domain.CoerceInt(v); ok {
			return n == 0
		}
		return false
	}
}
