// Package extract pulls loosely-typed listing records out of raw portal
// pages. Portals redesign constantly and actively resist scraping, so no
// single technique survives long; the extractor tries a fixed chain of
// strategies and stops at the first one that yields anything:
//
//  1. the framework-injected page-state blob (__NEXT_DATA__)
//  2. listing arrays embedded in inline <script> bodies
//  3. plain HTML listing cards
//
// A strategy that fails, or an individual item that cannot be parsed, is
// skipped silently. The extractor never returns an error: an empty result
// means "this page contributed nothing".
package extract

import (
	"encoding/json"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Record is one raw listing as the portal exposed it. Schemas are unknown
// until parsed, so this stays a generic string-keyed map.
type Record map[string]any

// Extractor holds the per-source tuning: which array keys the portal uses
// for its result collections. Everything else is shared.
type Extractor struct {
	// ItemKeys are probed in order inside the page state and inline
	// scripts ("results", "listings", "inmuebles", portal-specific nouns).
	ItemKeys []string
}

func New(itemKeys ...string) Extractor {
	return Extractor{ItemKeys: itemKeys}
}

// Extract runs the strategy chain over one page and returns up to max
// records. Panics from malformed payload shapes are contained here.
func (e Extractor) Extract(source, html string, max int) (out []Record) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] extract panic recovered: %v", source, r)
		}
	}()

	if max <= 0 {
		max = 10
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	if out = e.fromPageState(source, doc, max); len(out) > 0 {
		return out
	}
	if out = e.fromInlineScripts(source, doc, max); len(out) > 0 {
		return out
	}
	return e.fromCards(source, doc, max)
}

// fromPageState parses the full-page-state script Next.js-style frontends
// embed and descends through the known key paths for result collections.
func (e Extractor) fromPageState(source string, doc *goquery.Document, max int) []Record {
	raw := doc.Find("script#__NEXT_DATA__").First().Text()
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(DecodeEntities(raw)), &data); err != nil {
		log.Printf("[%s] page state: %v", source, err)
		return nil
	}

	pageProps, _ := dig(data, "props", "pageProps").(map[string]any)
	if pageProps == nil {
		return nil
	}

	for _, key := range e.ItemKeys {
		if recs := collect(pageProps[key], max); len(recs) > 0 {
			log.Printf("[%s] page state %q: %d items", source, key, len(recs))
			return recs
		}
		// pagination/result wrappers nest one level deeper
		if wrapper, ok := pageProps["data"].(map[string]any); ok {
			if recs := collect(wrapper[key], max); len(recs) > 0 {
				log.Printf("[%s] page state data.%q: %d items", source, key, len(recs))
				return recs
			}
		}
	}
	return nil
}

// fromInlineScripts scans every inline script long enough to matter and
// containing a price-like token, then regex-hunts for a known array key
// immediately followed by a JSON array literal.
func (e Extractor) fromInlineScripts(source string, doc *goquery.Document, max int) []Record {
	var out []Record

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := s.Text()
		if len(src) < 200 {
			return true
		}
		if !strings.Contains(src, "precio") && !strings.Contains(src, "salePrice") && !strings.Contains(src, "price") {
			return true
		}

		src = DecodeEntities(src)
		for _, key := range e.ItemKeys {
			m := arrayKeyPattern(key).FindStringSubmatch(src)
			if m == nil {
				continue
			}
			var items []any
			if err := json.Unmarshal([]byte(m[1]), &items); err != nil {
				continue
			}
			for _, it := range items {
				if rec, ok := it.(map[string]any); ok {
					out = append(out, Record(rec))
					if len(out) >= max {
						break
					}
				}
			}
			if len(out) > 0 {
				log.Printf("[%s] script %q: %d items", source, key, len(out))
				return false
			}
		}
		return true
	})

	return out
}

// fromCards is the last resort: select anything that looks like a listing
// card by class-name substring and probe its sub-elements heuristically.
// Unmatched fields stay absent; the normalizer has defaults for them.
func (e Extractor) fromCards(source string, doc *goquery.Document, max int) []Record {
	cards := doc.Find("div[class*='card'], article[class*='listing'], div[class*='property'], div[class*='inmueble'], li[class*='result']")
	if cards.Length() == 0 {
		return nil
	}
	log.Printf("[%s] html cards: %d candidates", source, cards.Length())

	var out []Record
	cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if len(out) >= max {
			return false
		}

		rec := Record{}
		if el := card.Find("[class*='price'],[class*='precio'],[class*='valor']").First(); el.Length() > 0 {
			rec["precio"] = cleanText(el.Text())
		}
		if el := card.Find("h2,h3,[class*='title'],[class*='titulo'],[class*='nombre']").First(); el.Length() > 0 {
			rec["titulo"] = cleanText(el.Text())
		}
		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			rec["link"] = strings.TrimSpace(href)
		}
		if el := card.Find("[class*='area']").First(); el.Length() > 0 {
			rec["area"] = cleanText(el.Text())
		}
		if el := card.Find("[class*='habitacion'],[class*='bedroom'],[class*='alcoba']").First(); el.Length() > 0 {
			rec["habitaciones"] = cleanText(el.Text())
		}
		if src, ok := card.Find("img[src]").First().Attr("src"); ok {
			rec["image"] = strings.TrimSpace(src)
		}
		if txt := cleanText(card.Text()); txt != "" {
			if len(txt) > 200 {
				txt = txt[:200]
			}
			rec["descripcion"] = txt
		}

		// nav chrome matches the card selectors too; keep only cards that
		// carry at least something listing-shaped
		if rec["link"] != nil || rec["precio"] != nil || rec["titulo"] != nil {
			out = append(out, rec)
		}
		return true
	})

	return out
}

func arrayKeyPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)"` + regexp.QuoteMeta(key) + `"\s*:\s*(\[.*?\])\s*[,}]`)
}

// DecodeEntities undoes the escaped-quote placeholders some portals leave
// inside embedded JSON before it can be regex-matched or parsed.
func DecodeEntities(s string) string {
	r := strings.NewReplacer(
		"&amp;quot;", `"`,
		"&quot;", `"`,
		"&#34;", `"`,
		"&#x22;", `"`,
	)
	return r.Replace(s)
}

// dig walks nested maps; returns nil as soon as a hop misses.
func dig(m map[string]any, path ...string) any {
	var cur any = m
	for _, p := range path {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mm[p]
	}
	return cur
}

// collect accepts either an array of objects or a lone object (portals
// with a single "featured" listing) and returns up to max records.
func collect(v any, max int) []Record {
	switch items := v.(type) {
	case []any:
		var out []Record
		for _, it := range items {
			if rec, ok := it.(map[string]any); ok {
				out = append(out, Record(rec))
				if len(out) >= max {
					break
				}
			}
		}
		return out
	case map[string]any:
		return []Record{Record(items)}
	default:
		return nil
	}
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
