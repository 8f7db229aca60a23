package extract

import (
	"net/url"
	"strings"

	"github.com/hotelchat/backend/internal/storage/models"
)

// pathKeywords maps URL path fragments to page types. Path matching runs
// before text heuristics because site structure is a stronger signal than
// body copy.
var pathKeywords = map[models.PageType][]string{
	models.PageTypeRoom:    {"/room", "/accommodation", "/suite", "/stay"},
	models.PageTypePricing: {"/rate", "/price", "/pricing", "/offer", "/package", "/deal", "/special"},
	models.PageTypeAmenity: {"/amenit", "/facilit", "/spa", "/pool", "/fitness", "/gym", "/wellness"},
	models.PageTypeDining:  {"/dining", "/restaurant", "/menu", "/bar", "/breakfast", "/cafe"},
	models.PageTypePolicy:  {"/policy", "/policies", "/terms", "/faq", "/cancellation"},
	models.PageTypeContact: {"/contact", "/location", "/direction", "/find-us", "/reach-us"},
	models.PageTypeAbout:   {"/about", "/history", "/story", "/team", "/our-hotel"},
}

// textKeywords is the fixed vocabulary for the density fallback.
var textKeywords = map[models.PageType][]string{
	models.PageTypeRoom:    {"room", "suite", "bed", "king", "queen", "accommodation", "balcony", "occupancy"},
	models.PageTypePricing: {"rate", "price", "night", "package", "offer", "discount", "booking", "deposit"},
	models.PageTypeAmenity: {"amenity", "amenities", "pool", "spa", "gym", "fitness", "wifi", "parking", "concierge"},
	models.PageTypeDining:  {"restaurant", "menu", "breakfast", "dinner", "lunch", "bar", "cuisine", "chef"},
	models.PageTypePolicy:  {"policy", "check-in", "check-out", "cancellation", "refund", "pet", "smoking"},
	models.PageTypeContact: {"contact", "phone", "email", "address", "directions", "located"},
	models.PageTypeAbout:   {"about", "history", "founded", "family", "welcome", "tradition"},
}

// Classifier assigns a page type from URL and text heuristics. Given
// identical inputs it always returns the same type: path rules are checked
// in models.PageTypeOrder, and density ties also resolve in that order.
type Classifier struct {
	// DensityThreshold is the minimum weighted keyword density a type must
	// reach before the text fallback assigns it.
	DensityThreshold float64
}

func NewClassifier(densityThreshold float64) *Classifier {
	if densityThreshold <= 0 {
		densityThreshold = 0.004
	}
	return &Classifier{DensityThreshold: densityThreshold}
}

// Classify returns the page type for the given URL and cleaned text.
func (c *Classifier) Classify(pageURL, text string) models.PageType {
	if t, ok := c.classifyByPath(pageURL); ok {
		return t
	}
	return c.classifyByText(text)
}

func (c *Classifier) classifyByPath(pageURL string) (models.PageType, bool) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return models.PageTypeOther, false
	}

	path := strings.ToLower(u.Path)
	for _, t := range models.PageTypeOrder {
		for _, kw := range pathKeywords[t] {
			if strings.Contains(path, kw) {
				return t, true
			}
		}
	}
	return models.PageTypeOther, false
}

func (c *Classifier) classifyByText(text string) models.PageType {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return models.PageTypeOther
	}

	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[strings.Trim(w, ".,;:!?()\"'")]++
	}

	best := models.PageTypeOther
	bestDensity := 0.0

	for _, t := range models.PageTypeOrder {
		hits := 0
		for _, kw := range textKeywords[t] {
			hits += counts[kw]
		}
		density := float64(hits) / float64(len(words))
		// strict comparison keeps the earlier type on ties
		if density >= c.DensityThreshold && density > bestDensity {
			best = t
			bestDensity = density
		}
	}

	return best
}
