// Package catalog defines the consultation plans and add-ons offered on the
// appointment page. Descriptors are rebuilt for a locale on every call so that
// prices always follow the currently resolved locale.
package catalog

import "github.com/wolfman30/consult-booking/internal/pricing"

// Feature is one line of a plan's inclusion list.
type Feature struct {
	Text     string `json:"text"`
	Included bool   `json:"included"`
}

// Plan is a priced consultation tier.
type Plan struct {
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Emoji    string    `json:"emoji"`
	Tag      string    `json:"tag,omitempty"`
	Features []Feature `json:"features"`
	PriceKey string    `json:"-"`
	Price    int       `json:"price"`
}

// Addon is an optional enhancement, only valid alongside a plan.
type Addon struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	PriceKey    string `json:"-"`
	Price       int    `json:"price"`
}

// Catalog is the priced view of all plans and add-ons for one locale.
type Catalog struct {
	Locale pricing.Locale `json:"locale"`
	Plans  []Plan         `json:"plans"`
	Addons []Addon        `json:"addons"`
}

// For builds the catalog priced for locale.
func For(locale pricing.Locale) Catalog {
	plans := basePlans()
	for i := range plans {
		plans[i].Price = pricing.PriceFor(locale, plans[i].PriceKey)
	}
	addons := baseAddons()
	for i := range addons {
		addons[i].Price = pricing.PriceFor(locale, addons[i].PriceKey)
	}
	return Catalog{Locale: locale, Plans: plans, Addons: addons}
}

// Plan looks up a plan by name.
func (c Catalog) Plan(name string) (Plan, bool) {
	for _, p := range c.Plans {
		if p.Name == name {
			return p, true
		}
	}
	return Plan{}, false
}

// Addon looks up an add-on by name.
func (c Catalog) Addon(name string) (Addon, bool) {
	for _, a := range c.Addons {
		if a.Name == name {
			return a, true
		}
	}
	return Addon{}, false
}

// IsPlan reports whether name identifies a plan.
func (c Catalog) IsPlan(name string) bool {
	_, ok := c.Plan(name)
	return ok
}

// PriceOf returns the price of the plan or add-on called name.
func (c Catalog) PriceOf(name string) (int, bool) {
	if p, ok := c.Plan(name); ok {
		return p.Price, true
	}
	if a, ok := c.Addon(name); ok {
		return a.Price, true
	}
	return 0, false
}

func basePlans() []Plan {
	return []Plan{
		{
			Name:     "Basic",
			Title:    "Basic Review (Asynchronous)",
			Subtitle: "No Live Consultation",
			Emoji:    "📋",
			PriceKey: pricing.KeyBasic,
			Features: []Feature{
				{Text: "Review up to 5 pages of reports", Included: true},
				{Text: "Written summary with key insights", Included: true},
				{Text: "General recommendations (no treatment plan)", Included: true},
				{Text: "WhatsApp voice note explanation", Included: false},
				{Text: "Up to 3 follow-up text queries (within 48 hours)", Included: false},
			},
		},
		{
			Name:     "Standard",
			Title:    "Standard Review",
			Subtitle: "With WhatsApp Voice Note",
			Emoji:    "🎙",
			PriceKey: pricing.KeyStandard,
			Features: []Feature{
				{Text: "Review up to 10 pages of reports", Included: true},
				{Text: "Summary + WhatsApp voice note explanation", Included: true},
				{Text: "Up to 3 follow-up text queries (within 48 hours)", Included: true},
				{Text: "Written summary with key insights", Included: true},
				{Text: "General recommendations (no treatment plan)", Included: true},
				{Text: "Live video call", Included: false},
			},
		},
		{
			Name:     "Comprehensive",
			Title:    "Comprehensive Review",
			Subtitle: "With Live Video Call",
			Emoji:    "📹",
			Tag:      "POPULAR",
			PriceKey: pricing.KeyPremium,
			Features: []Feature{
				{Text: "Review up to 15 pages of reports", Included: true},
				{Text: "Up to 3 follow-up text queries (within 48 hours)", Included: true},
				{Text: "Summary & general recommendations", Included: true},
				{Text: "Written summary with key insights", Included: true},
				{Text: "General recommendations (no treatment plan)", Included: true},
				{Text: "WhatsApp voice note explanation", Included: true},
				{Text: "Live 20-minute WhatsApp/Zoom consultation", Included: true},
			},
		},
	}
}

func baseAddons() []Addon {
	return []Addon{
		{
			Name:        "extra-pages",
			Label:       "Additional Pages Review",
			Description: "Add up to 5 extra pages",
			Icon:        "fas fa-file-medical",
			PriceKey:    pricing.KeyExtra,
		},
		{
			Name:        "extended-call",
			Label:       "Extended Consultation",
			Description: "Add 15 minutes to your call",
			Icon:        "fas fa-clock",
			PriceKey:    pricing.KeyExtended,
		},
		{
			Name:        "urgent-review",
			Label:       "Urgent Review",
			Description: "Get your results within 24 hours",
			Icon:        "fas fa-bolt",
			PriceKey:    pricing.KeyUrgent,
		},
	}
}
