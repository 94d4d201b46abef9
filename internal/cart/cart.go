// Package cart holds the appointment selection state: at most one plan and
// any number of add-ons, mirrored as priced line items.
package cart

import (
	"errors"
	"fmt"

	"github.com/wolfman30/consult-booking/internal/catalog"
)

var (
	// ErrNoPlanSelected is returned when an add-on is toggled before a plan is chosen.
	ErrNoPlanSelected = errors.New("cart: select a plan first")

	// ErrItemNotInCart is returned when removing an item the cart does not hold.
	ErrItemNotInCart = errors.New("cart: item not in cart")
)

// Messages shown to the visitor after each transition.
const (
	MsgSelectPlanFirst = "Please select a plan first."
	MsgPlanRemoved     = "Plan removed. All add-ons have been removed as well."
	MsgCartCleared     = "Cart cleared."
)

// ItemKind tags a line item as a plan or an add-on.
type ItemKind string

const (
	KindPlan  ItemKind = "plan"
	KindAddon ItemKind = "addon"
)

// Item is one priced line in the cart.
type Item struct {
	Kind  ItemKind `json:"kind"`
	Name  string   `json:"name"`
	Label string   `json:"label"`
	Price int      `json:"price"`
}

// Notifier receives the messages produced by cart transitions.
type Notifier interface {
	Success(message string)
	Info(message string)
}

// Cart is the selection state machine. It is not safe for concurrent use;
// callers serialise access.
type Cart struct {
	plan     *catalog.Plan
	addons   []catalog.Addon
	items    []Item
	notifier Notifier
}

// New returns an empty cart. notifier may be nil.
func New(notifier Notifier) *Cart {
	return &Cart{notifier: notifier}
}

// SelectPlan makes p the selected plan, replacing any previous plan line.
// Add-ons are left untouched.
func (c *Cart) SelectPlan(p catalog.Plan) {
	if c.plan != nil {
		c.items = removeItem(c.items, c.plan.Name)
	}
	selected := p
	c.plan = &selected

	kept := c.items[:0]
	for _, it := range c.items {
		if it.Kind != KindPlan {
			kept = append(kept, it)
		}
	}
	c.items = append(kept, planItem(p))

	c.success(fmt.Sprintf("%s plan added!", p.Name))
}

// ToggleAddon adds a when it is not selected and removes it otherwise. Without
// a selected plan nothing changes and ErrNoPlanSelected is returned.
func (c *Cart) ToggleAddon(a catalog.Addon) (added bool, err error) {
	if c.plan == nil {
		c.info(MsgSelectPlanFirst)
		return false, ErrNoPlanSelected
	}

	if c.IsAddonSelected(a.Name) {
		c.addons = removeAddon(c.addons, a.Name)
		c.items = removeItem(c.items, a.Name)
		c.info(fmt.Sprintf("%s removed!", a.Label))
		return false, nil
	}

	c.addons = append(c.addons, a)
	c.items = append(c.items, addonItem(a))
	c.info(fmt.Sprintf("%s added!", a.Label))
	return true, nil
}

// RemoveItem drops the named line. Removing the plan empties the whole cart
// because add-ons are not valid on their own.
func (c *Cart) RemoveItem(name string) error {
	idx := indexOf(c.items, name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotInCart, name)
	}

	item := c.items[idx]
	if item.Kind == KindPlan {
		c.reset()
		c.info(MsgPlanRemoved)
		return nil
	}

	c.items = removeItem(c.items, name)
	c.addons = removeAddon(c.addons, name)
	c.info(fmt.Sprintf("%s removed.", item.Label))
	return nil
}

// Clear resets the cart unconditionally.
func (c *Cart) Clear() {
	c.reset()
	c.info(MsgCartCleared)
}

// Reset empties the cart without notifying. Used after a confirmed payment,
// which posts its own message.
func (c *Cart) Reset() {
	c.reset()
}

func (c *Cart) reset() {
	c.plan = nil
	c.addons = nil
	c.items = nil
}

// Total is the sum of line prices.
func (c *Cart) Total() int {
	total := 0
	for _, it := range c.items {
		total += it.Price
	}
	return total
}

// Items returns a copy of the line items in cart order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len is the number of line items.
func (c *Cart) Len() int { return len(c.items) }

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// SelectedPlan returns the selected plan, if any.
func (c *Cart) SelectedPlan() (catalog.Plan, bool) {
	if c.plan == nil {
		return catalog.Plan{}, false
	}
	return *c.plan, true
}

// SelectedAddons returns the selected add-ons in selection order.
func (c *Cart) SelectedAddons() []catalog.Addon {
	out := make([]catalog.Addon, len(c.addons))
	copy(out, c.addons)
	return out
}

// IsAddonSelected reports whether the named add-on is selected.
func (c *Cart) IsAddonSelected(name string) bool {
	for _, a := range c.addons {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Reprice rewrites every selection and line with the prices in cat. Lines the
// catalog does not know keep their price.
func (c *Cart) Reprice(cat catalog.Catalog) {
	if c.plan != nil {
		if p, ok := cat.Plan(c.plan.Name); ok {
			c.plan = &p
		}
	}
	for i, a := range c.addons {
		if fresh, ok := cat.Addon(a.Name); ok {
			c.addons[i] = fresh
		}
	}
	for i, it := range c.items {
		if price, ok := cat.PriceOf(it.Name); ok {
			c.items[i].Price = price
		}
	}
}

// Snapshot is a read-only rendering of the cart.
type Snapshot struct {
	SelectedPlan   *catalog.Plan   `json:"selected_plan"`
	SelectedAddons []catalog.Addon `json:"selected_addons"`
	Items          []Item          `json:"items"`
	Total          int             `json:"total"`
}

// Snapshot captures the current state.
func (c *Cart) Snapshot() Snapshot {
	var plan *catalog.Plan
	if p, ok := c.SelectedPlan(); ok {
		plan = &p
	}
	return Snapshot{
		SelectedPlan:   plan,
		SelectedAddons: c.SelectedAddons(),
		Items:          c.Items(),
		Total:          c.Total(),
	}
}

func (c *Cart) success(msg string) {
	if c.notifier != nil {
		c.notifier.Success(msg)
	}
}

func (c *Cart) info(msg string) {
	if c.notifier != nil {
		c.notifier.Info(msg)
	}
}

func planItem(p catalog.Plan) Item {
	return Item{Kind: KindPlan, Name: p.Name, Label: p.Title, Price: p.Price}
}

func addonItem(a catalog.Addon) Item {
	return Item{Kind: KindAddon, Name: a.Name, Label: a.Label, Price: a.Price}
}

func indexOf(items []Item, name string) int {
	for i, it := range items {
		if it.Name == name {
			return i
		}
	}
	return -1
}

func removeItem(items []Item, name string) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Name != name {
			out = append(out, it)
		}
	}
	return out
}

func removeAddon(addons []catalog.Addon, name string) []catalog.Addon {
	out := make([]catalog.Addon, 0, len(addons))
	for _, a := range addons {
		if a.Name != name {
			out = append(out, a)
		}
	}
	return out
}
