package cart

import (
	"errors"
)

// Item types a cart line can carry. A 'license' is a beat purchased under a
// specific license tier; a 'plan' is a subscription to the platform itself.
const (
	TypeBeat     = "beat"
	TypeLicense  = "license"
	TypePlan     = "plan"
	TypeSoundKit = "sound_kit"
	TypeService  = "service"
)

var (
	ErrDuplicateItem = errors.New("item is already in the cart")
	ErrOwnItem       = errors.New("cannot buy your own product")
	ErrPlanInCart    = errors.New("cart already contains a subscription plan")
)

// Item is one cart line. Quantity is always 1.
type Item struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	ProducerID  string `json:"producer_id"`
	LicenseType string `json:"license_type,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Cart is the device-local cart. It is rehydrated from the store on every
// request and saved back after every change.
type Cart struct {
	Items []Item `json:"items"`
}

// AddItem appends the item unless a rule rejects it. On rejection the cart
// is left unchanged and a sentinel error says why. userID is the signed-in
// user's id, or empty for anonymous shoppers.
func (c *Cart) AddItem(item Item, userID string) error {
	for _, existing := range c.Items {
		if existing.ID == item.ID {
			return ErrDuplicateItem
		}
	}

	if userID != "" && item.ProducerID == userID {
		return ErrOwnItem
	}

	if item.Type == TypePlan {
		for _, existing := range c.Items {
			if existing.Type == TypePlan {
				return ErrPlanInCart
			}
		}
	}

	c.Items = append(c.Items, item)
	return nil
}

// RemoveItem drops the item with the given id. Removing an absent id is
// not an error.
func (c *Cart) RemoveItem(id string) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	c.Items = kept
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) TotalCents() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.PriceCents
	}
	return total
}

// ProductTypes returns the distinct product types present, in first-seen
// order. Used for the friendly order id prefix.
func (c *Cart) ProductTypes() []string {
	seen := make(map[string]bool)
	var types []string
	for _, item := range c.Items {
		if !seen[item.Type] {
			seen[item.Type] = true
			types = append(types, item.Type)
		}
	}
	return types
}
