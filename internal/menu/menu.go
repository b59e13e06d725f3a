// Package menu defines the menu and menu-item records produced by the page
// parsers. A Restaurant owns zero-or-many Menus, a Menu owns zero-or-many
// Items; ownership is a strict tree. Records are immutable once persisted.
package menu

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/platewise/menuharvest/internal/match"
)

// Menu is one successfully parsed page. Source names the winning parser
// strategy ("jsonld", "cms", or "heuristic").
type Menu struct {
	ID              string `json:"id"`
	RestaurantID    string `json:"restaurant_id"`
	URL             string `json:"url"`
	Source          string `json:"source"`
	RawSnapshotPath string `json:"raw_snapshot_path,omitempty"`
}

// Item is a single parsed menu item. Price is nil when the page carried no
// usable price token. Confidence lives in [0,1]: set by the winning parser's
// base confidence, adjusted by scoring, then frozen.
type Item struct {
	ID          string   `json:"id"`
	MenuID      string   `json:"menu_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Confidence  float64  `json:"confidence"`
}

// MenuID derives the stable menu identifier from the owning restaurant and
// the page URL, so re-harvesting the same page upserts rather than duplicates.
func MenuID(restaurantID, url string) string {
	sum := sha1.Sum([]byte(restaurantID + "|" + url))
	return hex.EncodeToString(sum[:])
}

// ItemID derives the stable item identifier from the owning menu, the
// normalized item name, and the price (or its absence).
func ItemID(menuID, name string, price *float64) string {
	sum := sha1.Sum([]byte(menuID + "|" + ItemKey(name, price)))
	return hex.EncodeToString(sum[:])
}

// ItemKey is the in-page dedup key: normalized name plus same-or-absent
// price. Two items with this key collapse to one.
func ItemKey(name string, price *float64) string {
	if price == nil {
		return match.Normalize(name) + "|-"
	}
	return fmt.Sprintf("%s|%.2f", match.Normalize(name), *price)
}
