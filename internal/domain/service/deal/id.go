package deal

import (
	"strings"
)

// Scrapers emit one product under several listing prefixes; they all map to
// the same stored id so a product is kept once.
var rawIDPrefixes = []struct { //nolint:gochecknoglobals
	prefix string
	store  string
}{
	{prefix: "deal_", store: "naver_"},
	{prefix: "best_", store: "naver_"},
	{prefix: "live_", store: "naver_"},
	{prefix: "promo_", store: "naver_"},
	{prefix: "gmkt_", store: "gianex_"},
	{prefix: "auction_", store: "gianex_"},
}

var idReplacer = strings.NewReplacer("/", "_", ".", "_", "#", "_", "$", "_", "[", "_", "]", "_") //nolint:gochecknoglobals

// RawID returns the cross-listing id of a scraped product, false when the id
// has no known listing prefix.
func RawID(id string) (string, bool) {
	for _, p := range rawIDPrefixes {
		if rest, ok := strings.CutPrefix(id, p.prefix); ok {
			return p.store + rest, true
		}
	}

	return "", false
}

// StoreID is the id a deal is stored under.
func StoreID(id string) string {
	if raw, ok := RawID(id); ok {
		id = raw
	}

	return idReplacer.Replace(id)
}
