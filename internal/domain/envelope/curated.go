package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bytedance/gg/gptr"
)

// CuratedItem is the flat product record returned by the tool surface.
// A field is omitted whenever the corresponding API field is missing or
// carries a value of an unexpected type.
type CuratedItem struct {
	Title       *string  `json:"title,omitempty"`
	ASIN        *string  `json:"asin,omitempty"`
	URL         *string  `json:"url,omitempty"`
	Price       *string  `json:"price,omitempty"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
	Rating      *string  `json:"rating,omitempty"`
	ReviewCount *int     `json:"reviewCount,omitempty"`
	Features    []string `json:"features,omitempty"`
	Brand       *string  `json:"brand,omitempty"`
	Description *string  `json:"description,omitempty"`
}

// Curate flattens one raw PAAPI item. marketplace is the storefront host
// used to build the product URL. Brand and description are only extracted
// when detailed is set.
//
// Every field is read on its own: a missing or mistyped value leaves that
// field absent and never affects the others. An item that is not a JSON
// object curates to an empty record.
func Curate(raw json.RawMessage, marketplace string, detailed bool) CuratedItem {
	var it any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&it); err != nil {
		it = nil
	}

	out := CuratedItem{
		ASIN:        stringAt(it, "ASIN"),
		Title:       stringAt(it, "ItemInfo", "Title", "DisplayValue"),
		Features:    stringsAt(it, "ItemInfo", "Features", "DisplayValues"),
		Price:       stringAt(it, "Offers", "Listings", 0, "Price", "DisplayAmount"),
		ImageURL:    stringAt(it, "Images", "Primary", "Medium", "URL"),
		Rating:      textAt(it, "CustomerReviews", "StarRating", "DisplayValue"),
		ReviewCount: intAt(it, "CustomerReviews", "Count"),
	}
	if out.Price == nil {
		out.Price = stringAt(it, "OffersV2", "Listings", 0, "Price", "Money", "DisplayAmount")
	}
	if out.ASIN != nil {
		out.URL = gptr.Of(fmt.Sprintf("https://%s/dp/%s", marketplace, *out.ASIN))
	}
	if detailed {
		out.Brand = stringAt(it, "ItemInfo", "ByLineInfo", "Brand", "DisplayValue")
		out.Description = stringAt(it, "ItemInfo", "ProductInfo", "ProductDescription", "DisplayValue")
	}
	return out
}

// at follows path through decoded JSON. A string step indexes an object and
// an int step indexes an array. Any mismatch yields nil.
func at(v any, path ...any) any {
	for _, step := range path {
		switch s := step.(type) {
		case string:
			m, ok := v.(map[string]any)
			if !ok {
				return nil
			}
			v = m[s]
		case int:
			list, ok := v.([]any)
			if !ok || s >= len(list) {
				return nil
			}
			v = list[s]
		default:
			return nil
		}
	}
	return v
}

func stringAt(v any, path ...any) *string {
	if s, ok := at(v, path...).(string); ok {
		return &s
	}
	return nil
}

// textAt renders a string or a number as text.
func textAt(v any, path ...any) *string {
	switch t := at(v, path...).(type) {
	case string:
		return &t
	case json.Number:
		return gptr.Of(t.String())
	default:
		return nil
	}
}

func intAt(v any, path ...any) *int {
	n, ok := at(v, path...).(json.Number)
	if !ok {
		return nil
	}
	i, err := n.Int64()
	if err != nil {
		return nil
	}
	return gptr.Of(int(i))
}

// stringsAt returns a list of strings, or nil when the list is empty or
// holds anything other than strings.
func stringsAt(v any, path ...any) []string {
	list, ok := at(v, path...).([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		s, ok := e.(string)
		if !ok {
			return nil
		}
		out = append(out, s)
	}
	return out
}
