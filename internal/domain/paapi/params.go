package paapi

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Parameters is one raw batch entry as supplied by the host, before
// normalization. Identifier fields are comma-delimited strings.
type Parameters struct {
	Operation         Operation `json:"operation" yaml:"operation"`
	PartnerTag        string    `json:"partnerTag,omitempty" yaml:"partnerTag,omitempty"`
	ItemIDs           string    `json:"itemIds,omitempty" yaml:"itemIds,omitempty"`
	VariationASIN     string    `json:"variationAsin,omitempty" yaml:"variationAsin,omitempty"`
	Keywords          string    `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	SearchIndex       string    `json:"searchIndex,omitempty" yaml:"searchIndex,omitempty"`
	BrowseNodeIDs     string    `json:"browseNodeIds,omitempty" yaml:"browseNodeIds,omitempty"`
	Resources         []string  `json:"resources,omitempty" yaml:"resources,omitempty"`
	UseOffersV2       bool      `json:"useOffersV2,omitempty" yaml:"useOffersV2,omitempty"`
	AdditionalOptions Options   `json:"additionalOptions" yaml:"additionalOptions"`
}

// Options is the additional-options bag. A zero value means "unset" for
// every field and is never sent to PAAPI.
type Options struct {
	LanguageOfPreference string `json:"languageOfPreference,omitempty" yaml:"languageOfPreference,omitempty"`
	SortBy               string `json:"sortBy,omitempty" yaml:"sortBy,omitempty" validate:"omitempty,oneof=Relevance PriceLowToHigh PriceHighToLow AvgCustomerReviews NewestArrivals Featured"`
	ItemPage             int    `json:"itemPage,omitempty" yaml:"itemPage,omitempty" validate:"min=0,max=10"`
	ItemCount            int    `json:"itemCount,omitempty" yaml:"itemCount,omitempty" validate:"min=0,max=10"`
	Merchant             string `json:"merchant,omitempty" yaml:"merchant,omitempty" validate:"omitempty,oneof=All Amazon"`
	Condition            string `json:"condition,omitempty" yaml:"condition,omitempty" validate:"omitempty,oneof=Any New Used Collectible Refurbished"`
	// MinPrice and MaxPrice are in the lowest currency denomination, e.g.
	// 1250 for 12.50.
	MinPrice             int    `json:"minPrice,omitempty" yaml:"minPrice,omitempty" validate:"min=0"`
	MaxPrice             int    `json:"maxPrice,omitempty" yaml:"maxPrice,omitempty" validate:"min=0"`
	MinReviewsRating     int    `json:"minReviewsRating,omitempty" yaml:"minReviewsRating,omitempty" validate:"min=0,max=5"`
}

// UnmarshalJSON decodes the options bag. A price written as 12.0 or 1e3 is
// accepted; a fractional amount is a ValidationError rather than a decode
// failure.
func (o *Options) UnmarshalJSON(data []byte) error {
	type plain Options
	var aux struct {
		plain
		MinPrice json.Number `json:"minPrice,omitempty"`
		MaxPrice json.Number `json:"maxPrice,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	minPrice, err := wholePrice("minPrice", aux.MinPrice)
	if err != nil {
		return err
	}
	maxPrice, err := wholePrice("maxPrice", aux.MaxPrice)
	if err != nil {
		return err
	}

	*o = Options(aux.plain)
	o.MinPrice = minPrice
	o.MaxPrice = maxPrice
	return nil
}

func wholePrice(field string, n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	if v, err := strconv.Atoi(string(n)); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, NewValidationError("additionalOptions."+field, fmt.Sprintf(
			"additionalOptions.%s must be a whole number in the lowest currency denomination (e.g. 1250 for 12.50), got %s",
			field, n))
	}
	return int(f), nil
}

// DefaultSearchIndex is used when a search does not name an index.
const DefaultSearchIndex = "All"

// ToolOperation identifies an operation of the simplified agent-tool surface.
type ToolOperation string

const (
	// ToolOperationSearchProducts searches all categories by keywords.
	ToolOperationSearchProducts ToolOperation = "searchProducts"
	// ToolOperationGetProductDetails looks up a single ASIN.
	ToolOperationGetProductDetails ToolOperation = "getProductDetails"
)

// IsValid reports whether t is a supported tool operation.
func (t ToolOperation) IsValid() bool {
	return t == ToolOperationSearchProducts || t == ToolOperationGetProductDetails
}

// ToolParameters is one raw batch entry for the tool surface.
type ToolParameters struct {
	Operation     ToolOperation `json:"operation" yaml:"operation"`
	Keywords      string        `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	ASIN          string        `json:"asin,omitempty" yaml:"asin,omitempty"`
	IncludeFields []string      `json:"includeFields,omitempty" yaml:"includeFields,omitempty"`
}

// Tool searches return at most this many items.
const toolSearchItemCount = 10

// Credentials are the stored PAAPI credentials. They are resolved once per
// batch and must not be modified while the batch runs.
type Credentials struct {
	AccessKey   string
	SecretKey   string
	PartnerTag  string
	Marketplace string
}

// Common builds the CommonParameters sent with a request, using partnerTag
// as the resolved partner tag.
func (c Credentials) Common(partnerTag string) CommonParameters {
	return CommonParameters{
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		PartnerTag:  partnerTag,
		Marketplace: c.Marketplace,
		PartnerType: PartnerTypeAssociates,
	}
}
