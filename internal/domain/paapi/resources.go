package paapi

import "strings"

const (
	offersPrefix   = "Offers."
	offersV2Prefix = "OffersV2."
)

// DefaultResources are requested when the caller selects none.
var DefaultResources = []string{
	"ItemInfo.Title",
	"Offers.Listings.Price",
	"Images.Primary.Medium",
}

// KnownResources lists the resource paths offered to callers.
var KnownResources = []string{
	"BrowseNodeInfo.BrowseNodes",
	"BrowseNodeInfo.WebsiteSalesRank",
	"CustomerReviews.Count",
	"CustomerReviews.StarRating",
	"Images.Primary.Small",
	"Images.Primary.Medium",
	"Images.Primary.Large",
	"Images.Variants.Small",
	"Images.Variants.Medium",
	"Images.Variants.Large",
	"ItemInfo.ByLineInfo",
	"ItemInfo.ContentInfo",
	"ItemInfo.ContentRating",
	"ItemInfo.Classifications",
	"ItemInfo.ExternalIds",
	"ItemInfo.Features",
	"ItemInfo.ManufactureInfo",
	"ItemInfo.ProductInfo",
	"ItemInfo.TechnicalInfo",
	"ItemInfo.Title",
	"ItemInfo.TradeInInfo",
	"Offers.Listings.Availability.MaxOrderQuantity",
	"Offers.Listings.Availability.Message",
	"Offers.Listings.Availability.MinOrderQuantity",
	"Offers.Listings.Availability.Type",
	"Offers.Listings.Condition",
	"Offers.Listings.Condition.SubCondition",
	"Offers.Listings.DeliveryInfo.IsAmazonFulfilled",
	"Offers.Listings.DeliveryInfo.IsFreeShippingEligible",
	"Offers.Listings.DeliveryInfo.IsPrimeEligible",
	"Offers.Listings.MerchantInfo",
	"Offers.Listings.Price",
	"Offers.Listings.ProgramEligibility.IsPrimeExclusive",
	"Offers.Listings.ProgramEligibility.IsPrimePantry",
	"Offers.Listings.Promotions",
	"Offers.Listings.SavingBasis",
	"Offers.Summaries.HighestPrice",
	"Offers.Summaries.LowestPrice",
	"Offers.Summaries.OfferCount",
	"OffersV2.Listings.DeliveryInfo.IsPrimeEligible",
	"OffersV2.Listings.Price",
	"OffersV2.Listings.SavingBasis",
}

// ToolFields are the resource paths the curated tool output can draw from.
var ToolFields = []string{
	"ItemInfo.Title",
	"ItemInfo.Features",
	"Offers.Listings.Price",
	"Images.Primary.Medium",
	"CustomerReviews.StarRating",
	"CustomerReviews.Count",
	"ItemInfo.ByLineInfo.Brand",
	"ItemInfo.ProductInfo.ProductDescription",
}

// RewriteOffersV2 returns resources with the "Offers." prefix replaced by
// "OffersV2." on every entry carrying it, when useOffersV2 is set. The input
// slice is never modified and order is preserved.
func RewriteOffersV2(resources []string, useOffersV2 bool) []string {
	out := make([]string, len(resources))
	copy(out, resources)
	if !useOffersV2 {
		return out
	}
	for i, r := range out {
		if rest, ok := strings.CutPrefix(r, offersPrefix); ok {
			out[i] = offersV2Prefix + rest
		}
	}
	return out
}

// resolveResources drops blank entries and falls back to DefaultResources
// when nothing is left.
func resolveResources(resources []string) []string {
	out := make([]string, 0, len(resources))
	for _, r := range resources {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		out = append(out, DefaultResources...)
	}
	return out
}
