package amazon

import (
	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
)

// Wire payloads for the PAAPI 5.0 JSON operations. Field names are the
// PAAPI request member names.

type commonPayload struct {
	PartnerTag            string   `json:"PartnerTag"`
	PartnerType           string   `json:"PartnerType"`
	Marketplace           string   `json:"Marketplace"`
	Resources             []string `json:"Resources"`
	LanguagesOfPreference []string `json:"LanguagesOfPreference,omitempty"`
}

type getItemsPayload struct {
	commonPayload
	ItemIds    []string `json:"ItemIds"`
	ItemIdType string   `json:"ItemIdType"`
}

type searchItemsPayload struct {
	commonPayload
	Keywords         string  `json:"Keywords"`
	SearchIndex      string  `json:"SearchIndex,omitempty"`
	SortBy           *string `json:"SortBy,omitempty"`
	ItemPage         *int    `json:"ItemPage,omitempty"`
	ItemCount        *int    `json:"ItemCount,omitempty"`
	Merchant         *string `json:"Merchant,omitempty"`
	Condition        *string `json:"Condition,omitempty"`
	MinPrice         *int    `json:"MinPrice,omitempty"`
	MaxPrice         *int    `json:"MaxPrice,omitempty"`
	MinReviewsRating *int    `json:"MinReviewsRating,omitempty"`
}

type getBrowseNodesPayload struct {
	commonPayload
	BrowseNodeIds []string `json:"BrowseNodeIds"`
}

type getVariationsPayload struct {
	commonPayload
	ASIN string `json:"ASIN"`
}

func newCommonPayload(common paapi.CommonParameters, resources []string, language *string) commonPayload {
	p := commonPayload{
		PartnerTag:  common.PartnerTag,
		PartnerType: common.PartnerType,
		Marketplace: common.Marketplace,
		Resources:   resources,
	}
	if p.PartnerType == "" {
		p.PartnerType = paapi.PartnerTypeAssociates
	}
	if language != nil {
		p.LanguagesOfPreference = []string{*language}
	}
	return p
}

func newGetItemsPayload(common paapi.CommonParameters, req *paapi.GetItemsRequest) getItemsPayload {
	return getItemsPayload{
		commonPayload: newCommonPayload(common, req.Resources, req.LanguageOfPreference),
		ItemIds:       req.ItemIDs,
		ItemIdType:    "ASIN",
	}
}

func newSearchItemsPayload(common paapi.CommonParameters, req *paapi.SearchItemsRequest) searchItemsPayload {
	return searchItemsPayload{
		commonPayload:    newCommonPayload(common, req.Resources, req.LanguageOfPreference),
		Keywords:         req.Keywords,
		SearchIndex:      req.SearchIndex,
		SortBy:           req.SortBy,
		ItemPage:         req.ItemPage,
		ItemCount:        req.ItemCount,
		Merchant:         req.Merchant,
		Condition:        req.Condition,
		MinPrice:         req.MinPrice,
		MaxPrice:         req.MaxPrice,
		MinReviewsRating: req.MinReviewsRating,
	}
}

func newGetBrowseNodesPayload(common paapi.CommonParameters, req *paapi.GetBrowseNodesRequest) getBrowseNodesPayload {
	return getBrowseNodesPayload{
		commonPayload: newCommonPayload(common, req.Resources, req.LanguageOfPreference),
		BrowseNodeIds: req.BrowseNodeIDs,
	}
}

func newGetVariationsPayload(common paapi.CommonParameters, req *paapi.GetVariationsRequest) getVariationsPayload {
	return getVariationsPayload{
		commonPayload: newCommonPayload(common, req.Resources, req.LanguageOfPreference),
		ASIN:          req.ASIN,
	}
}
