package paapi

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

var testCreds = Credentials{
	AccessKey:   "AKIDEXAMPLE",
	SecretKey:   "secret",
	PartnerTag:  "stored-20",
	Marketplace: "www.amazon.com",
}

func TestParseIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"single", "B000000001", []string{"B000000001"}},
		{"single trimmed", "  B000000001 \t", []string{"B000000001"}},
		{"comma separated", "A1,A2,A3", []string{"A1", "A2", "A3"}},
		{"comma separated with spaces", " A1 , A2,A3 ", []string{"A1", "A2", "A3"}},
		{"empty segments dropped", "A1,,A2, ,", []string{"A1", "A2"}},
		{"empty", "", nil},
		{"only commas", " , ,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseIdentifiers(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseIdentifiers(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseIdentifiers_PreservesCountAndOrder(t *testing.T) {
	segments := []string{"B01", "B02", "B03", "B04", "B05", "B06", "B07"}
	for n := 1; n <= len(segments); n++ {
		padded := make([]string, n)
		for i := range n {
			padded[i] = "  " + segments[i] + " "
		}
		got := ParseIdentifiers(strings.Join(padded, ","))
		if !reflect.DeepEqual(got, segments[:n]) {
			t.Errorf("n=%d: got %q, want %q", n, got, segments[:n])
		}
	}
}

func TestResolvePartnerTag(t *testing.T) {
	tests := []struct {
		name     string
		override string
		stored   string
		want     string
		wantErr  bool
	}{
		{"override wins", "X", "Y", "X", false},
		{"falls back to stored", "", "Y", "Y", false},
		{"blank override falls back", "   ", "Y", "Y", false},
		{"both empty", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePartnerTag(tt.override, tt.stored)
			if tt.wantErr {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("ResolvePartnerTag() error = %v, want *ValidationError", err)
				}
				if !strings.Contains(ve.Error(), "PartnerTag is required") {
					t.Errorf("error = %q, want it to mention PartnerTag is required", ve.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolvePartnerTag() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolvePartnerTag() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize_GetItems(t *testing.T) {
	inv, err := Normalize(Parameters{
		Operation:         OperationGetItems,
		ItemIDs:           "B0A, B0B",
		Resources:         []string{"ItemInfo.Title"},
		AdditionalOptions: Options{LanguageOfPreference: "en_US"},
	}, testCreds)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	req, ok := inv.Request.(*GetItemsRequest)
	if !ok {
		t.Fatalf("Request type = %T, want *GetItemsRequest", inv.Request)
	}
	if !reflect.DeepEqual(req.ItemIDs, []string{"B0A", "B0B"}) {
		t.Errorf("ItemIDs = %q, want [B0A B0B]", req.ItemIDs)
	}
	if req.LanguageOfPreference == nil || *req.LanguageOfPreference != "en_US" {
		t.Errorf("LanguageOfPreference = %v, want en_US", req.LanguageOfPreference)
	}
	if inv.Common.PartnerTag != "stored-20" {
		t.Errorf("PartnerTag = %q, want %q", inv.Common.PartnerTag, "stored-20")
	}
	if inv.Common.PartnerType != PartnerTypeAssociates {
		t.Errorf("PartnerType = %q, want %q", inv.Common.PartnerType, PartnerTypeAssociates)
	}
}

func TestNormalize_PartnerTagOverride(t *testing.T) {
	inv, err := Normalize(Parameters{
		Operation:  OperationGetItems,
		PartnerTag: "override-21",
		ItemIDs:    "B0A",
	}, testCreds)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if inv.Common.PartnerTag != "override-21" {
		t.Errorf("PartnerTag = %q, want %q", inv.Common.PartnerTag, "override-21")
	}
}

func TestNormalize_MissingPartnerTag(t *testing.T) {
	creds := testCreds
	creds.PartnerTag = ""

	_, err := Normalize(Parameters{Operation: OperationGetItems, ItemIDs: "B0A"}, creds)
	if KindOf(err) != KindValidation {
		t.Fatalf("KindOf(err) = %q, want %q (err=%v)", KindOf(err), KindValidation, err)
	}
}

func TestNormalize_DefaultResources(t *testing.T) {
	inv, err := Normalize(Parameters{Operation: OperationGetItems, ItemIDs: "B0A"}, testCreds)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !reflect.DeepEqual(inv.Request.ResourceList(), DefaultResources) {
		t.Errorf("Resources = %q, want %q", inv.Request.ResourceList(), DefaultResources)
	}
}

func TestNormalize_OffersV2(t *testing.T) {
	inv, err := Normalize(Parameters{
		Operation:   OperationGetItems,
		ItemIDs:     "B0A",
		Resources:   []string{"Offers.Listings.Price", "ItemInfo.Title"},
		UseOffersV2: true,
	}, testCreds)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	want := []string{"OffersV2.Listings.Price", "ItemInfo.Title"}
	if !reflect.DeepEqual(inv.Request.ResourceList(), want) {
		t.Errorf("Resources = %q, want %q", inv.Request.ResourceList(), want)
	}
}

func TestNormalize_SearchItemsSparseMerge(t *testing.T) {
	inv, err := Normalize(Parameters{
		Operation: OperationSearchItems,
		Keywords:  "  laptop ",
		AdditionalOptions: Options{
			SortBy:    "PriceLowToHigh",
			ItemCount: 5,
			Condition: "New",
		},
	}, testCreds)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	req, ok := inv.Request.(*SearchItemsRequest)
	if !ok {
		t.Fatalf("Request type = %T, want *SearchItemsRequest", inv.Request)
	}
	if req.Keywords != "laptop" {
		t.Errorf("Keywords = %q, want %q", req.Keywords, "laptop")
	}
	if req.SearchIndex != DefaultSearchIndex {
		t.Errorf("SearchIndex = %q, want %q", req.SearchIndex, DefaultSearchIndex)
	}
	if req.SortBy == nil || *req.SortBy != "PriceLowToHigh" {
		t.Errorf("SortBy = %v, want PriceLowToHigh", req.SortBy)
	}
	if req.ItemCount == nil || *req.ItemCount != 5 {
		t.Errorf("ItemCount = %v, want 5", req.ItemCount)
	}
	if req.Condition == nil || *req.Condition != "New" {
		t.Errorf("Condition = %v, want New", req.Condition)
	}
	if req.ItemPage != nil {
		t.Errorf("ItemPage = %d, want unset", *req.ItemPage)
	}
	if req.Merchant != nil {
		t.Errorf("Merchant = %q, want unset", *req.Merchant)
	}
	if req.LanguageOfPreference != nil {
		t.Errorf("LanguageOfPreference = %q, want unset", *req.LanguageOfPreference)
	}
	if req.MinReviewsRating != nil {
		t.Errorf("MinReviewsRating = %d, want unset", *req.MinReviewsRating)
	}
}

func TestNormalize_PriceBounds(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		wantMin  *int
		wantMax  *int
	}{
		{"min only", 5, 0, intPtr(5), nil},
		{"max only", 0, 20, nil, intPtr(20)},
		{"both", 5, 20, intPtr(5), intPtr(20)},
		{"neither", 0, 0, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := Normalize(Parameters{
				Operation:         OperationSearchItems,
				Keywords:          "shoes",
				AdditionalOptions: Options{MinPrice: tt.min, MaxPrice: tt.max},
			}, testCreds)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			req := inv.Request.(*SearchItemsRequest)
			if !reflect.DeepEqual(req.MinPrice, tt.wantMin) {
				t.Errorf("MinPrice = %v, want %v", deref(req.MinPrice), deref(tt.wantMin))
			}
			if !reflect.DeepEqual(req.MaxPrice, tt.wantMax) {
				t.Errorf("MaxPrice = %v, want %v", deref(req.MaxPrice), deref(tt.wantMax))
			}
		})
	}
}

func TestNormalize_GetBrowseNodes(t *testing.T) {
	inv, err := Normalize(Parameters{
		Operation:     OperationGetBrowseNodes,
		BrowseNodeIDs: "283155,1000",
		Resources:     []string{"BrowseNodeInfo.BrowseNodes"},
	}, testCreds)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	req, ok := inv.Request.(*GetBrowseNodesRequest)
	if !ok {
		t.Fatalf("Request type = %T, want *GetBrowseNodesRequest", inv.Request)
	}
	if !reflect.DeepEqual(req.BrowseNodeIDs, []string{"283155", "1000"}) {
		t.Errorf("BrowseNodeIDs = %q, want [283155 1000]", req.BrowseNodeIDs)
	}
}

func TestNormalize_GetVariations(t *testing.T) {
	inv, err := Normalize(Parameters{
		Operation:     OperationGetVariations,
		VariationASIN: " B0PARENT ",
	}, testCreds)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	req, ok := inv.Request.(*GetVariationsRequest)
	if !ok {
		t.Fatalf("Request type = %T, want *GetVariationsRequest", inv.Request)
	}
	if req.ASIN != "B0PARENT" {
		t.Errorf("ASIN = %q, want %q", req.ASIN, "B0PARENT")
	}
}

func TestNormalize_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		params    Parameters
		wantField string
	}{
		{"unknown operation", Parameters{Operation: "deleteItems"}, "operation"},
		{"empty operation", Parameters{}, "operation"},
		{"missing item ids", Parameters{Operation: OperationGetItems, ItemIDs: " , "}, "itemIds"},
		{"missing keywords", Parameters{Operation: OperationSearchItems}, "keywords"},
		{"missing browse node ids", Parameters{Operation: OperationGetBrowseNodes}, "browseNodeIds"},
		{"missing variation asin", Parameters{Operation: OperationGetVariations}, "variationAsin"},
		{
			"item count out of range",
			Parameters{Operation: OperationSearchItems, Keywords: "x", AdditionalOptions: Options{ItemCount: 11}},
			"additionalOptions.itemCount",
		},
		{
			"unknown sort",
			Parameters{Operation: OperationSearchItems, Keywords: "x", AdditionalOptions: Options{SortBy: "Cheapest"}},
			"additionalOptions.sortBy",
		},
		{
			"negative price",
			Parameters{Operation: OperationSearchItems, Keywords: "x", AdditionalOptions: Options{MinPrice: -1}},
			"additionalOptions.minPrice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := Normalize(tt.params, testCreds)
			if inv != nil {
				t.Errorf("Normalize() returned invocation %+v, want nil", inv)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Normalize() error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestNormalize_UnknownOperationWrapsSentinel(t *testing.T) {
	_, err := Normalize(Parameters{Operation: "listItems"}, testCreds)
	if !errors.Is(err, ErrUnknownOperation) {
		t.Errorf("errors.Is(err, ErrUnknownOperation) = false, err = %v", err)
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	resources := []string{"Offers.Listings.Price"}
	params := Parameters{
		Operation:   OperationGetItems,
		ItemIDs:     "B0A",
		Resources:   resources,
		UseOffersV2: true,
	}
	if _, err := Normalize(params, testCreds); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if resources[0] != "Offers.Listings.Price" {
		t.Errorf("input resources mutated: %q", resources)
	}
}

func TestNormalizeTool(t *testing.T) {
	t.Run("search products", func(t *testing.T) {
		inv, err := NormalizeTool(ToolParameters{
			Operation: ToolOperationSearchProducts,
			Keywords:  "headphones",
		}, testCreds)
		if err != nil {
			t.Fatalf("NormalizeTool() error = %v", err)
		}
		req, ok := inv.Request.(*SearchItemsRequest)
		if !ok {
			t.Fatalf("Request type = %T, want *SearchItemsRequest", inv.Request)
		}
		if req.SearchIndex != "All" {
			t.Errorf("SearchIndex = %q, want All", req.SearchIndex)
		}
		if req.ItemCount == nil || *req.ItemCount != 10 {
			t.Errorf("ItemCount = %v, want 10", deref(req.ItemCount))
		}
		if !reflect.DeepEqual(req.Resources, DefaultResources) {
			t.Errorf("Resources = %q, want defaults", req.Resources)
		}
	})

	t.Run("product details", func(t *testing.T) {
		inv, err := NormalizeTool(ToolParameters{
			Operation:     ToolOperationGetProductDetails,
			ASIN:          "B0DETAIL",
			IncludeFields: []string{"ItemInfo.ByLineInfo.Brand"},
		}, testCreds)
		if err != nil {
			t.Fatalf("NormalizeTool() error = %v", err)
		}
		req, ok := inv.Request.(*GetItemsRequest)
		if !ok {
			t.Fatalf("Request type = %T, want *GetItemsRequest", inv.Request)
		}
		if !reflect.DeepEqual(req.ItemIDs, []string{"B0DETAIL"}) {
			t.Errorf("ItemIDs = %q, want [B0DETAIL]", req.ItemIDs)
		}
	})

	t.Run("missing asin", func(t *testing.T) {
		_, err := NormalizeTool(ToolParameters{Operation: ToolOperationGetProductDetails}, testCreds)
		if KindOf(err) != KindValidation {
			t.Errorf("KindOf(err) = %q, want %q", KindOf(err), KindValidation)
		}
	})

	t.Run("unknown operation", func(t *testing.T) {
		_, err := NormalizeTool(ToolParameters{Operation: "buyProduct"}, testCreds)
		if !errors.Is(err, ErrUnknownOperation) {
			t.Errorf("err = %v, want ErrUnknownOperation", err)
		}
	})
}

func intPtr(v int) *int { return &v }

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
