// Package paapi defines the request model for Amazon's Product Advertising
// API 5.0 and the normalizer that turns loosely-typed host parameters into
// strongly-shaped operation requests.
//
// Every request variant is built fresh per invocation by Normalize and is
// discarded once the response envelope has been produced. Signing, transport
// and endpoint selection belong to the outbound PAAPIClient adapter.
package paapi

// Operation identifies a PAAPI operation selected by the caller.
type Operation string

const (
	// OperationGetItems looks up items by ASIN.
	OperationGetItems Operation = "getItems"
	// OperationSearchItems searches the catalog by keywords.
	OperationSearchItems Operation = "searchItems"
	// OperationGetBrowseNodes looks up browse nodes by ID.
	OperationGetBrowseNodes Operation = "getBrowseNodes"
	// OperationGetVariations lists the variations of a parent ASIN.
	OperationGetVariations Operation = "getVariations"
)

// String returns the string representation of the Operation.
func (o Operation) String() string {
	return string(o)
}

// Target returns the PAAPI operation name used in the X-Amz-Target header
// and in the result key of the response (e.g. "GetItems").
func (o Operation) Target() string {
	switch o {
	case OperationGetItems:
		return "GetItems"
	case OperationSearchItems:
		return "SearchItems"
	case OperationGetBrowseNodes:
		return "GetBrowseNodes"
	case OperationGetVariations:
		return "GetVariations"
	default:
		return ""
	}
}

// IsValid reports whether o is one of the four supported operations.
func (o Operation) IsValid() bool {
	return o.Target() != ""
}

// PartnerTypeAssociates is the only partner type PAAPI accepts.
const PartnerTypeAssociates = "Associates"

// CommonParameters are sent with every PAAPI request.
type CommonParameters struct {
	AccessKey   string
	SecretKey   string
	PartnerTag  string
	Marketplace string
	PartnerType string
}

// Request is one normalized PAAPI operation request. The concrete type is
// one of *GetItemsRequest, *SearchItemsRequest, *GetBrowseNodesRequest or
// *GetVariationsRequest.
type Request interface {
	// Operation returns the operation this request is for.
	Operation() Operation
	// ResourceList returns the resource paths requested.
	ResourceList() []string

	sealed()
}

// GetItemsRequest looks up one or more items by ASIN.
type GetItemsRequest struct {
	ItemIDs              []string
	Resources            []string
	LanguageOfPreference *string
}

// SearchItemsRequest searches the catalog.
// Nil pointer fields are unset and are not sent.
type SearchItemsRequest struct {
	Keywords             string
	SearchIndex          string
	Resources            []string
	LanguageOfPreference *string
	SortBy               *string
	ItemPage             *int
	ItemCount            *int
	Merchant             *string
	Condition            *string
	MinPrice             *int
	MaxPrice             *int
	MinReviewsRating     *int
}

// GetBrowseNodesRequest looks up one or more browse nodes.
type GetBrowseNodesRequest struct {
	BrowseNodeIDs        []string
	Resources            []string
	LanguageOfPreference *string
}

// GetVariationsRequest lists the variations of a parent ASIN.
type GetVariationsRequest struct {
	ASIN                 string
	Resources            []string
	LanguageOfPreference *string
}

func (*GetItemsRequest) Operation() Operation       { return OperationGetItems }
func (*SearchItemsRequest) Operation() Operation    { return OperationSearchItems }
func (*GetBrowseNodesRequest) Operation() Operation { return OperationGetBrowseNodes }
func (*GetVariationsRequest) Operation() Operation  { return OperationGetVariations }

func (r *GetItemsRequest) ResourceList() []string       { return r.Resources }
func (r *SearchItemsRequest) ResourceList() []string    { return r.Resources }
func (r *GetBrowseNodesRequest) ResourceList() []string { return r.Resources }
func (r *GetVariationsRequest) ResourceList() []string  { return r.Resources }

func (*GetItemsRequest) sealed()       {}
func (*SearchItemsRequest) sealed()    {}
func (*GetBrowseNodesRequest) sealed() {}
func (*GetVariationsRequest) sealed()  {}
