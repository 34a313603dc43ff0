// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
	"github.com/Sentinel-Gate/paapigate/internal/port/outbound"
)

//go:embed sample_catalog.yaml
var sampleCatalog []byte

const defaultSearchItemCount = 10

// document is a decoded YAML object. Keys follow PAAPI member names.
type document = map[string]any

// Catalog is the fixture format of the in-memory client.
type Catalog struct {
	Items       []document            `yaml:"items"`
	BrowseNodes []document            `yaml:"browse_nodes"`
	Variations  map[string][]document `yaml:"variations"`
}

// CatalogClient answers PAAPI operations from a fixed catalog.
// It implements outbound.PAAPIClient. The catalog is read-only after
// construction, so a client is safe for concurrent use.
// For development/testing only.
type CatalogClient struct {
	items      map[string]document
	order      []string
	nodes      map[string]document
	variations map[string][]document
}

var _ outbound.PAAPIClient = (*CatalogClient)(nil)

// NewCatalogClient creates a client serving catalog.
func NewCatalogClient(catalog Catalog) (*CatalogClient, error) {
	c := &CatalogClient{
		items:      make(map[string]document, len(catalog.Items)),
		nodes:      make(map[string]document, len(catalog.BrowseNodes)),
		variations: make(map[string][]document, len(catalog.Variations)),
	}
	for i, item := range catalog.Items {
		asin, _ := item["ASIN"].(string)
		if asin == "" {
			return nil, fmt.Errorf("items[%d]: ASIN is required", i)
		}
		if _, dup := c.items[asin]; dup {
			return nil, fmt.Errorf("items[%d]: duplicate ASIN %s", i, asin)
		}
		c.items[asin] = item
		c.order = append(c.order, asin)
	}
	for i, node := range catalog.BrowseNodes {
		id := fmt.Sprint(node["Id"])
		if node["Id"] == nil || id == "" {
			return nil, fmt.Errorf("browse_nodes[%d]: Id is required", i)
		}
		c.nodes[id] = node
	}
	for parent, children := range catalog.Variations {
		c.variations[parent] = children
	}
	return c, nil
}

// LoadCatalog decodes a YAML catalog.
func LoadCatalog(r io.Reader) (Catalog, error) {
	var catalog Catalog
	if err := yaml.NewDecoder(r).Decode(&catalog); err != nil && !errors.Is(err, io.EOF) {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	return catalog, nil
}

// LoadCatalogFile decodes the YAML catalog at path. An empty path loads the
// built-in sample catalog.
func LoadCatalogFile(path string) (Catalog, error) {
	if path == "" {
		return LoadCatalog(bytes.NewReader(sampleCatalog))
	}
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadCatalog(f)
}

// GetItems implements outbound.PAAPIClient.
func (c *CatalogClient) GetItems(ctx context.Context, common paapi.CommonParameters, req *paapi.GetItemsRequest) (*paapi.Response, error) {
	if err := checkCommon(common); err != nil {
		return nil, &paapi.TransportError{Operation: paapi.OperationGetItems, Err: err}
	}

	var (
		items []any
		errs  []paapi.APIError
	)
	for _, id := range req.ItemIDs {
		item, ok := c.items[id]
		if !ok {
			errs = append(errs, paapi.APIError{
				Code:    "InvalidParameterValue",
				Message: fmt.Sprintf("The ItemId %s provided in the request is invalid.", id),
			})
			continue
		}
		items = append(items, project(item, req.Resources))
	}
	if len(errs) > 0 {
		return paapi.NewErrorResponse(errs...), nil
	}
	return paapi.NewResultResponse(paapi.OperationGetItems.ResultKey(), document{"Items": items})
}

// SearchItems implements outbound.PAAPIClient. Keywords match titles and
// features case-insensitively; every keyword must match.
func (c *CatalogClient) SearchItems(ctx context.Context, common paapi.CommonParameters, req *paapi.SearchItemsRequest) (*paapi.Response, error) {
	if err := checkCommon(common); err != nil {
		return nil, &paapi.TransportError{Operation: paapi.OperationSearchItems, Err: err}
	}

	terms := strings.Fields(strings.ToLower(req.Keywords))
	var matches []document
	for _, asin := range c.order {
		item := c.items[asin]
		if !matchesTerms(item, terms) || !withinPrice(item, req.MinPrice, req.MaxPrice) {
			continue
		}
		if req.MinReviewsRating != nil && rating(item) < float64(*req.MinReviewsRating) {
			continue
		}
		matches = append(matches, item)
	}

	count := defaultSearchItemCount
	if req.ItemCount != nil {
		count = *req.ItemCount
	}
	page := 1
	if req.ItemPage != nil {
		page = *req.ItemPage
	}
	start := (page - 1) * count
	if len(matches) == 0 || start >= len(matches) {
		return paapi.NewErrorResponse(paapi.APIError{
			Code:    "NoResults",
			Message: "No results found for your request.",
		}), nil
	}
	end := min(start+count, len(matches))

	items := make([]any, 0, end-start)
	for _, item := range matches[start:end] {
		items = append(items, project(item, req.Resources))
	}
	return paapi.NewResultResponse(paapi.OperationSearchItems.ResultKey(), document{
		"Items":            items,
		"TotalResultCount": len(matches),
		"SearchURL":        fmt.Sprintf("https://%s/s?k=%s", common.Marketplace, url.QueryEscape(req.Keywords)),
	})
}

// GetBrowseNodes implements outbound.PAAPIClient.
func (c *CatalogClient) GetBrowseNodes(ctx context.Context, common paapi.CommonParameters, req *paapi.GetBrowseNodesRequest) (*paapi.Response, error) {
	if err := checkCommon(common); err != nil {
		return nil, &paapi.TransportError{Operation: paapi.OperationGetBrowseNodes, Err: err}
	}

	var (
		nodes []any
		errs  []paapi.APIError
	)
	for _, id := range req.BrowseNodeIDs {
		node, ok := c.nodes[id]
		if !ok {
			errs = append(errs, paapi.APIError{
				Code:    "InvalidParameterValue",
				Message: fmt.Sprintf("The BrowseNodeId %s provided in the request is invalid.", id),
			})
			continue
		}
		nodes = append(nodes, node)
	}
	if len(errs) > 0 {
		return paapi.NewErrorResponse(errs...), nil
	}
	return paapi.NewResultResponse(paapi.OperationGetBrowseNodes.ResultKey(), document{"BrowseNodes": nodes})
}

// GetVariations implements outbound.PAAPIClient.
func (c *CatalogClient) GetVariations(ctx context.Context, common paapi.CommonParameters, req *paapi.GetVariationsRequest) (*paapi.Response, error) {
	if err := checkCommon(common); err != nil {
		return nil, &paapi.TransportError{Operation: paapi.OperationGetVariations, Err: err}
	}

	children, ok := c.variations[req.ASIN]
	if !ok || len(children) == 0 {
		return paapi.NewErrorResponse(paapi.APIError{
			Code:    "NoResults",
			Message: fmt.Sprintf("No variations found for ASIN %s.", req.ASIN),
		}), nil
	}

	items := make([]any, 0, len(children))
	for _, child := range children {
		items = append(items, project(child, req.Resources))
	}
	return paapi.NewResultResponse(paapi.OperationGetVariations.ResultKey(), document{
		"Items":            items,
		"VariationSummary": document{"VariationCount": len(children)},
	})
}

func checkCommon(common paapi.CommonParameters) error {
	if common.PartnerTag == "" {
		return errors.New("partner tag is required")
	}
	_, err := paapi.LookupMarketplace(common.Marketplace)
	return err
}

// project keeps ASIN, DetailPageURL and the requested resource paths of item.
func project(item document, resources []string) document {
	out := document{}
	for _, key := range []string{"ASIN", "DetailPageURL", "ParentASIN"} {
		if v, ok := item[key]; ok {
			out[key] = v
		}
	}
	for _, resource := range resources {
		projectPath(out, item, strings.Split(resource, "."))
	}
	return out
}

func projectPath(dst, src document, path []string) {
	key := path[0]
	value, ok := src[key]
	if !ok {
		return
	}
	if len(path) == 1 {
		dst[key] = value
		return
	}

	switch child := value.(type) {
	case document:
		sub, ok := dst[key].(document)
		if !ok {
			sub = document{}
			dst[key] = sub
		}
		projectPath(sub, child, path[1:])
	case []any:
		subs, ok := dst[key].([]any)
		if !ok {
			subs = make([]any, len(child))
			for i := range subs {
				subs[i] = document{}
			}
			dst[key] = subs
		}
		for i, el := range child {
			elDoc, ok := el.(document)
			if !ok {
				continue
			}
			if sub, ok := subs[i].(document); ok {
				projectPath(sub, elDoc, path[1:])
			}
		}
	default:
		dst[key] = value
	}
}

func lookup(doc document, path ...string) any {
	var cur any = doc
	for _, key := range path {
		switch v := cur.(type) {
		case document:
			cur = v[key]
		case []any:
			if len(v) == 0 {
				return nil
			}
			first, ok := v[0].(document)
			if !ok {
				return nil
			}
			cur = first[key]
		default:
			return nil
		}
	}
	return cur
}

func matchesTerms(item document, terms []string) bool {
	var text strings.Builder
	if title, ok := lookup(item, "ItemInfo", "Title", "DisplayValue").(string); ok {
		text.WriteString(strings.ToLower(title))
	}
	if features, ok := lookup(item, "ItemInfo", "Features", "DisplayValues").([]any); ok {
		for _, f := range features {
			text.WriteByte(' ')
			text.WriteString(strings.ToLower(fmt.Sprint(f)))
		}
	}
	haystack := text.String()
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// withinPrice compares the first listing price against bounds expressed in
// the lowest currency denomination, as PAAPI does.
func withinPrice(item document, minPrice, maxPrice *int) bool {
	if minPrice == nil && maxPrice == nil {
		return true
	}
	amount, ok := toFloat(lookup(item, "Offers", "Listings", "Price", "Amount"))
	if !ok {
		return false
	}
	cents := amount * 100
	if minPrice != nil && cents < float64(*minPrice) {
		return false
	}
	if maxPrice != nil && cents > float64(*maxPrice) {
		return false
	}
	return true
}

// rating reads the star rating, which PAAPI renders as text. Numeric
// fixtures are accepted as well.
func rating(item document) float64 {
	v := lookup(item, "CustomerReviews", "StarRating", "DisplayValue")
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		return f
	}
	f, _ := toFloat(v)
	return f
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
