// Package mcpserver exposes the PAAPI operations as MCP tools, over stdio or
// the streamable HTTP transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
	"github.com/Sentinel-Gate/paapigate/internal/port/inbound"
	"github.com/Sentinel-Gate/paapigate/internal/service"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "paapi-gate"

// Server registers the gateway tools on an MCP server.
type Server struct {
	invocations *service.InvocationService
	tools       *service.ProductToolService
	creds       paapi.Credentials
	logger      *slog.Logger
	server      *mcp.Server
}

// NewServer creates the MCP server. Every tool call runs with creds.
func NewServer(
	invocations *service.InvocationService,
	tools *service.ProductToolService,
	creds paapi.Credentials,
	version string,
	logger *slog.Logger,
) *Server {
	s := &Server{
		invocations: invocations,
		tools:       tools,
		creds:       creds,
		logger:      logger,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    ServerName,
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// HTTPHandler serves the tools over the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

func (s *Server) registerTools() {
	resources := strings.Join(paapi.KnownResources, ", ")

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "get_items",
		Description: "Look up Amazon items by ASIN (PAAPI GetItems). " +
			"Returns the raw ItemsResult. Known resources: " + resources,
	}, s.getItems)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "search_items",
		Description: "Search the Amazon catalog by keywords (PAAPI SearchItems). " +
			"Returns the raw SearchResult. Known resources: " + resources,
	}, s.searchItems)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_browse_nodes",
		Description: "Look up Amazon browse nodes by ID (PAAPI GetBrowseNodes).",
	}, s.getBrowseNodes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "get_variations",
		Description: "List the variations of a parent ASIN (PAAPI GetVariations). " +
			"Known resources: " + resources,
	}, s.getVariations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "search_products",
		Description: "Search all Amazon categories and return up to ten curated products " +
			"(title, asin, url, price, imageUrl, rating, reviewCount, features).",
	}, s.searchProducts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_product_details",
		Description: "Return curated details (including brand and description) for one ASIN.",
	}, s.getProductDetails)
}

type getItemsInput struct {
	ItemIDs     []string       `json:"itemIds" jsonschema:"ASINs to look up"`
	Resources   []string       `json:"resources,omitempty" jsonschema:"resource paths to request; defaults to title, price and medium image"`
	UseOffersV2 bool           `json:"useOffersV2,omitempty" jsonschema:"request OffersV2 instead of Offers resources"`
	PartnerTag  string         `json:"partnerTag,omitempty" jsonschema:"override the configured partner tag"`
	Options     *paapi.Options `json:"additionalOptions,omitempty" jsonschema:"optional search and language options"`
}

type searchItemsInput struct {
	Keywords    string         `json:"keywords" jsonschema:"search terms"`
	SearchIndex string         `json:"searchIndex,omitempty" jsonschema:"category to search; defaults to All"`
	Resources   []string       `json:"resources,omitempty" jsonschema:"resource paths to request; defaults to title, price and medium image"`
	UseOffersV2 bool           `json:"useOffersV2,omitempty" jsonschema:"request OffersV2 instead of Offers resources"`
	PartnerTag  string         `json:"partnerTag,omitempty" jsonschema:"override the configured partner tag"`
	Options     *paapi.Options `json:"additionalOptions,omitempty" jsonschema:"optional search and language options"`
}

type getBrowseNodesInput struct {
	BrowseNodeIDs []string       `json:"browseNodeIds" jsonschema:"browse node IDs to look up"`
	Resources     []string       `json:"resources,omitempty" jsonschema:"resource paths to request; defaults to title, price and medium image"`
	PartnerTag    string         `json:"partnerTag,omitempty" jsonschema:"override the configured partner tag"`
	Options       *paapi.Options `json:"additionalOptions,omitempty" jsonschema:"optional search and language options"`
}

type getVariationsInput struct {
	ASIN        string         `json:"asin" jsonschema:"parent ASIN"`
	Resources   []string       `json:"resources,omitempty" jsonschema:"resource paths to request; defaults to title, price and medium image"`
	UseOffersV2 bool           `json:"useOffersV2,omitempty" jsonschema:"request OffersV2 instead of Offers resources"`
	PartnerTag  string         `json:"partnerTag,omitempty" jsonschema:"override the configured partner tag"`
	Options     *paapi.Options `json:"additionalOptions,omitempty" jsonschema:"optional search and language options"`
}

type searchProductsInput struct {
	Keywords      string   `json:"keywords" jsonschema:"search terms"`
	IncludeFields []string `json:"includeFields,omitempty" jsonschema:"resource paths to request instead of the defaults"`
}

type getProductDetailsInput struct {
	ASIN          string   `json:"asin" jsonschema:"product ASIN"`
	IncludeFields []string `json:"includeFields,omitempty" jsonschema:"resource paths to request instead of the defaults"`
}

func options(opts *paapi.Options) paapi.Options {
	if opts == nil {
		return paapi.Options{}
	}
	return *opts
}

func (s *Server) getItems(ctx context.Context, _ *mcp.CallToolRequest, in getItemsInput) (*mcp.CallToolResult, any, error) {
	return s.invoke(ctx, paapi.Parameters{
		Operation:         paapi.OperationGetItems,
		PartnerTag:        in.PartnerTag,
		ItemIDs:           strings.Join(in.ItemIDs, ","),
		Resources:         in.Resources,
		UseOffersV2:       in.UseOffersV2,
		AdditionalOptions: options(in.Options),
	})
}

func (s *Server) searchItems(ctx context.Context, _ *mcp.CallToolRequest, in searchItemsInput) (*mcp.CallToolResult, any, error) {
	return s.invoke(ctx, paapi.Parameters{
		Operation:         paapi.OperationSearchItems,
		PartnerTag:        in.PartnerTag,
		Keywords:          in.Keywords,
		SearchIndex:       in.SearchIndex,
		Resources:         in.Resources,
		UseOffersV2:       in.UseOffersV2,
		AdditionalOptions: options(in.Options),
	})
}

func (s *Server) getBrowseNodes(ctx context.Context, _ *mcp.CallToolRequest, in getBrowseNodesInput) (*mcp.CallToolResult, any, error) {
	return s.invoke(ctx, paapi.Parameters{
		Operation:         paapi.OperationGetBrowseNodes,
		PartnerTag:        in.PartnerTag,
		BrowseNodeIDs:     strings.Join(in.BrowseNodeIDs, ","),
		Resources:         in.Resources,
		AdditionalOptions: options(in.Options),
	})
}

func (s *Server) getVariations(ctx context.Context, _ *mcp.CallToolRequest, in getVariationsInput) (*mcp.CallToolResult, any, error) {
	return s.invoke(ctx, paapi.Parameters{
		Operation:         paapi.OperationGetVariations,
		PartnerTag:        in.PartnerTag,
		VariationASIN:     in.ASIN,
		Resources:         in.Resources,
		UseOffersV2:       in.UseOffersV2,
		AdditionalOptions: options(in.Options),
	})
}

func (s *Server) searchProducts(ctx context.Context, _ *mcp.CallToolRequest, in searchProductsInput) (*mcp.CallToolResult, any, error) {
	env := s.tools.Invoke(ctx, s.creds, paapi.ToolParameters{
		Operation:     paapi.ToolOperationSearchProducts,
		Keywords:      in.Keywords,
		IncludeFields: in.IncludeFields,
	})
	return toolResult(env, env.Success)
}

func (s *Server) getProductDetails(ctx context.Context, _ *mcp.CallToolRequest, in getProductDetailsInput) (*mcp.CallToolResult, any, error) {
	env := s.tools.Invoke(ctx, s.creds, paapi.ToolParameters{
		Operation:     paapi.ToolOperationGetProductDetails,
		ASIN:          in.ASIN,
		IncludeFields: in.IncludeFields,
	})
	return toolResult(env, env.Success)
}

func (s *Server) invoke(ctx context.Context, params paapi.Parameters) (*mcp.CallToolResult, any, error) {
	env := s.invocations.Invoke(ctx, s.creds, params)
	if !env.Success {
		s.logger.Debug("tool call failed", "operation", params.Operation, "error", env.ErrorMessage)
	}
	return toolResult(env, env.Success)
}

// toolResult renders an envelope as the text content of a tool result.
// Failure envelopes set IsError so the model sees the call failed.
func toolResult(env any, success bool) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, nil, fmt.Errorf("encode envelope: %w", err)
	}
	return &mcp.CallToolResult{
		IsError: !success,
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// StdioTransport serves the tools over stdin/stdout.
type StdioTransport struct {
	server *Server

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewStdioTransport creates a stdio transport for server.
func NewStdioTransport(server *Server) *StdioTransport {
	return &StdioTransport{server: server}
}

// Start runs the MCP session until the client disconnects or ctx is done.
func (t *StdioTransport) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	return t.server.server.Run(ctx, &mcp.StdioTransport{})
}

// Close stops a running session.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	return nil
}

var _ inbound.Transport = (*StdioTransport)(nil)
