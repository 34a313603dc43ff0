// Package outbound defines the outbound port interfaces for reaching the
// Product Advertising API.
package outbound

import (
	"context"

	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
)

// PAAPIClient is the outbound port for PAAPI 5.0. Implementations own
// request signing, transport and marketplace endpoint selection.
//
// A call returns a non-nil Response when PAAPI answered, including when the
// answer is an error list. A non-nil error means no usable answer was
// received.
type PAAPIClient interface {
	GetItems(ctx context.Context, common paapi.CommonParameters, req *paapi.GetItemsRequest) (*paapi.Response, error)
	SearchItems(ctx context.Context, common paapi.CommonParameters, req *paapi.SearchItemsRequest) (*paapi.Response, error)
	GetBrowseNodes(ctx context.Context, common paapi.CommonParameters, req *paapi.GetBrowseNodesRequest) (*paapi.Response, error)
	GetVariations(ctx context.Context, common paapi.CommonParameters, req *paapi.GetVariationsRequest) (*paapi.Response, error)
}

// Dispatch routes a normalized invocation to the matching client method.
func Dispatch(ctx context.Context, client PAAPIClient, inv *paapi.Invocation) (*paapi.Response, error) {
	switch req := inv.Request.(type) {
	case *paapi.GetItemsRequest:
		return client.GetItems(ctx, inv.Common, req)
	case *paapi.SearchItemsRequest:
		return client.SearchItems(ctx, inv.Common, req)
	case *paapi.GetBrowseNodesRequest:
		return client.GetBrowseNodes(ctx, inv.Common, req)
	case *paapi.GetVariationsRequest:
		return client.GetVariations(ctx, inv.Common, req)
	default:
		return nil, &paapi.ValidationError{
			Field:   "operation",
			Message: "unsupported request type",
			Err:     paapi.ErrUnknownOperation,
		}
	}
}
