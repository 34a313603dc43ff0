package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Sentinel-Gate/paapigate/internal/domain/envelope"
	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
	"github.com/Sentinel-Gate/paapigate/internal/port/outbound"
)

// ProductToolService runs the simplified search/details surface meant for
// agent tools. It follows the same batch rules as InvocationService.
type ProductToolService struct {
	client    outbound.PAAPIClient
	recorders []Recorder
	logger    *slog.Logger
}

// NewProductToolService creates a new product tool service.
func NewProductToolService(client outbound.PAAPIClient, logger *slog.Logger, recorders ...Recorder) *ProductToolService {
	return &ProductToolService{
		client:    client,
		recorders: recorders,
		logger:    logger,
	}
}

// Execute processes tool entries in order, one envelope per entry.
func (s *ProductToolService) Execute(ctx context.Context, creds paapi.Credentials, entries []json.RawMessage) []envelope.ToolEnvelope {
	logger := loggerFromContext(ctx)
	if logger == nil {
		logger = s.logger
	}

	results := make([]envelope.ToolEnvelope, len(entries))
	for i, raw := range entries {
		var params paapi.ToolParameters
		if err := json.Unmarshal(raw, &params); err != nil {
			results[i] = s.finish(logger, i, envelope.ToolFailure("", invalidEntry(err)))
			continue
		}
		results[i] = s.invoke(ctx, logger, i, creds, params)
	}
	return results
}

// Invoke processes a single, already decoded tool entry.
func (s *ProductToolService) Invoke(ctx context.Context, creds paapi.Credentials, params paapi.ToolParameters) envelope.ToolEnvelope {
	logger := loggerFromContext(ctx)
	if logger == nil {
		logger = s.logger
	}
	return s.invoke(ctx, logger, 0, creds, params)
}

func (s *ProductToolService) invoke(ctx context.Context, logger *slog.Logger, index int, creds paapi.Credentials, params paapi.ToolParameters) (env envelope.ToolEnvelope) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing tool entry",
				"index", index,
				"operation", params.Operation,
				"panic", r,
			)
			env = envelope.ToolEnvelope{
				Operation:    params.Operation,
				ErrorMessage: fmt.Sprintf("internal error: %v", r),
				Kind:         paapi.KindTransport,
			}
		}
		env = s.finish(logger, index, env)
	}()

	inv, err := paapi.NormalizeTool(params, creds)
	if err != nil {
		return envelope.ToolFailure(params.Operation, err)
	}
	resp, err := outbound.Dispatch(ctx, s.client, inv)

	switch req := inv.Request.(type) {
	case *paapi.GetItemsRequest:
		return envelope.ShapeDetails(inv.Common.Marketplace, req.ItemIDs[0], resp, err)
	default:
		return envelope.ShapeSearch(inv.Common.Marketplace, resp, err)
	}
}

func (s *ProductToolService) finish(logger *slog.Logger, index int, env envelope.ToolEnvelope) envelope.ToolEnvelope {
	kind := paapi.KindNone
	if !env.Success {
		kind = env.Kind
		if kind == paapi.KindNone {
			kind = paapi.KindTransport
		}
		logger.Warn("tool entry failed",
			"index", index,
			"operation", env.Operation,
			"kind", kind,
			"error", env.ErrorMessage,
		)
	}
	for _, r := range s.recorders {
		r.Record(string(env.Operation), kind)
	}
	return env
}
