package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Sentinel-Gate/paapigate/internal/ctxkey"
	"github.com/Sentinel-Gate/paapigate/internal/domain/envelope"
	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
	"github.com/Sentinel-Gate/paapigate/internal/port/outbound"
)

// loggerFromContext returns the request logger set by the HTTP middleware,
// or nil so the caller falls back to the service logger.
func loggerFromContext(ctx context.Context) *slog.Logger {
	return ctxkey.Logger(ctx)
}

// Recorder is notified of the outcome of every processed entry.
// kind is paapi.KindNone for a success.
type Recorder interface {
	Record(operation string, kind paapi.ErrorKind)
}

// InvocationService runs batches of raw PAAPI parameter sets. Entries are
// processed strictly in order, one client call at a time, and every entry
// yields exactly one envelope at its own position.
type InvocationService struct {
	client    outbound.PAAPIClient
	recorders []Recorder
	logger    *slog.Logger
}

// NewInvocationService creates a new invocation service.
func NewInvocationService(client outbound.PAAPIClient, logger *slog.Logger, recorders ...Recorder) *InvocationService {
	return &InvocationService{
		client:    client,
		recorders: recorders,
		logger:    logger,
	}
}

// Execute processes entries with the given credentials. It never returns an
// error: failures are captured in the entry's envelope and do not affect
// other entries.
func (s *InvocationService) Execute(ctx context.Context, creds paapi.Credentials, entries []json.RawMessage) []envelope.Envelope {
	logger := loggerFromContext(ctx)
	if logger == nil {
		logger = s.logger
	}

	results := make([]envelope.Envelope, len(entries))
	for i, raw := range entries {
		var params paapi.Parameters
		if err := json.Unmarshal(raw, &params); err != nil {
			results[i] = s.finish(logger, i, "", envelope.FromError(invalidEntry(err)))
			continue
		}
		results[i] = s.invoke(ctx, logger, i, creds, params)
	}
	return results
}

// Invoke processes a single, already decoded parameter set.
func (s *InvocationService) Invoke(ctx context.Context, creds paapi.Credentials, params paapi.Parameters) envelope.Envelope {
	logger := loggerFromContext(ctx)
	if logger == nil {
		logger = s.logger
	}
	return s.invoke(ctx, logger, 0, creds, params)
}

func (s *InvocationService) invoke(ctx context.Context, logger *slog.Logger, index int, creds paapi.Credentials, params paapi.Parameters) (env envelope.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing entry",
				"index", index,
				"operation", params.Operation,
				"panic", r,
			)
			env = envelope.Failure(paapi.KindTransport, fmt.Sprintf("internal error: %v", r), nil)
		}
		env = s.finish(logger, index, params.Operation.String(), env)
	}()

	inv, err := paapi.Normalize(params, creds)
	if err != nil {
		return envelope.FromError(err)
	}
	resp, err := outbound.Dispatch(ctx, s.client, inv)
	return envelope.Shape(resp, err)
}

func (s *InvocationService) finish(logger *slog.Logger, index int, operation string, env envelope.Envelope) envelope.Envelope {
	kind := paapi.KindNone
	if !env.Success {
		kind = env.Kind
		if kind == paapi.KindNone {
			kind = paapi.KindTransport
		}
		logger.Warn("entry failed",
			"index", index,
			"operation", operation,
			"kind", kind,
			"error", env.ErrorMessage,
		)
	}
	for _, r := range s.recorders {
		r.Record(operation, kind)
	}
	return env
}

func invalidEntry(err error) error {
	var verr *paapi.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return &paapi.ValidationError{
		Message: fmt.Sprintf("invalid parameters: %v", err),
		Err:     err,
	}
}
