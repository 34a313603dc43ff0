// Package envelope shapes PAAPI responses and invocation failures into the
// uniform success/failure records returned for every batch entry.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
)

// Envelope is the result of one batch entry. A successful envelope carries
// the raw response keys as its payload. A failed envelope carries an error
// message and, for API errors, the original error list.
type Envelope struct {
	Success      bool
	ErrorMessage string
	Errors       json.RawMessage
	Payload      map[string]json.RawMessage

	// Kind classifies a failure. It is not serialized.
	Kind paapi.ErrorKind
}

// Success wraps a response payload.
func Success(payload map[string]json.RawMessage) Envelope {
	if payload == nil {
		payload = map[string]json.RawMessage{}
	}
	return Envelope{Success: true, Payload: payload}
}

// Failure reports a failed entry. errs may be nil.
func Failure(kind paapi.ErrorKind, message string, errs json.RawMessage) Envelope {
	return Envelope{
		Success:      false,
		ErrorMessage: message,
		Errors:       errs,
		Kind:         kind,
	}
}

// FromError builds the failure envelope for err.
func FromError(err error) Envelope {
	var apiErrs paapi.APIErrors
	if errors.As(err, &apiErrs) {
		raw, _ := json.Marshal(apiErrs)
		return Failure(paapi.KindAPI, apiErrs.Error(), raw)
	}
	return Failure(paapi.KindOf(err), err.Error(), nil)
}

// Shape converts the outcome of one client call into an envelope. A non-nil
// err always yields a failure; a response with API errors yields a failure
// carrying the errors verbatim; anything else is a success with every
// top-level response key surfaced unchanged.
func Shape(resp *paapi.Response, err error) Envelope {
	if err != nil {
		return FromError(err)
	}
	if resp == nil {
		return Failure(paapi.KindTransport, "empty response from PAAPI client", nil)
	}
	if resp.HasErrors() {
		return Failure(paapi.KindAPI, resp.Errors.Error(), resp.RawErrors)
	}
	return Success(resp.Fields)
}

// MarshalJSON renders the envelope as a flat object, "success" first.
func (e Envelope) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if !e.Success {
		buf.WriteString(`"success":false`)
		msg, err := json.Marshal(e.ErrorMessage)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"errorMessage":`)
		buf.Write(msg)
		if len(e.Errors) > 0 {
			buf.WriteString(`,"errors":`)
			buf.Write(e.Errors)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}

	buf.WriteString(`"success":true`)
	keys := make([]string, 0, len(e.Payload))
	for k := range e.Payload {
		if k == "success" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value := e.Payload[k]
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses an envelope produced by MarshalJSON.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return err
	}
	rawSuccess, ok := top["success"]
	if !ok {
		return errors.New("envelope: missing success field")
	}
	var success bool
	if err := json.Unmarshal(rawSuccess, &success); err != nil {
		return fmt.Errorf("envelope: success: %w", err)
	}
	delete(top, "success")

	*e = Envelope{Success: success}
	if success {
		e.Payload = top
		return nil
	}
	if raw, ok := top["errorMessage"]; ok {
		if err := json.Unmarshal(raw, &e.ErrorMessage); err != nil {
			return fmt.Errorf("envelope: errorMessage: %w", err)
		}
	}
	if raw, ok := top["errors"]; ok {
		e.Errors = raw
		e.Kind = paapi.KindAPI
	}
	return nil
}
