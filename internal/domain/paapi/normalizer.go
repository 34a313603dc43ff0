package paapi

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/bytedance/gg/gptr"
	"github.com/go-playground/validator/v10"
)

// Invocation is a normalized request together with the common parameters
// it must be sent with.
type Invocation struct {
	Common  CommonParameters
	Request Request
}

var optionsValidator = newOptionsValidator()

func newOptionsValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so messages match what callers sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseIdentifiers splits a comma-delimited identifier field, trimming every
// segment and dropping empty ones. A value without a comma yields a single
// trimmed element.
func ParseIdentifiers(raw string) []string {
	var ids []string
	for _, segment := range strings.Split(raw, ",") {
		if segment = strings.TrimSpace(segment); segment != "" {
			ids = append(ids, segment)
		}
	}
	return ids
}

// ResolvePartnerTag returns override when it is non-empty, else stored.
// Both empty is a ValidationError.
func ResolvePartnerTag(override, stored string) (string, error) {
	if tag := strings.TrimSpace(override); tag != "" {
		return tag, nil
	}
	if tag := strings.TrimSpace(stored); tag != "" {
		return tag, nil
	}
	return "", NewValidationError("partnerTag", "PartnerTag is required but was not provided in both the request and credentials.")
}

// Normalize turns one raw batch entry into exactly one operation request.
// It performs no I/O and never mutates its inputs.
func Normalize(params Parameters, creds Credentials) (*Invocation, error) {
	if !params.Operation.IsValid() {
		return nil, &ValidationError{
			Field:   "operation",
			Message: fmt.Sprintf("unknown operation %q", params.Operation),
			Err:     ErrUnknownOperation,
		}
	}

	tag, err := ResolvePartnerTag(params.PartnerTag, creds.PartnerTag)
	if err != nil {
		return nil, err
	}

	opts := params.AdditionalOptions
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	resources := RewriteOffersV2(resolveResources(params.Resources), params.UseOffersV2)
	language := gptr.OfNotZero(strings.TrimSpace(opts.LanguageOfPreference))

	var req Request
	switch params.Operation {
	case OperationGetItems:
		ids := ParseIdentifiers(params.ItemIDs)
		if len(ids) == 0 {
			return nil, NewValidationError("itemIds", "Item IDs are required but were not provided.")
		}
		req = &GetItemsRequest{
			ItemIDs:              ids,
			Resources:            resources,
			LanguageOfPreference: language,
		}

	case OperationSearchItems:
		keywords := strings.TrimSpace(params.Keywords)
		if keywords == "" {
			return nil, NewValidationError("keywords", "Keywords are required for Search Items operation.")
		}
		req = &SearchItemsRequest{
			Keywords:             keywords,
			SearchIndex:          cmp.Or(strings.TrimSpace(params.SearchIndex), DefaultSearchIndex),
			Resources:            resources,
			LanguageOfPreference: language,
			SortBy:               gptr.OfNotZero(opts.SortBy),
			ItemPage:             gptr.OfPositive(opts.ItemPage),
			ItemCount:            gptr.OfPositive(opts.ItemCount),
			Merchant:             gptr.OfNotZero(opts.Merchant),
			Condition:            gptr.OfNotZero(opts.Condition),
			// Each bound is sent on its own; a zero bound stays unset.
			MinPrice:         gptr.OfPositive(opts.MinPrice),
			MaxPrice:         gptr.OfPositive(opts.MaxPrice),
			MinReviewsRating: gptr.OfPositive(opts.MinReviewsRating),
		}

	case OperationGetBrowseNodes:
		ids := ParseIdentifiers(params.BrowseNodeIDs)
		if len(ids) == 0 {
			return nil, NewValidationError("browseNodeIds", "Browse Node IDs are required but were not provided.")
		}
		req = &GetBrowseNodesRequest{
			BrowseNodeIDs:        ids,
			Resources:            resources,
			LanguageOfPreference: language,
		}

	case OperationGetVariations:
		asin := strings.TrimSpace(params.VariationASIN)
		if asin == "" {
			return nil, NewValidationError("variationAsin", "ASIN is required for Get Variations operation.")
		}
		req = &GetVariationsRequest{
			ASIN:                 asin,
			Resources:            resources,
			LanguageOfPreference: language,
		}
	}

	return &Invocation{
		Common:  creds.Common(tag),
		Request: req,
	}, nil
}

// NormalizeTool maps a tool-surface entry onto the equivalent operation
// request. Searches cover every index and return up to ten items. Detail
// lookups request a single ASIN.
func NormalizeTool(params ToolParameters, creds Credentials) (*Invocation, error) {
	if !params.Operation.IsValid() {
		return nil, &ValidationError{
			Field:   "operation",
			Message: fmt.Sprintf("unknown operation %q", params.Operation),
			Err:     ErrUnknownOperation,
		}
	}

	tag, err := ResolvePartnerTag("", creds.PartnerTag)
	if err != nil {
		return nil, err
	}

	resources := resolveResources(params.IncludeFields)

	var req Request
	switch params.Operation {
	case ToolOperationSearchProducts:
		keywords := strings.TrimSpace(params.Keywords)
		if keywords == "" {
			return nil, NewValidationError("keywords", "Keywords are required for Search Products operation.")
		}
		req = &SearchItemsRequest{
			Keywords:    keywords,
			SearchIndex: DefaultSearchIndex,
			Resources:   resources,
			ItemCount:   gptr.Of(toolSearchItemCount),
		}

	case ToolOperationGetProductDetails:
		asin := strings.TrimSpace(params.ASIN)
		if asin == "" {
			return nil, NewValidationError("asin", "ASIN is required for Get Product Details operation.")
		}
		req = &GetItemsRequest{
			ItemIDs:   []string{asin},
			Resources: resources,
		}
	}

	return &Invocation{
		Common:  creds.Common(tag),
		Request: req,
	}, nil
}

func validateOptions(opts Options) error {
	err := optionsValidator.Struct(opts)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Field: "additionalOptions", Message: err.Error(), Err: err}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, formatOptionError(fe))
	}
	return &ValidationError{
		Field:   "additionalOptions." + fieldErrs[0].Field(),
		Message: strings.Join(messages, "; "),
		Err:     err,
	}
}

func formatOptionError(e validator.FieldError) string {
	field := "additionalOptions." + e.Field()

	switch e.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
