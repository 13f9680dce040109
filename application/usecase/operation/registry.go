package operation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/adsops/adsops/application/port/inbound"
	domainerr "github.com/adsops/adsops/domain/error"
)

// BuildFunc turns a raw tool payload into a dry-run request
type BuildFunc func(body []byte) (inbound.DryRunRequest, error)

var registry = map[string]BuildFunc{
	OpUpdateBudget:         decodeWith(UpdateBudget),
	OpAddKeywords:          decodeWith(AddKeywords),
	OpAddNegativeKeywords:  decodeWith(AddNegativeKeywords),
	OpUpdateCampaignStatus: decodeWith(UpdateCampaignStatus),
	OpApplyLabels:          decodeWith(ApplyLabels),
	OpCreateBidModifier:    decodeWith(CreateBidModifier),
	OpSubmitSitemap:        decodeWith(SubmitSitemap),
	OpDeleteSitemap:        decodeWith(DeleteSitemap),
}

// Build decodes body for the named operation and returns its dry-run request
func Build(operationName string, body []byte) (inbound.DryRunRequest, error) {
	build, ok := registry[operationName]
	if !ok {
		return inbound.DryRunRequest{}, domainerr.NewBadRequestError(fmt.Sprintf("unknown operation %q", operationName))
	}
	return build(body)
}

// Names lists the supported write operations
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func decodeWith[T any](build func(T) (inbound.DryRunRequest, error)) BuildFunc {
	return func(body []byte) (inbound.DryRunRequest, error) {
		var in T
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return inbound.DryRunRequest{}, domainerr.NewBadRequestError(fmt.Sprintf("invalid request body: %v", err))
		}
		return build(in)
	}
}
