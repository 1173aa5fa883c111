package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ParseSiteRequest decodes and validates the JSON site request carried by a raw
// event.
func ParseSiteRequest(raw RawEvent) (SiteRequest, error) {
	var req SiteRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return SiteRequest{}, fmt.Errorf("parse site request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return SiteRequest{}, fmt.Errorf("parse site request: %w", err)
	}
	return req, nil
}

// SerializeAssessment encodes an assessment for the sink topic, keyed by its ID.
func SerializeAssessment(a SiteAssessment) (OutputEvent, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize assessment: %w", err)
	}
	return OutputEvent{
		Key:   []byte(a.ID),
		Value: data,
		Headers: map[string]string{
			"power_level": string(a.Category.Level),
			"assessed_at": a.AssessedAt.Format(time.RFC3339),
		},
	}, nil
}
