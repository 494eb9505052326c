package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseRawEvent decodes a source message into a Dataset. The message key names
// the reservoir when the payload does not.
func ParseRawEvent(raw RawEvent) (Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(raw.Value, &ds); err != nil {
		return Dataset{}, fmt.Errorf("parse reservoir dataset: %w", err)
	}

	ds.ReservoirID = strings.TrimSpace(ds.ReservoirID)
	if ds.ReservoirID == "" {
		ds.ReservoirID = strings.TrimSpace(string(raw.Key))
	}
	return ds, nil
}

// RawReservoirID names the reservoir a message carries without decoding the
// whole dataset, so messages that fail to parse can still be identified. It
// falls back to the message key when the payload has no usable id.
func RawReservoirID(raw RawEvent) string {
	var head struct {
		ReservoirID string `json:"reservoir_id"`
	}
	if json.Unmarshal(raw.Value, &head) == nil {
		if id := strings.TrimSpace(head.ReservoirID); id != "" {
			return id
		}
	}
	return strings.TrimSpace(string(raw.Key))
}
