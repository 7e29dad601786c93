package calibration

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Result is one entry of the calibration service response.
type Result struct {
	DeviceID        string `json:"device_id"`
	CalibratedValue Value  `json:"calibrated_value"`
}

// ParseResults decodes a JSON array of results. Unknown fields are ignored and a
// missing calibrated_value decodes as null.
func ParseResults(body []byte) ([]Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ParseError{Err: errors.New("response is not a json array")}
	}

	results := []Result{}
	if err := json.Unmarshal(trimmed, &results); err != nil {
		return nil, &ParseError{Err: err}
	}
	return results, nil
}
