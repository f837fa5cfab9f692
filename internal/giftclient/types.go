package giftclient

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// LookupResult is the team mapping returned for a staff pass.
// Fields are taken from the response as-is; nothing is validated.
type LookupResult struct {
	StaffPassID string `json:"staff_pass_id"`
	TeamName    string `json:"team_name"`
	CreatedAt   string `json:"created_at"`
}

// RedemptionOutcome is either Redeemed or RedemptionFailed.
type RedemptionOutcome interface {
	isRedemptionOutcome()
}

// Redeemed is the body of a successful redemption.
type Redeemed struct {
	TeamName   string `json:"team_name"`
	RedeemedAt string `json:"redeemed_at"`
}

// RedemptionFailed carries the server's reason for refusing a redemption.
type RedemptionFailed struct {
	Message string `json:"error"`
}

func (Redeemed) isRedemptionOutcome()         {}
func (RedemptionFailed) isRedemptionOutcome() {}

type redemptionRequest struct {
	StaffPassID string `json:"staff_pass_id"`
}

// decodeLookup accepts any JSON document. A falsy document (null, false, 0
// or "") means there is nothing to show and yields nil. Objects have their
// known keys copied over; any other value yields an empty result.
func decodeLookup(body []byte) (*LookupResult, error) {
	var doc any
	if err := unmarshalNumbers(body, &doc); err != nil {
		return nil, err
	}
	if falsy(doc) {
		return nil, nil
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return &LookupResult{}, nil
	}
	return &LookupResult{
		StaffPassID: field(obj, "staff_pass_id"),
		TeamName:    field(obj, "team_name"),
		CreatedAt:   field(obj, "created_at"),
	}, nil
}

// decodeOutcome branches on the presence of an "error" key. A falsy document
// decodes to a nil outcome; other non-objects are ErrMalformedOutcome.
func decodeOutcome(body []byte) (RedemptionOutcome, error) {
	var doc any
	if err := unmarshalNumbers(body, &doc); err != nil {
		return nil, err
	}
	if falsy(doc) {
		return nil, nil
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, ErrMalformedOutcome
	}
	if _, failed := obj["error"]; failed {
		return RedemptionFailed{Message: field(obj, "error")}, nil
	}
	return Redeemed{
		TeamName:   field(obj, "team_name"),
		RedeemedAt: field(obj, "redeemed_at"),
	}, nil
}

// falsy reports whether a decoded document counts as "no value": null,
// false, zero or the empty string. Empty objects and arrays do not.
func falsy(doc any) bool {
	switch v := doc.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case json.Number:
		f, err := strconv.ParseFloat(v.String(), 64)
		return err == nil && f == 0
	}
	return false
}

func unmarshalNumbers(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

// field renders obj[key] as text. Strings are returned unquoted, null and
// missing keys as "", everything else as its JSON encoding.
func field(obj map[string]any, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
