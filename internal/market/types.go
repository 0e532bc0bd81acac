package market

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Float is an optional numeric field of a snapshot record.
// Decoding accepts JSON numbers, numeric strings and null; any other value
// leaves the field unset instead of failing the whole document.
type Float struct {
	Value float64
	Valid bool
}

// NewFloat returns a set Float
func NewFloat(v float64) Float {
	return Float{Value: v, Valid: true}
}

// MarshalJSON encodes an unset value as null
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid || math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON never returns an error for a well-formed JSON value
func (f *Float) UnmarshalJSON(data []byte) error {
	*f = Float{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
	} else {
		s = string(data)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*f = Float{Value: v, Valid: true}
	return nil
}

// text decodes a JSON string and leaves any other value empty
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	*t = ""
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = text(s)
	}
	return nil
}

// Record is one asset's state at one fetch instant
type Record struct {
	ID                           string `json:"id"`
	Symbol                       string `json:"symbol"`
	Name                         string `json:"name"`
	CurrentPrice                 Float  `json:"current_price"`
	MarketCap                    Float  `json:"market_cap"`
	MarketCapChangePercentage24h Float  `json:"market_cap_change_percentage_24h"`
	TotalVolume                  Float  `json:"total_volume"`
	PriceChangePercentage24h     Float  `json:"price_change_percentage_24h"`
	Image                        string `json:"image"`
	Low24h                       Float  `json:"low_24h"`
	High24h                      Float  `json:"high_24h"`
	CollectTimestamp             string `json:"collect_timestamp,omitempty"`
}

// UnmarshalJSON decodes a record object. Text fields holding a non-string
// value are left empty, so a record with a numeric collect_timestamp falls
// back to its file's date.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	*r = Record{}
	aux := struct {
		*plain
		ID               text `json:"id"`
		Symbol           text `json:"symbol"`
		Name             text `json:"name"`
		Image            text `json:"image"`
		CollectTimestamp text `json:"collect_timestamp"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.ID = string(aux.ID)
	r.Symbol = string(aux.Symbol)
	r.Name = string(aux.Name)
	r.Image = string(aux.Image)
	r.CollectTimestamp = string(aux.CollectTimestamp)
	return nil
}
