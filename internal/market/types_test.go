package market

import (
	"encoding/json"
	"testing"
)

func TestFloat_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		want  float64
	}{
		{`123.5`, true, 123.5},
		{`"42"`, true, 42},
		{`" 7.25 "`, true, 7.25},
		{`0`, true, 0},
		{`null`, false, 0},
		{`"abc"`, false, 0},
		{`"NaN"`, false, 0},
		{`true`, false, 0},
		{`{"a":1}`, false, 0},
		{`[1]`, false, 0},
	}

	for _, tt := range tests {
		var f Float
		if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
			t.Errorf("%s: unexpected error %v", tt.in, err)
			continue
		}
		if f.Valid != tt.valid || f.Value != tt.want {
			t.Errorf("%s: got %+v, want valid=%v value=%v", tt.in, f, tt.valid, tt.want)
		}
	}
}

func TestRecord_BadFieldDoesNotFailDocument(t *testing.T) {
	var records []Record
	data := `[{"id":"bitcoin","current_price":"not a number","market_cap":{"nested":true}},{"id":"ethereum","current_price":10}]`
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].CurrentPrice.Valid || records[0].MarketCap.Valid {
		t.Errorf("Expected invalid fields to be unset: %+v", records[0])
	}
	if !records[1].CurrentPrice.Valid {
		t.Errorf("Expected valid price for second record")
	}
}

func TestRecord_NonStringTextFieldsAreLeftEmpty(t *testing.T) {
	var rec Record
	data := `{"id":"ethereum","symbol":42,"name":"Ethereum","image":null,"current_price":3400,"collect_timestamp":1709287200}`
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if rec.ID != "ethereum" || rec.Name != "Ethereum" {
		t.Errorf("unexpected identity %q %q", rec.ID, rec.Name)
	}
	if rec.Symbol != "" || rec.Image != "" || rec.CollectTimestamp != "" {
		t.Errorf("Expected non-string text fields to be empty: %+v", rec)
	}
	if !rec.CurrentPrice.Valid || rec.CurrentPrice.Value != 3400 {
		t.Errorf("unexpected price %+v", rec.CurrentPrice)
	}

	if err := json.Unmarshal([]byte(`"bitcoin"`), &rec); err == nil {
		t.Error("Expected an error for a non-object record")
	}
}

func TestFloat_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		A Float `json:"a"`
		B Float `json:"b"`
	}{A: NewFloat(1.5)})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(out) != `{"a":1.5,"b":null}` {
		t.Errorf("unexpected encoding %s", out)
	}
}
