package xtream

import (
	"encoding/json"
	"testing"
)

func TestFlexInt_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{`42`, 42},
		{`"42"`, 42},
		{`""`, 0},
		{`"junk"`, 0},
		{`null`, 0},
		{`-7`, -7},
	}

	for _, tt := range tests {
		var f FlexInt
		if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
			t.Errorf("unmarshal %s: unexpected error: %v", tt.input, err)
			continue
		}
		if f.Int() != tt.want {
			t.Errorf("unmarshal %s: expected %d, got %d", tt.input, tt.want, f.Int())
		}
	}
}

func TestFlexString_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"abc"`, "abc"},
		{`7`, "7"},
		{`7.5`, "7.5"},
		{`null`, ""},
	}

	for _, tt := range tests {
		var f FlexString
		if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
			t.Errorf("unmarshal %s: unexpected error: %v", tt.input, err)
			continue
		}
		if f.String() != tt.want {
			t.Errorf("unmarshal %s: expected %q, got %q", tt.input, tt.want, f.String())
		}
	}
}

func TestEPGTable_UnmarshalJSON_NeverErrors(t *testing.T) {
	inputs := []string{`{}`, `[]`, `"text"`, `123`, `true`, `{"other": 1}`}

	for _, input := range inputs {
		var table EPGTable
		if err := json.Unmarshal([]byte(input), &table); err != nil {
			t.Errorf("unmarshal %s: unexpected error: %v", input, err)
		}
	}
}

func TestEPGTable_CountsEveryElement(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKind  EPGTableKind
		wantCount int
	}{
		{"bare numbers", `[1, 2]`, EPGTableBareArray, 2},
		{"wrapped strings", `{"epg_listings": ["a", "b", "c"]}`, EPGTableListings, 3},
		{"wrapped mixed", `{"epg_listings": [{"id": "1"}, 7, null]}`, EPGTableListings, 3},
		{"bare empty array", `[]`, EPGTableBareArray, 0},
		{"null", `null`, EPGTableOther, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var table EPGTable
			if err := json.Unmarshal([]byte(tt.input), &table); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if table.Kind != tt.wantKind {
				t.Errorf("expected kind %v, got %v", tt.wantKind, table.Kind)
			}
			if table.Count() != tt.wantCount {
				t.Errorf("expected count %d, got %d", tt.wantCount, table.Count())
			}
		})
	}
}

func TestEPGTable_NumericTitleStillCounts(t *testing.T) {
	var table EPGTable
	if err := json.Unmarshal([]byte(`{"epg_listings": [{"title": 123}]}`), &table); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Count() != 1 {
		t.Errorf("expected count 1, got %d", table.Count())
	}
	if len(table.Listings) != 1 {
		t.Fatalf("expected the entry to decode, got %d listings", len(table.Listings))
	}
	if table.Listings[0].Title.String() != "123" {
		t.Errorf("expected numeric title to decode as '123', got %q", table.Listings[0].Title.String())
	}
}

func TestEPGTable_NonListingElementsSkippedButCounted(t *testing.T) {
	var table EPGTable
	if err := json.Unmarshal([]byte(`["junk", {"id": "9", "title": "News"}]`), &table); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Count() != 2 {
		t.Errorf("expected count 2, got %d", table.Count())
	}
	if len(table.Listings) != 1 {
		t.Fatalf("expected 1 decodable listing, got %d", len(table.Listings))
	}
	if table.Listings[0].ID.String() != "9" {
		t.Errorf("expected listing id '9', got %q", table.Listings[0].ID.String())
	}
}

func TestEPGTable_WrappedListings(t *testing.T) {
	var table EPGTable
	err := json.Unmarshal([]byte(`{"epg_listings": [{"title": "News", "start_timestamp": "1700000000"}]}`), &table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Kind != EPGTableListings {
		t.Errorf("expected listings kind, got %v", table.Kind)
	}
	if table.Count() != 1 {
		t.Errorf("expected 1 listing, got %d", table.Count())
	}
	if table.Listings[0].StartTimestamp.Int() != 1700000000 {
		t.Errorf("expected start timestamp to decode, got %d", table.Listings[0].StartTimestamp.Int())
	}
}
