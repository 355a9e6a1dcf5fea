package xtream

import (
	"encoding/json"
	"strconv"
)

// Category represents a content category.
type Category struct {
	CategoryID   FlexString `json:"category_id"`
	CategoryName string     `json:"category_name"`
	ParentID     FlexInt    `json:"parent_id"`
}

// Stream represents a live stream.
type Stream struct {
	Num               FlexInt    `json:"num"`
	Name              string     `json:"name"`
	StreamType        string     `json:"stream_type"`
	StreamID          FlexInt    `json:"stream_id"`
	StreamIcon        string     `json:"stream_icon"`
	EPGChannelID      string     `json:"epg_channel_id"`
	CategoryID        FlexString `json:"category_id"`
	TVArchive         FlexInt    `json:"tv_archive"`
	TVArchiveDuration FlexString `json:"tv_archive_duration"`
}

// EPGTableKind classifies the shape a panel used for a get_simple_data_table
// response. Panels disagree: some wrap listings in an object, some return a
// bare array, some return junk. The shape is resolved once at the decode
// boundary and never re-inferred downstream.
type EPGTableKind int

const (
	// EPGTableListings is an object carrying an "epg_listings" array.
	EPGTableListings EPGTableKind = iota
	// EPGTableBareArray is a bare JSON array of listings.
	EPGTableBareArray
	// EPGTableOther is any other shape; it carries no listings.
	EPGTableOther
)

// EPGTable is the defensively-decoded result of get_simple_data_table.
// The entry count is the length of whatever sequence the panel sent;
// Listings holds only the elements that were actually listing-shaped.
type EPGTable struct {
	Kind     EPGTableKind
	Listings []EPGListing

	count int
}

// Count returns the number of EPG entries the response carried, counting
// every element of the sequence whether or not it decoded as a listing.
func (t EPGTable) Count() int {
	return t.count
}

// UnmarshalJSON resolves the response shape into a tagged variant.
func (t *EPGTable) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		EPGListings []json.RawMessage `json:"epg_listings"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.EPGListings != nil {
		t.Kind = EPGTableListings
		t.setEntries(wrapped.EPGListings)
		return nil
	}

	var bare []json.RawMessage
	if err := json.Unmarshal(data, &bare); err == nil && bare != nil {
		t.Kind = EPGTableBareArray
		t.setEntries(bare)
		return nil
	}

	t.Kind = EPGTableOther
	t.Listings = nil
	t.count = 0
	return nil
}

// setEntries records the raw element count and decodes each element into a
// listing best-effort. Elements that are not listing-shaped still count.
func (t *EPGTable) setEntries(raw []json.RawMessage) {
	t.count = len(raw)
	t.Listings = nil
	for _, entry := range raw {
		var listing EPGListing
		if err := json.Unmarshal(entry, &listing); err == nil {
			t.Listings = append(t.Listings, listing)
		}
	}
}

// EPGListing represents a single EPG entry.
type EPGListing struct {
	ID             FlexString `json:"id"`
	EPGId          FlexString `json:"epg_id"`
	Title          FlexString `json:"title"`
	Lang           string     `json:"lang"`
	Start          string     `json:"start"`
	End            string     `json:"end"`
	Description    string     `json:"description"`
	ChannelID      string     `json:"channel_id"`
	StartTimestamp FlexInt    `json:"start_timestamp"`
	StopTimestamp  FlexInt    `json:"stop_timestamp"`
}

// FlexInt handles JSON numbers that may be strings or integers.
type FlexInt int64

// Int returns the integer value.
func (f FlexInt) Int() int64 {
	return int64(f)
}

// UnmarshalJSON handles both string and number JSON values.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexInt(n)
		return nil
	}

	*f = 0
	return nil
}

// FlexString handles JSON values that may be strings or numbers.
type FlexString string

// String returns the string value.
func (f FlexString) String() string {
	return string(f)
}

// UnmarshalJSON handles both string and number JSON values.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	*f = ""
	return nil
}
