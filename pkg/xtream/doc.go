// Package xtream provides a Go client for the Xtream Codes API.
//
// Xtream Codes is an IPTV panel system that exposes a REST API for accessing
// live TV streams, video on demand (VOD), TV series, and EPG (Electronic
// Program Guide) data. Panels in the wild are loose about the protocol:
// numeric fields arrive as strings or numbers interchangeably, and EPG
// responses come in several shapes. The types in this package absorb that
// instability at the decode boundary.
//
// # Basic Usage
//
//	client := xtream.NewClient("http://example.com:8080", "username", "password")
//
//	// List live stream categories
//	categories, err := client.GetLiveCategories(ctx)
//
//	// List all live streams
//	streams, err := client.GetLiveStreams(ctx)
//
//	// Count EPG entries for a stream, whatever shape the panel returns
//	table, err := client.GetSimpleDataTable(ctx, 12345)
//	n := table.Count()
//
// Raw variants (GetRaw, GetUserInfoRaw, GetXMLTVRaw) return payloads exactly
// as the panel sent them, for callers that store rather than interpret.
//
// # API Endpoints
//
// The Xtream Codes API uses the following endpoint pattern:
//
//	{baseURL}/player_api.php?username={user}&password={pass}&action={action}
//
// Actions used here:
//   - (no action): Get server info and authentication status
//   - get_live_categories: List live stream categories
//   - get_vod_categories: List VOD categories
//   - get_series_categories: List series categories
//   - get_live_streams: List live streams
//   - get_vod_streams: List VOD content
//   - get_series: List series
//   - get_simple_data_table: Get full EPG (required: stream_id)
//
// Additional endpoints:
//   - {baseURL}/xmltv.php?username={user}&password={pass}: Full XMLTV EPG
//   - {baseURL}/{user}/{pass}/{streamID}: Direct live stream URL
package xtream
