// Package sirdoc handles the trace document exchanged with instrumented
// programs and viewers: decoding the flat input document and building the
// structured document from it.
//
// Input:
//
//	{"events": [{"event":"enter","fn_name":"f","args":{}}, {"event":"leave"}],
//	 "stage3": {"values": {"id": 0, "items": [{"BuiltinValue":"OriginType"}]}}}
//
// Output:
//
//	{"events": [{"event":"call","fn_name":"f","args":{},"body":[]}],
//	 "stage3": {"values": {...}}}
//
// The value pool is passed through unchanged once validated.
package sirdoc
