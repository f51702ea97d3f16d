package domain

import "encoding/json"

// ProfileRecord is the profile document returned by the scraping API. It is passed
// through untouched; only its presence and JSON validity are checked.
type ProfileRecord = json.RawMessage

// CacheStatus describes the outcome of a cache probe for the debug endpoint.
type CacheStatus string

const (
	CacheStatusHit          CacheStatus = "HIT"
	CacheStatusMiss         CacheStatus = "MISS"
	CacheStatusError        CacheStatus = "ERROR"
	CacheStatusNotAvailable CacheStatus = "N/A"
)
