package audit

import "time"

// TimelineFilters narrows the access trail to a window and optional axes.
// Granted is tri-state: nil means both outcomes.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Actor    string
	Entity   string
	Reason   string
	Granted  *bool
	Page     int
	PageSize int
}

// TimelineRow is one access decision as presented to reviewers.
type TimelineRow struct {
	At         time.Time
	Actor      string
	Role       string
	Entity     string
	EntityID   string
	Permission string
	Granted    bool
	Reason     string
	Action     string
}

// PagingInfo carries simple pagination metadata.
type PagingInfo struct {
	Page     int
	HasNext  bool
	PageSize int
	PrevPage int
	NextPage int
}
