package model

import (
	"fmt"
	"strings"
)

// StatusFilter restricts the vehicle list to one status, or to none with FilterAll.
type StatusFilter string

const FilterAll StatusFilter = "all"

// ParseStatusFilter accepts "all" or any VehicleStatus, case-insensitively.
// An empty string is treated as "all".
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", string(FilterAll):
		return FilterAll, nil
	case string(StatusMoving), string(StatusCharging), string(StatusIdle):
		return StatusFilter(v), nil
	default:
		return "", fmt.Errorf("unknown status filter %q", s)
	}
}

// Matches reports whether a vehicle with status st passes the filter.
func (f StatusFilter) Matches(st VehicleStatus) bool {
	return f == FilterAll || f == "" || VehicleStatus(f) == st
}

// SortKey selects the numeric field the vehicle list is sorted by (descending).
// SortNone keeps the order in which vehicles were delivered.
type SortKey string

const (
	SortNone     SortKey = ""
	SortBattery  SortKey = "battery"
	SortSpeed    SortKey = "speed"
	SortDistance SortKey = "distance"
)

// ParseSortKey accepts battery, speed, distance, or ""/"none" for no sorting.
func ParseSortKey(s string) (SortKey, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", "none":
		return SortNone, nil
	case string(SortBattery), string(SortSpeed), string(SortDistance):
		return SortKey(v), nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// Value extracts the field the key sorts by.
func (k SortKey) Value(v *Vehicle) float64 {
	switch k {
	case SortBattery:
		return v.Battery
	case SortSpeed:
		return v.Speed
	case SortDistance:
		return v.Distance
	default:
		return 0
	}
}

// Query holds the list-view parameters owned by the store.
type Query struct {
	Search       string       `json:"search"`
	FilterStatus StatusFilter `json:"status"`
	SortBy       SortKey      `json:"sortBy"`
}
