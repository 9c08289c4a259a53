package models

import "time"

// Asset is a tracked piece of managed equipment or software. Staff-only.
type Asset struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Tag            *string    `json:"tag"`
	AssetType      string     `json:"asset_type"`
	Impact         string     `json:"impact"`
	Description    string     `json:"description"`
	EndOfLife      *time.Time `json:"end_of_life"`
	Location       string     `json:"location"`
	Department     string     `json:"department"`
	ManagedByGroup string     `json:"managed_by_group"`
	ManagedBy      *string    `json:"managed_by"`
}
