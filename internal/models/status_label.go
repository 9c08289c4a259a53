package models

// StatusLabel is a named, colored lifecycle tag for incidents (e.g. Open).
// Names are unique; color is a hex string like #FF0000.
type StatusLabel struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

const DefaultLabelColor = "#808080"

// StatusOpen is the label name applied to freshly created incidents when it
// exists.
const StatusOpen = "Open"
