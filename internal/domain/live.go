package domain

import "time"

// Live snapshot feed and column names.
const (
	FeedStationInformation = "station_information"
	FeedStationStatus      = "station_status"

	StationKeyColumn = "station_id"
	SortBikesColumn  = "num_bikes_available"

	// LiveTopStations is the number of stations a snapshot keeps.
	LiveTopStations = 20
)

// LiveDisplayColumns lists the snapshot columns in display order. Only
// those present in the joined feeds are kept.
var LiveDisplayColumns = []string{
	"name", "lat", "lon",
	"num_bikes_available", "num_docks_available",
	"is_installed", "is_renting", "is_returning",
}

// LiveSnapshot is the ranked live station table.
type LiveSnapshot struct {
	Stations   *Table    `json:"stations"`
	SortColumn string    `json:"sort_column"`
	Language   string    `json:"language,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}
