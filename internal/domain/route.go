package domain

// RouteSeparator joins the two station labels of a RouteKey.
const RouteSeparator = " ↔ "

// DefaultRouteLimit is the number of routes kept by the top-routes summary.
const DefaultRouteLimit = 10

// Default candidate column names per role, in priority order.
var (
	DefaultOriginCandidates      = []string{"start_station_name", "start_station", "start_station_id"}
	DefaultDestinationCandidates = []string{"end_station_name", "end_station", "end_station_id"}
)

// RouteKey returns the order-independent identity of a station pair.
// RouteKey(a, b) == RouteKey(b, a).
func RouteKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + RouteSeparator + b
}

// RouteCount is one row of the ranked top-routes table.
type RouteCount struct {
	Route string `json:"route"`
	Trips int64  `json:"trips"`
}

// ColumnRoles maps the logical origin/destination roles to candidate
// column names in priority order.
type ColumnRoles struct {
	Origin      []string `yaml:"origin" json:"origin" validate:"required,min=1,dive,required"`
	Destination []string `yaml:"destination" json:"destination" validate:"required,min=1,dive,required"`
}

// DefaultColumnRoles returns the built-in candidate lists.
func DefaultColumnRoles() ColumnRoles {
	return ColumnRoles{
		Origin:      append([]string(nil), DefaultOriginCandidates...),
		Destination: append([]string(nil), DefaultDestinationCandidates...),
	}
}

// RouteSummary is the result the dashboard renders for the routes view.
// Warning is set instead of Routes when the columns could not be resolved.
type RouteSummary struct {
	OriginColumn      string       `json:"origin_column,omitempty"`
	DestinationColumn string       `json:"destination_column,omitempty"`
	Routes            []RouteCount `json:"routes"`
	Warning           string       `json:"warning,omitempty"`
}
