// Package routes computes the ranked bidirectional route summary.
package routes

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"bike-dash/internal/domain"
)

// ResolveColumns picks the origin and destination columns of t: for each
// role the first candidate present in the table wins. A role with no
// present candidate yields a *domain.SchemaMismatchError.
func ResolveColumns(t *domain.Table, roles domain.ColumnRoles) (origin, destination string, err error) {
	origin = firstPresent(t, roles.Origin)
	destination = firstPresent(t, roles.Destination)

	var missing []string
	if origin == "" {
		missing = append(missing, "origin ("+strings.Join(roles.Origin, ", ")+")")
	}
	if destination == "" {
		missing = append(missing, "destination ("+strings.Join(roles.Destination, ", ")+")")
	}
	if len(missing) > 0 {
		return "", "", &domain.SchemaMismatchError{
			Missing: missing,
			Message: "couldn't find station columns: no match for " + strings.Join(missing, "; "),
		}
	}
	return origin, destination, nil
}

func firstPresent(t *domain.Table, candidates []string) string {
	for _, c := range candidates {
		if t.HasColumn(c) {
			return c
		}
	}
	return ""
}

// TopRoutes counts trips per RouteKey and returns at most limit routes,
// most frequent first. Rows missing either station and rows whose origin
// equals their destination are not counted. Routes with equal counts keep
// the order in which they were first seen. A limit <= 0 selects
// domain.DefaultRouteLimit.
func TopRoutes(t *domain.Table, origin, destination string, limit int) ([]domain.RouteCount, error) {
	if limit <= 0 {
		limit = domain.DefaultRouteLimit
	}
	oi, di := t.ColumnIndex(origin), t.ColumnIndex(destination)
	var missing []string
	if oi < 0 {
		missing = append(missing, origin)
	}
	if di < 0 {
		missing = append(missing, destination)
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaMismatchError{Missing: missing}
	}

	index := make(map[string]int)
	counts := make([]domain.RouteCount, 0)
	for _, row := range t.Rows {
		a, b := row[oi], row[di]
		if a == nil || b == nil {
			continue
		}
		la, lb := domain.FormatValue(a), domain.FormatValue(b)
		if la == lb {
			continue
		}
		key := domain.RouteKey(la, lb)
		if i, ok := index[key]; ok {
			counts[i].Trips++
			continue
		}
		index[key] = len(counts)
		counts = append(counts, domain.RouteCount{Route: key, Trips: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Trips > counts[j].Trips
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

// Service renders route summaries using the configured column roles.
type Service struct {
	roles  domain.ColumnRoles
	limit  int
	logger *slog.Logger
}

// NewService creates a route Service. A limit <= 0 selects the default.
func NewService(roles domain.ColumnRoles, limit int, logger *slog.Logger) *Service {
	if len(roles.Origin) == 0 || len(roles.Destination) == 0 {
		roles = domain.DefaultColumnRoles()
	}
	if limit <= 0 {
		limit = domain.DefaultRouteLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{roles: roles, limit: limit, logger: logger}
}

// Limit returns the configured default route count.
func (s *Service) Limit() int { return s.limit }

// Summary resolves the station columns of t and ranks its routes. When
// the columns cannot be resolved the summary carries a warning instead of
// routes and no error is returned. A limit <= 0 selects the configured one.
func (s *Service) Summary(t *domain.Table, limit int) (*domain.RouteSummary, error) {
	if limit <= 0 {
		limit = s.limit
	}

	origin, destination, err := ResolveColumns(t, s.roles)
	if err != nil {
		var mismatch *domain.SchemaMismatchError
		if errors.As(err, &mismatch) {
			s.logger.Warn("route columns not found", "missing", mismatch.Missing)
			return &domain.RouteSummary{Routes: []domain.RouteCount{}, Warning: mismatch.Error()}, nil
		}
		return nil, err
	}

	top, err := TopRoutes(t, origin, destination, limit)
	if err != nil {
		return nil, fmt.Errorf("rank routes: %w", err)
	}
	return &domain.RouteSummary{
		OriginColumn:      origin,
		DestinationColumn: destination,
		Routes:            top,
	}, nil
}
