package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"bike-dash/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadColumnRoles reads the origin/destination candidate lists from a YAML
// file. An empty path returns the built-in defaults.
//
//	origin: [start_station_name, start_station_id]
//	destination: [end_station_name, end_station_id]
func LoadColumnRoles(path string) (domain.ColumnRoles, error) {
	if path == "" {
		return domain.DefaultColumnRoles(), nil
	}
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return domain.ColumnRoles{}, fmt.Errorf("COLUMNS_FILE: %w", err)
	}
	defer f.Close() //nolint:errcheck

	roles, err := ParseColumnRoles(f)
	if err != nil {
		return domain.ColumnRoles{}, fmt.Errorf("COLUMNS_FILE %s: %w", path, err)
	}
	return roles, nil
}

// ParseColumnRoles decodes and validates a YAML role mapping. Unknown keys
// are rejected.
func ParseColumnRoles(r io.Reader) (domain.ColumnRoles, error) {
	var roles domain.ColumnRoles
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&roles); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ColumnRoles{}, domain.ErrValidation("column roles: file is empty")
		}
		return domain.ColumnRoles{}, domain.ErrValidation("column roles: %v", err)
	}
	for i := range roles.Origin {
		roles.Origin[i] = strings.TrimSpace(roles.Origin[i])
	}
	for i := range roles.Destination {
		roles.Destination[i] = strings.TrimSpace(roles.Destination[i])
	}
	if err := validate.Struct(roles); err != nil {
		return domain.ColumnRoles{}, domain.ErrValidation("column roles: %s", describe(err))
	}
	return roles, nil
}

// describe flattens validator errors into "field: tag" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
