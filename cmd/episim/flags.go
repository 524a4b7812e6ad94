package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/episim/internal/automation"
)

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// parseAssignments reads name=value pairs.
func parseAssignments(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", pair)
		}
		v, err := parseFloat(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[strings.TrimSpace(name)] = v
	}
	return out, nil
}

// parseRange reads name=min:max, with an optional :n count.
func parseRange(spec string) (name string, rg automation.Range, n int, err error) {
	name, bounds, ok := strings.Cut(spec, "=")
	if !ok || name == "" {
		return "", rg, 0, fmt.Errorf("expected name=min:max, got %q", spec)
	}
	parts := strings.Split(bounds, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", rg, 0, fmt.Errorf("expected name=min:max[:n], got %q", spec)
	}
	if rg.Min, err = parseFloat(parts[0]); err != nil {
		return "", rg, 0, err
	}
	if rg.Max, err = parseFloat(parts[1]); err != nil {
		return "", rg, 0, err
	}
	if rg.Max < rg.Min {
		return "", rg, 0, fmt.Errorf("range %s: max below min", name)
	}
	n = 1
	if len(parts) == 3 {
		if n, err = strconv.Atoi(parts[2]); err != nil || n < 1 {
			return "", rg, 0, fmt.Errorf("range %s: invalid count %q", name, parts[2])
		}
	}
	return strings.TrimSpace(name), rg, n, nil
}
