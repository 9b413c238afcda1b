// Package auth authenticates API callers with static API keys.
package auth

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

const (
	RoleFraudScorer  = "fraud_scorer"
	RoleReportReader = "report_reader"
	RoleAdmin        = "admin"
)

type Identity struct {
	Principal string
	Roles     []string
}

// HasRole reports whether the identity holds role; admin holds every role.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role) || slices.Contains(i.Roles, RoleAdmin)
}

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) (Identity, bool)
}

type StaticAPIKeyValidator struct {
	keys map[string]Identity
}

// NewStaticAPIKeyValidator parses comma-separated key:principal:role|role entries.
func NewStaticAPIKeyValidator(spec string) (*StaticAPIKeyValidator, error) {
	validator := &StaticAPIKeyValidator{keys: map[string]Identity{}}
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, identity, err := parseEntry(entry)
		if err != nil {
			return nil, err
		}
		if _, dup := validator.keys[key]; dup {
			return nil, fmt.Errorf("invalid static key entry %q: duplicate key", entry)
		}
		validator.keys[key] = identity
	}
	return validator, nil
}

func parseEntry(entry string) (string, Identity, error) {
	parts := strings.Split(entry, ":")
	if len(parts) != 3 {
		return "", Identity{}, fmt.Errorf("invalid static key entry %q: expected key:principal:role|role", entry)
	}
	key := strings.TrimSpace(parts[0])
	principal := strings.TrimSpace(parts[1])
	if key == "" || principal == "" {
		return "", Identity{}, fmt.Errorf("invalid static key entry %q: empty key/principal", entry)
	}
	roles := make([]string, 0, 2)
	for _, role := range strings.Split(parts[2], "|") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return "", Identity{}, fmt.Errorf("invalid static key entry %q: at least one role is required", entry)
	}
	slices.Sort(roles)
	return key, Identity{Principal: principal, Roles: slices.Compact(roles)}, nil
}

func (v *StaticAPIKeyValidator) Validate(_ context.Context, apiKey string) (Identity, bool) {
	identity, ok := v.keys[apiKey]
	return identity, ok
}

func (v *StaticAPIKeyValidator) Len() int { return len(v.keys) }
