// Package state persists dashboards and their relationships in SQLite.
//
// Widgets, layout and relationships are stored as JSON blobs on the
// dashboard row; nothing here interprets them beyond decoding.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/leapstack-labs/leapdash/pkg/core"
)

// ErrNotFound is returned when a dashboard does not exist.
var ErrNotFound = errors.New("dashboard not found")

// Dashboard is a saved dashboard.
type Dashboard struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Widgets       []core.Widget       `json:"widgets"`
	Layout        json.RawMessage     `json:"layout,omitempty"`
	Relationships []core.Relationship `json:"relationships"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// Store is the dashboard persistence contract.
type Store interface {
	Open(path string) error
	Close() error
	Migrate(ctx context.Context) error

	CreateDashboard(name string) (*Dashboard, error)
	GetDashboard(id string) (*Dashboard, error)
	GetDashboardByName(name string) (*Dashboard, error)
	ListDashboards() ([]*Dashboard, error)
	SaveWidgets(id string, widgets []core.Widget, layout json.RawMessage) error
	DeleteDashboard(id string) error

	SaveRelationships(id string, rels []core.Relationship) error
	LoadRelationships(id string) ([]core.Relationship, error)
}
