package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/leapstack-labs/leapdash/pkg/core"
)

var errNotOpened = errors.New("database not opened")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("state store opened", slog.String("path", path))
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// --- Dashboard operations ---

const dashboardColumns = `id, name, widgets, layout, relationships, created_at, updated_at`

// CreateDashboard creates an empty dashboard.
func (s *SQLiteStore) CreateDashboard(name string) (*Dashboard, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	now := time.Now().UTC()
	d := &Dashboard{
		ID:            generateID(),
		Name:          name,
		Widgets:       []core.Widget{},
		Relationships: []core.Relationship{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := s.db.Exec(
		`INSERT INTO dashboards (id, name, widgets, relationships, created_at, updated_at) VALUES (?, ?, '[]', '[]', ?, ?)`,
		d.ID, d.Name, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard: %w", err)
	}

	s.logger.Debug("dashboard created", slog.String("id", d.ID), slog.String("name", name))
	return d, nil
}

// GetDashboard retrieves a dashboard by ID.
func (s *SQLiteStore) GetDashboard(id string) (*Dashboard, error) {
	return s.getDashboard(`SELECT `+dashboardColumns+` FROM dashboards WHERE id = ?`, id)
}

// GetDashboardByName retrieves a dashboard by name.
func (s *SQLiteStore) GetDashboardByName(name string) (*Dashboard, error) {
	return s.getDashboard(`SELECT `+dashboardColumns+` FROM dashboards WHERE name = ?`, name)
}

func (s *SQLiteStore) getDashboard(query string, arg string) (*Dashboard, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	d, err := scanDashboard(s.db.QueryRow(query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard: %w", err)
	}
	return d, nil
}

// ListDashboards returns every dashboard ordered by name.
func (s *SQLiteStore) ListDashboards() ([]*Dashboard, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.Query(`SELECT ` + dashboardColumns + ` FROM dashboards ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Dashboard
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dashboard: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dashboards: %w", err)
	}
	return out, nil
}

// SaveWidgets replaces the widgets and layout of a dashboard.
func (s *SQLiteStore) SaveWidgets(id string, widgets []core.Widget, layout json.RawMessage) error {
	if widgets == nil {
		widgets = []core.Widget{}
	}
	blob, err := json.Marshal(widgets)
	if err != nil {
		return fmt.Errorf("failed to encode widgets: %w", err)
	}
	var layoutArg any
	if len(layout) > 0 {
		layoutArg = string(layout)
	}
	return s.update(id, `UPDATE dashboards SET widgets = ?, layout = ?, updated_at = ? WHERE id = ?`,
		string(blob), layoutArg, time.Now().UTC(), id)
}

// SaveRelationships replaces the relationships of a dashboard.
func (s *SQLiteStore) SaveRelationships(id string, rels []core.Relationship) error {
	if rels == nil {
		rels = []core.Relationship{}
	}
	blob, err := json.Marshal(rels)
	if err != nil {
		return fmt.Errorf("failed to encode relationships: %w", err)
	}
	return s.update(id, `UPDATE dashboards SET relationships = ?, updated_at = ? WHERE id = ?`,
		string(blob), time.Now().UTC(), id)
}

// LoadRelationships returns the relationships of a dashboard.
func (s *SQLiteStore) LoadRelationships(id string) ([]core.Relationship, error) {
	d, err := s.GetDashboard(id)
	if err != nil {
		return nil, err
	}
	return d.Relationships, nil
}

// DeleteDashboard removes a dashboard.
func (s *SQLiteStore) DeleteDashboard(id string) error {
	return s.update(id, `DELETE FROM dashboards WHERE id = ?`, id)
}

func (s *SQLiteStore) update(id, query string, args ...any) error {
	if s.db == nil {
		return errNotOpened
	}
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update dashboard: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update dashboard: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDashboard(row scanner) (*Dashboard, error) {
	d := &Dashboard{}
	var widgets, rels string
	var layout sql.NullString
	if err := row.Scan(&d.ID, &d.Name, &widgets, &layout, &rels, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(widgets), &d.Widgets); err != nil {
		return nil, fmt.Errorf("failed to decode widgets of %s: %w", d.ID, err)
	}
	if err := json.Unmarshal([]byte(rels), &d.Relationships); err != nil {
		return nil, fmt.Errorf("failed to decode relationships of %s: %w", d.ID, err)
	}
	if layout.Valid {
		d.Layout = json.RawMessage(layout.String)
	}
	return d, nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
