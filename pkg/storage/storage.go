package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/nick200000/KatelyaTV/pkg/core"
)

// ErrUserNotFound is returned when no settings row exists for a username.
var ErrUserNotFound = errors.New("user settings not found")

// Manager persists per-user settings in a SQLite database under the
// configured storage directory.
type Manager struct {
	db *sql.DB
}

func NewManager(storageDir string) (*Manager, error) {
	dbPath := filepath.Join(storageDir, "users.db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	m := &Manager{db: db}
	if err := m.initializeSchema(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Manager) initializeSchema() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS user_settings (
			username TEXT PRIMARY KEY,
			filter_adult_content INTEGER NOT NULL DEFAULT 1,
			theme TEXT NOT NULL DEFAULT 'auto',
			auto_play INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating user_settings table: %w", err)
	}
	return nil
}

// GetUserSettings loads the stored settings for a username. Unknown users
// yield ErrUserNotFound; callers are expected to fall back to
// core.DefaultUserSettings.
func (m *Manager) GetUserSettings(username string) (core.UserSettings, error) {
	if username == "" {
		return core.DefaultUserSettings(), ErrUserNotFound
	}

	var filterAdult, autoPlay int
	var theme string
	err := m.db.QueryRow(`
		SELECT filter_adult_content, theme, auto_play
		FROM user_settings WHERE username = ?
	`, username).Scan(&filterAdult, &theme, &autoPlay)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultUserSettings(), ErrUserNotFound
	}
	if err != nil {
		return core.DefaultUserSettings(), fmt.Errorf("querying settings for %s: %w", username, err)
	}

	return core.UserSettings{
		FilterAdultContent: filterAdult != 0,
		Theme:              theme,
		AutoPlay:           autoPlay != 0,
	}, nil
}

// SaveUserSettings upserts the settings row for a username.
func (m *Manager) SaveUserSettings(username string, settings core.UserSettings) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}

	filterAdult := 0
	if settings.FilterAdultContent {
		filterAdult = 1
	}
	autoPlay := 0
	if settings.AutoPlay {
		autoPlay = 1
	}
	theme := settings.Theme
	if theme == "" {
		theme = "auto"
	}

	_, err := m.db.Exec(`
		INSERT INTO user_settings (username, filter_adult_content, theme, auto_play, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			filter_adult_content = excluded.filter_adult_content,
			theme = excluded.theme,
			auto_play = excluded.auto_play,
			updated_at = excluded.updated_at
	`, username, filterAdult, theme, autoPlay, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving settings for %s: %w", username, err)
	}

	return nil
}

// DeleteUserSettings removes the settings row for a username. Deleting an
// unknown user is not an error.
func (m *Manager) DeleteUserSettings(username string) error {
	_, err := m.db.Exec(`DELETE FROM user_settings WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("deleting settings for %s: %w", username, err)
	}
	return nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}
