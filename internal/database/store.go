package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const profileColumns = `id, account_type, display_name, created,
	niche, location_current, location_hometown, bio, verified, selfie_uploaded,
	creator_personality, creator_platform_handle, creator_platform_url,
	creator_autofill, creator_earnings_band, creator_content_types, creator_photos,
	agency_name, agency_website, agency_success_story, agency_services,
	agency_content_specialties, agency_payment_model, agency_fee_band,
	agency_commission_band, agency_payment_other`

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// ResolveProfile looks up a profile id by its identity pair using exact,
	// case-sensitive string equality. Returns 0 when no row matches. If more
	// than one row matches, the most recently created is authoritative.
	ResolveProfile(ctx context.Context, displayName string, accountType AccountType) (int64, error)

	// UpsertProfile inserts or updates the single live row for the profile's
	// identity pair. On update every column except the identity pair and the
	// original created timestamp is overwritten. Returns the surrogate id.
	UpsertProfile(ctx context.Context, profile *Profile) (int64, error)

	// GetProfileByID retrieves a profile by surrogate id.
	GetProfileByID(ctx context.Context, id int64) (*Profile, error)

	// ListProfilesByType retrieves all profiles of one role, newest first.
	ListProfilesByType(ctx context.Context, accountType AccountType) ([]Profile, error)

	// ListProfiles retrieves all profiles, newest first.
	ListProfiles(ctx context.Context) ([]Profile, error)

	// SaveMessage appends one immutable message row.
	SaveMessage(ctx context.Context, message *Message) error

	// Inbox retrieves all messages where the profile is sender or receiver,
	// newest first.
	Inbox(ctx context.Context, profileID int64) ([]Message, error)

	// SaveConnection records an unordered interest pair. Repeat insertion of
	// the same pair returns the existing row.
	SaveConnection(ctx context.Context, a, b int64) (*Connection, error)

	// ListConnections retrieves all connections involving the profile,
	// newest first.
	ListConnections(ctx context.Context, profileID int64) ([]Connection, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) ResolveProfile(ctx context.Context, displayName string, accountType AccountType) (int64, error) {
	if displayName == "" {
		return 0, fmt.Errorf("display name cannot be empty")
	}
	if !accountType.Valid() {
		return 0, fmt.Errorf("unknown account type %q", accountType)
	}

	var id int64
	query := `SELECT id FROM profiles
	          WHERE display_name = ? AND account_type = ?
	          ORDER BY created DESC LIMIT 1`

	err := s.db.GetContext(ctx, &id, query, displayName, accountType)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while resolving profile",
			"display_name", displayName, "error", err)
		return 0, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error resolving profile identity",
			"display_name", displayName, "account_type", accountType, "error", err)
		return 0, fmt.Errorf("failed to resolve profile %q/%s: %w", displayName, accountType, err)
	}

	return id, nil
}

// UpsertProfile maintains the one-row-per-identity invariant: if the identity
// pair resolves, all mutable columns are overwritten and the original id and
// created timestamp are preserved; otherwise a new row is inserted.
func (s *sqlxStore) UpsertProfile(ctx context.Context, profile *Profile) (int64, error) {
	if profile == nil {
		return 0, fmt.Errorf("cannot save nil profile")
	}
	if strings.TrimSpace(profile.DisplayName) == "" {
		return 0, fmt.Errorf("profile must have a non-empty display_name")
	}
	if !profile.AccountType.Valid() {
		return 0, fmt.Errorf("profile has unknown account type %q", profile.AccountType)
	}

	if profile.Created.IsZero() {
		profile.Created = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for profile upsert",
			"display_name", profile.DisplayName, "error", err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			if !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	var existing struct {
		ID      int64     `db:"id"`
		Created time.Time `db:"created"`
	}
	err = tx.GetContext(ctx, &existing,
		`SELECT id, created FROM profiles
		 WHERE display_name = ? AND account_type = ?
		 ORDER BY created DESC LIMIT 1`,
		profile.DisplayName, profile.AccountType)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.ErrorContext(ctx, "Error checking if profile exists",
			"display_name", profile.DisplayName, "error", err)
		return 0, fmt.Errorf("failed to check if profile exists: %w", err)
	}

	if err == nil {
		// First-writer-wins on id and created.
		profile.ID = existing.ID
		profile.Created = existing.Created

		query := `
			UPDATE profiles SET
				niche = :niche,
				location_current = :location_current,
				location_hometown = :location_hometown,
				bio = :bio,
				verified = :verified,
				selfie_uploaded = :selfie_uploaded,
				creator_personality = :creator_personality,
				creator_platform_handle = :creator_platform_handle,
				creator_platform_url = :creator_platform_url,
				creator_autofill = :creator_autofill,
				creator_earnings_band = :creator_earnings_band,
				creator_content_types = :creator_content_types,
				creator_photos = :creator_photos,
				agency_name = :agency_name,
				agency_website = :agency_website,
				agency_success_story = :agency_success_story,
				agency_services = :agency_services,
				agency_content_specialties = :agency_content_specialties,
				agency_payment_model = :agency_payment_model,
				agency_fee_band = :agency_fee_band,
				agency_commission_band = :agency_commission_band,
				agency_payment_other = :agency_payment_other
			WHERE id = :id
		`
		if _, err = tx.NamedExecContext(ctx, query, profile); err != nil {
			s.logger.ErrorContext(ctx, "Error updating profile",
				"id", profile.ID, "display_name", profile.DisplayName, "error", err)
			return 0, fmt.Errorf("failed to update profile %d: %w", profile.ID, err)
		}
	} else {
		query := `
			INSERT INTO profiles (
				account_type, display_name, created,
				niche, location_current, location_hometown, bio, verified, selfie_uploaded,
				creator_personality, creator_platform_handle, creator_platform_url,
				creator_autofill, creator_earnings_band, creator_content_types, creator_photos,
				agency_name, agency_website, agency_success_story, agency_services,
				agency_content_specialties, agency_payment_model, agency_fee_band,
				agency_commission_band, agency_payment_other
			) VALUES (
				:account_type, :display_name, :created,
				:niche, :location_current, :location_hometown, :bio, :verified, :selfie_uploaded,
				:creator_personality, :creator_platform_handle, :creator_platform_url,
				:creator_autofill, :creator_earnings_band, :creator_content_types, :creator_photos,
				:agency_name, :agency_website, :agency_success_story, :agency_services,
				:agency_content_specialties, :agency_payment_model, :agency_fee_band,
				:agency_commission_band, :agency_payment_other
			)
		`
		result, execErr := tx.NamedExecContext(ctx, query, profile)
		if execErr != nil {
			s.logger.ErrorContext(ctx, "Error inserting profile",
				"display_name", profile.DisplayName, "error", execErr)
			return 0, fmt.Errorf("failed to insert profile: %w", execErr)
		}

		id, idErr := result.LastInsertId()
		if idErr != nil {
			return 0, fmt.Errorf("failed to get inserted profile id: %w", idErr)
		}
		profile.ID = id
	}

	if err = tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit profile upsert",
			"display_name", profile.DisplayName, "error", err)
		return 0, fmt.Errorf("failed to commit profile upsert: %w", err)
	}

	s.logger.DebugContext(ctx, "Profile upserted",
		"id", profile.ID, "display_name", profile.DisplayName, "account_type", profile.AccountType)
	return profile.ID, nil
}

func (s *sqlxStore) GetProfileByID(ctx context.Context, id int64) (*Profile, error) {
	if id == 0 {
		return nil, fmt.Errorf("profile id cannot be zero")
	}

	var profile Profile
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ?`

	err := s.db.GetContext(ctx, &profile, query, id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("profile %d: %w", id, ErrNotFound)

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching profile",
			"id", id, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting profile by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get profile %d: %w", id, err)
	}

	return &profile, nil
}

func (s *sqlxStore) ListProfilesByType(ctx context.Context, accountType AccountType) ([]Profile, error) {
	if !accountType.Valid() {
		return nil, fmt.Errorf("unknown account type %q", accountType)
	}

	var profiles []Profile
	query := `SELECT ` + profileColumns + ` FROM profiles
	          WHERE account_type = ? ORDER BY created DESC`

	if err := s.db.SelectContext(ctx, &profiles, query, accountType); err != nil {
		s.logger.ErrorContext(ctx, "Error listing profiles by type",
			"account_type", accountType, "error", err)
		return nil, fmt.Errorf("failed to list %s profiles: %w", accountType, err)
	}

	return profiles, nil
}

func (s *sqlxStore) ListProfiles(ctx context.Context) ([]Profile, error) {
	var profiles []Profile
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY created DESC`

	if err := s.db.SelectContext(ctx, &profiles, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing profiles", "error", err)
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	return profiles, nil
}

// SaveMessage inserts a new message record. Messages are append-only.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.SenderID == 0 {
		return fmt.Errorf("message must have a non-zero sender_id")
	}
	if message.ReceiverID == 0 {
		return fmt.Errorf("message must have a non-zero receiver_id")
	}
	if strings.TrimSpace(message.Body) == "" {
		return fmt.Errorf("message must have a non-empty body")
	}

	if message.Created.IsZero() {
		message.Created = time.Now().UTC()
	}

	query := `INSERT INTO messages (sender_id, receiver_id, body, created)
	          VALUES (:sender_id, :receiver_id, :body, :created)`

	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message",
			"sender_id", message.SenderID, "receiver_id", message.ReceiverID, "error", err)
		return fmt.Errorf("failed to save message: %w", err)
	}

	if id, idErr := result.LastInsertId(); idErr == nil {
		message.ID = id
	}

	return nil
}

func (s *sqlxStore) Inbox(ctx context.Context, profileID int64) ([]Message, error) {
	if profileID == 0 {
		return nil, fmt.Errorf("profile id cannot be zero")
	}

	var messages []Message
	query := `SELECT id, sender_id, receiver_id, body, created FROM messages
	          WHERE sender_id = ? OR receiver_id = ?
	          ORDER BY created DESC, id DESC`

	if err := s.db.SelectContext(ctx, &messages, query, profileID, profileID); err != nil {
		s.logger.ErrorContext(ctx, "Error reading inbox", "profile_id", profileID, "error", err)
		return nil, fmt.Errorf("failed to read inbox for profile %d: %w", profileID, err)
	}

	return messages, nil
}

func (s *sqlxStore) SaveConnection(ctx context.Context, a, b int64) (*Connection, error) {
	if a == 0 || b == 0 {
		return nil, fmt.Errorf("connection ids cannot be zero")
	}
	if a == b {
		return nil, fmt.Errorf("cannot connect a profile to itself")
	}

	low, high := a, b
	if low > high {
		low, high = high, low
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO connections (profile_low, profile_high, created)
		 VALUES (?, ?, ?)`,
		low, high, time.Now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving connection", "low", low, "high", high, "error", err)
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}

	var conn Connection
	err = s.db.GetContext(ctx, &conn,
		`SELECT id, profile_low, profile_high, created FROM connections
		 WHERE profile_low = ? AND profile_high = ?`, low, high)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error reading back connection", "low", low, "high", high, "error", err)
		return nil, fmt.Errorf("failed to read connection: %w", err)
	}

	return &conn, nil
}

func (s *sqlxStore) ListConnections(ctx context.Context, profileID int64) ([]Connection, error) {
	if profileID == 0 {
		return nil, fmt.Errorf("profile id cannot be zero")
	}

	var conns []Connection
	query := `SELECT id, profile_low, profile_high, created FROM connections
	          WHERE profile_low = ? OR profile_high = ?
	          ORDER BY created DESC, id DESC`

	if err := s.db.SelectContext(ctx, &conns, query, profileID, profileID); err != nil {
		s.logger.ErrorContext(ctx, "Error listing connections", "profile_id", profileID, "error", err)
		return nil, fmt.Errorf("failed to list connections for profile %d: %w", profileID, err)
	}

	return conns, nil
}

// RunSQLMaintenance checkpoints the WAL and vacuums the database file.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		s.logger.WarnContext(ctx, "WAL checkpoint failed", "error", err)
	}

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
