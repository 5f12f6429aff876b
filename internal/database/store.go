package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/dayplanbot/internal/tracker"
)

// SQLRepository stores channel states in the channel_states table, one JSON
// document per channel.
type SQLRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLRepository creates a repository backed by db. The schema must already
// be migrated, see NewDB.
func NewSQLRepository(db *sqlx.DB, logger *slog.Logger) *SQLRepository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SQLRepository{
		db:     db,
		logger: logger.With("component", "sql_repository"),
	}
}

// Ping checks the database connection.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements tracker.Repository. Rows that fail to decode are skipped.
func (r *SQLRepository) Load(ctx context.Context) (map[string]*tracker.ChannelState, error) {
	var rows []channelStateRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT channel_id, state FROM channel_states ORDER BY channel_id`); err != nil {
		return nil, fmt.Errorf("failed to load channel states: %w", err)
	}

	states := make(map[string]*tracker.ChannelState, len(rows))
	for _, row := range rows {
		var st tracker.ChannelState
		if err := json.Unmarshal([]byte(row.State), &st); err != nil {
			r.logger.WarnContext(ctx, "Skipping undecodable channel state", "channel_id", row.ChannelID, "error", err)
			continue
		}
		states[row.ChannelID] = &st
	}
	return states, nil
}

// Save implements tracker.Repository. The table is replaced by states inside a
// single transaction.
func (r *SQLRepository) Save(ctx context.Context, states map[string]*tracker.ChannelState) error {
	now := time.Now().UTC()
	rows := make([]channelStateRow, 0, len(states))
	for id, st := range states {
		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("failed to encode state of channel %s: %w", id, err)
		}
		rows = append(rows, channelStateRow{ChannelID: id, State: string(data), UpdatedAt: now})
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			r.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM channel_states`); err != nil {
		return fmt.Errorf("failed to clear channel states: %w", err)
	}

	if len(rows) > 0 {
		stmt, err := tx.PrepareNamedContext(ctx,
			`INSERT INTO channel_states (channel_id, state, updated_at) VALUES (:channel_id, :state, :updated_at)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row); err != nil {
				return fmt.Errorf("failed to save state of channel %s: %w", row.ChannelID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit channel states: %w", err)
	}
	r.logger.DebugContext(ctx, "Channel states saved", "channels", len(rows))
	return nil
}

// RunMaintenance refreshes the query planner statistics and compacts the
// database file.
func (r *SQLRepository) RunMaintenance(ctx context.Context) error {
	r.logger.InfoContext(ctx, "Starting SQL maintenance")
	start := time.Now()

	for _, stmt := range []string{"PRAGMA optimize", "VACUUM"} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run %s: %w", stmt, err)
		}
	}

	r.logger.InfoContext(ctx, "SQL maintenance completed", "duration", time.Since(start))
	return nil
}
