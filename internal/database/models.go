package database

import "time"

// channelStateRow is one row of the channel_states table. State holds the
// channel's JSON encoded tracker.ChannelState.
type channelStateRow struct {
	ChannelID string    `db:"channel_id"`
	State     string    `db:"state"`
	UpdatedAt time.Time `db:"updated_at"`
}
