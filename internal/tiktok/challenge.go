package tiktok

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/dayplanbot/internal/chat"
)

// WrongChannelMessage answers the status command outside the challenge channel.
const WrongChannelMessage = "This command can only be used in the designated challenge channel."

// Account is one profile taking part in the challenge.
type Account struct {
	Username         string
	URL              string
	Name             string
	InitialFollowers int
	InitialLikes     int
	ImageURL         string
}

// Config configures a Challenge.
type Config struct {
	ChannelID string
	Accounts  []Account
	// End is when the challenge closes. A zero End leaves it open.
	End               time.Time
	PointsPerFollower int
	PointsPerLike     int
}

// Points scores the growth of an account since the challenge started.
// Lost followers or likes never count against it.
func (c Config) Points(a Account, s Stats) int {
	newFollowers := max(0, s.Followers-a.InitialFollowers)
	newLikes := max(0, s.Likes-a.InitialLikes)
	return newFollowers*c.PointsPerFollower + newLikes*c.PointsPerLike
}

// Standing is the score of one account.
type Standing struct {
	Account Account
	Stats   Stats
	Points  int
}

// StatsSource returns profile counters.
type StatsSource interface {
	Stats(ctx context.Context, profileURL string) Stats
}

// Challenge reports the challenge status.
type Challenge struct {
	source StatsSource
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

// Option customizes a Challenge.
type Option func(*Challenge)

// WithClock replaces the challenge's time source.
func WithClock(now func() time.Time) Option {
	return func(c *Challenge) { c.now = now }
}

// NewChallenge creates a Challenge.
func NewChallenge(source StatsSource, cfg Config, logger *slog.Logger, opts ...Option) *Challenge {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Challenge{
		source: source,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With("component", "tiktok"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether the challenge has a channel and accounts to compare.
func (c *Challenge) Enabled() bool {
	return c.cfg.ChannelID != "" && len(c.cfg.Accounts) >= 2
}

// ChannelID returns the challenge channel.
func (c *Challenge) ChannelID() string {
	return c.cfg.ChannelID
}

// Standings fetches every account concurrently and scores it. The result
// keeps the configured account order.
func (c *Challenge) Standings(ctx context.Context) []Standing {
	out := make([]Standing, len(c.cfg.Accounts))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range c.cfg.Accounts {
		g.Go(func() error {
			stats := c.source.Stats(gctx, a.URL)
			out[i] = Standing{Account: a, Stats: stats, Points: c.cfg.Points(a, stats)}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Report posts the status card to the challenge channel.
func (c *Challenge) Report(ctx context.Context, gw chat.Gateway) error {
	if !c.Enabled() {
		return nil
	}
	card := StatusCard(c.cfg, c.Standings(ctx), c.now())
	if err := gw.SendCard(ctx, c.cfg.ChannelID, card); err != nil {
		return fmt.Errorf("failed to send challenge status: %w", err)
	}
	c.logger.InfoContext(ctx, "Challenge status sent", "title", card.Title)
	return nil
}

// HandleCommand answers the status command in channelID.
func (c *Challenge) HandleCommand(ctx context.Context, gw chat.Gateway, channelID string) error {
	if !c.Enabled() || channelID != c.cfg.ChannelID {
		return gw.SendText(ctx, channelID, WrongChannelMessage)
	}
	return gw.SendCard(ctx, channelID, StatusCard(c.cfg, c.Standings(ctx), c.now()))
}

var palette = []chat.Color{chat.ColorPurple, chat.ColorPink, chat.ColorBlue, chat.ColorTeal, chat.ColorGreen}

// StatusCard renders the standings at now.
func StatusCard(cfg Config, standings []Standing, now time.Time) chat.Card {
	now = now.UTC()
	card := chat.Card{
		Title:       "It's a tie!",
		Description: "TikTok Challenge Status - " + now.Format("2006-01-02 15:04") + " UTC",
		Color:       chat.ColorGold,
		Footer: fmt.Sprintf("Points: 1 like = %s | 1 follower = %s",
			plural(cfg.PointsPerLike, "point"), plural(cfg.PointsPerFollower, "point")),
	}

	leader, runnerUp := rank(standings)
	if leader >= 0 {
		l := standings[leader]
		card.Title = l.Account.Name + " has more Points!!"
		card.Color = palette[leader%len(palette)]
		card.ThumbnailURL = l.Account.ImageURL
	}

	switch {
	case cfg.End.IsZero():
	case now.Before(cfg.End):
		left := cfg.End.Sub(now)
		days := int(left / (24 * time.Hour))
		hours := int(left % (24 * time.Hour) / time.Hour)
		minutes := int(left % time.Hour / time.Minute)
		card.AddField("Time Remaining", fmt.Sprintf("%dd %dh %dm", days, hours, minutes), false)
	default:
		card.AddField("Challenge Status", "Challenge has ended!", false)
	}

	for _, s := range standings {
		a := s.Account
		card.AddField(fmt.Sprintf("%s (@%s)", a.Name, a.Username), strings.Join([]string{
			fmt.Sprintf("Points: %d", s.Points),
			fmt.Sprintf("New Followers: %+d (%d total)", s.Stats.Followers-a.InitialFollowers, s.Stats.Followers),
			fmt.Sprintf("New Likes: %+d (%d total)", s.Stats.Likes-a.InitialLikes, s.Stats.Likes),
		}, "\n"), true)
	}

	if leader >= 0 && runnerUp >= 0 {
		l, r := standings[leader], standings[runnerUp]
		card.AddField("Comparison", fmt.Sprintf("%s is leading by %d points over %s!",
			l.Account.Name, l.Points-r.Points, r.Account.Name), false)
	}
	return card
}

// rank returns the index of the sole leader and of the best of the rest. The
// leader is -1 when the top score is shared.
func rank(standings []Standing) (leader, runnerUp int) {
	leader, runnerUp = -1, -1
	best := -1
	for i, s := range standings {
		if best < 0 || s.Points > standings[best].Points {
			best = i
		}
	}
	if best < 0 {
		return -1, -1
	}
	for i, s := range standings {
		if i == best {
			continue
		}
		if s.Points == standings[best].Points {
			return -1, -1
		}
		if runnerUp < 0 || s.Points > standings[runnerUp].Points {
			runnerUp = i
		}
	}
	return best, runnerUp
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
