package prayer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/edgard/dayplanbot/internal/chat"
)

// displayLayout formats prayer times in the city's zone.
const displayLayout = "15:04 MST"

// City is a location prayer times are tracked for.
type City struct {
	Key      string
	Name     string
	Country  string
	Timezone string
	Mention  string
	Flag     string
}

func (c City) label() string {
	if c.Flag == "" {
		return fmt.Sprintf("%s, %s", c.Name, c.Country)
	}
	return fmt.Sprintf("%s %s, %s", c.Flag, c.Name, c.Country)
}

// Config configures the Service.
type Config struct {
	ChannelID string
	Prayers   []string
	Cities    []City
	// CommandPrefix is shown in the prayer times card footer.
	CommandPrefix string
}

// Fetcher returns today's prayer times of a city.
type Fetcher interface {
	Fetch(ctx context.Context, city, country string) (*Times, error)
}

type style struct {
	emoji string
	color chat.Color
}

var prayerStyles = map[string]style{
	"Fajr":    {emoji: "🌅", color: chat.ColorTeal},
	"Maghrib": {emoji: "🕌", color: chat.ColorPurple},
}

func styleOf(prayer string) style {
	if s, ok := prayerStyles[prayer]; ok {
		return s
	}
	return style{emoji: "🕌", color: chat.ColorGreen}
}

type trackedCity struct {
	City
	loc *time.Location

	// cached holds the times of cachedDate, the city's local yyyy-mm-dd.
	cached     *Times
	cachedDate string

	// notified lists the prayers already announced on notifiedDate.
	notified     map[string]bool
	notifiedDate string
}

// Service sends prayer reminders and renders the prayer times card.
type Service struct {
	fetcher Fetcher
	cfg     Config
	now     func() time.Time
	logger  *slog.Logger

	// checkMu serializes Check runs.
	checkMu sync.Mutex
	mu      sync.Mutex
	cities  []*trackedCity
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the service's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService validates the city time zones and returns a Service.
func NewService(fetcher Fetcher, cfg Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		fetcher: fetcher,
		cfg:     cfg,
		now:     time.Now,
		logger:  logger.With("component", "prayer"),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, c := range cfg.Cities {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return nil, fmt.Errorf("failed to load time zone of %s: %w", c.Key, err)
		}
		s.cities = append(s.cities, &trackedCity{City: c, loc: loc, notified: map[string]bool{}})
	}
	return s, nil
}

// Enabled reports whether reminders have a channel and at least one city.
func (s *Service) Enabled() bool {
	return s.cfg.ChannelID != "" && len(s.cities) > 0
}

// times returns the city's prayer times for local's date, fetching them once
// per day.
func (s *Service) times(ctx context.Context, c *trackedCity, local time.Time) (*Times, error) {
	date := local.Format(time.DateOnly)

	s.mu.Lock()
	if c.cached != nil && c.cachedDate == date {
		t := c.cached
		s.mu.Unlock()
		return t, nil
	}
	s.mu.Unlock()

	t, err := s.fetcher.Fetch(ctx, c.Name, c.Country)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	c.cached, c.cachedDate = t, date
	s.mu.Unlock()
	return t, nil
}

// Check announces every prayer whose time is within a minute of now. Each
// prayer is announced at most once per local day. Cities whose times cannot
// be fetched are skipped until the next check.
func (s *Service) Check(ctx context.Context, gw chat.Gateway) error {
	if !s.Enabled() {
		return nil
	}
	s.checkMu.Lock()
	defer s.checkMu.Unlock()

	now := s.now()
	var errs []error
	for _, c := range s.cities {
		local := now.In(c.loc)
		today := local.Format(time.DateOnly)
		if c.notifiedDate != today {
			c.notifiedDate = today
			c.notified = map[string]bool{}
		}

		times, err := s.times(ctx, c, local)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping city, prayer times unavailable", "city", c.Key, "error", err)
			continue
		}

		for _, prayer := range s.cfg.Prayers {
			if c.notified[prayer] {
				continue
			}
			at, err := times.At(prayer, c.loc)
			if err != nil {
				s.logger.WarnContext(ctx, "Invalid prayer time", "city", c.Key, "prayer", prayer, "error", err)
				continue
			}
			diff := at.Sub(local)
			if diff <= -time.Minute || diff >= time.Minute {
				continue
			}

			if err := gw.SendCard(ctx, s.cfg.ChannelID, reminderCard(c, prayer, times, local, at)); err != nil {
				errs = append(errs, fmt.Errorf("failed to send %s reminder for %s: %w", prayer, c.Key, err))
				continue
			}
			c.notified[prayer] = true
			s.logger.InfoContext(ctx, "Prayer reminder sent", "city", c.Key, "prayer", prayer)
		}
	}
	return errors.Join(errs...)
}

func reminderCard(c *trackedCity, prayer string, times *Times, local, at time.Time) chat.Card {
	st := styleOf(prayer)
	content := "It's time for prayer!"
	if c.Mention != "" {
		content = c.Mention + ", it's time for prayer!"
	}
	return chat.Card{
		Content: content,
		Title:   fmt.Sprintf("%s %s Time %s", st.emoji, prayer, st.emoji),
		Description: strings.Join([]string{
			"⏰ Current Time: " + local.Format(displayLayout),
			"📍 Location: " + c.label(),
			"⏳ Prayer Time: " + at.Format(displayLayout),
		}, "\n"),
		Color:  st.color,
		Footer: "Date: " + times.Date,
	}
}

// TodayCard lists today's prayer times of every city.
func (s *Service) TodayCard(ctx context.Context) chat.Card {
	card := chat.Card{
		Title:       "🕌 Today's Prayer Times 🕌",
		Description: "Prayer times for your locations today:",
		Color:       chat.ColorGreen,
		Footer:      fmt.Sprintf("Use %sgettime to view today's prayer times • Times shown in each city's local time", s.cfg.CommandPrefix),
	}
	if len(s.cities) == 0 {
		card.Description = "No locations configured."
		return card
	}

	now := s.now()
	for _, c := range s.cities {
		times, err := s.times(ctx, c, now.In(c.loc))
		if err != nil {
			s.logger.WarnContext(ctx, "Prayer times unavailable", "city", c.Key, "error", err)
			card.AddField(c.label(), "Could not fetch prayer times.", false)
			continue
		}

		lines := []string{"Date: " + times.Date}
		for _, prayer := range s.cfg.Prayers {
			at, err := times.At(prayer, c.loc)
			if err != nil {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s %s: %s", styleOf(prayer).emoji, prayer, at.Format(displayLayout)))
		}
		card.AddField(c.label(), strings.Join(lines, "\n"), false)
	}
	return card
}
