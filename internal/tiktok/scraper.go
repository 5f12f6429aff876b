// Package tiktok runs the follower and like challenge between a set of
// TikTok profiles.
package tiktok

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoStats is returned when a profile page carries no recognizable counters.
var ErrNoStats = errors.New("no profile stats found")

var (
	followerCountRe = regexp.MustCompile(`"followerCount":(\d+)`)
	heartCountRe    = regexp.MustCompile(`"heartCount":(\d+)`)
)

// Stats are the public counters of a profile.
type Stats struct {
	Followers int
	Likes     int
}

// Getter fetches a URL and returns the response body.
type Getter interface {
	Get(ctx context.Context, rawURL string, query url.Values) ([]byte, error)
}

// Scraper reads profile counters from the public profile page.
type Scraper struct {
	getter Getter
	logger *slog.Logger
}

// NewScraper creates a Scraper.
func NewScraper(getter Getter, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scraper{getter: getter, logger: logger.With("component", "tiktok_scraper")}
}

// Stats returns the counters of the profile at profileURL. Any failure is
// logged and reported as zero counters.
func (s *Scraper) Stats(ctx context.Context, profileURL string) Stats {
	body, err := s.getter.Get(ctx, profileURL, nil)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to fetch profile", "url", profileURL, "error", err)
		return Stats{}
	}
	stats, err := ParseStats(body)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to parse profile", "url", profileURL, "error", err)
		return Stats{}
	}
	s.logger.DebugContext(ctx, "Profile stats fetched", "url", profileURL, "followers", stats.Followers, "likes", stats.Likes)
	return stats
}

// ParseStats extracts the counters from a profile page. The embedded page
// data script is preferred; the rendered counters are the fallback.
func ParseStats(page []byte) (Stats, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return Stats{}, fmt.Errorf("failed to parse profile page: %w", err)
	}

	var data string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if text := sel.Text(); strings.Contains(text, `"followerCount":`) {
			data = text
			return false
		}
		return true
	})
	if data != "" {
		return Stats{
			Followers: firstInt(followerCountRe, data),
			Likes:     firstInt(heartCountRe, data),
		}, nil
	}

	followers := doc.Find(`strong[data-e2e="followers-count"]`).First()
	likes := doc.Find(`strong[data-e2e="likes-count"]`).First()
	if followers.Length() == 0 && likes.Length() == 0 {
		return Stats{}, ErrNoStats
	}

	var stats Stats
	if followers.Length() > 0 {
		if stats.Followers, err = parseCount(followers.Text()); err != nil {
			return Stats{}, err
		}
	}
	if likes.Length() > 0 {
		if stats.Likes, err = parseCount(likes.Text()); err != nil {
			return Stats{}, err
		}
	}
	return stats, nil
}

func firstInt(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// parseCount parses rendered counters such as "1,234", "12.5K" or "3M".
func parseCount(s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1e3, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1e6, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "B"):
		mult, s = 1e9, strings.TrimSuffix(s, "B")
	}
	if mult == 1 {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid counter %q: %w", s, err)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid counter %q: %w", s, err)
	}
	return int(math.Round(f * mult)), nil
}
