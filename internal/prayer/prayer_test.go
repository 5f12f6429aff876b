package prayer_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/dayplanbot/internal/chat/chattest"
	"github.com/edgard/dayplanbot/internal/fetch"
	"github.com/edgard/dayplanbot/internal/prayer"
)

type fakeFetcher struct {
	mu    sync.Mutex
	times map[string]*prayer.Times
	err   map[string]error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, city, _ string) (*prayer.Times, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.err[city]; err != nil {
		return nil, err
	}
	return f.times[city], nil
}

func (f *fakeFetcher) set(city string, t *prayer.Times) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.times[city] = t
}

var warsaw = prayer.City{
	Key:      "warsaw",
	Name:     "Warsaw",
	Country:  "Poland",
	Timezone: "Europe/Warsaw",
	Mention:  "<@1>",
	Flag:     "🇵🇱",
}

func newService(t *testing.T, f *fakeFetcher, now *time.Time, cities ...prayer.City) *prayer.Service {
	t.Helper()
	svc, err := prayer.NewService(f, prayer.Config{
		ChannelID:     "prayers",
		Prayers:       []string{"Fajr", "Maghrib"},
		Cities:        cities,
		CommandPrefix: "!",
	}, nil, prayer.WithClock(func() time.Time { return *now }))
	require.NoError(t, err)
	return svc
}

func TestCheckSendsOncePerDay(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)

	f := &fakeFetcher{times: map[string]*prayer.Times{
		"Warsaw": {Date: "01-05-2024", Timings: map[string]string{"Fajr": "03:00", "Maghrib": "20:10"}},
	}}
	now := time.Date(2024, 5, 1, 2, 50, 0, 0, loc)
	svc := newService(t, f, &now, warsaw)
	gw := &chattest.Recorder{}
	ctx := context.Background()

	require.NoError(t, svc.Check(ctx, gw))
	assert.Empty(t, gw.Sent(), "ten minutes early")

	now = time.Date(2024, 5, 1, 3, 0, 30, 0, loc)
	require.NoError(t, svc.Check(ctx, gw))
	cards := gw.Cards()
	require.Len(t, cards, 1)
	assert.Equal(t, "prayers", gw.Last().ChannelID)
	assert.Equal(t, "<@1>, it's time for prayer!", cards[0].Content)
	assert.Equal(t, "🌅 Fajr Time 🌅", cards[0].Title)
	assert.Contains(t, cards[0].Description, "Prayer Time: 03:00")
	assert.Contains(t, cards[0].Description, "🇵🇱 Warsaw, Poland")
	assert.Equal(t, "Date: 01-05-2024", cards[0].Footer)

	now = now.Add(20 * time.Second)
	require.NoError(t, svc.Check(ctx, gw))
	assert.Len(t, gw.Cards(), 1, "already announced")
	assert.Equal(t, 1, f.calls, "times are cached for the day")

	// Next day: flags reset and times are fetched again.
	f.set("Warsaw", &prayer.Times{Date: "02-05-2024", Timings: map[string]string{"Fajr": "02:58", "Maghrib": "20:12"}})
	now = time.Date(2024, 5, 2, 2, 58, 10, 0, loc)
	require.NoError(t, svc.Check(ctx, gw))
	assert.Len(t, gw.Cards(), 2)
	assert.Equal(t, 2, f.calls)
}

func TestCheckSkipsFailedCity(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	rome := prayer.City{Key: "reggio", Name: "Reggio Emilia", Country: "Italy", Timezone: "Europe/Rome"}
	f := &fakeFetcher{
		times: map[string]*prayer.Times{
			"Reggio Emilia": {Date: "01-05-2024", Timings: map[string]string{"Fajr": "04:00", "Maghrib": "20:30"}},
		},
		err: map[string]error{"Warsaw": errors.New("timeout")},
	}
	now := time.Date(2024, 5, 1, 20, 30, 0, 0, loc)
	svc := newService(t, f, &now, warsaw, rome)
	gw := &chattest.Recorder{}

	require.NoError(t, svc.Check(context.Background(), gw))
	cards := gw.Cards()
	require.Len(t, cards, 1)
	assert.Equal(t, "🕌 Maghrib Time 🕌", cards[0].Title)
	assert.Equal(t, "It's time for prayer!", cards[0].Content)

	// The failed city is retried on the next check.
	require.NoError(t, svc.Check(context.Background(), gw))
	assert.Equal(t, 3, f.calls)
}

func TestCheckDisabled(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{}
	svc, err := prayer.NewService(f, prayer.Config{Cities: []prayer.City{warsaw}}, nil)
	require.NoError(t, err)

	assert.False(t, svc.Enabled())
	require.NoError(t, svc.Check(context.Background(), &chattest.Recorder{}))
	assert.Zero(t, f.calls)
}

func TestNewServiceRejectsBadZone(t *testing.T) {
	t.Parallel()
	bad := warsaw
	bad.Timezone = "Nowhere/Special"
	_, err := prayer.NewService(&fakeFetcher{}, prayer.Config{Cities: []prayer.City{bad}}, nil)
	assert.Error(t, err)
}

func TestTodayCard(t *testing.T) {
	t.Parallel()
	rome := prayer.City{Key: "reggio", Name: "Reggio Emilia", Country: "Italy", Timezone: "Europe/Rome", Flag: "🇮🇹"}
	f := &fakeFetcher{
		times: map[string]*prayer.Times{
			"Warsaw": {Date: "01-05-2024", Timings: map[string]string{"Fajr": "03:00", "Maghrib": "20:10"}},
		},
		err: map[string]error{"Reggio Emilia": errors.New("down")},
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newService(t, f, &now, warsaw, rome)

	card := svc.TodayCard(context.Background())
	assert.Equal(t, "🕌 Today's Prayer Times 🕌", card.Title)
	require.Len(t, card.Fields, 2)
	assert.Equal(t, "🇵🇱 Warsaw, Poland", card.Fields[0].Name)
	assert.Contains(t, card.Fields[0].Value, "🌅 Fajr: 03:00")
	assert.Contains(t, card.Fields[0].Value, "🕌 Maghrib: 20:10")
	assert.Equal(t, "Could not fetch prayer times.", card.Fields[1].Value)
	assert.Contains(t, card.Footer, "!gettime")
}

func TestTimesAt(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)

	times := &prayer.Times{Date: "21-03-2024", Timings: map[string]string{
		"Fajr":    "04:31",
		"Maghrib": "18:05 (CET)",
		"Broken":  "noon",
	}}

	at, err := times.At("Fajr", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 21, 4, 31, 0, 0, loc), at)

	at, err = times.At("Maghrib", loc)
	require.NoError(t, err)
	assert.Equal(t, 18, at.Hour())

	_, err = times.At("Broken", loc)
	assert.Error(t, err)
	_, err = times.At("Isha", loc)
	assert.Error(t, err)
}

func TestClientFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		if q.Get("city") == "Atlantis" {
			_, _ = w.Write([]byte(`{"code":400,"status":"Bad Request","data":"Unable to locate city"}`))
			return
		}
		assert.Equal(t, "3", q.Get("method"))
		assert.Equal(t, "Poland", q.Get("country"))
		_, _ = w.Write([]byte(`{"code":200,"status":"OK","data":{
			"timings":{"Fajr":"03:00","Maghrib":"20:10"},
			"date":{"timestamp":"1714521600","gregorian":{"date":"01-05-2024"}}}}`))
	}))
	t.Cleanup(srv.Close)

	client := prayer.NewClient(fetch.NewClient(fetch.Config{}, srv.Client(), nil), srv.URL, 3)

	times, err := client.Fetch(context.Background(), "Warsaw", "Poland")
	require.NoError(t, err)
	assert.Equal(t, "01-05-2024", times.Date)
	assert.Equal(t, "20:10", times.Timings["Maghrib"])
	assert.Equal(t, "1714521600", times.Timestamp)

	_, err = client.Fetch(context.Background(), "Atlantis", "Nowhere")
	assert.Error(t, err)
}
