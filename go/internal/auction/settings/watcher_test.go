package settings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/playerauction/go/internal/auction/session"
	"github.com/mcdev12/playerauction/go/internal/models"
)

type fakeLoader struct {
	mu      sync.Mutex
	setting models.AuctionSetting
	err     error
}

func (f *fakeLoader) GetSettings(context.Context) (models.AuctionSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setting, f.err
}

func (f *fakeLoader) set(s models.AuctionSetting, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setting, f.err = s, err
}

type chanSender chan session.Msg

func (c chanSender) Send(ctx context.Context, m session.Msg) error {
	select {
	case c <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recvSetting(t *testing.T, ch chanSender) models.AuctionSetting {
	t.Helper()
	select {
	case m := <-ch:
		sc, ok := m.(session.SettingsChanged)
		require.True(t, ok, "unexpected message %T", m)
		return sc.Setting
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for SettingsChanged")
		return models.AuctionSetting{}
	}
}

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcher_PollsOnTicker(t *testing.T) {
	clock := clockwork.NewFakeClock()
	loader := &fakeLoader{setting: models.AuctionSetting{MaxPlayersPerTeam: 11, RegistrationOpen: true}}
	sender := make(chanSender, 4)

	w, err := NewWatcher(loader, sender, clock, Config{PollInterval: time.Minute})
	require.NoError(t, err)
	startWatcher(t, w)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(time.Minute)
	got := recvSetting(t, sender)
	assert.Equal(t, 11, got.MaxPlayersPerTeam)
	assert.True(t, got.RegistrationOpen)
}

func TestWatcher_NotificationTriggersReload(t *testing.T) {
	loader := &fakeLoader{setting: models.AuctionSetting{StartBid: 2}}
	sender := make(chanSender, 4)
	notify := make(chan *pq.Notification, 1)

	w, err := NewWatcher(loader, sender, clockwork.NewFakeClock(), Config{PollInterval: time.Hour})
	require.NoError(t, err)
	w.notify = notify
	startWatcher(t, w)

	notify <- &pq.Notification{Channel: "auction_settings_changed"}
	assert.Equal(t, 2, recvSetting(t, sender).StartBid)

	// nil means the listener reconnected
	loader.set(models.AuctionSetting{StartBid: 3}, nil)
	notify <- nil
	assert.Equal(t, 3, recvSetting(t, sender).StartBid)
}

func TestWatcher_LoadFailureIsSkipped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	loader := &fakeLoader{err: errors.New("connection refused")}
	sender := make(chanSender, 4)

	w, err := NewWatcher(loader, sender, clock, Config{PollInterval: time.Minute})
	require.NoError(t, err)
	startWatcher(t, w)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(time.Minute)
	select {
	case m := <-sender:
		t.Fatalf("unexpected message %T", m)
	case <-time.After(50 * time.Millisecond):
	}

	loader.set(models.AuctionSetting{BidIncrement: 1}, nil)
	clock.Advance(time.Minute)
	assert.Equal(t, 1, recvSetting(t, sender).BidIncrement)
}

func TestNewWatcher_Defaults(t *testing.T) {
	w, err := NewWatcher(&fakeLoader{}, make(chanSender), nil, Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().PollInterval, w.cfg.PollInterval)
	assert.Nil(t, w.listener)
	assert.NoError(t, w.Stop())
}
