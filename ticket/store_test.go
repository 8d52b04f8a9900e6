package ticket

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/sso/cache"
)

func newTestStore(t *testing.T, cfg Config) (*Store, *cache.Memory) {
	t.Helper()
	repo, err := cache.NewMemory(cache.Config{PollInterval: 20 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	s, err := NewStore(repo, cfg)
	require.NoError(t, err)
	return s, repo
}

func TestSerialWraps(t *testing.T) {
	s := NewSerial()
	assert.EqualValues(t, 1000, s.Next())
	assert.EqualValues(t, 1001, s.Next())

	s.v.Store(9998)
	assert.EqualValues(t, 9999, s.Next())
	assert.EqualValues(t, 1000, s.Next())
}

func TestSerialConcurrent(t *testing.T) {
	s := NewSerial()
	const n = 9000

	var (
		mu   sync.Mutex
		seen = make(map[int64]struct{}, n)
		wg   sync.WaitGroup
	)
	for range 30 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range n / 30 {
				v := s.Next()
				mu.Lock()
				seen[v] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// 一整轮内序号不重复
	assert.Len(t, seen, n)
	for v := range seen {
		assert.True(t, v >= 1000 && v <= 9999)
	}
}

func TestNewID(t *testing.T) {
	id := NewID(NewSerial())
	assert.Regexp(t, regexp.MustCompile(`^ST-1000-[0-9a-f]{32}$`), id)
}

func TestIssueAndRemove(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	tk, err := s.Issue("master", "portal", "token", "sid-1", "u1")
	require.NoError(t, err)
	assert.Regexp(t, `^ST-\d{4}-.+$`, tk.ID)
	assert.WithinDuration(t, time.Now().Add(10*time.Second), tk.ExpiresAt, time.Second)

	_, ok := s.Remove("other", tk.ID)
	assert.False(t, ok)

	got, ok := s.Remove("master", tk.ID)
	require.True(t, ok)
	assert.Equal(t, "portal", got.Application)
	assert.Equal(t, "sid-1", got.SessionID)
	assert.Equal(t, "u1", got.Subject)

	_, ok = s.Remove("master", tk.ID)
	assert.False(t, ok, "ticket must be single use")

	// 消费后仍保留在会话索引中
	tickets := s.GetTicketBySession("master", "sid-1")
	require.Len(t, tickets, 1)
	assert.Equal(t, tk.ID, tickets[0].ID)
}

func TestRemoveConcurrentSingleWinner(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	tk, err := s.Issue("master", "portal", "token", "sid-1", "u1")
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		wins int
		wg   sync.WaitGroup
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.Remove("master", tk.ID); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestExpiredTicket(t *testing.T) {
	s, _ := newTestStore(t, Config{TTL: 30 * time.Millisecond})
	tk, err := s.Issue("master", "portal", "token", "sid-1", "u1")
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	_, ok := s.Remove("master", tk.ID)
	assert.False(t, ok)
	assert.True(t, tk.Expired(time.Now()))

	err = s.Save("master", &Ticket{ID: "ST-1000-x", SessionID: "sid", ExpiresAt: time.Now().Add(-time.Second)})
	assert.ErrorIs(t, err, ErrExpired)
}

func TestSessionIndex(t *testing.T) {
	s, repo := newTestStore(t, Config{IndexTTL: time.Minute})
	a, err := s.Issue("master", "portal", "token", "sid-1", "u1")
	require.NoError(t, err)
	b, err := s.Issue("master", "mail", "token", "sid-1", "u1")
	require.NoError(t, err)
	_, err = s.Issue("master", "portal", "token", "sid-2", "u1")
	require.NoError(t, err)

	d, ok := repo.GetExpire(indexKey("master", "sid-1"))
	require.True(t, ok)
	assert.InDelta(t, time.Minute.Seconds(), d.Seconds(), 1)

	consumed, ok := s.Remove("master", a.ID)
	require.True(t, ok)
	require.NoError(t, s.Bind("master", consumed))

	tickets := s.GetTicketBySession("master", "sid-1")
	require.Len(t, tickets, 2)
	ids := []string{tickets[0].ID, tickets[1].ID}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	assert.Equal(t, 2, s.RemoveTicketBySession("master", "sid-1"))
	assert.Empty(t, s.GetTicketBySession("master", "sid-1"))
	// 尚未消费的票据一并清除
	_, ok = s.Remove("master", b.ID)
	assert.False(t, ok)
	assert.Len(t, s.GetTicketBySession("master", "sid-2"), 1)
}
