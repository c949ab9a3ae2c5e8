package attendance

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenStoreIssueAndResolve(t *testing.T) {
	now := time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)
	store := NewTokenStore(30 * time.Second).WithClock(func() time.Time { return now })

	token := store.Issue(1, TypeCheckIn)
	assert.Len(t, token.Value, 64) // 32 random bytes, hex encoded
	assert.Equal(t, now, token.IssuedAt)
	assert.Equal(t, now.Add(30*time.Second), token.ExpiresAt)

	resolved, ok := store.Resolve(token.Value)
	assert.True(t, ok)
	assert.Equal(t, token, resolved)

	_, ok = store.Resolve("never-issued")
	assert.False(t, ok)
}

func TestTokenStoreRotationInvalidatesPrevious(t *testing.T) {
	store := NewTokenStore(2 * time.Minute)

	first := store.Issue(1, TypeCheckIn)
	second := store.Issue(1, TypeCheckIn)
	assert.NotEqual(t, first.Value, second.Value)

	// The superseded token is unresolvable even though its expiry has not
	// elapsed.
	_, ok := store.Resolve(first.Value)
	assert.False(t, ok)
	_, ok = store.Resolve(second.Value)
	assert.True(t, ok)
}

func TestTokenStoreKeysAreIndependent(t *testing.T) {
	store := NewTokenStore(2 * time.Minute)

	checkIn := store.Issue(1, TypeCheckIn)
	checkOut := store.Issue(1, TypeCheckOut)
	otherOffice := store.Issue(2, TypeCheckIn)

	// A rotation for one key never touches the others.
	store.Issue(1, TypeCheckIn)

	_, ok := store.Resolve(checkIn.Value)
	assert.False(t, ok)
	_, ok = store.Resolve(checkOut.Value)
	assert.True(t, ok)
	_, ok = store.Resolve(otherOffice.Value)
	assert.True(t, ok)
}

func TestTokenStorePassiveExpiry(t *testing.T) {
	now := time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)
	store := NewTokenStore(30 * time.Second).WithClock(func() time.Time { return now })

	token := store.Issue(1, TypeCheckIn)

	now = now.Add(30 * time.Second)
	_, ok := store.Resolve(token.Value)
	assert.True(t, ok, "expiry boundary is still valid")

	now = now.Add(time.Second)
	_, ok = store.Resolve(token.Value)
	assert.False(t, ok, "expired one second past the window")
}

func TestTokenStoreMultiUseWithinWindow(t *testing.T) {
	store := NewTokenStore(2 * time.Minute)
	token := store.Issue(1, TypeCheckIn)

	// Many distinct scanners resolve the same displayed QR.
	for i := 0; i < 50; i++ {
		_, ok := store.Resolve(token.Value)
		assert.True(t, ok)
	}
}

func TestTokenStoreLive(t *testing.T) {
	store := NewTokenStore(2 * time.Minute)

	_, ok := store.Live(1, TypeCheckIn)
	assert.False(t, ok)

	token := store.Issue(1, TypeCheckIn)
	live, ok := store.Live(1, TypeCheckIn)
	assert.True(t, ok)
	assert.Equal(t, token.Value, live.Value)
}

func TestTokenStoreConcurrentIssueAndResolve(t *testing.T) {
	store := NewTokenStore(2 * time.Minute)

	var wg sync.WaitGroup
	for office := uint(1); office <= 4; office++ {
		wg.Add(1)
		go func(office uint) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				token := store.Issue(office, TypeCheckIn)
				store.Resolve(token.Value)
			}
		}(office)
	}
	wg.Wait()

	for office := uint(1); office <= 4; office++ {
		_, ok := store.Live(office, TypeCheckIn)
		assert.True(t, ok)
	}
}
