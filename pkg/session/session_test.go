package session_test

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/aretw0/speriment/pkg/domain"
	"github.com/aretw0/speriment/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_NextIsUniqueAndIncreasing(t *testing.T) {
	for _, seed := range []int{0, 7, 99} {
		t.Run("seed "+strconv.Itoa(seed), func(t *testing.T) {
			s := session.Open(seed)
			defer s.Close()

			seen := make(map[string]bool)
			prev := seed
			for i := 0; i < 250; i++ {
				id, err := s.Next()
				require.NoError(t, err)
				assert.False(t, seen[id], "id %s issued twice", id)
				seen[id] = true

				n, err := strconv.Atoi(id)
				require.NoError(t, err)
				assert.Greater(t, n, prev)
				prev = n
			}
			assert.Equal(t, 250, s.Issued())
		})
	}
}

func TestSession_FirstIDFollowsSeed(t *testing.T) {
	s := session.Open(41)
	id, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestSession_NextAfterClose(t *testing.T) {
	s := session.Open(0)
	s.Close()
	s.Close()

	_, err := s.Next()
	var noSession *domain.NoActiveSessionError
	assert.ErrorAs(t, err, &noSession)
	assert.False(t, s.Active())
}

func TestSession_ZeroValueIsClosed(t *testing.T) {
	var s session.Session
	_, err := s.Next()
	var noSession *domain.NoActiveSessionError
	assert.ErrorAs(t, err, &noSession)
}

func TestScope_ReleasesOnError(t *testing.T) {
	var leaked *session.Session
	boom := errors.New("boom")

	err := session.Scope(0, func(s *session.Session) error {
		leaked = s
		_, err := s.Next()
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, leaked)
	assert.False(t, leaked.Active())

	// A later scope starts clean from its own seed.
	err = session.Scope(0, func(s *session.Session) error {
		id, err := s.Next()
		assert.Equal(t, "1", id)
		return err
	})
	assert.NoError(t, err)
}

func TestScope_ReleasesOnPanic(t *testing.T) {
	var leaked *session.Session
	assert.Panics(t, func() {
		_ = session.Scope(0, func(s *session.Session) error {
			leaked = s
			panic("author bug")
		})
	})
	require.NotNil(t, leaked)
	assert.False(t, leaked.Active())
}

func TestSession_IndependentSessions(t *testing.T) {
	var wg sync.WaitGroup
	results := make([][]string, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := session.Open(0)
			defer s.Close()
			for j := 0; j < 10; j++ {
				id, _ := s.Next()
				results[i] = append(results[i], id)
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Equal(t, results[0], r, "sessions must not share allocator state")
	}
}
