package review_session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/domain/srs"
	"github.com/phrazzld/scry-review/internal/events"
	"github.com/phrazzld/scry-review/internal/mocks"
	"github.com/phrazzld/scry-review/internal/service/review_queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *mocks.MockReviewStore
	sessions *SessionStore
	manager  *Manager
	recorder *events.Recorder
	clock    *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    mocks.NewMockReviewStore(),
		sessions: NewSessionStore(),
		recorder: &events.Recorder{},
		clock:    &testClock{now: t0},
	}
	emitter := events.NewInMemoryEventEmitter(nil)
	emitter.RegisterHandler(f.recorder)

	f.manager = NewManager(
		review_queue.NewSelector(f.store, nil),
		f.store,
		srs.NewDefaultService(),
		f.sessions,
		nil,
		WithClock(f.clock.Now),
		WithEmitter(emitter),
	)
	return f
}

// seed adds n cards for user, due one hour apart ending an hour before t0,
// and returns their schedule state ids in due order.
func (f *fixture) seed(t *testing.T, user uuid.NullUUID, n int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, n)
	for i := 0; i < n; i++ {
		card, err := domain.NewCard(uuid.New(), domain.CardTypeQA, "front", "back")
		require.NoError(t, err)
		due := t0.Add(-time.Duration(n-i) * time.Hour)
		state, err := domain.NewScheduleState(card.ID, user, due)
		require.NoError(t, err)
		f.store.Seed(*card, *state)
		ids[i] = state.ID
	}
	return ids
}

func newUser() uuid.NullUUID {
	return uuid.NullUUID{UUID: uuid.New(), Valid: true}
}

func TestStartSessionWithEmptyQueue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	s, err := f.manager.StartSession(context.Background(), 20, uuid.NullUUID{})
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, 0, s.TotalCards)
	require.NotNil(t, s.EndTime)
	assert.True(t, s.EndTime.Equal(s.StartTime))
	assert.Nil(t, f.manager.GetCurrentCard(s.ID))
	assert.Equal(t, 1, f.sessions.Len())
	assert.Equal(t, []string{events.TypeSessionStarted, events.TypeSessionCompleted}, f.recorder.Types())
}

func TestStartSessionRejectsInvalidMaxCards(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	s, err := f.manager.StartSession(context.Background(), 0, uuid.NullUUID{})
	assert.ErrorIs(t, err, review_queue.ErrInvalidMaxCards)
	assert.Nil(t, s)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestStartSessionSelectorFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.store.ListDueError = errors.New("connection reset")

	_, err := f.manager.StartSession(context.Background(), 5, uuid.NullUUID{})
	require.Error(t, err)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "start_session", svcErr.Operation)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestGradeThroughWholeSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := newUser()
	stateIDs := f.seed(t, user, 3)
	ctx := context.Background()

	s, err := f.manager.StartSession(ctx, 10, user)
	require.NoError(t, err)
	require.Equal(t, StatusActive, s.Status)
	require.Equal(t, 3, s.TotalCards)
	assert.Nil(t, s.EndTime)

	for i := 0; i < 3; i++ {
		current := f.manager.GetCurrentCard(s.ID)
		require.NotNil(t, current)
		assert.Equal(t, stateIDs[i], current.SRSID)

		res, err := f.manager.GradeCurrentCard(ctx, s.ID, 5, nil)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, current.CardID, res.GradedCard.CardID)
		assert.Equal(t, 1, res.GradedCard.NewInterval)
		assert.InDelta(t, 2.6, res.GradedCard.EaseFactor, 1e-9)
		assert.Equal(t, t0.AddDate(0, 0, 1), res.GradedCard.NewDueDate)
		assert.Equal(t, i+1, res.SessionProgress.Completed)
		assert.Equal(t, 3, res.SessionProgress.Total)
		assert.InDelta(t, float64(i+1)/3*100, res.SessionProgress.Percent, 1e-9)
		assert.Equal(t, i == 2, res.SessionComplete)
	}

	done := f.manager.GetSession(s.ID)
	require.NotNil(t, done)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, 3, done.CompletedCards)
	assert.Equal(t, done.CompletedCards, done.CurrentIndex)
	require.NotNil(t, done.EndTime)
	assert.Len(t, done.Grades, 3)
	assert.Nil(t, f.manager.GetCurrentCard(s.ID))

	for _, id := range stateIDs {
		state, ok := f.store.State(id)
		require.True(t, ok)
		assert.Equal(t, 1, state.Repetitions)
		assert.Equal(t, 1, state.Interval)
		require.NotNil(t, state.LastGrade)
		assert.Equal(t, 5, *state.LastGrade)
	}

	_, err = f.manager.GradeCurrentCard(ctx, s.ID, 4, nil)
	assert.ErrorIs(t, err, ErrInvalidSession)

	assert.Equal(t, []string{
		events.TypeSessionStarted,
		events.TypeCardGraded,
		events.TypeCardGraded,
		events.TypeCardGraded,
		events.TypeSessionCompleted,
	}, f.recorder.Types())
}

func TestGradeUnknownSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	res, err := f.manager.GradeCurrentCard(context.Background(), "no-such-session", 3, nil)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.Nil(t, res)
	assert.Equal(t, "invalid or inactive session", ErrInvalidSession.Error())
}

func TestGradeRejectsInvalidGrade(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t, uuid.NullUUID{}, 2)
	ctx := context.Background()

	s, err := f.manager.StartSession(ctx, 10, uuid.NullUUID{})
	require.NoError(t, err)
	first := f.manager.GetCurrentCard(s.ID)
	require.NotNil(t, first)

	for _, g := range []domain.Grade{-1, 6, 42} {
		res, err := f.manager.GradeCurrentCard(ctx, s.ID, g, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidGrade, "grade %d", g)
		assert.Nil(t, res)
	}

	after := f.manager.GetSession(s.ID)
	assert.Equal(t, 0, after.CompletedCards)
	assert.Empty(t, after.Grades)
	assert.Equal(t, StatusActive, after.Status)
	assert.Equal(t, first.CardID, f.manager.GetCurrentCard(s.ID).CardID)
	assert.Equal(t, 0, f.store.UpdateCalls())
}

func TestGradePersistenceFailureLeavesSessionUnchanged(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	stateIDs := f.seed(t, uuid.NullUUID{}, 2)
	ctx := context.Background()

	s, err := f.manager.StartSession(ctx, 10, uuid.NullUUID{})
	require.NoError(t, err)

	storeErr := errors.New("disk full")
	f.store.UpdateError = storeErr

	res, err := f.manager.GradeCurrentCard(ctx, s.ID, 4, nil)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, storeErr)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "grade_current_card", svcErr.Operation)

	after := f.manager.GetSession(s.ID)
	assert.Equal(t, 0, after.CompletedCards)
	assert.Equal(t, 0, after.CurrentIndex)
	assert.Empty(t, after.Grades)
	assert.Equal(t, stateIDs[0], f.manager.GetCurrentCard(s.ID).SRSID)

	state, _ := f.store.State(stateIDs[0])
	assert.Equal(t, 0, state.Repetitions)

	// The same card can be retried once storage recovers.
	f.store.UpdateError = nil
	res, err = f.manager.GradeCurrentCard(ctx, s.ID, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SessionProgress.Completed)

	state, _ = f.store.State(stateIDs[0])
	assert.Equal(t, 1, state.Repetitions)
}

func TestGradeLoadFailureLeavesSessionUnchanged(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t, uuid.NullUUID{}, 1)
	ctx := context.Background()

	s, err := f.manager.StartSession(ctx, 10, uuid.NullUUID{})
	require.NoError(t, err)

	f.store.GetByCardIDError = errors.New("timeout")

	_, err = f.manager.GradeCurrentCard(ctx, s.ID, 3, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 0, f.manager.GetSession(s.ID).CompletedCards)
	assert.Equal(t, 0, f.store.UpdateCalls())
}

func TestSessionTransitions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	stateIDs := f.seed(t, uuid.NullUUID{}, 3)
	ctx := context.Background()

	s, err := f.manager.StartSession(ctx, 10, uuid.NullUUID{})
	require.NoError(t, err)

	_, err = f.manager.GradeCurrentCard(ctx, s.ID, 4, nil)
	require.NoError(t, err)

	assert.False(t, f.manager.ResumeSession(ctx, s.ID), "resume while active")
	assert.True(t, f.manager.PauseSession(ctx, s.ID))
	assert.False(t, f.manager.PauseSession(ctx, s.ID), "pause while paused")
	assert.Nil(t, f.manager.GetCurrentCard(s.ID))

	_, err = f.manager.GradeCurrentCard(ctx, s.ID, 4, nil)
	assert.ErrorIs(t, err, ErrInvalidSession)

	assert.True(t, f.manager.ResumeSession(ctx, s.ID))
	current := f.manager.GetCurrentCard(s.ID)
	require.NotNil(t, current)
	assert.Equal(t, stateIDs[1], current.SRSID, "resumes where it left off")

	f.clock.Advance(time.Minute)
	assert.True(t, f.manager.CancelSession(ctx, s.ID))

	cancelled := f.manager.GetSession(s.ID)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.EndTime)
	assert.True(t, cancelled.EndTime.Equal(t0.Add(time.Minute)))
	assert.Equal(t, 1, cancelled.CompletedCards)

	assert.False(t, f.manager.CancelSession(ctx, s.ID), "cancel twice")
	assert.False(t, f.manager.PauseSession(ctx, s.ID))
	assert.False(t, f.manager.ResumeSession(ctx, s.ID))
	_, err = f.manager.GradeCurrentCard(ctx, s.ID, 4, nil)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// Grades written before the cancel stay written.
	state, _ := f.store.State(stateIDs[0])
	assert.Equal(t, 1, state.Repetitions)

	assert.Equal(t, []string{
		events.TypeSessionStarted,
		events.TypeCardGraded,
		events.TypeSessionPaused,
		events.TypeSessionResumed,
		events.TypeSessionCancelled,
	}, f.recorder.Types())
}

func TestTransitionsOnUnknownSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	assert.False(t, f.manager.PauseSession(ctx, "missing"))
	assert.False(t, f.manager.ResumeSession(ctx, "missing"))
	assert.False(t, f.manager.CancelSession(ctx, "missing"))
	assert.Nil(t, f.manager.GetCurrentCard("missing"))
	assert.Nil(t, f.manager.GetSession("missing"))
	assert.Nil(t, f.manager.GetSessionProgress("missing"))
	assert.Empty(t, f.recorder.Events())
}

func TestCancelPausedSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t, uuid.NullUUID{}, 1)
	ctx := context.Background()

	s, err := f.manager.StartSession(ctx, 10, uuid.NullUUID{})
	require.NoError(t, err)
	require.True(t, f.manager.PauseSession(ctx, s.ID))
	assert.True(t, f.manager.CancelSession(ctx, s.ID))
	assert.Equal(t, StatusCancelled, f.manager.GetSession(s.ID).Status)
}

func TestGetSessionProgress(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t, uuid.NullUUID{}, 3)
	ctx := context.Background()

	s, err := f.manager.StartSession(ctx, 10, uuid.NullUUID{})
	require.NoError(t, err)

	empty := f.manager.GetSessionProgress(s.ID)
	require.NotNil(t, empty)
	assert.Equal(t, Progress{Completed: 0, Remaining: 3, Total: 3}, empty.Progress)
	assert.Zero(t, empty.Performance.AverageGrade)
	assert.Len(t, empty.Performance.GradeDistribution, 6)

	rt := int64(1200)
	_, err = f.manager.GradeCurrentCard(ctx, s.ID, 4, &rt)
	require.NoError(t, err)
	_, err = f.manager.GradeCurrentCard(ctx, s.ID, 2, nil)
	require.NoError(t, err)

	f.clock.Advance(3 * time.Minute)
	view := f.manager.GetSessionProgress(s.ID)
	require.NotNil(t, view)

	assert.Equal(t, s.ID, view.SessionID)
	assert.Equal(t, StatusActive, view.Status)
	assert.Equal(t, Progress{Completed: 2, Remaining: 1, Total: 3}, view.Progress)
	assert.InDelta(t, 3.0, view.Timing.DurationMinutes, 1e-9)
	assert.Nil(t, view.Timing.EndTime)
	assert.InDelta(t, 3.0, view.Performance.AverageGrade, 1e-9)
	assert.InDelta(t, 50.0, view.Performance.Accuracy, 1e-9)
	assert.InDelta(t, 1200.0, view.Performance.AverageResponseTimeMS, 1e-9)
	assert.Equal(t, map[int]int{0: 0, 1: 0, 2: 1, 3: 0, 4: 1, 5: 0}, view.Performance.GradeDistribution)

	// Duration stops at the end time once the session is terminal.
	require.True(t, f.manager.CancelSession(ctx, s.ID))
	f.clock.Advance(time.Hour)
	final := f.manager.GetSessionProgress(s.ID)
	assert.InDelta(t, 3.0, final.Timing.DurationMinutes, 1e-9)
	require.NotNil(t, final.Timing.EndTime)
}

func TestSessionQueueIsFixedAtStart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t, uuid.NullUUID{}, 2)
	ctx := context.Background()

	s, err := f.manager.StartSession(ctx, 10, uuid.NullUUID{})
	require.NoError(t, err)
	first := f.manager.GetCurrentCard(s.ID)
	require.NotNil(t, first)

	// A more overdue card appearing later is not injected.
	card, err := domain.NewCard(uuid.New(), domain.CardTypeCloze, "late", "arrival")
	require.NoError(t, err)
	state, err := domain.NewScheduleState(card.ID, uuid.NullUUID{}, t0.AddDate(0, 0, -5))
	require.NoError(t, err)
	f.store.Seed(*card, *state)

	assert.Equal(t, first.CardID, f.manager.GetCurrentCard(s.ID).CardID)
	assert.Equal(t, 2, f.manager.GetSession(s.ID).TotalCards)

	// Mutating a snapshot does not reach the live session.
	snap := f.manager.GetSession(s.ID)
	snap.Cards[0].Front = "changed"
	assert.Equal(t, "front", f.manager.GetCurrentCard(s.ID).Front)
}

func TestConcurrentGradesOnSameSession(t *testing.T) {
	t.Parallel()

	const cards, callers = 20, 50

	f := newFixture(t)
	f.seed(t, uuid.NullUUID{}, cards)
	ctx := context.Background()

	s, err := f.manager.StartSession(ctx, cards, uuid.NullUUID{})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed = make(map[int]bool)
		invalid   int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.manager.GradeCurrentCard(ctx, s.ID, 4, nil)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, ErrInvalidSession) {
					invalid++
				}
				return
			}
			completed[res.SessionProgress.Completed] = true
		}()
	}
	wg.Wait()

	assert.Len(t, completed, cards, "every completion count is observed exactly once")
	for i := 1; i <= cards; i++ {
		assert.True(t, completed[i], "missing completion %d", i)
	}
	assert.Equal(t, callers-cards, invalid)
	assert.Equal(t, cards, f.store.UpdateCalls())

	final := f.manager.GetSession(s.ID)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, cards, final.CompletedCards)
}

func TestSessionsAreIndependent(t *testing.T) {
	t.Parallel()

	const users, perUser = 8, 5

	f := newFixture(t)
	ctx := context.Background()

	ids := make([]string, users)
	seen := make(map[string]bool)
	for i := range ids {
		user := newUser()
		f.seed(t, user, perUser)
		s, err := f.manager.StartSession(ctx, 50, user)
		require.NoError(t, err)
		require.Equal(t, perUser, s.TotalCards)
		require.False(t, seen[s.ID], "duplicate session id")
		seen[s.ID] = true
		ids[i] = s.ID
	}

	// Grading the first session leaves the second untouched.
	_, err := f.manager.GradeCurrentCard(ctx, ids[0], 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.manager.GetSession(ids[0]).CompletedCards)
	assert.Equal(t, 0, f.manager.GetSession(ids[1]).CompletedCards)

	var wg sync.WaitGroup
	for _, id := range ids[1:] {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < perUser; j++ {
				_, err := f.manager.GradeCurrentCard(ctx, id, 3, nil)
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		s := f.manager.GetSession(id)
		assert.Equal(t, StatusCompleted, s.Status)
		assert.Equal(t, perUser, s.CompletedCards)
	}
	assert.Equal(t, 1, f.manager.GetSession(ids[0]).CompletedCards)
}

func TestCleanupCompletedSessions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	learner := newUser()
	f.seed(t, learner, 3)
	nobody := newUser()

	oldCompleted, err := f.manager.StartSession(ctx, 5, nobody)
	require.NoError(t, err)
	oldCancelled, err := f.manager.StartSession(ctx, 1, learner)
	require.NoError(t, err)
	require.True(t, f.manager.CancelSession(ctx, oldCancelled.ID))
	active, err := f.manager.StartSession(ctx, 1, learner)
	require.NoError(t, err)
	paused, err := f.manager.StartSession(ctx, 1, learner)
	require.NoError(t, err)
	require.True(t, f.manager.PauseSession(ctx, paused.ID))

	f.clock.Advance(20 * time.Hour)
	recent, err := f.manager.StartSession(ctx, 5, nobody)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, recent.Status)

	f.clock.Advance(5 * time.Hour)
	removed := f.manager.CleanupCompletedSessions(ctx, 24)
	assert.Equal(t, 2, removed)

	assert.Nil(t, f.manager.GetSession(oldCompleted.ID))
	assert.Nil(t, f.manager.GetSession(oldCancelled.ID))
	assert.NotNil(t, f.manager.GetSession(active.ID))
	assert.NotNil(t, f.manager.GetSession(paused.ID))
	assert.NotNil(t, f.manager.GetSession(recent.ID))

	assert.Equal(t, 0, f.manager.CleanupCompletedSessions(ctx, 24))

	// Age alone never removes live sessions.
	f.clock.Advance(1000 * time.Hour)
	assert.Equal(t, 1, f.manager.CleanupCompletedSessions(ctx, 24))
	assert.Equal(t, 2, f.sessions.Len())
}

func TestSessionsSharingStoreAcrossManagers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t, uuid.NullUUID{}, 1)
	ctx := context.Background()

	other := NewManager(
		review_queue.NewSelector(f.store, nil),
		f.store,
		srs.NewDefaultService(),
		NewSessionStore(),
		nil,
		WithClock(f.clock.Now),
	)

	s, err := f.manager.StartSession(ctx, 5, uuid.NullUUID{})
	require.NoError(t, err)
	assert.Nil(t, other.GetSession(s.ID), "registries are not shared")
}

func TestWithPrioritizeOverdueDisabled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t, uuid.NullUUID{}, 2)

	m := NewManager(
		review_queue.NewSelector(f.store, nil),
		f.store,
		srs.NewDefaultService(),
		nil,
		nil,
		WithClock(f.clock.Now),
		WithPrioritizeOverdue(false),
	)
	assert.False(t, m.prioritizeOverdue)

	s, err := m.StartSession(context.Background(), 5, uuid.NullUUID{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalCards)
}
