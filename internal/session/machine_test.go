package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/worklog/internal/clock"
	"github.com/ayoisaiah/worklog/internal/models"
)

type memSaver struct {
	err    error
	states []models.State
	mu     sync.Mutex
}

func (s *memSaver) SaveNow(_ context.Context, st models.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.states = append(s.states, st)

	return nil
}

func (s *memSaver) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *memSaver) last() models.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.states[len(s.states)-1]
}

func (s *memSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.states)
}

func newTestMachine() (*Machine, *clock.Fake, *memSaver) {
	clk := clock.NewFake(t0)
	saver := &memSaver{}

	var n int

	m := New(
		WithClock(clk),
		WithSaver(saver),
		WithLogger(discardLogger()),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("s-%d", n)
		}),
	)

	return m, clk, saver
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func TestSessionLifecycle(t *testing.T) {
	m, clk, saver := newTestMachine()

	id, err := m.StartSession("coding")
	require.NoError(t, err)
	assert.Equal(t, "s-1", id)
	assert.Equal(t, Active, m.State())

	clk.Set(at(600))
	require.NoError(t, m.StartBreak())
	assert.Equal(t, Break, m.State())

	clk.Set(at(900))
	require.NoError(t, m.EndBreak())
	assert.Equal(t, Active, m.State())

	clk.Set(at(1500))
	sum, err := m.EndSession()
	require.NoError(t, err)
	assert.Equal(t, Stopped, m.State())

	assert.Equal(t, 20*time.Minute, sum.Active)
	assert.Equal(t, 5*time.Minute, sum.Break)
	assert.Equal(t, 3, sum.Periods)
	assert.Equal(t, at(1500), sum.EndTime)

	// one autosave per accepted transition
	assert.Equal(t, 4, saver.count())

	want := models.Session{
		ID:        "s-1",
		Sphere:    "coding",
		StartTime: at(0),
		EndTime:   ptr(at(1500)),
		State:     string(Stopped),
		Periods: []models.Period{
			{Kind: models.KindActive, StartTime: at(0), EndTime: ptr(at(600)), Duration: 10 * time.Minute},
			{Kind: models.KindBreak, StartTime: at(600), EndTime: ptr(at(900)), Duration: 5 * time.Minute},
			{Kind: models.KindActive, StartTime: at(900), EndTime: ptr(at(1500)), Duration: 10 * time.Minute},
		},
		IdlePeriods: []models.Period{},
	}

	last := saver.last()
	assert.Nil(t, last.Current)
	require.Len(t, last.History, 1)

	if diff := cmp.Diff(want, last.History[0]); diff != "" {
		t.Errorf("archived session mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidTransitions(t *testing.T) {
	cases := []struct {
		Name    string
		Prepare func(m *Machine)
		Command func(m *Machine) error
	}{
		{
			Name:    "start break while stopped",
			Command: func(m *Machine) error { return m.StartBreak() },
		},
		{
			Name:    "end break while stopped",
			Command: func(m *Machine) error { return m.EndBreak() },
		},
		{
			Name: "end session while stopped",
			Command: func(m *Machine) error {
				_, err := m.EndSession()
				return err
			},
		},
		{
			Name:    "start session while active",
			Prepare: func(m *Machine) { _, _ = m.StartSession("a") },
			Command: func(m *Machine) error {
				_, err := m.StartSession("b")
				return err
			},
		},
		{
			Name:    "end break while active",
			Prepare: func(m *Machine) { _, _ = m.StartSession("a") },
			Command: func(m *Machine) error { return m.EndBreak() },
		},
		{
			Name: "start break while on break",
			Prepare: func(m *Machine) {
				_, _ = m.StartSession("a")
				_ = m.StartBreak()
			},
			Command: func(m *Machine) error { return m.StartBreak() },
		},
		{
			Name: "begin idle while on break",
			Prepare: func(m *Machine) {
				_, _ = m.StartSession("a")
				_ = m.StartBreak()
			},
			Command: func(m *Machine) error { return m.BeginIdle(t0) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			m, _, saver := newTestMachine()

			if tc.Prepare != nil {
				tc.Prepare(m)
			}

			before := m.Snapshot()
			saves := saver.count()

			err := tc.Command(m)
			assert.True(t, errors.Is(err, ErrInvalidStateTransition), err)

			assert.Equal(t, saves, saver.count())

			if diff := cmp.Diff(before, m.Snapshot()); diff != "" {
				t.Errorf("state changed after rejected command:\n%s", diff)
			}
		})
	}
}

func TestEndSessionTwice(t *testing.T) {
	m, clk, _ := newTestMachine()

	_, err := m.StartSession("coding")
	require.NoError(t, err)

	clk.Set(at(60))
	_, err = m.EndSession()
	require.NoError(t, err)

	before := m.Snapshot()

	_, err = m.EndSession()
	assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	assert.Equal(t, before, m.Snapshot())
}

func TestIdleEscalatesToBreak(t *testing.T) {
	m, clk, _ := newTestMachine()

	_, err := m.StartSession("coding")
	require.NoError(t, err)

	clk.Set(at(70))
	require.NoError(t, m.BeginIdle(at(10)))

	st := m.Status()
	assert.True(t, st.Idling)
	assert.Equal(t, at(10), st.IdleSince)
	assert.Equal(t, Active, st.State)

	clk.Set(at(311))
	require.NoError(t, m.AutoStartBreak(at(310)))
	assert.Equal(t, Break, m.State())

	cur := m.Snapshot().Current
	require.NotNil(t, cur)

	want := []models.Period{
		{Kind: models.KindActive, StartTime: at(0), EndTime: ptr(at(310)), Duration: 310 * time.Second},
		{Kind: models.KindBreak, StartTime: at(310)},
	}

	if diff := cmp.Diff(want, cur.Periods); diff != "" {
		t.Errorf("periods mismatch (-want +got):\n%s", diff)
	}

	wantIdle := []models.Period{
		{Kind: models.KindIdle, StartTime: at(10), EndTime: ptr(at(310)), Duration: 300 * time.Second},
	}

	if diff := cmp.Diff(wantIdle, cur.IdlePeriods); diff != "" {
		t.Errorf("idle periods mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoStartBreakWithoutIdle(t *testing.T) {
	m, _, _ := newTestMachine()

	_, err := m.StartSession("coding")
	require.NoError(t, err)

	err = m.AutoStartBreak(at(300))
	assert.True(t, errors.Is(err, ErrNoOpenPeriod))
	assert.Equal(t, Active, m.State())
}

func TestManualBreakClosesIdleAtCommandTime(t *testing.T) {
	m, clk, _ := newTestMachine()

	_, err := m.StartSession("coding")
	require.NoError(t, err)

	clk.Set(at(90))
	require.NoError(t, m.BeginIdle(at(20)))

	clk.Set(at(120))
	require.NoError(t, m.StartBreak())

	cur := m.Snapshot().Current
	require.NotNil(t, cur)
	require.Len(t, cur.IdlePeriods, 1)
	assert.Equal(t, at(120), *cur.IdlePeriods[0].EndTime)
	assert.Equal(t, at(120), *cur.Periods[0].EndTime)
}

func TestTwoIdleStretches(t *testing.T) {
	m, clk, _ := newTestMachine()

	_, err := m.StartSession("coding")
	require.NoError(t, err)

	clk.Set(at(70))
	require.NoError(t, m.BeginIdle(at(10)))
	require.NoError(t, m.EndIdle(at(70)))

	clk.Set(at(160))
	require.NoError(t, m.BeginIdle(at(100)))

	clk.Set(at(165))
	require.NoError(t, m.EndIdle(at(165)))

	clk.Set(at(200))
	sum, err := m.EndSession()
	require.NoError(t, err)

	assert.Equal(t, 2, sum.IdlePeriods)
	assert.Equal(t, 125*time.Second, sum.Idle)
	assert.Equal(t, 75*time.Second, sum.Focused())

	idle := m.History()[0].IdlePeriods
	require.Len(t, idle, 2)
	assert.Equal(t, at(10), idle[0].StartTime)
	assert.Equal(t, at(70), *idle[0].EndTime)
	assert.Equal(t, at(100), idle[1].StartTime)
	assert.Equal(t, at(165), *idle[1].EndTime)
}

func TestBeginIdleBeforeActivePeriod(t *testing.T) {
	m, clk, _ := newTestMachine()

	clk.Set(at(100))
	_, err := m.StartSession("coding")
	require.NoError(t, err)

	err = m.BeginIdle(at(50))
	assert.True(t, errors.Is(err, ErrPeriodOverlap))
	assert.False(t, m.Status().Idling)
}

func TestClockSkewIsRejected(t *testing.T) {
	m, clk, _ := newTestMachine()

	clk.Set(at(100))
	_, err := m.StartSession("coding")
	require.NoError(t, err)

	clk.Set(at(50))
	err = m.StartBreak()
	assert.True(t, errors.Is(err, ErrNegativeDuration))
	assert.Equal(t, Active, m.State())
}

func TestSaveFailureKeepsSessionInMemory(t *testing.T) {
	m, clk, saver := newTestMachine()

	saver.setErr(io.ErrShortWrite)

	_, err := m.StartSession("coding")
	require.NoError(t, err)

	st := m.Status()
	assert.True(t, st.Unsaved)
	assert.ErrorIs(t, st.LastSaveErr, io.ErrShortWrite)
	assert.Equal(t, Active, st.State)

	saver.setErr(nil)

	clk.Set(at(30))
	require.NoError(t, m.StartBreak())

	st = m.Status()
	assert.False(t, st.Unsaved)
	assert.NoError(t, st.LastSaveErr)
}

func TestRestoreAndCloseInterrupted(t *testing.T) {
	m, clk, _ := newTestMachine()

	_, err := m.StartSession("coding")
	require.NoError(t, err)

	clk.Set(at(100))
	require.NoError(t, m.BeginIdle(at(30)))

	saved := m.Snapshot()

	restored, _, saver := newTestMachine()
	require.NoError(t, restored.Restore(saved))
	assert.Equal(t, Active, restored.State())

	if diff := cmp.Diff(saved, restored.Snapshot()); diff != "" {
		t.Errorf("restored state mismatch (-want +got):\n%s", diff)
	}

	sum, err := restored.CloseInterrupted(at(120))
	require.NoError(t, err)
	assert.Equal(t, at(120), sum.EndTime)
	assert.Equal(t, 90*time.Second, sum.Idle)
	assert.Equal(t, Stopped, restored.State())
	assert.Equal(t, 1, saver.count())

	// restoring over a running session is refused
	_, err = m.StartSession("other")
	assert.Error(t, err)
	assert.Error(t, m.Restore(saved))
}

func TestCloseInterruptedClampsEnd(t *testing.T) {
	m, clk, _ := newTestMachine()

	_, err := m.StartSession("coding")
	require.NoError(t, err)

	clk.Set(at(100))
	require.NoError(t, m.StartBreak())

	sum, err := m.CloseInterrupted(at(50))
	require.NoError(t, err)
	assert.Equal(t, at(100), sum.EndTime)
	assert.Equal(t, time.Duration(0), sum.Break)
}

func TestRestoreRejectsInvalidDocument(t *testing.T) {
	m, _, _ := newTestMachine()

	st := models.State{
		Current: &models.Session{
			ID:        "x",
			StartTime: at(0),
			Periods: []models.Period{
				{Kind: models.KindActive, StartTime: at(0), EndTime: ptr(at(10))},
				{Kind: models.KindBreak, StartTime: at(5)},
			},
		},
	}

	assert.Error(t, m.Restore(st))
	assert.Equal(t, Stopped, m.State())
}

func TestSubscribe(t *testing.T) {
	m, clk, _ := newTestMachine()

	events := m.Subscribe(4)

	_, err := m.StartSession("coding")
	require.NoError(t, err)

	clk.Set(at(10))
	require.NoError(t, m.StartBreak())

	ev := <-events
	assert.Equal(t, EventTransition, ev.Type)
	assert.Equal(t, Active, ev.To)
	assert.True(t, ev.Saved)
	assert.Equal(t, "s-1", ev.SessionID)

	ev = <-events
	assert.Equal(t, Break, ev.To)
	assert.Equal(t, CauseManual, ev.Cause)

	m.Close()

	_, ok := <-events
	assert.False(t, ok)
}

func checkInvariants(t *testing.T, st models.State) {
	t.Helper()

	require.NoError(t, st.Validate())

	if st.Current == nil {
		return
	}

	open := 0

	for _, p := range st.Current.Periods {
		if p.Open() {
			open++
		}
	}

	assert.Equal(t, 1, open, "exactly one tracked period is open")
	assert.Equal(t, st.Current.State, st.Current.Periods[len(st.Current.Periods)-1].Kind)
}

func TestRandomCommandSequences(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		m, clk, _ := newTestMachine()
		rng := rand.New(rand.NewPCG(seed, seed))

		for range 200 {
			now := clk.Advance(time.Duration(rng.IntN(120)) * time.Second)

			switch rng.IntN(7) {
			case 0:
				_, _ = m.StartSession("coding")
			case 1:
				_ = m.StartBreak()
			case 2:
				_ = m.EndBreak()
			case 3:
				_, _ = m.EndSession()
			case 4:
				_ = m.BeginIdle(now.Add(-time.Duration(rng.IntN(90)) * time.Second))
			case 5:
				_ = m.EndIdle(now)
			case 6:
				_ = m.AutoStartBreak(now)
			}

			checkInvariants(t, m.Snapshot())
		}
	}
}

func TestConcurrentCommands(t *testing.T) {
	m := New(WithLogger(discardLogger()))

	_, err := m.StartSession("coding")
	require.NoError(t, err)

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := range 50 {
				switch (i + j) % 4 {
				case 0:
					_ = m.StartBreak()
				case 1:
					_ = m.EndBreak()
				case 2:
					_ = m.BeginIdle(time.Now())
				case 3:
					_ = m.EndIdle(time.Now())
				}
			}
		}()
	}

	wg.Wait()

	checkInvariants(t, m.Snapshot())
}
