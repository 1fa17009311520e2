package idle

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/worklog/internal/clock"
	"github.com/ayoisaiah/worklog/internal/models"
	"github.com/ayoisaiah/worklog/internal/session"
)

var t0 = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return t0.Add(time.Duration(sec) * time.Second)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// setup starts a session at t0 and a monitor whose loop never ticks on its
// own, so thresholds are driven through Sample.
func setup(t *testing.T) (*session.Machine, *Monitor, *clock.Fake) {
	t.Helper()

	clk := clock.NewFake(t0)

	m := session.New(
		session.WithClock(clk),
		session.WithLogger(discardLogger()),
		session.WithIDGenerator(func() string { return "s-1" }),
	)

	_, err := m.StartSession("coding")
	require.NoError(t, err)

	mon := New(m, Config{
		Threshold:      60 * time.Second,
		BreakThreshold: 300 * time.Second,
		SampleInterval: time.Hour,
	}, WithClock(clk), WithLogger(discardLogger()))

	mon.Start()
	t.Cleanup(mon.Stop)

	return m, mon, clk
}

func idlePeriods(m *session.Machine) []models.Period {
	if cur := m.Snapshot().Current; cur != nil {
		return cur.IdlePeriods
	}

	return nil
}

func TestIdleOpensAtThreshold(t *testing.T) {
	m, mon, clk := setup(t)

	clk.Set(at(59))
	assert.False(t, mon.Sample(at(59)))
	assert.False(t, m.Status().Idling)

	clk.Set(at(60))
	assert.False(t, mon.Sample(at(60)))

	st := m.Status()
	assert.True(t, st.Idling)
	assert.Equal(t, at(0), st.IdleSince)
	assert.Equal(t, session.Active, st.State)
}

func TestIdleEscalatesAtBreakBoundary(t *testing.T) {
	m, mon, clk := setup(t)

	mon.NotifyActivity(at(10))

	clk.Set(at(69))
	mon.Sample(at(69))
	assert.False(t, m.Status().Idling)

	clk.Set(at(70))
	mon.Sample(at(70))
	assert.Equal(t, at(10), m.Status().IdleSince)

	clk.Set(at(309))
	assert.False(t, mon.Sample(at(309)))
	assert.Equal(t, session.Active, m.State())

	clk.Set(at(310))
	assert.True(t, mon.Sample(at(310)))
	assert.Equal(t, session.Break, m.State())
	assert.False(t, mon.Running())

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

	// further samples are ignored once the monitor stopped itself
	clk.Set(at(900))
	assert.False(t, mon.Sample(at(900)))
	assert.Equal(t, session.Break, m.State())
}

func TestInputBeforeThresholdCreatesNoIdle(t *testing.T) {
	m, mon, clk := setup(t)

	clk.Set(at(50))
	mon.NotifyActivity(at(50))

	clk.Set(at(100))
	mon.Sample(at(100))

	assert.False(t, m.Status().Idling)
	assert.Empty(t, idlePeriods(m))
}

func TestTwoIdleStretches(t *testing.T) {
	m, mon, clk := setup(t)

	mon.NotifyActivity(at(10))

	clk.Set(at(70))
	mon.Sample(at(70))
	mon.NotifyActivity(at(70))

	clk.Set(at(100))
	mon.NotifyActivity(at(100))

	clk.Set(at(160))
	mon.Sample(at(160))

	clk.Set(at(165))
	mon.NotifyActivity(at(165))

	want := []models.Period{
		{Kind: models.KindIdle, StartTime: at(10), EndTime: ptr(at(70)), Duration: 60 * time.Second},
		{Kind: models.KindIdle, StartTime: at(100), EndTime: ptr(at(165)), Duration: 65 * time.Second},
	}

	if diff := cmp.Diff(want, idlePeriods(m)); diff != "" {
		t.Errorf("idle periods mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, session.Active, m.State())
}

func TestLateActivityStillStartsBreak(t *testing.T) {
	m, mon, clk := setup(t)

	clk.Set(at(60))
	mon.Sample(at(60))

	clk.Set(at(400))
	mon.NotifyActivity(at(400))

	assert.Equal(t, session.Break, m.State())
	assert.False(t, mon.Running())

	cur := m.Snapshot().Current
	require.NotNil(t, cur)
	assert.Equal(t, at(300), cur.Periods[1].StartTime)
}

func TestUnsampledGapBecomesBreak(t *testing.T) {
	m, mon, clk := setup(t)

	clk.Set(at(400))
	mon.NotifyActivity(at(400))

	assert.Equal(t, session.Break, m.State())
	assert.False(t, mon.Running())

	want := []models.Period{
		{Kind: models.KindIdle, StartTime: at(0), EndTime: ptr(at(300)), Duration: 300 * time.Second},
	}

	if diff := cmp.Diff(want, idlePeriods(m)); diff != "" {
		t.Errorf("idle periods mismatch (-want +got):\n%s", diff)
	}

	cur := m.Snapshot().Current
	require.NotNil(t, cur)
	assert.Equal(t, at(300), cur.Periods[1].StartTime)
}

func TestUnsampledGapIsRecordedAsIdle(t *testing.T) {
	m, mon, clk := setup(t)

	clk.Set(at(100))
	mon.NotifyActivity(at(100))

	want := []models.Period{
		{Kind: models.KindIdle, StartTime: at(0), EndTime: ptr(at(100)), Duration: 100 * time.Second},
	}

	if diff := cmp.Diff(want, idlePeriods(m)); diff != "" {
		t.Errorf("idle periods mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, session.Active, m.State())
	assert.False(t, m.Status().Idling)
	assert.True(t, mon.Running())
}

func TestStaleActivityIsIgnored(t *testing.T) {
	m, mon, clk := setup(t)

	mon.NotifyActivity(at(30))
	mon.NotifyActivity(at(20))

	clk.Set(at(85))
	mon.Sample(at(85))
	assert.False(t, m.Status().Idling)

	clk.Set(at(90))
	mon.Sample(at(90))
	assert.Equal(t, at(30), m.Status().IdleSince)
}

func TestDegrade(t *testing.T) {
	m, mon, clk := setup(t)

	clk.Set(at(60))
	mon.Sample(at(60))
	require.True(t, m.Status().Idling)

	clk.Set(at(80))
	mon.Degrade(ErrIdleUnsupported)

	assert.ErrorIs(t, mon.Degraded(), ErrIdleUnsupported)
	assert.False(t, m.Status().Idling)
	assert.Equal(t, at(80), *idlePeriods(m)[0].EndTime)

	clk.Set(at(1000))
	assert.False(t, mon.Sample(at(1000)))
	assert.Equal(t, session.Active, m.State())
	assert.Len(t, idlePeriods(m), 1)
}

func TestManualBreakWinsRace(t *testing.T) {
	m, mon, clk := setup(t)

	clk.Set(at(30))
	require.NoError(t, m.StartBreak())

	clk.Set(at(70))
	assert.False(t, mon.Sample(at(70)))
	assert.Equal(t, session.Break, m.State())
	assert.Empty(t, idlePeriods(m))
}

func TestManualBreakDuringIdle(t *testing.T) {
	m, mon, clk := setup(t)

	clk.Set(at(60))
	mon.Sample(at(60))

	clk.Set(at(120))
	require.NoError(t, m.StartBreak())

	// the escalation attempt is rejected by the machine and treated as handled
	clk.Set(at(300))
	assert.True(t, mon.Sample(at(300)))
	assert.False(t, mon.Running())

	cur := m.Snapshot().Current
	require.NotNil(t, cur)
	assert.Equal(t, at(120), cur.Periods[1].StartTime)
	assert.Equal(t, at(120), *cur.IdlePeriods[0].EndTime)
}

type recorder struct {
	calls []string
	mu    sync.Mutex
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *recorder) BeginIdle(time.Time) error {
	r.add("begin")
	return nil
}

func (r *recorder) EndIdle(time.Time) error {
	r.add("end")
	return nil
}

func (r *recorder) AutoStartBreak(time.Time) error {
	r.add("break")
	return nil
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.calls...)
}

// gate blocks BeginIdle until released, standing in for a slow save.
type gate struct {
	recorder
	entered chan struct{}
	release chan struct{}
}

func (g *gate) BeginIdle(ts time.Time) error {
	close(g.entered)
	<-g.release

	return g.recorder.BeginIdle(ts)
}

func TestActivityDoesNotWaitForSlowSave(t *testing.T) {
	clk := clock.NewFake(t0)
	g := &gate{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}

	mon := New(g, Config{
		Threshold:      time.Minute,
		BreakThreshold: 5 * time.Minute,
		SampleInterval: time.Hour,
	}, WithClock(clk), WithLogger(discardLogger()))

	mon.Start()
	t.Cleanup(mon.Stop)

	sampled := make(chan struct{})

	go func() {
		mon.Sample(at(60))
		close(sampled)
	}()

	<-g.entered

	reported := make(chan struct{})

	go func() {
		mon.NotifyActivity(at(61))
		assert.True(t, mon.Running())
		close(reported)
	}()

	select {
	case <-reported:
	case <-time.After(time.Second):
		t.Fatal("NotifyActivity blocked behind an in-flight call")
	}

	assert.Empty(t, g.snapshot())

	close(g.release)
	<-sampled

	// the idle close queued while the save was pending runs after it
	assert.Eventually(t, func() bool {
		return cmp.Equal([]string{"begin", "end"}, g.snapshot())
	}, time.Second, 5*time.Millisecond)
}

func TestLoopSamplesAndStopsItself(t *testing.T) {
	clk := clock.NewFake(t0)
	rec := &recorder{}

	mon := New(rec, Config{
		Threshold:      time.Minute,
		BreakThreshold: 5 * time.Minute,
		SampleInterval: 5 * time.Millisecond,
	}, WithClock(clk), WithLogger(discardLogger()))

	mon.Start()
	clk.Set(at(600))

	assert.Eventually(t, func() bool {
		return !mon.Running()
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"begin", "break"}, rec.snapshot())

	// restarting resets the input baseline
	mon.Start()
	assert.True(t, mon.Running())
	mon.Stop()
	assert.False(t, mon.Running())
	assert.Equal(t, []string{"begin", "break"}, rec.snapshot())
}

func TestStopWaitsForLoop(t *testing.T) {
	mon := New(&recorder{}, Config{SampleInterval: 10 * time.Millisecond},
		WithLogger(discardLogger()))

	mon.Start()

	start := time.Now()
	mon.Stop()

	assert.Less(t, time.Since(start), 10*time.Millisecond+stopGrace)
	assert.False(t, mon.Running())

	// stopping twice is a no-op
	mon.Stop()
}

func TestNewAppliesDefaults(t *testing.T) {
	mon := New(&recorder{}, Config{BreakThreshold: time.Second})

	cfg := mon.Config()
	assert.Equal(t, 60*time.Second, cfg.Threshold)
	assert.Equal(t, 60*time.Second, cfg.BreakThreshold)
	assert.Equal(t, time.Second, cfg.SampleInterval)
}
