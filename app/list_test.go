package app

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/worklog/internal/models"
	"github.com/ayoisaiah/worklog/internal/osutil"
	"github.com/ayoisaiah/worklog/internal/session"
	"github.com/ayoisaiah/worklog/store"
)

func TestMain(m *testing.M) {
	pterm.DisableColor()

	os.Exit(m.Run())
}

var t0 = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time {
	return &t
}

func closedSession(
	id, sphere string,
	start time.Time,
	active, brk time.Duration,
) models.Session {
	breakStart := start.Add(active)
	end := breakStart.Add(brk)

	return models.Session{
		ID:        id,
		Sphere:    sphere,
		StartTime: start,
		EndTime:   ptr(end),
		State:     models.StateStopped,
		Periods: []models.Period{
			{Kind: models.KindActive, StartTime: start, EndTime: ptr(breakStart)},
			{Kind: models.KindBreak, StartTime: breakStart, EndTime: ptr(end)},
		},
		IdlePeriods: []models.Period{},
	}
}

func openSession(id, sphere string, start time.Time) models.Session {
	return models.Session{
		ID:        id,
		Sphere:    sphere,
		StartTime: start,
		State:     models.StateActive,
		Periods: []models.Period{
			{Kind: models.KindActive, StartTime: start},
		},
		IdlePeriods: []models.Period{
			{
				Kind:      models.KindIdle,
				StartTime: start.Add(10 * time.Minute),
				EndTime:   ptr(start.Add(15 * time.Minute)),
			},
		},
	}
}

func testState() models.State {
	current := openSession("s-3", "coding", t0.Add(3*time.Hour))

	return models.State{
		Version: models.DocumentVersion,
		Current: &current,
		History: []models.Session{
			closedSession("s-2", "admin", t0.Add(time.Hour), 30*time.Minute, 0),
			closedSession("s-1", "coding", t0, 45*time.Minute, 10*time.Minute),
		},
	}
}

func ids(sessions []models.Session) []string {
	out := make([]string, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.ID)
	}

	return out
}

func TestCollectSessions(t *testing.T) {
	cases := []struct {
		name   string
		filter listFilter
		want   []string
	}{
		{
			name: "everything oldest first",
			want: []string{"s-1", "s-2", "s-3"},
		},
		{
			name:   "since",
			filter: listFilter{Since: t0.Add(30 * time.Minute)},
			want:   []string{"s-2", "s-3"},
		},
		{
			name:   "sphere ignores case",
			filter: listFilter{Sphere: "CODING"},
			want:   []string{"s-1", "s-3"},
		},
		{
			name:   "no match",
			filter: listFilter{Sphere: "reading"},
			want:   []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := collectSessions(testState(), tc.filter)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestSessionsTable(t *testing.T) {
	sessions := collectSessions(testState(), listFilter{})
	now := t0.Add(4 * time.Hour)

	got, err := sessionsTable(sessions, now, true)
	require.NoError(t, err)

	want := [][]string{
		{"#", "SPHERE", "START DATE", "END DATE", "ACTIVE", "BREAK", "IDLE", "STATUS"},
		{"1", "coding", "Oct 17, 2026 09:00", "Oct 17, 2026 09:55", "0h45m00s", "0h10m00s", "0h00m00s", "completed"},
		{"2", "admin", "Oct 17, 2026 10:00", "Oct 17, 2026 10:30", "0h30m00s", "0h00m00s", "0h00m00s", "completed"},
		{"3", "coding", "Oct 17, 2026 12:00", "", "1h00m00s", "0h00m00s", "0h05m00s", "active"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sessionsTable() mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionsTableRejectsBrokenSession(t *testing.T) {
	broken := closedSession("s-1", "coding", t0, time.Hour, 0)
	broken.Periods[0].StartTime = t0.Add(-time.Hour)

	_, err := sessionsTable([]models.Session{broken}, t0, false)
	assert.ErrorIs(t, err, session.ErrPeriodOverlap)
}

func TestSphereTotalsTable(t *testing.T) {
	sessions := []models.Session{
		closedSession("a", "client10", t0, time.Hour, 0),
		closedSession("b", "client2", t0.Add(2*time.Hour), 30*time.Minute, 0),
		closedSession("c", "admin", t0.Add(3*time.Hour), 15*time.Minute, 0),
		closedSession("d", "client2", t0.Add(4*time.Hour), 30*time.Minute, 0),
	}

	got, err := sphereTotalsTable(sessions, t0.Add(5*time.Hour))
	require.NoError(t, err)

	want := [][]string{
		{"SPHERE", "SESSIONS", "ACTIVE", "FOCUSED"},
		{"admin", "1", "0h15m00s", "0h15m00s"},
		{"client2", "2", "1h00m00s", "1h00m00s"},
		{"client10", "1", "1h00m00s", "1h00m00s"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sphereTotalsTable() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintTables(t *testing.T) {
	var buf bytes.Buffer

	sessions := collectSessions(testState(), listFilter{})

	require.NoError(t, printSessionsTable(&buf, sessions, t0.Add(4*time.Hour), false))
	require.NoError(t, printSphereTotals(&buf, sessions, t0.Add(4*time.Hour)))

	out := buf.String()
	assert.Contains(t, out, "Oct 17, 2026 09:00 AM")
	assert.Contains(t, out, "FOCUSED")

	buf.Reset()

	st := testState()
	sum, err := session.Summarize(*st.Current, t0.Add(4*time.Hour))
	require.NoError(t, err)

	info := store.RecoveryInfo{LastSavedAt: t0.Add(3*time.Hour + 30*time.Minute)}
	require.NoError(t, printStatus(&buf, *st.Current, sum, info, t0.Add(4*time.Hour+90*time.Second), true))

	out = buf.String()
	assert.Contains(t, out, "s-3")
	assert.Contains(t, out, "1 hour 1 minute")
	assert.Contains(t, out, "Oct 17, 2026 12:30")

	buf.Reset()

	backups := []store.Backup{{Time: t0, Name: "worklog-20261017T090000.000000000Z.json"}}
	require.NoError(t, printBackupsTable(&buf, backups, true))
	assert.Contains(t, buf.String(), backups[0].Name)
}

func TestRunSessionCmd(t *testing.T) {
	if runtime.GOOS == osutil.Windows {
		t.Skip("uses sh")
	}

	sum := session.Summary{
		SessionID: "s-1",
		Sphere:    "coding",
		Active:    90 * time.Minute,
	}

	t.Run("empty command does nothing", func(t *testing.T) {
		assert.NoError(t, runSessionCmd("", sum))
	})

	t.Run("session totals are exported", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out")

		cmd := `sh -c 'printf "%s %s" "$WORKLOG_SPHERE" "$WORKLOG_ACTIVE_SECONDS" > ` + out + `'`
		require.NoError(t, runSessionCmd(cmd, sum))

		b, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "coding 5400", string(b))
	})

	t.Run("unparsable command", func(t *testing.T) {
		err := runSessionCmd(`echo "unterminated`, sum)
		assert.ErrorIs(t, err, errSessionCmd)
	})

	t.Run("failing command", func(t *testing.T) {
		err := runSessionCmd(`sh -c 'exit 3'`, sum)
		assert.ErrorIs(t, err, errSessionCmdFailed)
	})
}

func TestFirstNonEmptyString(t *testing.T) {
	assert.Equal(t, "vim", firstNonEmptyString("", "vim", "nano"))
	assert.Equal(t, "", firstNonEmptyString("", ""))
}
