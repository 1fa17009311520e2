package app

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"

	"github.com/ayoisaiah/worklog/internal/models"
	"github.com/ayoisaiah/worklog/internal/session"
	"github.com/ayoisaiah/worklog/internal/timeutil"
	"github.com/ayoisaiah/worklog/internal/ui"
)

const (
	noSessionsMsg = "No sessions found for the specified time range"
)

type listFilter struct {
	Since  time.Time
	Sphere string
}

// collectSessions returns the saved sessions that match f, oldest first. The
// session in progress is included.
func collectSessions(st models.State, f listFilter) []models.Session {
	all := slices.Clone(st.History)
	if st.Current != nil {
		all = append(all, *st.Current)
	}

	out := make([]models.Session, 0, len(all))

	for _, s := range all {
		if !f.Since.IsZero() && s.StartTime.Before(f.Since) {
			continue
		}

		if f.Sphere != "" && !strings.EqualFold(s.Sphere, f.Sphere) {
			continue
		}

		out = append(out, s)
	}

	slices.SortStableFunc(out, func(a, b models.Session) int {
		return a.StartTime.Compare(b.StartTime)
	})

	return out
}

func dateFormat(twentyFourHour bool) string {
	if twentyFourHour {
		return "Jan 02, 2006 15:04"
	}

	return "Jan 02, 2006 03:04 PM"
}

// printSessionsTable prints a session table to the command-line.
func printSessionsTable(
	w io.Writer,
	sessions []models.Session,
	now time.Time,
	twentyFourHour bool,
) error {
	tableBody, err := sessionsTable(sessions, now, twentyFourHour)
	if err != nil {
		return err
	}

	return ui.PrintTable(tableBody, w)
}

func sessionsTable(
	sessions []models.Session,
	now time.Time,
	twentyFourHour bool,
) ([][]string, error) {
	layout := dateFormat(twentyFourHour)
	tableBody := make([][]string, 0, len(sessions)+1)

	tableBody = append(tableBody, []string{
		"#", "SPHERE", "START DATE", "END DATE", "ACTIVE", "BREAK", "IDLE", "STATUS",
	})

	for i := range sessions {
		sess := sessions[i]

		sum, err := session.Summarize(sess, now)
		if err != nil {
			return nil, err
		}

		statusText := ui.Green("completed")
		endDate := ""

		if sess.EndTime != nil {
			endDate = sess.EndTime.Format(layout)
		} else {
			statusText = ui.State(sess.State)
		}

		tableBody = append(tableBody, []string{
			fmt.Sprintf("%d", i+1),
			sess.Sphere,
			sess.StartTime.Format(layout),
			endDate,
			timeutil.FormatDuration(sum.Active),
			timeutil.FormatDuration(sum.Break),
			timeutil.FormatDuration(sum.Idle),
			statusText,
		})
	}

	return tableBody, nil
}

type sphereTotal struct {
	sessions int
	active   time.Duration
	focused  time.Duration
}

func printSphereTotals(
	w io.Writer,
	sessions []models.Session,
	now time.Time,
) error {
	tableBody, err := sphereTotalsTable(sessions, now)
	if err != nil {
		return err
	}

	return ui.PrintTable(tableBody, w)
}

// sphereTotalsTable lists the time spent per sphere in natural order, so
// "client2" comes before "client10".
func sphereTotalsTable(
	sessions []models.Session,
	now time.Time,
) ([][]string, error) {
	totals := make(map[string]*sphereTotal)

	for i := range sessions {
		sum, err := session.Summarize(sessions[i], now)
		if err != nil {
			return nil, err
		}

		t, ok := totals[sum.Sphere]
		if !ok {
			t = &sphereTotal{}
			totals[sum.Sphere] = t
		}

		t.sessions++
		t.active += sum.Active
		t.focused += sum.Focused()
	}

	spheres := make([]string, 0, len(totals))
	for k := range totals {
		spheres = append(spheres, k)
	}

	sort.Sort(natural.StringSlice(spheres))

	tableBody := [][]string{{"SPHERE", "SESSIONS", "ACTIVE", "FOCUSED"}}

	for _, sphere := range spheres {
		t := totals[sphere]

		tableBody = append(tableBody, []string{
			sphere,
			fmt.Sprintf("%d", t.sessions),
			timeutil.FormatDuration(t.active),
			timeutil.FormatDuration(t.focused),
		})
	}

	return tableBody, nil
}
