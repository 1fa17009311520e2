package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hako/durafmt"
	"github.com/kballard/go-shellquote"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/worklog/internal/config"
	"github.com/ayoisaiah/worklog/internal/logging"
	"github.com/ayoisaiah/worklog/internal/models"
	"github.com/ayoisaiah/worklog/internal/osutil"
	"github.com/ayoisaiah/worklog/internal/pathutil"
	"github.com/ayoisaiah/worklog/internal/session"
	"github.com/ayoisaiah/worklog/internal/timeutil"
	"github.com/ayoisaiah/worklog/internal/tracker"
	"github.com/ayoisaiah/worklog/internal/ui"
	"github.com/ayoisaiah/worklog/store"
	"github.com/ayoisaiah/worklog/tui"
)

const (
	envNoColor        = "NO_COLOR"
	envWorklogNoColor = "WORKLOG_NO_COLOR"
)

const eventBuffer = 16

// firstNonEmptyString returns its first non-empty argument, or "" if all
// arguments are empty.
func firstNonEmptyString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}

	return ""
}

// setup loads the configuration and opens the log file. The first-run prompt
// is only shown when interactive is set.
func setup(
	ctx *cli.Context,
	interactive bool,
) (*config.Config, *slog.Logger, io.Closer, error) {
	configPath := pathutil.ConfigFilePath()

	opts := make([]config.Option, 0, 3)

	if interactive {
		opts = append(opts, config.WithPromptConfig(configPath))
	}

	opts = append(opts,
		config.WithViperConfig(configPath),
		config.WithCLIConfig(ctx),
	)

	cfg, err := config.New(opts...)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, closer := logging.New(pathutil.LogFilePath(), cfg.Log.Level)
	slog.SetDefault(logger)

	ui.DarkTheme = cfg.Display.DarkTheme

	logger.Debug("configuration loaded", "config", cfg.String())

	return cfg, logger, closer, nil
}

// loadState reads the saved sessions without changing them.
func loadState(
	ctx *cli.Context,
) (*config.Config, models.State, store.RecoveryInfo, error) {
	cfg, logger, closer, err := setup(ctx, false)
	if err != nil {
		return nil, models.State{}, store.RecoveryInfo{}, err
	}

	defer closer.Close()

	manager, err := openManager(cfg, logger)
	if err != nil {
		return nil, models.State{}, store.RecoveryInfo{}, err
	}

	defer manager.Close()

	st, info := manager.LoadOrRecover(ctx.Context)

	return cfg, st, info, nil
}

// runSessionCmd executes the configured command after a session ends. The
// session totals are passed through the environment.
func runSessionCmd(sessionCmd string, sum session.Summary) error {
	if sessionCmd == "" {
		return nil
	}

	cmdSlice, err := shellquote.Split(sessionCmd)
	if err != nil {
		return errSessionCmd.Wrap(err)
	}

	if len(cmdSlice) == 0 {
		return nil
	}

	name := cmdSlice[0]
	args := cmdSlice[1:]

	cmd := exec.Command(name, args...)

	cmd.Env = append(os.Environ(),
		"WORKLOG_SESSION_ID="+sum.SessionID,
		"WORKLOG_SPHERE="+sum.Sphere,
		fmt.Sprintf("WORKLOG_ACTIVE_SECONDS=%d", int(sum.Active.Seconds())),
		fmt.Sprintf("WORKLOG_BREAK_SECONDS=%d", int(sum.Break.Seconds())),
		fmt.Sprintf("WORKLOG_IDLE_SECONDS=%d", int(sum.Idle.Seconds())),
	)

	if err := cmd.Run(); err != nil {
		return errSessionCmdFailed.Wrap(err)
	}

	return nil
}

func printSummary(sum session.Summary) {
	pterm.DefaultBox.
		WithTitle("Session summary").
		Println(strings.TrimSpace(sum.Report()))
}

// reportRecovery tells the user how saved data was loaded at startup.
func reportRecovery(info store.RecoveryInfo, closed *session.Summary) {
	if info.Err != nil {
		pterm.Warning.Printfln("%v", info.Err)
	}

	for _, name := range info.Skipped {
		pterm.Warning.Printfln("Backup %s could not be read and was skipped", name)
	}

	switch info.Status {
	case store.RecoveredFromBackup:
		pterm.Info.Printfln("Sessions were recovered from backup %s", info.Source)
	case store.StartedFresh:
		if info.Err != nil {
			pterm.Warning.Println("No readable backup was found. Starting with an empty history")
		}
	}

	if closed != nil {
		pterm.Info.Printfln(
			"A session that was interrupted has been closed at %s",
			closed.EndTime.Format(time.DateTime),
		)
		printSummary(*closed)
	}
}

// defaultAction starts or resumes a session and runs the interactive display
// until the session is ended or the display is detached.
func defaultAction(ctx *cli.Context) error {
	cfg, logger, closer, err := setup(ctx, true)
	if err != nil {
		return err
	}

	defer closer.Close()

	manager, err := openManager(cfg, logger)
	if err != nil {
		return err
	}

	t := tracker.New(cfg, manager, tracker.WithLogger(logger))

	info, closed, err := t.Open(ctx.Context)
	if err != nil {
		_ = t.Close()
		return err
	}

	reportRecovery(info, closed)

	events := t.Machine().Subscribe(eventBuffer)

	if t.Machine().State() == session.Stopped {
		if _, err = t.StartSession(cfg.Session.Sphere); err != nil {
			_ = t.Close()
			return err
		}
	}

	t.Run(ctx.Context)

	opts := tui.Options{
		Events:         events,
		Logger:         logger,
		DarkTheme:      cfg.Display.DarkTheme,
		TwentyFourHour: cfg.Display.TwentyFourHour,
	}

	if cfg.Notifications.Enabled {
		opts.Notify = tui.DesktopNotifier()
	}

	model := tui.New(t, opts)

	_, runErr := tea.NewProgram(model).Run()

	closeErr := t.Close()

	if runErr != nil {
		return runErr
	}

	if closeErr != nil {
		return closeErr
	}

	sum := model.Summary()
	if sum == nil {
		pterm.Info.Println(
			"The session is still open. Run worklog again to get back to it",
		)

		return nil
	}

	printSummary(*sum)

	return runSessionCmd(cfg.Session.Cmd, *sum)
}

// statusAction prints the state of the session in progress.
func statusAction(ctx *cli.Context) error {
	cfg, st, info, err := loadState(ctx)
	if err != nil {
		return err
	}

	if st.Current == nil {
		pterm.Info.Println("No session is running")
		return nil
	}

	now := time.Now()

	sum, err := session.Summarize(*st.Current, now)
	if err != nil {
		return err
	}

	return printStatus(
		config.Stdout,
		*st.Current,
		sum,
		info,
		now,
		cfg.Display.TwentyFourHour,
	)
}

func printStatus(
	w io.Writer,
	current models.Session,
	sum session.Summary,
	info store.RecoveryInfo,
	now time.Time,
	twentyFourHour bool,
) error {
	layout := dateFormat(twentyFourHour)

	running := durafmt.Parse(now.Sub(sum.StartTime).Truncate(time.Second)).
		LimitToUnit("hours").
		LimitFirstN(2)

	return ui.PrintPairs([][]string{
		{"Session", sum.SessionID},
		{"Sphere", sum.Sphere},
		{"State", ui.State(current.State)},
		{"Started", sum.StartTime.Format(layout)},
		{"Running for", running.String()},
		{"Active", timeutil.FormatDuration(sum.Active)},
		{"Break", timeutil.FormatDuration(sum.Break)},
		{"Idle", timeutil.FormatDuration(sum.Idle)},
		{"Last saved", info.LastSavedAt.Format(layout)},
	}, w)
}

// listAction prints a table of the sessions matching the filter flags.
func listAction(ctx *cli.Context) error {
	var f listFilter

	if since := ctx.String("since"); since != "" {
		t, err := timeutil.FromStr(since)
		if err != nil {
			return errInvalidSince.Wrap(err)
		}

		f.Since = t
	}

	f.Sphere = strings.TrimSpace(ctx.String("sphere"))

	cfg, st, _, err := loadState(ctx)
	if err != nil {
		return err
	}

	sessions := collectSessions(st, f)

	if ctx.Bool("json") {
		b, err := json.Marshal(sessions)
		if err != nil {
			return err
		}

		pterm.Println(string(b))

		return nil
	}

	if len(sessions) == 0 {
		pterm.Info.Println(noSessionsMsg)
		return nil
	}

	now := time.Now()

	err = printSessionsTable(config.Stdout, sessions, now, cfg.Display.TwentyFourHour)
	if err != nil {
		return err
	}

	return printSphereTotals(config.Stdout, sessions, now)
}

// backupsAction lists the backups kept by the selected backend.
func backupsAction(ctx *cli.Context) error {
	cfg, logger, closer, err := setup(ctx, false)
	if err != nil {
		return err
	}

	defer closer.Close()

	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}

	defer backend.Close()

	backups, err := backend.Backups()
	if err != nil {
		return err
	}

	logger.Debug("listing backups", "count", len(backups))

	if len(backups) == 0 {
		pterm.Info.Println("No backups have been written yet")
		return nil
	}

	return printBackupsTable(config.Stdout, backups, cfg.Display.TwentyFourHour)
}

func printBackupsTable(w io.Writer, backups []store.Backup, twentyFourHour bool) error {
	layout := dateFormat(twentyFourHour)

	tableBody := [][]string{{"#", "DATE", "NAME"}}

	for i, b := range backups {
		tableBody = append(tableBody, []string{
			fmt.Sprintf("%d", i+1),
			b.Time.Local().Format(layout),
			b.Name,
		})
	}

	return ui.PrintTable(tableBody, w)
}

// recoverAction reports which copy of the saved sessions would be loaded on
// the next start. Nothing is written.
func recoverAction(ctx *cli.Context) error {
	_, st, info, err := loadState(ctx)
	if err != nil {
		return err
	}

	reportRecovery(info, nil)

	switch info.Status {
	case store.Loaded:
		pterm.Success.Println("The primary data file is readable")
	case store.StartedFresh:
		pterm.Info.Println("There are no saved sessions")
		return nil
	}

	pterm.Info.Printfln(
		"%d completed sessions, last saved at %s",
		len(st.History),
		info.LastSavedAt.Local().Format(time.DateTime),
	)

	if info.Incomplete {
		pterm.Info.Println(
			"A session is still open. It will be closed at the last save time on the next start, or continued with --resume",
		)
	}

	return nil
}

// editConfigAction handles the edit-config command which opens the worklog
// config file in the user's default text editor.
func editConfigAction(_ *cli.Context) error {
	defaultEditor := "nano"

	if runtime.GOOS == osutil.Windows {
		defaultEditor = "C:\\Windows\\system32\\notepad.exe"
	}

	editor := firstNonEmptyString(
		os.Getenv("VISUAL"),
		os.Getenv("EDITOR"),
		defaultEditor,
	)

	cmd := exec.Command(editor, pathutil.ConfigFilePath())

	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout

	return cmd.Run()
}

func beforeAction(ctx *cli.Context) error {
	cli.AppHelpTemplate = helpText()

	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	// Disable colour output if NO_COLOR is set
	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	// Disable colour output if WORKLOG_NO_COLOR is set
	if _, exists := os.LookupEnv(envWorklogNoColor); exists {
		disableStyling()
	}

	if ctx.Bool("no-color") {
		disableStyling()
	}

	return pathutil.Initialize()
}
