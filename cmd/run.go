package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/TelioTortay/ATEMLogger/internal/config"
	"github.com/TelioTortay/ATEMLogger/internal/session"
	"github.com/TelioTortay/ATEMLogger/internal/switcher"
	"github.com/TelioTortay/ATEMLogger/internal/timecode"
	"github.com/TelioTortay/ATEMLogger/internal/tui"
)

var (
	runSwitcher     string
	runDeck         string
	runOutput       string
	runCompensation int
	runFPS          int
	runHeadless     bool
	runDemo         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a monitoring session",
	Long: `Connects to the switcher and the deck, then logs every program cut
against the deck's display timecode until stopped (q in the monitor screen,
or Ctrl-C when headless). On stop the take list is written as an EDL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runCfg := GetConfig()
		if runSwitcher != "" {
			runCfg.SwitcherAddress = runSwitcher
		}
		if runDeck != "" {
			runCfg.DeckAddress = runDeck
		}
		if runOutput != "" {
			runCfg.OutputPath = runOutput
		}
		if cmd.Flags().Changed("compensation") {
			runCfg.CompensationFrames = runCompensation
		}
		if cmd.Flags().Changed("fps") {
			runCfg.FrameRate = runFPS
		}

		id := uuid.New().String()
		runCfg.OutputPath = resolveOutputPath(runCfg.OutputPath, id)

		// Compensation is read at serialization time through this cell, so
		// a config rewrite during the show still lands in the EDL. An
		// explicit --compensation flag pins the value instead.
		var comp atomic.Int64
		comp.Store(int64(runCfg.CompensationFrames))

		watchCtx, cancelWatch := context.WithCancel(context.Background())
		defer cancelWatch()
		if !cmd.Flags().Changed("compensation") {
			startCompensationWatch(watchCtx, &comp)
		}

		sess, err := buildSession(runCfg, id, func() int { return int(comp.Load()) })
		if err != nil {
			return err
		}
		sess.Start()

		if runHeadless || !term.IsTerminal(os.Stdout.Fd()) {
			return runHeadlessSession(sess)
		}

		if err := tui.Run(sess, sess.Inputs(), sess.OutputPath()); err != nil {
			return err
		}
		printClipTable(sess)
		return nil
	},
}

// resolveOutputPath turns a directory destination into a per-session
// filename. Files and empty paths pass through unchanged.
func resolveOutputPath(path, id string) string {
	if path == "" {
		return ""
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, "atemlogger-"+id[:8]+".edl")
	}
	return path
}

// buildSession connects real devices, or wires the scripted demo pair. A
// connection failure surfaces here, before any polling starts.
func buildSession(runCfg config.Config, id string, compensation func() int) (*session.Session, error) {
	if !runDemo {
		return session.Connect(runCfg, compensation)
	}
	return session.New(session.Options{
		Feed:         switcher.NewScript(switcher.DemoInputs(), 5*time.Second),
		Deck:         newDemoDeck(runCfg.FrameRate),
		OutputPath:   runCfg.OutputPath,
		FrameRate:    runCfg.FrameRate,
		Backoff:      time.Duration(runCfg.PollBackoffMS) * time.Millisecond,
		Compensation: compensation,
	})
}

// startCompensationWatch re-reads whichever config file is in play and
// updates the live compensation value on rewrites.
func startCompensationWatch(ctx context.Context, comp *atomic.Int64) {
	path := config.ProjectFile
	if _, err := os.Stat(path); err != nil {
		global, gerr := config.GlobalPath()
		if gerr != nil {
			return
		}
		if _, serr := os.Stat(global); serr != nil {
			return
		}
		path = global
	}
	go config.Watch(ctx, path, func(c config.Config) {
		comp.Store(int64(c.CompensationFrames))
	})
}

// runHeadlessSession drives a session without the monitor screen: events go
// to the log, Ctrl-C stops, and the take list prints as a table at the end.
func runHeadlessSession(sess *session.Session) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		sess.Stop()
	}()

	// Drain until the loop closes the stream; logging already happens in
	// the session itself.
	for range sess.Events() {
	}

	err := sess.Stop()
	printClipTable(sess)
	return err
}

// demoDeck synthesizes a display timecode from the wall clock so the UI can
// be exercised without hardware.
type demoDeck struct {
	start time.Time
	rate  int
}

func newDemoDeck(rate int) *demoDeck {
	if rate <= 0 {
		rate = timecode.DefaultRate
	}
	return &demoDeck{start: time.Now(), rate: rate}
}

func (d *demoDeck) QueryTimecode() (timecode.Timecode, bool) {
	elapsed := time.Since(d.start)
	secs := int(elapsed.Seconds())
	frames := int(elapsed.Seconds()*float64(d.rate)) % d.rate
	return timecode.Timecode{
		Hours:   secs / 3600,
		Minutes: secs / 60 % 60,
		Seconds: secs % 60,
		Frames:  frames,
	}, true
}

func (d *demoDeck) Close() error { return nil }

func init() {
	runCmd.Flags().StringVar(&runSwitcher, "switcher", "", "ATEM switcher address (host[:port])")
	runCmd.Flags().StringVar(&runDeck, "deck", "", "HyperDeck address (host[:port])")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "EDL destination file (or directory)")
	runCmd.Flags().IntVar(&runCompensation, "compensation", 0, "frame compensation added to every timecode in the EDL")
	runCmd.Flags().IntVar(&runFPS, "fps", 0, "nominal frame rate for timecode arithmetic")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "no monitor screen; log events and stop on Ctrl-C")
	runCmd.Flags().BoolVar(&runDemo, "demo", false, "run against simulated devices")
	rootCmd.AddCommand(runCmd)
}
