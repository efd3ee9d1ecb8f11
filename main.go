package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gruntwork-io/go-commons/entrypoint"
	"github.com/robmorgan/tempomap/audio"
	"github.com/robmorgan/tempomap/beats"
	"github.com/robmorgan/tempomap/config"
	"github.com/robmorgan/tempomap/effect"
	"github.com/robmorgan/tempomap/engine/scale"
	"github.com/robmorgan/tempomap/logger"
	"github.com/robmorgan/tempomap/rhythm"
	"github.com/robmorgan/tempomap/store"
	"github.com/urfave/cli/v2"
	"k8s.io/utils/clock"
)

const (
	progressBarWidth  = 32
	progressFullChar  = "█"
	progressEmptyChar = "░"
)

func main() {
	logger := logger.GetProjectLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("error initializing config. err='%v'", err)
	}

	entrypoint.RunApp(newApp(cfg, clock.RealClock{}, os.Stdout))
}

// Run executes a single command line, without the program name, against the configured store.
func Run(ctx context.Context, cfg *config.Config, clk clock.PassiveClock, args []string, out io.Writer) error {
	app := newApp(cfg, clk, out)
	return app.RunContext(ctx, append([]string{app.Name}, args...))
}

func newApp(cfg *config.Config, clk clock.PassiveClock, out io.Writer) *cli.App {
	app := entrypoint.NewApp()
	app.Name = "tempomap"
	app.Usage = "store and query the beat grids of tracks"
	app.HideVersion = true
	app.Writer = out
	app.ErrWriter = out
	// errors are returned to the caller; RunApp reports them and picks the exit code
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Action = func(cliContext *cli.Context) error {
		if err := cli.ShowAppHelp(cliContext); err != nil {
			return err
		}
		if cliContext.NArg() == 0 {
			return fmt.Errorf("missing command")
		}
		return fmt.Errorf("unknown command %q", cliContext.Args().First())
	}

	app.Commands = []*cli.Command{
		{
			Name:  "grid",
			Usage: "store a constant tempo grid for a track",
			Flags: []cli.Flag{
				newTrackFlag(),
				&cli.Float64Flag{Name: "start", Usage: "frame position of the first beat"},
				&cli.Float64Flag{Name: "bpm", Value: 120, Usage: "tempo in beats per minute"},
				newRateFlag(),
				&cli.StringFlag{Name: "label", Usage: "free-form label stored with the grid"},
			},
			Action: withStore(cfg, runGrid),
		},
		{
			Name:  "markers",
			Usage: "store a marker based tempo map for a track",
			Flags: []cli.Flag{
				newTrackFlag(),
				&cli.StringFlag{Name: "markers", Usage: "comma separated position:beats pairs, e.g. 400:8,192400:16"},
				&cli.Float64Flag{Name: "last", Usage: "frame position of the last marker"},
				&cli.Float64Flag{Name: "bpm", Value: 120, Usage: "tempo after the last marker"},
				newRateFlag(),
				&cli.StringFlag{Name: "label", Usage: "free-form label stored with the map"},
			},
			Action: withStore(cfg, runMarkers),
		},
		{
			Name:  "query",
			Usage: "print the beats around a position",
			Flags: []cli.Flag{
				newTrackFlag(),
				&cli.Float64Flag{Name: "position", Usage: "frame position to query"},
				&cli.IntFlag{Name: "n", Value: 4, Usage: "also print the nth beat from the position"},
				&cli.BoolFlag{Name: "snap", Value: true, Usage: "snap to beats within a small tolerance"},
				&cli.DurationFlag{Name: "ahead", Usage: "also print where playback is after this long"},
				&cli.Float64Flag{Name: "speed", Value: 1, Usage: "playback speed used for --ahead"},
				&cli.StringFlag{Name: "easing", Value: "linear", Usage: "envelope shape of the bar ramp"},
			},
			Action: withStore(cfg, func(cliContext *cli.Context, s *store.Store) error {
				return runQuery(cliContext, cfg, clk, s)
			}),
		},
		{
			Name:   "history",
			Usage:  "list the stored revisions of a track",
			Flags:  []cli.Flag{newTrackFlag()},
			Action: withStore(cfg, runHistory),
		},
	}
	return app
}

func newTrackFlag() cli.Flag {
	return &cli.StringFlag{Name: "track", Usage: "track id"}
}

func newRateFlag() cli.Flag {
	return &cli.Float64Flag{Name: "rate", Value: 44100, Usage: "sample rate in frames per second"}
}

func withStore(cfg *config.Config, action func(*cli.Context, *store.Store) error) cli.ActionFunc {
	return func(cliContext *cli.Context) error {
		s, err := store.Open(cliContext.Context, cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer s.Close()
		return action(cliContext, s)
	}
}

func runGrid(cliContext *cli.Context, s *store.Store) error {
	trackID, err := entrypoint.StringFlagRequiredE(cliContext, "track")
	if err != nil {
		return err
	}

	b, err := beats.NewConstTempo(
		audio.FramePos(cliContext.Float64("start")),
		audio.Bpm(cliContext.Float64("bpm")),
		audio.SampleRate(cliContext.Float64("rate")),
		cliContext.String("label"),
	)
	if err != nil {
		return err
	}
	return save(cliContext, s, trackID, b)
}

func runMarkers(cliContext *cli.Context, s *store.Store) error {
	trackID, err := entrypoint.StringFlagRequiredE(cliContext, "track")
	if err != nil {
		return err
	}

	markers, err := parseMarkers(cliContext.String("markers"))
	if err != nil {
		return err
	}
	b, err := beats.NewFromMarkers(
		markers,
		audio.FramePos(cliContext.Float64("last")),
		audio.Bpm(cliContext.Float64("bpm")),
		audio.SampleRate(cliContext.Float64("rate")),
		cliContext.String("label"),
	)
	if err != nil {
		return err
	}
	return save(cliContext, s, trackID, b)
}

func save(cliContext *cli.Context, s *store.Store, trackID string, b *beats.Beats) error {
	id, err := s.Save(cliContext.Context, trackID, b)
	if err != nil {
		return err
	}
	fmt.Fprintf(cliContext.App.Writer, "saved %s revision %s\n", b.Version(), id)
	return nil
}

func parseMarkers(list string) ([]beats.BeatMarker, error) {
	var markers []beats.BeatMarker
	if list == "" {
		return markers, nil
	}
	for _, pair := range strings.Split(list, ",") {
		var marker beats.BeatMarker
		var position float64
		if _, err := fmt.Sscanf(strings.TrimSpace(pair), "%g:%d", &position, &marker.BeatsTillNextMarker); err != nil {
			return nil, fmt.Errorf("invalid marker %q: %v", pair, err)
		}
		marker.Position = audio.FramePos(position)
		markers = append(markers, marker)
	}
	return markers, nil
}

func runQuery(cliContext *cli.Context, cfg *config.Config, clk clock.PassiveClock, s *store.Store) error {
	trackID, err := entrypoint.StringFlagRequiredE(cliContext, "track")
	if err != nil {
		return err
	}
	easing, ok := effect.EasingByName(cliContext.String("easing"))
	if !ok {
		return fmt.Errorf("unknown easing %q", cliContext.String("easing"))
	}

	b, err := s.Load(cliContext.Context, trackID)
	if err != nil {
		return err
	}

	pos := audio.FramePos(cliContext.Float64("position"))
	prev, next, ok := b.FindPrevNextBeats(pos, cliContext.Bool("snap"))
	if !ok {
		return fmt.Errorf("invalid position %v", pos)
	}

	transport := rhythm.NewTransport(clk, b, cfg.BeatsPerBar, cfg.BarsPerPhrase)
	transport.Seek(pos)
	snapshot, err := transport.GetSnapshot(0)
	if err != nil {
		return err
	}

	n := cliContext.Int("n")
	out := cliContext.App.Writer
	fmt.Fprintf(out, "version:   %s %q\n", b.Version(), b.SubVersion())
	fmt.Fprintf(out, "position:  %v (%s)\n", pos, snapshot.GetMarker())
	fmt.Fprintf(out, "tempo:     %.2f bpm\n", snapshot.GetTempo().Value())
	fmt.Fprintf(out, "prev/next: %v / %v\n", prev, next)
	fmt.Fprintf(out, "beat %+d:   %v\n", n, b.FindNthBeat(pos, n))

	ramp := effect.NewEffect(easing, cfg.BeatsPerBar)
	fmt.Fprintf(out, "bar ramp:  %.3f\n", ramp.Value(snapshot))

	phraseStart := snapshot.GetPositionOfPhrase(snapshot.GetPhrase())
	phraseEnd := snapshot.GetPositionOfPhrase(snapshot.GetPhrase() + 1)
	progress := scale.ToUnitClamp(phraseStart.Value(), phraseEnd.Value())(pos.Value())
	fmt.Fprintf(out, "phrase:    %s\n", progressBar(progress))

	if ahead := cliContext.Duration("ahead"); ahead > 0 {
		transport.SetRate(cliContext.Float64("speed"))
		future, err := transport.GetSnapshot(ahead)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "in %v:  %v (%s)\n", ahead, future.GetPosition(), future.GetMarker())
	}
	return nil
}

func runHistory(cliContext *cli.Context, s *store.Store) error {
	trackID, err := entrypoint.StringFlagRequiredE(cliContext, "track")
	if err != nil {
		return err
	}

	records, err := s.History(cliContext.Context, trackID)
	if err != nil {
		return err
	}
	for _, record := range records {
		fmt.Fprintf(cliContext.App.Writer, "%s  %s  %-12s %q\n",
			record.ID, record.CreatedAt.Format(time.DateTime), record.Version, record.SubVersion)
	}
	return nil
}

func progressBar(progress float64) string {
	full := int(progress * progressBarWidth)
	return strings.Repeat(progressFullChar, full) + strings.Repeat(progressEmptyChar, progressBarWidth-full)
}
