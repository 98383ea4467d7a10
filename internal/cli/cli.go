// Package cli implements the ncaa-scraper command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortuna/ncaa-boxscores/internal/config"
	"github.com/fortuna/ncaa-boxscores/internal/ncaa"
	"github.com/fortuna/ncaa-boxscores/internal/session"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// backfillDates are the fixed dates scraped by --backfill.
var backfillDates = []ncaa.Date{
	{Year: 2025, Month: 1, Day: 12},
	{Year: 2025, Month: 2, Day: 15},
}

type options struct {
	date         string
	start        string
	end          string
	backfill     bool
	outputDir    string
	upload       bool
	noUpload     bool
	remoteFolder string
	divisions    []string
	genders      []string
	force        bool
	precheck     bool
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "ncaa-scraper",
		Short: "Scrape NCAA basketball box scores into per-division CSV files",
		Long: `Scrapes every game on the ncaa.com scoreboards for the selected dates, divisions and
genders, writes one CSV per division, then flags games that appear in more than one
division file. Files can be mirrored to S3 at the end of the run.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			spec, err := opts.spec(cfg, time.Now())
			if err != nil {
				return err
			}
			app := appConfig{
				Config:       *cfg,
				OutputDir:    firstNonEmpty(opts.outputDir, cfg.OutputDir),
				RemoteFolder: firstNonEmpty(opts.remoteFolder, cfg.RemoteFolder),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, app, spec)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.date, "date", "", "Date in YYYY/MM/DD format (default: yesterday)")
	f.StringVar(&opts.start, "start", "", "First date of a range, YYYY/MM/DD (requires --end)")
	f.StringVar(&opts.end, "end", "", "Last date of a range, YYYY/MM/DD (requires --start)")
	f.BoolVar(&opts.backfill, "backfill", false, "Scrape the fixed backfill dates")
	f.StringVar(&opts.outputDir, "output-dir", "", "Output directory for CSV files (env: OUTPUT_DIR)")
	f.BoolVar(&opts.upload, "upload", false, "Mirror written files to S3 (env: UPLOAD_ENABLED)")
	f.BoolVar(&opts.noUpload, "no-upload", false, "Disable mirroring even if UPLOAD_ENABLED is set")
	f.StringVar(&opts.remoteFolder, "remote-folder", "", "Root folder in the bucket (env: REMOTE_FOLDER)")
	f.StringSliceVar(&opts.divisions, "divisions", []string{"d1", "d2", "d3"}, "Divisions to scrape")
	f.StringSliceVar(&opts.genders, "genders", []string{"men", "women"}, "Genders to scrape")
	f.BoolVar(&opts.force, "force", false, "Remove existing division files before scraping")
	f.BoolVar(&opts.precheck, "precheck", false, "Report which files already exist remotely before scraping")

	cmd.MarkFlagsMutuallyExclusive("upload", "no-upload")
	cmd.MarkFlagsMutuallyExclusive("date", "backfill", "start")
	cmd.MarkFlagsMutuallyExclusive("date", "backfill", "end")
	cmd.MarkFlagsRequiredTogether("start", "end")

	return cmd
}

// spec turns flags into a session spec. now anchors the default date.
func (o *options) spec(cfg *config.Config, now time.Time) (session.Spec, error) {
	var spec session.Spec

	switch {
	case o.backfill:
		spec.Dates = append([]ncaa.Date(nil), backfillDates...)
	case o.start != "" || o.end != "":
		if o.start == "" || o.end == "" {
			return spec, errors.New("--start and --end must be given together")
		}
		start, err := ncaa.ParseDate(o.start)
		if err != nil {
			return spec, err
		}
		end, err := ncaa.ParseDate(o.end)
		if err != nil {
			return spec, err
		}
		if end.Time().Before(start.Time()) {
			return spec, fmt.Errorf("--end %s is before --start %s", end, start)
		}
		spec.Dates = ncaa.EnumerateDates(start, end)
	case o.date != "":
		d, err := ncaa.ParseDate(o.date)
		if err != nil {
			return spec, err
		}
		spec.Dates = []ncaa.Date{d}
	default:
		spec.Dates = []ncaa.Date{ncaa.Yesterday(now)}
	}

	seenDiv := make(map[ncaa.Division]bool)
	for _, raw := range o.divisions {
		d, err := ncaa.ParseDivision(raw)
		if err != nil {
			return spec, err
		}
		if !seenDiv[d] {
			seenDiv[d] = true
			spec.Divisions = append(spec.Divisions, d)
		}
	}
	seenGender := make(map[ncaa.Gender]bool)
	for _, raw := range o.genders {
		g, err := ncaa.ParseGender(raw)
		if err != nil {
			return spec, err
		}
		if !seenGender[g] {
			seenGender[g] = true
			spec.Genders = append(spec.Genders, g)
		}
	}
	if len(spec.Divisions) == 0 || len(spec.Genders) == 0 {
		return spec, errors.New("at least one division and one gender are required")
	}

	spec.Upload = cfg.UploadEnabled
	if o.upload {
		spec.Upload = true
	}
	if o.noUpload {
		spec.Upload = false
	}
	spec.Force = o.force
	spec.Precheck = o.precheck && spec.Upload
	return spec, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Execute runs the CLI and exits with ExitError on failure.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
