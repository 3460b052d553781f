package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"review-scraper/collector"
	"review-scraper/config"
	"review-scraper/db"
	"review-scraper/fetcher"
	"review-scraper/logging"
	"review-scraper/metrics"
	"review-scraper/models"
	"review-scraper/notify"
	"review-scraper/parser"
	"review-scraper/sheets"
	"review-scraper/sink"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// cliFlags holds every command line value
type cliFlags struct {
	opts config.Options

	configPath  string
	maxPages    int
	headless    bool
	screenshots string
	spreadsheet string
	credentials string
	databaseURL string
	metricsFile string
	logLevel    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the root command and maps its outcome to an exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var verr *config.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(stderr, "Error: %v\nRun 'review-scraper --help' for usage.\n", verr)
	} else {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &cliFlags{}

	cmd := &cobra.Command{
		Use:   "review-scraper",
		Short: "Collect G2 and Capterra reviews published within a date range",
		Long: `review-scraper pages through a company's reviews on G2 (newest first) or
reads a single Capterra reviews page, keeps the reviews published between
--start_date and --end_date (inclusive) and writes them to a JSON file.`,
		Example: `  review-scraper -w g2 -c notion -s 2024-03-01 -e 2024-03-10
  review-scraper -w capterra -c notion -s 2024-01-01 -e 2024-03-31 --url https://www.capterra.com/p/186596/Notion/reviews/`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd.Context(), cmd, f, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVarP(&f.opts.Website, "website", "w", "", "Review site to scrape: g2 or capterra")
	flags.StringVarP(&f.opts.Company, "company_name", "c", "", "Company name (the G2 product slug)")
	flags.StringVarP(&f.opts.StartDate, "start_date", "s", "", "First day of the range, YYYY-MM-DD")
	flags.StringVarP(&f.opts.EndDate, "end_date", "e", "", "Last day of the range, YYYY-MM-DD (inclusive)")
	flags.StringVar(&f.opts.URL, "url", "", "Capterra reviews page URL (required for capterra)")
	flags.StringVarP(&f.opts.Output, "output", "o", config.DefaultOutput, "JSON output file")

	flags.StringVar(&f.configPath, "config", "config.yaml", "Path to configuration file")
	flags.IntVar(&f.maxPages, "max-pages", 0, "Maximum number of G2 pages to fetch (overrides config)")
	flags.BoolVar(&f.headless, "headless", true, "Run the browser headless (overrides config)")
	flags.StringVar(&f.screenshots, "screenshots", "", "Directory for per-page screenshots")
	flags.StringVar(&f.spreadsheet, "spreadsheet", "", "Google Sheets URL or ID to also write the reviews to")
	flags.StringVar(&f.credentials, "credentials", "", "Path to Google service account credentials JSON file (or use GOOGLE_SHEETS_CREDENTIALS env var)")
	flags.StringVar(&f.databaseURL, "database-url", "", "Postgres connection string for the run archive (or use DATABASE_URL env var)")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	flags.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (or use LOG_LEVEL env var)")

	return cmd
}

// runScrape validates the input, runs the collector and writes every sink
func runScrape(ctx context.Context, cmd *cobra.Command, f *cliFlags, stdout, stderr io.Writer) error {
	envErr := config.LoadEnv()

	level := f.logLevel
	if level == "" {
		level = config.GetEnvOrDefault("LOG_LEVEL", "info")
	}
	logger := logging.NewLogger(stderr, level, config.GetEnvOrDefault("LOG_FORMAT", "console"))
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("Failed to load .env file")
	}

	// nothing is fetched or written before the input is valid
	run, err := f.opts.Validate()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, f, logger)
	if err != nil {
		return err
	}

	runID := uuid.New()
	logger = logger.With().
		Str("run_id", runID.String()).
		Str("source", string(run.Source)).
		Str("company", run.Company).
		Logger()

	logger.Info().Str("range", run.Range.String()).Msg("Starting scrape")

	m := metrics.New()
	startedAt := time.Now()
	defer func() {
		m.RunDuration.WithLabelValues(string(run.Source)).Set(time.Since(startedAt).Seconds())
		writeMetrics(m, f.metricsFile, logger)
	}()

	archive := openArchive(ctx, f.databaseURL, runID, run, logger)
	defer archive.Close()

	res, err := collect(ctx, cfg, run, logger)
	if err == nil {
		m.PagesFetched.WithLabelValues(string(run.Source)).Add(float64(res.Pages))
		m.RecordsSkipped.WithLabelValues(string(run.Source)).Add(float64(len(res.Skipped)))
		err = sink.NewJSONFile(run.Output).Write(ctx, res.Reviews)
	}
	if err != nil {
		err = describeFailure(err, run)
		m.Runs.WithLabelValues(string(run.Source), "failed").Inc()
		archive.fail(ctx, err)
		sendNotification(notify.Summary{
			RunID:   runID.String(),
			Source:  string(run.Source),
			Company: run.Company,
			Range:   run.Range.String(),
			Err:     err,
		}, logger)
		return err
	}

	m.ReviewsKept.WithLabelValues(string(run.Source)).Add(float64(len(res.Reviews)))
	m.LastSuccess.WithLabelValues(string(run.Source)).SetToCurrentTime()

	if res.Empty() {
		m.Runs.WithLabelValues(string(run.Source), "empty").Inc()
		logger.Warn().
			Str("stop", string(res.Stop)).
			Int("pages", res.Pages).
			Int("skipped", len(res.Skipped)).
			Str("output", run.Output).
			Msg("No reviews found in the date range")
	} else {
		m.Runs.WithLabelValues(string(run.Source), "done").Inc()
		printReviews(stdout, res.Reviews)
		logger.Info().
			Int("reviews", len(res.Reviews)).
			Int("pages", res.Pages).
			Int("skipped", len(res.Skipped)).
			Str("stop", string(res.Stop)).
			Str("output", run.Output).
			Msg("Reviews written")
	}

	archive.finish(ctx, res)
	writeSpreadsheet(ctx, f, run, startedAt, res.Reviews, logger)
	sendNotification(notify.Summary{
		RunID:   runID.String(),
		Source:  string(run.Source),
		Company: run.Company,
		Range:   run.Range.String(),
		Pages:   res.Pages,
		Reviews: len(res.Reviews),
		Skipped: len(res.Skipped),
		Stop:    string(res.Stop),
		Output:  run.Output,
	}, logger)

	return nil
}

// loadConfig reads the YAML settings and applies the flags that were set explicitly
func loadConfig(cmd *cobra.Command, f *cliFlags, logger zerolog.Logger) (*config.Config, error) {
	cfg, found, err := config.LoadConfigOrDefault(f.configPath)
	if err != nil {
		return nil, err
	}
	if !found {
		logger.Debug().Str("path", f.configPath).Msg("Config file not found, using default configuration")
	}

	if cmd.Flags().Changed("max-pages") {
		cfg.Scraper.MaxPages = f.maxPages
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = f.headless
	}
	if f.screenshots != "" {
		cfg.Browser.ScreenshotDir = f.screenshots
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// browserFetcher is a fetcher holding a browser until it is closed
type browserFetcher interface {
	fetcher.Fetcher
	Close() error
}

// newG2Fetcher opens the G2 browser session; tests replace it
var newG2Fetcher = func(ctx context.Context, cfg *config.Config, pageURL fetcher.PageURLFunc, logger zerolog.Logger) (browserFetcher, error) {
	rf, err := fetcher.NewRodFetcher(ctx, cfg, pageURL, logger)
	if err != nil {
		return nil, err
	}
	return rf, nil
}

// collect builds the fetcher for the run's source and pages through it
func collect(ctx context.Context, cfg *config.Config, run *config.Run, logger zerolog.Logger) (*collector.Result, error) {
	extractor, layouts, err := parser.ForSource(run.Source)
	if err != nil {
		return nil, err
	}

	opts := collector.Options{
		Company:     run.Company,
		Source:      run.Source,
		DateLayouts: layouts,
		Pacer:       collector.NewPageDelay(cfg.Scraper.PageDelay),
		Logger:      logger,
	}

	var f fetcher.Fetcher
	switch run.Source {
	case models.SourceG2:
		rf, err := newG2Fetcher(ctx, cfg, fetcher.G2PageURL(cfg.G2.BaseURL, run.Company), logger)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := rf.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close browser")
			}
		}()
		f = rf
		opts.MaxPages = cfg.Scraper.MaxPages
		opts.Descending = true
	case models.SourceCapterra:
		cf, err := fetcher.NewCollyFetcher(run.URL, cfg, logger)
		if err != nil {
			return nil, err
		}
		f = cf
		opts.MaxPages = 1
	default:
		return nil, fmt.Errorf("unsupported source %q", run.Source)
	}

	c, err := collector.New(f, extractor, opts)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, run.Range)
}

// describeFailure turns a blocked fetch into an actionable message
func describeFailure(err error, run *config.Run) error {
	if errors.Is(err, fetcher.ErrBlocked) {
		return fmt.Errorf("%s returned 403 Forbidden, the request was blocked. Try again later or from another network: %w", run.Source, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("scrape interrupted: %w", err)
	}
	return err
}

// runArchive records the run in Postgres. A nil archive ignores every call.
type runArchive struct {
	db     *db.DB
	id     uuid.UUID
	logger zerolog.Logger
}

func openArchive(ctx context.Context, databaseURL string, id uuid.UUID, run *config.Run, logger zerolog.Logger) *runArchive {
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return nil
	}

	database, err := db.NewDB(ctx, databaseURL)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to connect to database, run will not be archived")
		return nil
	}

	a := &runArchive{db: database, id: id, logger: logger.With().Str("sink", "db").Logger()}
	if _, err := database.CreateRun(ctx, id, string(run.Source), run.Company, run.Range.Start, run.Range.End); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to create run")
		database.Close()
		return nil
	}
	if err := database.UpdateRunStatus(ctx, id, db.StatusInProgress); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to update run status")
	}
	return a
}

func (a *runArchive) finish(ctx context.Context, res *collector.Result) {
	if a == nil {
		return
	}
	if err := a.db.SaveReviews(ctx, a.id, res.Reviews); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to save reviews")
		a.fail(ctx, err)
		return
	}
	counts := db.RunCounts{
		Pages:      res.Pages,
		Reviews:    len(res.Reviews),
		Skipped:    len(res.Skipped),
		StopReason: string(res.Stop),
	}
	if err := a.db.FinishRun(ctx, a.id, counts); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to finish run")
	}
}

func (a *runArchive) fail(ctx context.Context, runErr error) {
	if a == nil {
		return
	}
	// the run context may already be cancelled
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := a.db.FailRun(ctx, a.id, runErr); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to mark run as failed")
	}
}

func (a *runArchive) Close() {
	if a == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close database")
	}
}

// writeSpreadsheet copies the reviews to a new Google Sheets tab when --spreadsheet is set
func writeSpreadsheet(ctx context.Context, f *cliFlags, run *config.Run, startedAt time.Time, reviews []models.Review, logger zerolog.Logger) {
	if f.spreadsheet == "" {
		return
	}

	spreadsheetID := sheets.ExtractSpreadsheetID(f.spreadsheet)
	if spreadsheetID == "" {
		logger.Warn().Str("spreadsheet", f.spreadsheet).Msg("Could not extract spreadsheet ID from URL")
		return
	}

	creds, err := loadCredentials(f.credentials)
	if err != nil {
		logger.Warn().Err(err).Msg("Skipping Google Sheets export")
		return
	}

	writer, err := sheets.NewWriter(ctx, spreadsheetID, creds, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Sheets writer")
		return
	}

	if err := writer.ForRun(run.Source, run.Company, run.Range.String(), startedAt).Write(ctx, reviews); err != nil {
		logger.Warn().Err(err).Msg("Failed to write to Google Sheets")
		return
	}
	logger.Info().Int("reviews", len(reviews)).Msg("Reviews written to Google Sheets")
}

// loadCredentials reads the service account key from path or GOOGLE_SHEETS_CREDENTIALS
func loadCredentials(path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return data, nil
	}

	creds := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
	if creds == "" {
		return nil, errors.New("GOOGLE_SHEETS_CREDENTIALS environment variable is not set and no credentials file path provided")
	}
	return []byte(creds), nil
}

// sendNotification posts the run summary when TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are set
func sendNotification(s notify.Summary, logger zerolog.Logger) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	chatID := os.Getenv("TELEGRAM_CHAT_ID")
	if token == "" || chatID == "" {
		return
	}

	bot, err := notify.NewTelegram(token, chatID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to create Telegram notifier")
		return
	}
	if err := bot.Notify(s); err != nil {
		logger.Warn().Err(err).Msg("Failed to send Telegram notification")
	}
}

func writeMetrics(m *metrics.Metrics, path string, logger zerolog.Logger) {
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		logger.Warn().Err(err).Msg("Failed to write metrics")
	}
}
