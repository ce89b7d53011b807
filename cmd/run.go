package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geopost/internal/export"
	"github.com/sells-group/geopost/internal/model"
	"github.com/sells-group/geopost/internal/pipeline"
	"github.com/sells-group/geopost/internal/resolve"
	"github.com/sells-group/geopost/internal/source"
	"github.com/sells-group/geopost/pkg/geocode"
)

// runOptions are the flags of one collection run.
type runOptions struct {
	Query       string
	Since       string
	Until       string
	MaxItems    int
	CSV         string
	GeoJSON     string
	Shapefile   string
	XLSX        string
	Credentials string
	Backend     string
	Input       string
	NoHistory   bool
}

var runOpts runOptions

// errAuthFailed is returned to cobra so the process exits non-zero.
var errAuthFailed = eris.New("authentication failed")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect posts for a query and write mapped outputs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCollection(cmd.Context(), runOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOpts.Query, "query", "q", "", "search query (required)")
	f.StringVar(&runOpts.Since, "since", "", "earliest post date, YYYY-MM-DD")
	f.StringVar(&runOpts.Until, "until", "", "latest post date, YYYY-MM-DD")
	f.IntVar(&runOpts.MaxItems, "max", 100, fmt.Sprintf("maximum posts to examine (1-%d)", source.MaxItemsLimit))
	f.StringVar(&runOpts.CSV, "csv", "", "CSV output path")
	f.StringVar(&runOpts.GeoJSON, "geojson", "", "GeoJSON output path")
	f.StringVar(&runOpts.Shapefile, "shapefile", "", "shapefile output path (.shp)")
	f.StringVar(&runOpts.XLSX, "xlsx", "", "spreadsheet output path")
	f.StringVar(&runOpts.Credentials, "credentials", "", "API credentials file, JSON or YAML (default from twitter.credentials_file)")
	f.StringVar(&runOpts.Backend, "backend", "", "geocoding backend: arcgis, mapquest or nominatim (default from geocode.backend)")
	f.StringVar(&runOpts.Input, "input", "", "replay posts from a JSON-lines file instead of the search API")
	f.BoolVar(&runOpts.NoHistory, "no-history", false, "do not record the run in the history store")
	_ = runCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(runCmd)
}

func (o runOptions) query() source.Query {
	return source.Query{Text: o.Query, Since: o.Since, Until: o.Until, MaxItems: o.MaxItems}
}

func (o runOptions) targets() export.Targets {
	var ts export.Targets
	for _, t := range []export.Target{
		{Format: export.FormatCSV, Path: o.CSV},
		{Format: export.FormatGeoJSON, Path: o.GeoJSON},
		{Format: export.FormatShapefile, Path: o.Shapefile},
		{Format: export.FormatXLSX, Path: o.XLSX},
	} {
		if t.Path != "" {
			ts = append(ts, t)
		}
	}
	return ts
}

func (o runOptions) credentialsPath() string {
	if o.Credentials != "" {
		return o.Credentials
	}
	return cfg.Twitter.CredentialsFile
}

func (o runOptions) backend() (geocode.Backend, error) {
	name := o.Backend
	if name == "" {
		name = cfg.Geocode.Backend
	}
	return geocode.ParseBackend(name)
}

// validate rejects bad input before any provider is contacted.
func (o runOptions) validate() error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := o.query().Validate(); err != nil {
		return err
	}
	if err := o.targets().Validate(); err != nil {
		return err
	}
	if _, err := o.backend(); err != nil {
		return err
	}
	if o.Input != "" {
		if _, err := os.Stat(o.Input); err != nil {
			return eris.Errorf("input file %s does not exist", o.Input)
		}
		return nil
	}
	path := o.credentialsPath()
	if path == "" {
		return eris.New("a credentials file is required (--credentials or twitter.credentials_file)")
	}
	if _, err := os.Stat(path); err != nil {
		return eris.Errorf("credentials file %s does not exist", path)
	}
	return nil
}

func newProvider(backend geocode.Backend) (geocode.Provider, error) {
	gc := cfg.Geocode
	opts := []geocode.Option{
		geocode.WithBaseURL(gc.BaseURL(backend)),
		geocode.WithAPIKey(gc.MapQuestKey),
		geocode.WithUserAgent(gc.UserAgent),
		geocode.WithDelay(gc.Delay()),
	}
	if gc.TimeoutSecs > 0 {
		opts = append(opts, geocode.WithHTTPClient(&http.Client{Timeout: gc.Timeout()}))
	}
	return geocode.New(backend, opts...)
}

func newOpener(o runOptions) source.Opener {
	q := o.query()
	if o.Input != "" {
		return func(context.Context) (source.PostSource, error) {
			return source.OpenJSONL(o.Input, q.MaxItems)
		}
	}
	return func(ctx context.Context) (source.PostSource, error) {
		creds, err := source.LoadCredentials(o.credentialsPath())
		if err != nil {
			return nil, eris.Wrapf(source.ErrAuth, "load credentials: %v", err)
		}
		tc := cfg.Twitter
		return source.OpenTwitter(ctx, creds, q,
			source.WithBaseURL(tc.BaseURL),
			source.WithPageSize(tc.PageSize),
			source.WithPageRate(tc.RequestsPerSecond),
			source.WithLang(tc.Lang),
			source.WithTimeout(tc.Timeout()),
		)
	}
}

func runCollection(ctx context.Context, o runOptions, out, errOut io.Writer) error {
	if err := o.validate(); err != nil {
		return eris.Wrap(err, "invalid input")
	}
	backend, _ := o.backend()
	provider, err := newProvider(backend)
	if err != nil {
		return eris.Wrap(err, "invalid input")
	}

	var opts []pipeline.Option
	if !o.NoHistory {
		st, err := initStore(ctx)
		if err != nil {
			zap.L().Warn("run history unavailable", zap.Error(err))
		} else {
			defer st.Close() //nolint:errcheck
			opts = append(opts, pipeline.WithStore(st))
		}
	}

	p := pipeline.New(pipeline.Config{
		Query:    strings.TrimSpace(o.Query),
		Backend:  backend.String(),
		Open:     newOpener(o),
		Resolver: resolve.New(provider),
		Targets:  o.targets(),
	}, opts...)

	result := p.Start(ctx).Wait()
	reportResult(out, errOut, p.RunID(), result)

	if result.Outcome == model.OutcomeAuthenticationFailed {
		return errAuthFailed
	}
	return nil
}

func reportResult(out, errOut io.Writer, runID string, r *model.RunResult) {
	switch r.Outcome {
	case model.OutcomeAuthenticationFailed:
		_, _ = fmt.Fprintf(errOut, "Could not authenticate with the search provider: %v\nCheck the credentials file and try again.\n", r.Err)
		return
	case model.OutcomeCompletedWithProviderThrottle:
		_, _ = fmt.Fprintln(errOut, "The search provider stopped returning results (rate limit reached). Partial results were saved; wait 15 minutes before running again.")
	}

	for _, w := range r.Writes {
		if w.OK() {
			_, _ = fmt.Fprintf(out, "wrote %s: %s (%d rows)\n", w.Format, w.Path, w.Rows)
		} else {
			_, _ = fmt.Fprintf(errOut, "failed to write %s %s: %v\n", w.Format, w.Path, w.Err)
		}
	}
	_, _ = fmt.Fprintf(out, "Finished: %d posts examined, %d embedded, %d geocoded, %d entries.\n",
		r.Counters.Examined, r.Counters.Embedded, r.Counters.Geocoded, r.Entries)
	if runID != "" {
		_, _ = fmt.Fprintf(out, "run id: %s\n", runID)
	}
}
