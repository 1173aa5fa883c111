// Command rank assesses a list of candidate sites and prints them ranked by
// evaporation engine power density.
//
// Usage:
//
//	go run ./cmd/rank --input sites.csv --top 20 --format table
//
// The CSV needs a header with at least name, lat and lon columns. Optional
// columns are country, continent, population and the measured_mean,
// measured_min, measured_max, measured_std override. Read from stdin with
// --input -.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/evapower-etl/internal/domain"
	"github.com/couchcryptid/evapower-etl/internal/observability"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "rank:", err)
		os.Exit(1)
	}
}

type options struct {
	input      string
	top        int
	format     string
	targetKW   float64
	efficiency float64
	workers    int
	logLevel   string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := pflag.NewFlagSet("rank", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.input, "input", "i", "-", "sites CSV file, - for stdin")
	fs.IntVarP(&o.top, "top", "n", -1, "show only the N best sites (-1 for all)")
	fs.StringVarP(&o.format, "format", "f", "table", "output format: table or json")
	fs.Float64Var(&o.targetKW, "target-kw", 1000, "target output in kW for area sizing")
	fs.Float64Var(&o.efficiency, "efficiency", domain.DefaultEfficiency, "engine conversion efficiency in (0,1]")
	fs.IntVar(&o.workers, "workers", 8, "concurrent site assessments")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	switch {
	case o.format != "table" && o.format != "json":
		return o, fmt.Errorf("--format must be table or json, got %q", o.format)
	case !(o.efficiency > 0 && o.efficiency <= 1):
		return o, fmt.Errorf("--efficiency must be in (0,1], got %g", o.efficiency)
	case o.workers < 1:
		return o, fmt.Errorf("--workers must be positive, got %d", o.workers)
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger := slog.New(tint.NewHandler(stderr, &tint.Options{
		Level:      observability.ParseLevel(o.logLevel),
		TimeFormat: time.Kitchen,
	}))

	in := stdin
	if o.input != "-" {
		f, err := os.Open(o.input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	requests, err := readSites(in)
	if err != nil {
		return err
	}
	logger.Info("sites loaded", "count", len(requests))

	assessor := domain.NewAssessor(domain.NewClimateEstimator(nil), nil, domain.AssessOptions{
		TargetPowerKW: o.targetKW,
		Efficiency:    o.efficiency,
	}, logger)

	assessments := make([]domain.SiteAssessment, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, req := range requests {
		g.Go(func() error {
			assessments[i] = assessor.Assess(gctx, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ranked := domain.TopSites(assessments, o.top)
	summary := domain.SummarizeRanking(assessments)
	if o.format == "json" {
		return writeJSON(stdout, ranked, summary)
	}
	return writeTable(stdout, ranked, summary)
}

// readSites parses the sites CSV into validated requests.
func readSites(r io.Reader) ([]domain.SiteRequest, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "lat", "lon"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var out []domain.SiteRequest
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		req, err := parseSite(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, req)
	}
	return out, nil
}

func parseSite(rec []string, cols map[string]int) (domain.SiteRequest, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	lat, err := strconv.ParseFloat(field("lat"), 64)
	if err != nil {
		return domain.SiteRequest{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(field("lon"), 64)
	if err != nil {
		return domain.SiteRequest{}, fmt.Errorf("lon: %w", err)
	}
	req := domain.SiteRequest{Site: domain.Site{
		Name:      field("name"),
		Country:   field("country"),
		Continent: field("continent"),
		Lat:       lat,
		Lon:       lon,
	}}
	if p := field("population"); p != "" {
		if req.Site.Population, err = strconv.ParseInt(p, 10, 64); err != nil {
			return domain.SiteRequest{}, fmt.Errorf("population: %w", err)
		}
	}

	if mean := field("measured_mean"); mean != "" {
		var m domain.MeasuredPower
		for name, dst := range map[string]*float64{
			"measured_mean": &m.Mean,
			"measured_min":  &m.Min,
			"measured_max":  &m.Max,
			"measured_std":  &m.StdDev,
		} {
			v := field(name)
			if v == "" {
				continue
			}
			if *dst, err = strconv.ParseFloat(v, 64); err != nil {
				return domain.SiteRequest{}, fmt.Errorf("%s: %w", name, err)
			}
		}
		req.Measured = &m
	}

	if err := req.Validate(); err != nil {
		return domain.SiteRequest{}, err
	}
	return req, nil
}

type report struct {
	Sites   []domain.SiteAssessment `json:"sites"`
	Summary domain.RankingSummary   `json:"summary"`
}

func writeJSON(w io.Writer, ranked []domain.SiteAssessment, summary domain.RankingSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report{Sites: ranked, Summary: summary})
}

func writeTable(w io.Writer, ranked []domain.SiteAssessment, summary domain.RankingSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSITE\tCOUNTRY\tPOWER W/m²\tLEVEL\tSOURCE\tAREA m²")
	for i, a := range ranked {
		area := "-"
		if a.AreaM2 != nil {
			area = strconv.FormatFloat(*a.AreaM2, 'f', 0, 64)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%s\t%s\t%s\n",
			i+1, a.Site.Name, a.Site.Country, a.Power, a.Category.Label, a.Source, area)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d sites, average %.1f W/m²\n", summary.Count, summary.AvgPower)
	return err
}
