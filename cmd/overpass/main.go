// Command overpass runs an Overpass QL query and prints the result.
//
// The query is taken from the first positional argument, or from stdin
// when the argument is "-" or absent. Output is a JSON summary of the
// parsed elements.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NERVsystems/overpass/pkg/geo"
	"github.com/NERVsystems/overpass/pkg/monitoring"
	"github.com/NERVsystems/overpass/pkg/osm"
	"github.com/NERVsystems/overpass/pkg/overpass"
	"github.com/NERVsystems/overpass/pkg/tracing"
	ver "github.com/NERVsystems/overpass/pkg/version"
)

var (
	showVersionFlag bool
	debug           bool
	endpoint        string
	userAgent       string
	timeout         time.Duration

	// Bounding box: south,west,north,east
	bboxFlag string

	// Rate limits toward the endpoint
	overpassRPS   float64
	overpassBurst int

	// Response cache
	cacheSize int
	cacheTTL  time.Duration

	// Monitoring
	metricsAddr string
)

func init() {
	flag.BoolVar(&showVersionFlag, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&endpoint, "endpoint", overpass.DefaultBaseURL, "Overpass API endpoint URL")
	flag.StringVar(&userAgent, "user-agent", overpass.DefaultUserAgent, "User-Agent string for API requests")
	flag.DurationVar(&timeout, "timeout", 60*time.Second, "Overall query timeout")

	flag.StringVar(&bboxFlag, "bbox", "", "Global bounding box as south,west,north,east")

	flag.Float64Var(&overpassRPS, "overpass-rps", 1.0, "Overpass rate limit in requests per second")
	flag.IntVar(&overpassBurst, "overpass-burst", 1, "Overpass rate limit burst size")

	flag.IntVar(&cacheSize, "cache-size", 256, "Response cache size in entries (0 disables)")
	flag.DurationVar(&cacheTTL, "cache-ttl", 5*time.Minute, "Response cache TTL")

	flag.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (empty disables)")
}

func main() {
	flag.Parse()

	var logLevel slog.Level
	if debug {
		logLevel = slog.LevelDebug
	} else {
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if showVersionFlag {
		fmt.Printf("overpass %s\n", ver.BuildVersion)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitTracing(ctx, ver.BuildVersion)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		// Continue without tracing - it's not critical
	} else {
		defer func() {
			if err := shutdownTracing(ctx); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", monitoring.Handler())
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		logger.Info("serving metrics", "addr", metricsAddr)
	}

	query, err := readQuery(flag.Args())
	if err != nil {
		logger.Error("failed to read query", "error", err)
		os.Exit(1)
	}

	client := overpass.NewClient(
		overpass.WithEndpoint(endpoint),
		overpass.WithUserAgent(userAgent),
		overpass.WithLogger(logger),
		overpass.WithRateLimit(overpassRPS, overpassBurst),
		overpass.WithCache(cacheSize, cacheTTL),
	)

	var opts []overpass.QueryOption
	if bboxFlag != "" {
		bbox, err := parseBBox(bboxFlag)
		if err != nil {
			logger.Error("invalid bbox", "error", err)
			os.Exit(1)
		}
		opts = append(opts, overpass.WithBBox(bbox))
	}

	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := client.Query(queryCtx, query, opts...)
	if err != nil {
		logger.Error("query failed", "error", err)
		os.Exit(1)
	}

	if err := printSummary(os.Stdout, resp); err != nil {
		logger.Error("failed to write output", "error", err)
		os.Exit(1)
	}
}

// readQuery returns the query text from the first argument, or stdin when
// the argument is "-" or absent.
func readQuery(args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no query given on command line or stdin")
	}
	return string(data), nil
}

// parseBBox parses "south,west,north,east" into a bounding box.
func parseBBox(s string) (geo.BoundingBox, error) {
	var bbox geo.BoundingBox
	n, err := fmt.Sscanf(s, "%f,%f,%f,%f", &bbox.MinLat, &bbox.MinLon, &bbox.MaxLat, &bbox.MaxLon)
	if err != nil || n != 4 {
		return geo.BoundingBox{}, fmt.Errorf("expected south,west,north,east, got %q", s)
	}
	if err := bbox.Validate(); err != nil {
		return geo.BoundingBox{}, err
	}
	return bbox, nil
}

// elementSummary is the flattened per-element output shape.
type elementSummary struct {
	Type osm.ElementType   `json:"type"`
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat,omitempty"`
	Lon  float64           `json:"lon,omitempty"`
	Tags map[string]string `json:"tags,omitempty"`
}

func printSummary(w io.Writer, resp *overpass.Response) error {
	out := struct {
		Version   float64          `json:"version"`
		Generator string           `json:"generator,omitempty"`
		Timestamp string           `json:"timestamp,omitempty"`
		Count     int              `json:"count"`
		Elements  []elementSummary `json:"elements"`
	}{
		Version:   resp.Version,
		Generator: resp.Generator,
		Timestamp: resp.Timestamp,
		Count:     resp.Len(),
		Elements:  make([]elementSummary, 0, resp.Len()),
	}

	for _, e := range resp.Elements {
		s := elementSummary{
			Type: e.ElementType(),
			ID:   e.ElementID(),
			Tags: e.ElementTags(),
		}
		if n, ok := e.(*osm.Node); ok {
			s.Lat = n.Lat
			s.Lon = n.Lon
		}
		out.Elements = append(out.Elements, s)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
