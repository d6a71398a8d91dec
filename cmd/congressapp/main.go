package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fxamacker/cbor/v2"
	flag "github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/capture"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/config"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/congress"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/directus"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/grid"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/ics"
	appLog "github.com/matthewnfaulkner/apoacongress-congressapp/internal/log"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/refresh"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath   string
	envFile      string
	listen       string
	input        string
	once         bool
	drafts       bool
	previewToken string
	format       string
	debug        bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("congressapp starting", "version", version)

	switch flags.format {
	case "json", "cbor", "ics":
	default:
		appLog.Error("unsupported output format", errors.New(flags.format), "format", flags.format)
		os.Exit(2)
	}

	// Offline mode: lay out a local document and exit.
	if flags.input != "" {
		if err := runInput(flags, os.Stdout); err != nil {
			appLog.Error("input build failed", err, "input", flags.input)
			os.Exit(1)
		}
		return
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if err := conf.ApplyEnv(flags.envFile); err != nil {
		appLog.Error("failed to apply environment", err, "env_file", flags.envFile)
		os.Exit(1)
	}
	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	conf.Normalize()
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if !flags.debug {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"directus_url", conf.DirectusURL,
		"site_id", conf.SiteID,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"cache_dir", conf.CacheDir,
		"max_event_depth", conf.MaxEventDepth,
		"workers", conf.Workers,
		"capture", conf.Capture.Enabled,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := directus.NewClient(conf.DirectusURL, conf.DirectusToken, conf.CacheDir)
	svc := congress.NewService(client, conf.SiteID)
	opts := grid.Options{MaxEventDepth: conf.MaxEventDepth, Workers: conf.Workers}

	if flags.once {
		if err := runOnce(ctx, flags, conf, svc, opts, os.Stdout); err != nil {
			appLog.Error("one-shot build failed", err)
			os.Exit(1)
		}
		return
	}

	runner := refresh.NewRunner(svc, opts)
	if conf.Capture.Enabled {
		runner.OnRefresh(captureHook(conf.Capture))
	}

	// First build up front so the API starts warm; a failure here is not
	// fatal, the next scheduled run or request retries.
	if _, err := runner.RunOnce(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
	}
	if conf.RefreshCron != "" {
		if err := runner.Start(conf.RefreshCron); err != nil {
			appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
			os.Exit(1)
		}
	}

	if err := web.Run(ctx, conf, svc, runner); err != nil {
		appLog.Error("HTTP server failed", err)
	}

	select {
	case <-runner.Stop().Done():
	case <-time.After(30 * time.Second):
		appLog.Warn("refresh still running at shutdown")
	}
	appLog.Info("congressapp exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVarP(&cfg.configPath, "config", "c", "/etc/congressapp/config.yaml", "Path to config file")
	flag.StringVar(&cfg.envFile, "env", ".env", "Optional env file with DIRECTUS_URL, DIRECTUS_SERVER_TOKEN, SITE_ID")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVarP(&cfg.input, "input", "i", "", "Build tabs from a local JSON/JSONC congress document and exit")
	flag.BoolVar(&cfg.once, "once", false, "Fetch and build once, print the result and exit")
	flag.BoolVar(&cfg.drafts, "drafts", false, "Let draft schedules participate (with --input)")
	flag.StringVar(&cfg.previewToken, "preview-token", "", "Content token for draft access (with --once)")
	flag.StringVarP(&cfg.format, "format", "f", "json", "Output format: json, cbor or ics")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}

// runInput builds the tabs of a congress document read from disk. The file
// may hold the congress itself or a content store response envelope.
func runInput(flags flagConfig, w io.Writer) error {
	raw, err := os.ReadFile(flags.input)
	if err != nil {
		return err
	}
	c, err := decodeCongress(jsonc.ToJSON(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(flags.input), err)
	}
	res := grid.Build(c, grid.Options{IncludeDrafts: flags.drafts})
	logResult(res)
	return writeOutput(w, flags.format, c, res, ics.ExportConfig{IncludeDrafts: flags.drafts})
}

func decodeCongress(data []byte) (model.Congress, error) {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err == nil && len(env.Data) > 0 {
		data = env.Data
		var list []model.Congress
		if json.Unmarshal(data, &list) == nil {
			if len(list) == 0 {
				return model.Congress{}, errors.New("empty data")
			}
			return list[0], nil
		}
	}
	var c model.Congress
	if err := json.Unmarshal(data, &c); err != nil {
		return model.Congress{}, err
	}
	return c, nil
}

func runOnce(ctx context.Context, flags flagConfig, conf *config.Config, svc *congress.Service, opts grid.Options, w io.Writer) error {
	preview := flags.previewToken != ""
	c, err := svc.Schedule(ctx, flags.previewToken)
	if err != nil {
		return err
	}
	opts.IncludeDrafts = preview
	res := grid.Build(c, opts)
	logResult(res)

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		loc = time.Local
	}
	return writeOutput(w, flags.format, c, res, ics.ExportConfig{Location: loc, IncludeDrafts: preview})
}

func logResult(res grid.Result) {
	for _, f := range res.Failures {
		appLog.Error("day skipped", f.Err, "day", f.DayID)
	}
	for _, id := range res.EmptyDays {
		appLog.Info("day has no participating schedule", "day", id)
	}
	appLog.Info("build completed", "tabs", len(res.Tabs), "failures", len(res.Failures))
}

func writeOutput(w io.Writer, format string, c model.Congress, res grid.Result, icsCfg ics.ExportConfig) error {
	switch format {
	case "cbor":
		data, err := cbor.Marshal(res)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "ics":
		data, err := ics.Export(c, res, icsCfg)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
}

func captureHook(c config.CaptureConfig) refresh.Hook {
	return func(ctx context.Context, _ refresh.Snapshot) error {
		return capture.CaptureProgrammePNG(ctx, capture.Options{
			URL:        c.URL,
			OutputPath: c.Output,
			Width:      c.Width,
			Height:     c.Height,
		})
	}
}
