// Package main is the docaccordion CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docaccordion/internal/cli"
	"github.com/hyperjump/docaccordion/internal/config"
	"github.com/hyperjump/docaccordion/internal/fixture"
	"github.com/hyperjump/docaccordion/internal/format"
	"github.com/hyperjump/docaccordion/internal/i18n"
	"github.com/hyperjump/docaccordion/internal/macro"
	"github.com/hyperjump/docaccordion/internal/query"
	"github.com/hyperjump/docaccordion/internal/rights"
	"github.com/hyperjump/docaccordion/internal/server"
	"github.com/hyperjump/docaccordion/internal/skinx"
	"github.com/hyperjump/docaccordion/internal/storage"
	"github.com/hyperjump/docaccordion/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/docaccordion/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "render":
		runRender()
	case "describe":
		runDescribe()
	case "import":
		runImport()
	case "init":
		runInit()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("docaccordion version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config, builds the logger and initializes every component.
func setup(configPath string, debug bool) (*config.Config, string, *zap.Logger, *Components) {
	cfg, resolvedConfigPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, resolvedConfigPath, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug || *debug),
	)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.I18n.BundleDir != "" && cfg.I18n.WatchOrDefault() {
		if err := components.Bundle.Watch(watchCtx); err != nil {
			logger.Warn("translation bundle watch disabled", zap.String("dir", cfg.I18n.BundleDir), zap.Error(err))
		}
	}

	srv := server.NewServer(components.Macro, components.Storage, components.Rights, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// renderArgsReorder moves any flags (and their values) that appear after the macro
// parameters to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so "docaccordion render space=Blog
// --output tree" would otherwise leave --output unparsed.
func renderArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// parseMacroArgs turns "name=value" arguments into raw macro parameters.
func parseMacroArgs(args []string) (map[string]string, error) {
	raw := make(map[string]string, len(args))
	for _, a := range args {
		name, value, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid macro parameter %q, expected name=value", a)
		}
		raw[name] = value
	}
	return raw, nil
}

func printRenderUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: docaccordion render [flags] [name=value ...]\n\n")
	fmt.Fprintf(fs.Output(), "Macro parameters: space, xclass, sort (CHRONO|ALPHA), displayAuthor, displayDate,\nlimit, accordionMaxHeight, openFirstAccordion.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  docaccordion render xclass=Blog.BlogPostClass space=Blog
  docaccordion render space=Apps.Tickets sort=ALPHA --output tree
  docaccordion render --user XWiki.JaneDoe --language fr xclass=Tickets.TicketClass
`)
}

func runRender() {
	args := renderArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("render", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	user := fs.String("user", "", "user the accordion is rendered for (default: guest)")
	language := fs.String("language", "", "reader locale (default from config)")
	syntax := fs.String("syntax", "", "target syntax of titles (default from config)")
	inline := fs.Bool("inline", false, "render as an inline macro")
	outputFormat := fs.String("output", "html", "output format: html, json, or tree")
	fs.Usage = func() { printRenderUsage(fs) }
	_ = fs.Parse(args)

	outFormat, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	raw, err := parseMacroArgs(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		printRenderUsage(fs)
		os.Exit(1)
	}
	params, err := macro.ParseParameters(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Render failed: %v\n", err)
		os.Exit(1)
	}

	cfg, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	tctx := macro.TransformationContext{
		Syntax: cfg.Macro.DefaultSyntax,
		Inline: *inline,
		Locale: cfg.I18n.DefaultLocale,
	}
	if *syntax != "" {
		tctx.Syntax = *syntax
	}
	if *language != "" {
		tctx.Locale = *language
	}

	registry := skinx.NewRegistry()
	ctx := skinx.WithRegistry(context.Background(), registry)
	if *user != "" {
		ctx = rights.WithUser(ctx, *user)
	}

	blocks, err := components.Macro.Execute(ctx, params, "", tctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Render failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteBlocks(os.Stdout, blocks, outFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if outFormat != cli.OutputJSON {
		for _, res := range append(registry.Stylesheets(), registry.Scripts()...) {
			fmt.Fprintf(os.Stderr, "uses %s\n", res)
		}
	}
}

func runDescribe() {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	language := fs.String("language", "", "locale of labels (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	locale := cfg.I18n.DefaultLocale
	if *language != "" {
		locale = *language
	}
	d := components.Macro.Descriptor(locale)
	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(d)
		return
	}
	cli.WriteDescriptor(os.Stdout, d)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	skipRights := fs.Bool("skip-rights", false, "import documents and users only")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: docaccordion import [flags] <fixture.yaml>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	f, err := fixture.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}

	_, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	var ruleWriter fixture.RuleWriter
	if !*skipRights {
		ruleWriter = components.Rights
	}
	summary, err := f.Apply(context.Background(), components.Storage, ruleWriter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	logger.Info("fixture imported", zap.String("path", path),
		zap.Int("documents", summary.Documents), zap.Int("objects", summary.Objects),
		zap.Int("users", summary.Users), zap.Int("rights", summary.Rights))
	fmt.Printf("Imported %d documents (%d objects), %d users, %d rights from %s\n",
		summary.Documents, summary.Objects, summary.Users, summary.Rights, path)
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "config file to write")
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])

	if _, err := os.Stat(*configPath); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "%s already exists (use --force to overwrite)\n", *configPath)
		os.Exit(1)
	}
	if err := config.Save(*configPath, config.Default()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config written to %s\n", *configPath)
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	BaseURL       string `json:"base_url"`
	DefaultLocale string `json:"default_locale"`
	DefaultSyntax string `json:"default_syntax"`
	DatabasePath  string `json:"database_path,omitempty"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Documents int64                 `json:"documents"`
	Config    *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		s, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *s
	} else {
		cfg, _, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()

		docCount, err := components.Storage.CountDocuments(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Documents: docCount,
			Config: &statusConfigResponse{
				BaseURL:       cfg.Server.BaseURL,
				DefaultLocale: cfg.I18n.DefaultLocale,
				DefaultSyntax: cfg.Macro.DefaultSyntax,
				DatabasePath:  cfg.Storage.DatabasePath,
			},
		}
	}

	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
		return
	}
	writeStatus(os.Stdout, &status)
}

func writeStatus(w io.Writer, s *statusResponse) {
	fmt.Fprintf(w, "Documents: %d\n", s.Documents)
	if s.Config == nil {
		return
	}
	fmt.Fprintf(w, "Base URL:  %s\n", s.Config.BaseURL)
	fmt.Fprintf(w, "Locale:    %s\n", s.Config.DefaultLocale)
	fmt.Fprintf(w, "Syntax:    %s\n", s.Config.DefaultSyntax)
	if s.Config.DatabasePath != "" {
		fmt.Fprintf(w, "Database:  %s\n", s.Config.DatabasePath)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &status, nil
}

// Components holds initialized services.
type Components struct {
	Storage *storage.SQLiteStorage
	Rights  *rights.Service
	Bundle  *i18n.Bundle
	Macro   *macro.Macro
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	rightsService, err := rights.NewService(store.DB())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize rights: %w", err)
	}

	bundle, err := i18n.NewBundle(cfg.I18n.BundleDir, cfg.I18n.DefaultLocale, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	m, err := macro.New(macro.Dependencies{
		Store:     store,
		Queries:   query.NewSQLiteManager(store.DB()),
		Rights:    rightsService,
		Localizer: bundle,
		Users:     format.NewUserFormatter(store),
		Dates:     format.NewDateFormatter(bundle, time.Local),
		Skin:      skinx.Extensions{},
	}, macro.WithLogger(logger), macro.WithBaseURL(cfg.Server.BaseURL))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize macro: %w", err)
	}

	return &Components{
		Storage: store,
		Rights:  rightsService,
		Bundle:  bundle,
		Macro:   m,
	}, nil
}

func printUsage() {
	fmt.Println(`docaccordion - Accordion listings of wiki documents

Usage:
  docaccordion server [flags]                   Start the HTTP server
  docaccordion render [flags] [name=value ...]  Render an accordion
  docaccordion describe [flags]                 Show the macro descriptor
  docaccordion import [flags] <fixture.yaml>    Import documents, users and rights
  docaccordion init [flags]                     Write a default config file
  docaccordion status [flags]                   Show storage status
  docaccordion version                          Show version
  docaccordion help                             Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/docaccordion/config.yaml)
  --debug            Enable debug logging

Render Flags:
  --config string    Config file path
  --user string      User the accordion is rendered for (default: guest)
  --language string  Reader locale (default from config)
  --syntax string    Target syntax of titles (default from config)
  --inline           Render as an inline macro
  --output string    Output format: html, json, or tree (default: html)

Describe Flags:
  --language string  Locale of labels (default from config)
  --output string    Output format: text or json (default: text)

Import Flags:
  --config string    Config file path
  --skip-rights      Import documents and users only

Init Flags:
  --config string    Config file to write (default: config.yaml)
  --force            Overwrite an existing file

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  docaccordion init
  docaccordion import wiki.yaml
  docaccordion server
  docaccordion render xclass=Blog.BlogPostClass space=Blog
  docaccordion render space=Apps.Tickets --output tree
  docaccordion status --output json`)
}
