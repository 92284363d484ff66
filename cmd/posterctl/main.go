// posterctl builds a site's compiled posters and inspects compiled files.
//
// Usage:
//
//	posterctl init    [--config site.json] [--force]
//	posterctl build   [--config site.json] [--json] [--force] [-v]
//	posterctl inspect [--body] [--codec go-json] FILE
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/hupe1980/poster"
	"github.com/hupe1980/poster/blobstore"
	"github.com/hupe1980/poster/build"
	"github.com/hupe1980/poster/codec"
	"github.com/hupe1980/poster/compiler"
	"github.com/hupe1980/poster/config"
	"github.com/hupe1980/poster/site"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return pflag.ErrHelp
	}
	switch args[0] {
	case "init":
		return runInit(args[1:], stdout, stderr)
	case "build":
		return runBuild(ctx, args[1:], stdout, stderr)
	case "inspect":
		return runInspect(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `posterctl manages compiled posters.

Usage:
  posterctl init    [--config site.json] [--force]
  posterctl build   [--config site.json] [--json] [--force] [-v]
  posterctl inspect [--body] [--codec go-json] FILE
`)
}

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runInit(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("init", stderr)
	path := fs.String("config", config.DefaultFile, "config file to write")
	force := fs.Bool("force", false, "overwrite an existing config")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", *path)
	}

	cfg := config.Default()
	if err := cfg.Save(*path); err != nil {
		return err
	}
	cfg.Dir = filepath.Dir(*path)
	if err := os.MkdirAll(cfg.Path(cfg.ContentDirectory), 0o755); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", *path)
	return nil
}

type posterLine struct {
	Title         string    `json:"title"`
	CreateTime    time.Time `json:"createTime"`
	SourcePath    string    `json:"sourcePath"`
	CompiledPath  string    `json:"compiledPath"`
	HasHTMLErrors bool      `json:"hasHtmlErrors"`
}

func runBuild(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("build", stderr)
	path := fs.String("config", config.DefaultFile, "site config file")
	asJSON := fs.Bool("json", false, "print one JSON object per poster")
	force := fs.Bool("force", false, "recompile every source")
	verbose := fs.BoolP("verbose", "v", false, "debug logging")
	logJSON := fs.Bool("log-json", false, "write logs as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	var handler slog.Handler = slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	if *logJSON {
		handler = slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level})
	}
	logger := poster.NewLogger(handler)

	metrics := &poster.BasicMetricsCollector{}
	rc := build.NewController(cfg)
	sess, err := build.NewSession(ctx, cfg, rc, poster.WithLogger(logger), poster.WithMetricsCollector(metrics))
	if err != nil {
		return err
	}
	defer sess.Close()

	comp := compiler.New(sess, build.CacheDir(cfg), compiler.WithForce(*force))
	start := time.Now()
	res, buildErr := build.New(cfg, sess, build.WithCompiler(comp), build.WithResourceController(rc)).Build(ctx)
	if res == nil {
		return buildErr
	}

	enc := gojson.NewEncoder(stdout)
	for _, p := range res.Posters {
		if *asJSON {
			if err := enc.Encode(posterLine{
				Title:         p.Title(),
				CreateTime:    p.CreateTime(),
				SourcePath:    p.SourcePath(),
				CompiledPath:  p.CompiledPath(),
				HasHTMLErrors: p.HasHTMLErrors(),
			}); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", p.CreateTime().Format(time.DateOnly), p.Title(), p.SourcePath())
	}
	for src, problems := range res.Problems {
		for _, pr := range problems {
			logger.WarnContext(ctx, "html problem", "source", src, "problem", pr.String())
		}
	}

	if cfg.RootURL != "" {
		if err := writeSiteFiles(ctx, cfg, res.Posters, logger); err != nil {
			return errors.Join(buildErr, err)
		}
	} else {
		logger.DebugContext(ctx, "RootUrl not set, skipping feed and sitemap")
	}

	compiled, reused := comp.Stats()
	stats := metrics.GetStats()
	logger.InfoContext(ctx, "build finished",
		"posters", len(res.Posters),
		"compiled", compiled,
		"reused", reused,
		"reloads", stats.ReloadCount,
		"duration", time.Since(start),
	)
	return buildErr
}

func writeSiteFiles(ctx context.Context, cfg *config.Config, posters []*poster.Poster, logger *poster.Logger) error {
	files, err := site.Generate(cfg, posters, time.Now())
	if err != nil {
		return err
	}
	paths, err := site.Write(ctx, blobstore.NewLocalStore(""), cfg.Path(cfg.OutputDirectory), files)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "site files written", "files", paths)
	return nil
}

func runInspect(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("inspect", stderr)
	body := fs.Bool("body", false, "print the body after the header")
	codecName := fs.String("codec", codec.Default.Name(), "header codec (json, go-json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("inspect: expected one file, got %d", fs.NArg())
	}

	c, ok := codec.ByName(*codecName)
	if !ok {
		return fmt.Errorf("inspect: unknown codec %q", *codecName)
	}
	file := fs.Arg(0)
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	h, text, err := poster.Decode(data, c)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	out, err := gojson.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\n", out)
	if *body {
		fmt.Fprintf(stdout, "\n%s", text)
	}
	return nil
}
