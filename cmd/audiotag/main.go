// Command audiotag prints the tags and stream properties of audio files.
//
// Arguments are files or directories; directories are walked for files
// with a supported extension, in natural order. Every flag can also be set
// from the environment (AUDIOTAG_FORMAT=yaml) or from the config file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"sync/atomic"
	"syscall"

	"go.senan.xyz/flagconf"
	"go.senan.xyz/natcmp"
	"golang.org/x/sync/errgroup"

	"github.com/simonhull/audiotag"
)

const name = "audiotag"

var (
	withTags     = flag.Bool("tags", true, "read descriptive tags")
	withDuration = flag.Bool("duration", true, "read duration and stream properties")
	withImage    = flag.Bool("image", false, "load embedded cover images")
	ignoreErrors = flag.Bool("ignore-errors", false, "replace undecodable tag text instead of failing")
	strict       = flag.Bool("strict", false, "fail files that produce any warning")
	encoding     = flag.String("encoding", "", "charset of single-byte tag text, e.g. cp1252")
	outFormat    = flag.String("format", "text", "output format: text, json, yaml or tsv")
	saveImage    = flag.String("save-image", "", "directory to write cover images to")
	jobs         = flag.Int("jobs", 0, "files to read in parallel (0 for one per CPU)")
)

func main() {
	exit := logging()
	defer exit()

	userConfig, _ := os.UserConfigDir()
	configPath := flag.String("config-path", filepath.Join(userConfig, name, "config"), "path to config file")
	printVersion := flag.Bool("version", false, "print the version and exit")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] <file or dir>...\n", name)
		flag.PrintDefaults()
	}
	flag.Parse()
	flagconf.ReadEnvPrefix = func(_ *flag.FlagSet) string { return name }
	flagconf.ParseEnv()
	flagconf.ParseConfig(*configPath)

	if *printVersion {
		info := audiotag.GetVersionInfo()
		fmt.Printf("%s %s (%s, %s)\n", name, info.Version, info.GoVersion, info.Revision)
		return
	}

	write, err := writerFor(*outFormat)
	if err != nil {
		slog.Error("parse flags", "err", err)
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		slog.Error("no files given")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	paths, err := collect(flag.Args())
	if err != nil {
		slog.Error("walking paths", "err", err)
	}

	records := read(ctx, paths, options())
	if *saveImage != "" {
		for _, r := range records {
			if err := writeImage(*saveImage, r); err != nil {
				slog.Error("save image", "path", r.Path, "err", err)
			}
		}
	}
	if err := write(os.Stdout, records); err != nil {
		slog.Error("write output", "err", err)
	}
}

func options() []audiotag.Option {
	opts := []audiotag.Option{audiotag.WithLogger(slog.Default())}
	if !*withTags {
		opts = append(opts, audiotag.WithoutTags())
	}
	if !*withDuration {
		opts = append(opts, audiotag.WithoutDuration())
	}
	if *withImage || *saveImage != "" {
		opts = append(opts, audiotag.WithImage())
	}
	if *ignoreErrors {
		opts = append(opts, audiotag.WithIgnoreErrors())
	}
	if *strict {
		opts = append(opts, audiotag.WithStrictParsing())
	}
	if *encoding != "" {
		opts = append(opts, audiotag.WithEncoding(*encoding))
	}
	return opts
}

// collect expands directories into the supported files below them. Files
// named directly are kept even without a known extension, so that the
// header can decide.
func collect(args []string) ([]string, error) {
	var paths []string
	var errs []error
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && audiotag.IsSupported(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		}
		slices.SortFunc(found, natcmp.Compare)
		paths = append(paths, found...)
	}
	return paths, errors.Join(errs...)
}

// read opens every path, logging failures instead of stopping, and returns
// the readable files in input order.
func read(ctx context.Context, paths []string, opts []audiotag.Option) []*record {
	limit := *jobs
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	var g errgroup.Group
	g.SetLimit(limit)

	results := make([]*record, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			file, err := audiotag.OpenContext(ctx, path, opts...)
			if err != nil {
				slog.Error("read file", "path", path, "err", err)
				return nil
			}
			defer file.Close()
			for _, w := range file.Warnings {
				slog.Warn("recovered", "path", path, "stage", w.Stage, "offset", w.Offset, "msg", w.Message)
			}
			results[i] = newRecord(file)
			return nil
		})
	}
	g.Wait()

	return slices.DeleteFunc(results, func(r *record) bool { return r == nil })
}

func writeImage(dir string, r *record) error {
	if r.image == nil {
		return nil
	}
	base := filepath.Base(r.Path)
	dest := filepath.Join(dir, base[:len(base)-len(filepath.Ext(base))]+"."+r.image.Extension)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dest, r.image.Data, 0o644); err != nil {
		return err
	}
	slog.Info("saved image", "path", dest, "mime", r.image.MIMEType, "bytes", len(r.image.Data))
	return nil
}

// logging installs the default logger and returns the exit function, which
// fails the process if anything was logged at error level.
func logging() (exit func()) {
	var logLevel slog.LevelVar
	flag.TextVar(&logLevel, "log-level", &logLevel, "set the logging level")

	h := &slogErrorHandler{
		Handler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel}),
	}
	slog.SetDefault(slog.New(h))

	return func() {
		if h.hadSlogError.Load() {
			os.Exit(1)
		}
	}
}

type slogErrorHandler struct {
	slog.Handler
	hadSlogError atomic.Bool
}

func (n *slogErrorHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level == slog.LevelError {
		n.hadSlogError.Store(true)
	}
	return n.Handler.Handle(ctx, r)
}
