// Command maskreplay replays a stroke script against a reference image
// without a window and writes the exported mask.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/d1alecttt/mini-app/internal/bridge"
	"github.com/d1alecttt/mini-app/internal/config"
	"github.com/d1alecttt/mini-app/internal/editor"
	"github.com/d1alecttt/mini-app/internal/launch"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "maskreplay: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("maskreplay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	launchArg := fs.String("launch", "", "launch URL or fragment (imageUrl=...&imageId=...)")
	scriptPath := fs.String("script", "", "YAML stroke script")
	outPath := fs.String("out", "mask.jpg", "where to write the exported JPEG")
	asJSON := fs.Bool("json", false, "also write the submission JSON line to stdout")
	lenient := fs.Bool("lenient", false, "allow a missing imageId")
	quality := fs.Int("quality", 0, "JPEG quality (default 90)")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *launchArg == "" {
		fs.Usage()
		return errors.New("-launch is required")
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	script := &Script{}
	if *scriptPath != "" {
		f, err := os.Open(*scriptPath)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		script, err = ParseScript(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	cfg := config.Default()
	cfg.CloseOnSubmit = false
	if *lenient {
		cfg.LaunchMode = launch.Lenient
	}
	if *quality != 0 {
		cfg.JPEGQuality = *quality
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var next bridge.Bridge
	if *asJSON {
		next = bridge.NewWriter(stdout)
	}
	session := editor.New(*launchArg, editor.Options{
		Config: cfg,
		Bridge: &fileBridge{path: *outPath, next: next},
		Log:    log,
	})

	ctx := context.Background()
	if err := session.Load(ctx); err != nil {
		return err
	}
	if err := script.Apply(session); err != nil {
		return err
	}
	if err := session.Confirm(ctx); err != nil {
		return err
	}
	log.Info("mask written", "path", *outPath, "imageId", session.Params().ImageID)
	return nil
}

// fileBridge writes the encoded mask to a file, then forwards the
// submission.
type fileBridge struct {
	path string
	next bridge.Bridge
}

func (b *fileBridge) Deliver(ctx context.Context, sub bridge.Submission) error {
	if err := os.WriteFile(b.path, sub.JPEG, 0o644); err != nil {
		return fmt.Errorf("failed to write mask: %w", err)
	}
	if b.next == nil {
		return nil
	}
	return b.next.Deliver(ctx, sub)
}
