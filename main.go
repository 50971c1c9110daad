// Package main provides the entry point for the mask editor.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/d1alecttt/mini-app/internal/bridge"
	"github.com/d1alecttt/mini-app/internal/config"
	"github.com/d1alecttt/mini-app/internal/editor"
	"github.com/d1alecttt/mini-app/internal/version"
	"github.com/d1alecttt/mini-app/ui/mainwindow"
	"github.com/d1alecttt/mini-app/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const (
	appID     = "io.github.d1alecttt.maskpaint"
	launchEnv = "MASKPAINT_LAUNCH"
)

func main() {
	launchArg := flag.String("launch", "", "launch URL or fragment carrying imageUrl and imageId")
	deliveryArg := flag.String("delivery", "", "override delivery mode: host, stdout or upload")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	slog.Info("starting mask editor", "version", version.String())

	appPrefs := prefs.Load()
	cfg := config.Load(appPrefs)
	if *deliveryArg != "" {
		d, err := config.ParseDelivery(*deliveryArg)
		if err != nil {
			slog.Error("bad -delivery flag", "error", err)
			os.Exit(2)
		}
		cfg.Delivery = d
		if err := cfg.Validate(); err != nil {
			slog.Error("bad -delivery flag", "error", err)
			os.Exit(2)
		}
	}

	fyneApp := app.NewWithID(appID)
	fyneApp.Settings().SetTheme(&mainwindow.MaskTheme{})

	host, br := selectBridge(cfg, fyneApp)
	host.Expand()

	session := editor.New(launchFragment(*launchArg), editor.Options{
		Config: cfg,
		Bridge: br,
		Host:   host,
		Log:    slog.Default(),
	})

	win := mainwindow.New(fyneApp, session, appPrefs)
	go func() {
		// Failures are shown in the status bar.
		_ = session.Load(context.Background())
	}()
	win.ShowAndRun()
}

// launchFragment picks the launch parameters from the flag, the page
// location in the web view build, or the environment.
func launchFragment(arg string) string {
	if arg != "" {
		return arg
	}
	if frag := bridge.LaunchFragment(); frag != "" {
		return frag
	}
	return os.Getenv(launchEnv)
}

// selectBridge wires the delivery mode to a transport and a host.
func selectBridge(cfg config.Config, fyneApp fyne.App) (bridge.Host, bridge.Bridge) {
	log := slog.With("component", "main")

	var host bridge.Host = appHost{app: fyneApp}
	var messenger bridge.Messenger = bridge.NewWriter(os.Stdout)
	if webApp, err := bridge.NewWebApp(); err == nil {
		host, messenger = webApp, webApp
	} else if cfg.Delivery == config.DeliveryHost {
		log.Warn("no host bridge, writing submissions to stdout", "error", err)
	}

	switch cfg.Delivery {
	case config.DeliveryStdout:
		return host, bridge.NewWriter(os.Stdout)
	case config.DeliveryUpload:
		return host, &bridge.Uploader{
			Endpoint: cfg.UploadEndpoint,
			Client:   &http.Client{Timeout: cfg.LoadTimeout},
			Notify:   messenger,
			Log:      log,
		}
	default:
		return host, bridge.Direct{M: messenger}
	}
}

// appHost is the host when running as a standalone application: closing
// the view quits the app.
type appHost struct {
	app fyne.App
}

func (h appHost) Ready()  { slog.Debug("host: ready") }
func (h appHost) Expand() {}
func (h appHost) Close()  { h.app.Quit() }
