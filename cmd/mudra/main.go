// Command mudra recognizes full-body gestures from a skeleton tracker,
// gives control to the actor who raises their hands and runs the plugin
// actions bound to that actor's gestures.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/svm"
	"github.com/ayusman/mudra/internal/tracker"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "JSON config file")
	modelPath := flag.String("model", "", "LIBSVM model file")
	trigger := flag.String("trigger", "", "gesture that takes control")
	dbPath := flag.String("db", "", "sqlite database path")
	listenAddr := flag.String("listen", "", "HTTP listen address")
	pluginDir := flag.String("plugins", "", "plugin directory")
	trackerKind := flag.String("tracker", "", "tracker source: websocket or replay")
	replayPath := flag.String("replay", "", "recorded tracker session (JSON lines)")
	replayFPS := flag.Int("fps", 0, "replay pacing in frames per second")
	withTray := flag.Bool("tray", false, "show the system tray menu")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.ModelPath = *modelPath
		case "trigger":
			cfg.Trigger = *trigger
		case "db":
			cfg.DBPath = *dbPath
		case "listen":
			cfg.ListenAddr = *listenAddr
		case "plugins":
			cfg.PluginDir = *pluginDir
		case "tracker":
			cfg.Tracker = *trackerKind
		case "replay":
			cfg.ReplayPath = *replayPath
		case "fps":
			cfg.ReplayFPS = *replayFPS
		case "tray":
			cfg.Tray = *withTray
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("Mudra - Full-Body Gesture Control")

	model, err := svm.Load(cfg.ModelPath)
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}
	log.Printf("Loaded model %s: %d classes, %d support vectors", cfg.ModelPath, len(model.Classes()), model.NumSupportVectors())

	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	plugins := plugin.NewManager(cfg.PluginDir, plugin.NewExecutor(cfg.PluginTimeout()))
	if err := plugins.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	log.Printf("Discovered %d plugins in %s", len(plugins.List()), cfg.PluginDir)

	var (
		source tracker.Tracker
		ingest http.Handler
	)
	switch cfg.Tracker {
	case config.TrackerReplay:
		replay, err := tracker.OpenReplay(cfg.ReplayPath, cfg.ReplayFPS)
		if err != nil {
			log.Fatalf("Failed to open replay: %v", err)
		}
		source = replay
	default:
		ws := tracker.NewWSTracker(64)
		source, ingest = ws, ws
	}
	defer source.Close()

	a := app.New(app.Config{
		Tracker:    source,
		Classifier: model,
		Trigger:    cfg.TriggerLabel(),
		Store:      st,
		Plugins:    plugins,
	})

	stream := server.NewStatusHandler(a.Status)
	a.OnStatus(stream.Broadcast)

	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: server.New(server.Config{
			StaticDir: webDir,
			Store:     st,
			App:       a,
			Stream:    stream,
			Tracker:   ingest,
			Plugins:   plugins,
		}),
	}
	go func() {
		fmt.Printf("Starting server on %s\n", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := make(chan error, 1)
	if cfg.Tray {
		t := tray.New()
		t.OnToggle(a.SetEnabled)
		t.OnQuit(stop)
		t.OnSettings(func() { openBrowser(settingsURL(cfg.ListenAddr)) })
		a.OnStatus(t.SetStatus)

		go func() {
			runErr <- a.Run(ctx)
			t.Quit()
		}()
		t.Run()
		stop()
	} else {
		runErr <- a.Run(ctx)
	}

	if err := shutdown(srv, <-runErr); err != nil {
		source.Close()
		st.Close()
		log.Fatalf("Recognition stopped: %v", err)
	}
	log.Println("Stopped")
}

// shutdown stops the HTTP server and returns the loop error, which is
// fatal to the process.
func shutdown(srv *http.Server, loopErr error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	return loopErr
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.mudra/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mudra", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

func settingsURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
