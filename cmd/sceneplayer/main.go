package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/AaronLay10/SentientStage/internal/api"
	"github.com/AaronLay10/SentientStage/internal/config"
	"github.com/AaronLay10/SentientStage/internal/events"
	"github.com/AaronLay10/SentientStage/internal/mqtt"
	"github.com/AaronLay10/SentientStage/internal/player"
	"github.com/AaronLay10/SentientStage/internal/scene"
	"github.com/AaronLay10/SentientStage/internal/storage"
	"github.com/AaronLay10/SentientStage/internal/storage/postgres"
	"github.com/AaronLay10/SentientStage/internal/storage/sqlite"
	"github.com/AaronLay10/SentientStage/internal/version"
	"github.com/AaronLay10/SentientStage/internal/watch"
)

type LogLine struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func logEvent(level, event, msg string, fields map[string]interface{}) {
	line := LogLine{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Event:     event,
		Message:   msg,
		Fields:    fields,
	}
	b, _ := json.Marshal(line)
	fmt.Println(string(b))
}

func fatal(msg string, err error) {
	logEvent("error", "system.error", msg, map[string]interface{}{"error": err.Error()})
	os.Exit(1)
}

func main() {
	configPath := flag.String("config", "scenes/demo/player.yaml", "path to player.yaml")
	scenePath := flag.String("scene", "", "scene document, overrides the config")
	validateOnly := flag.Bool("validate", false, "validate the scene document and exit")
	frames := flag.Uint64("frames", 0, "stop after this many frames (0 runs until signalled)")
	flag.Parse()

	cfg, err := config.LoadPlayerConfig(*configPath)
	if err != nil {
		fatal("failed to load player.yaml", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		fatal("failed to apply environment", err)
	}
	if *scenePath != "" {
		cfg.Scene.Path = *scenePath
	}

	doc, err := scene.LoadDocument(cfg.Scene.Path)
	if err != nil {
		fatal("failed to load scene", err)
	}
	if issues := doc.Validate(); len(issues) > 0 {
		for _, issue := range issues {
			logEvent("warn", "scene.invalid", issue.String(), nil)
		}
		if *validateOnly {
			os.Exit(1)
		}
	}
	if *validateOnly {
		logEvent("info", "scene.valid", cfg.Scene.Path, map[string]interface{}{
			"nodes": len(doc.Nodes),
			"clips": len(doc.Clips),
		})
		return
	}

	hostname, _ := os.Hostname()
	sceneID := strings.TrimSuffix(filepath.Base(cfg.Scene.Path), filepath.Ext(cfg.Scene.Path))
	logEvent("info", "system.startup", "scene player starting", map[string]interface{}{
		"service":  version.Name,
		"version":  version.Version,
		"hostname": hostname,
		"pid":      os.Getpid(),
		"scene":    cfg.Scene.Path,
	})

	auth, err := api.LoadAuth()
	if err != nil {
		fatal("failed to load credentials", err)
	}
	tlsFiles, err := api.LoadTLSFiles()
	if err != nil {
		fatal("failed to load TLS settings", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	p := player.New(doc, player.Options{
		Bus: bus,
		OnOpenLink: func(url string) {
			logEvent("info", "link.open", url, nil)
		},
	})

	journal := openJournal(ctx, cfg, sceneID)
	if journal != nil {
		defer journal.Close()

		state, n, err := player.RestoreFromJournal(ctx, journal, player.DefaultRestoreLimit)
		if err != nil {
			logEvent("warn", "system.error", "restore from journal failed", map[string]interface{}{"error": err.Error()})
		} else if state != nil {
			p.ApplyRestored(state)
			logEvent("info", "system.restored", "", map[string]interface{}{"rows": n})
		}
		bus.SetSink(journal, cfg.Postgres.SessionID)
	}
	p.EmitStartup(map[string]interface{}{
		"version": version.Version,
		"scene":   sceneID,
	})

	server := api.NewServer(api.Options{
		Bus:        bus,
		Controller: p,
		Journal:    journal,
		Auth:       auth,
		TLS:        tlsFiles,
		SceneName:  sceneID,
	})

	if cfg.MQTT.Enabled {
		startMQTT(ctx, cfg, p, bus, server)
	}

	if cfg.Scene.Watch {
		startWatcher(ctx, cfg, p, bus)
	}

	go func() {
		logEvent("info", "system.listen", "", map[string]interface{}{
			"port": cfg.APIPort(),
			"tls":  tlsFiles.Enabled(),
		})
		if err := server.ListenAndServe(ctx, cfg.APIPort()); err != nil {
			logEvent("error", "system.error", "api server failed", map[string]interface{}{"error": err.Error()})
			stop()
		}
	}()

	if cfg.Scene.Autostart {
		p.Start()
		if cfg.Scene.Clip != "" {
			if err := p.PlayClip(cfg.Scene.Clip); err != nil {
				logEvent("warn", "system.error", "autoplay clip not found", map[string]interface{}{"clip": cfg.Scene.Clip})
			}
		}
	}

	if err := p.Run(ctx, cfg.TickHz(), *frames); err != nil && ctx.Err() == nil {
		logEvent("error", "system.error", "tick loop failed", map[string]interface{}{"error": err.Error()})
	}

	p.Stop()
	bus.Emit("info", "system.shutdown", "", nil)
	logEvent("info", "system.shutdown", "scene player stopped", map[string]interface{}{
		"frames": p.Loop().Frames(),
		"events": bus.TotalCount(),
	})
}

// openJournal prefers postgres, then sqlite. A journal that cannot be opened
// is logged and skipped; the player runs without persistence.
func openJournal(ctx context.Context, cfg *config.PlayerConfig, sceneID string) storage.Journal {
	if cfg.Postgres.Enabled {
		opts, err := postgres.LoadOptions()
		if err != nil {
			logEvent("warn", "system.error", "postgres options invalid", map[string]interface{}{"error": err.Error()})
			return nil
		}
		client, err := postgres.New(ctx, opts, sceneID)
		if err != nil {
			logEvent("warn", "system.error", "postgres unavailable", map[string]interface{}{
				"host":  opts.Host,
				"error": err.Error(),
			})
			return nil
		}
		logEvent("info", "journal.open", "postgres", map[string]interface{}{"host": opts.Host})
		return client
	}

	if cfg.SQLite.Enabled {
		j, err := sqlite.Open(cfg.SQLitePath(), sceneID)
		if err != nil {
			logEvent("warn", "system.error", "sqlite journal unavailable", map[string]interface{}{
				"path":  cfg.SQLitePath(),
				"error": err.Error(),
			})
			return nil
		}
		logEvent("info", "journal.open", "sqlite", map[string]interface{}{"path": cfg.SQLitePath()})
		return j
	}
	return nil
}

func startMQTT(ctx context.Context, cfg *config.PlayerConfig, p *player.Player, bus *events.Bus, server *api.Server) {
	client := mqtt.NewClient(cfg.MQTTURL(), cfg.MQTTClientID())
	triggers := mqtt.NewTriggerSubscriber(client, p, bus, cfg.TopicPrefix())
	server.SetMQTTStatus(true, false)

	go func() {
		for !client.StartWithRetry(triggers) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
		server.SetMQTTStatus(true, true)
		bus.Emit("info", "mqtt.connected", "", map[string]interface{}{
			"broker": client.BrokerURL(),
			"topic":  triggers.Topic(),
		})

		go mqtt.NewPublisher(client, cfg.TopicPrefix()).Run(ctx, bus)

		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				client.Disconnect()
				return
			case <-ticker.C:
				server.SetMQTTStatus(true, client.IsConnected())
			}
		}
	}()
}

func startWatcher(ctx context.Context, cfg *config.PlayerConfig, p *player.Player, bus *events.Bus) {
	reportErr := func(err error) {
		bus.Emit("error", "system.error", "scene watcher", map[string]interface{}{"error": err.Error()})
	}
	w, err := watch.New(cfg.Scene.Path, cfg.WatchDebounce(), func(path string) {
		doc, err := scene.LoadDocument(path)
		if err != nil {
			reportErr(err)
			return
		}
		if issues := doc.Validate(); len(issues) > 0 {
			bus.Emit("warn", "system.error", "reloaded scene has issues", map[string]interface{}{
				"issues": len(issues),
				"first":  issues[0].String(),
			})
		}
		p.Reload(doc)
	}, reportErr)
	if err != nil {
		logEvent("warn", "system.error", "scene watcher unavailable", map[string]interface{}{"error": err.Error()})
		return
	}
	go w.Run(ctx)
}
