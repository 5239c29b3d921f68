// Command streamwatch keeps a shared event-stream connection to a URL, logs
// the events it receives and serves connection notices over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"github.com/kbukum/streamkit/broadcast"
	"github.com/kbukum/streamkit/channel"
	"github.com/kbukum/streamkit/component"
	"github.com/kbukum/streamkit/config"
	apperrors "github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/notify"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/server"
	"github.com/kbukum/streamkit/transport"
	"github.com/kbukum/streamkit/version"
)

const (
	serviceName      = "streamwatch"
	noticeStreamPath = "/notices/stream"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	configFile := fs.StringP("config", "c", "", "path to config.yml")
	envFile := fs.String("env-file", "", "path to a .env file")
	streamURL := fs.StringP("url", "u", "", "event stream URL (overrides config)")
	events := fs.StringSliceP("event", "e", nil, "event names to subscribe to (overrides config)")
	showVersion := fs.BoolP("version", "v", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(version.Get().String())
		return nil
	}

	cfg, err := loadConfig(*configFile, *envFile)
	if err != nil {
		return err
	}
	if *streamURL != "" {
		cfg.URL = *streamURL
	}
	if len(*events) > 0 {
		cfg.Events = *events
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(cfg.Logging)
	log := logger.WithComponent(serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	if err := app.registry.StartAll(ctx); err != nil {
		return err
	}
	app.watch(cfg.URL, cfg.Events)
	log.Info("watching stream", logger.Fields(logger.FieldURL, cfg.URL, "events", cfg.Events))

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return app.registry.StopAll(shutdownCtx)
}

// channelStatus reports the shared channel's URL, state and subscriptions.
func (a *app) channelStatus(c *gin.Context) {
	ch := a.manager.Current()
	if ch == nil {
		server.RespondWithError(c, apperrors.StreamUnavailable(a.manager.LastFailed()))
		return
	}
	subs := make(map[string]int)
	for _, event := range ch.Events() {
		subs[event] = ch.Subscriptions(event)
	}
	server.RespondOK(c, gin.H{
		"id":            ch.ID(),
		"url":           ch.URL(),
		"state":         ch.State().String(),
		"subscriptions": subs,
	})
}

func loadConfig(configFile, envFile string) (*Config, error) {
	var opts []config.Option
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	opts = append(opts, config.WithEnvPrefix(serviceName))

	var cfg Config
	if err := config.Load(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// app holds the wired components of a streamwatch process.
type app struct {
	registry *component.Registry
	manager  *channel.Manager
	board    *notify.Board
	server   *server.Server
	log      *logger.Logger
}

func newApp(cfg *Config) (*app, error) {
	log := logger.WithComponent(serviceName)

	telemetry, err := observability.New(cfg.Observability)
	if err != nil {
		return nil, err
	}

	provider, err := transport.NewHTTPProvider(cfg.Transport, transport.WithLogger(logger.WithComponent("transport")))
	if err != nil {
		return nil, err
	}

	board := notify.NewBoard(cfg.NoticeTTL)
	stream := broadcast.NewComponent(noticeStreamPath)
	live := broadcast.NewNoticeNotifier(stream.Hub())
	board.OnExpire(live.Expired)
	notifier := notify.Multi{
		notify.NewLogNotifier(logger.WithComponent("notify")),
		notify.Func(func(n notify.Notice) { live.Notify(board.Post(n)) }),
	}

	manager, err := channel.NewManager(provider, notifier, cfg.Channel)
	if err != nil {
		return nil, err
	}

	registry := component.NewRegistry()
	srv := server.New(cfg.Server, logger.GetGlobalLogger())
	srv.RegisterDefaultEndpoints(cfg.Name, registry.HealthAll)
	notify.RegisterRoutes(srv.Engine(), board)
	srv.Engine().GET(noticeStreamPath, broadcast.Handler(stream.Hub(), broadcast.TopicNotices))

	a := &app{registry: registry, manager: manager, board: board, server: srv, log: log}
	srv.Engine().GET("/channel", a.channelStatus)

	components := []component.Component{telemetry, stream, manager}
	if cfg.Server.Enabled {
		components = append(components, srv)
	}
	for _, c := range components {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// watch opens the shared channel and logs every payload of the given events.
func (a *app) watch(url string, events []string) *channel.Channel {
	ch := a.manager.Shared(url)
	for _, event := range events {
		ch.Subscribe(event, func(payload string) {
			a.log.Info("event received", logger.Fields(
				logger.FieldEvent, event,
				logger.FieldChannelID, ch.ID(),
				"payload", payload,
			))
		})
	}
	return ch
}
