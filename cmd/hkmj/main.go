package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kevin-chtw/tw_hkmj/bot"
	"github.com/kevin-chtw/tw_hkmj/game"
	"github.com/kevin-chtw/tw_hkmj/httpapi"
	"github.com/kevin-chtw/tw_hkmj/service"
	"github.com/kevin-chtw/tw_hkmj/storage"
	"github.com/kevin-chtw/tw_hkmj/utils"
	pitaya "github.com/topfreegames/pitaya/v3/pkg"
	"github.com/topfreegames/pitaya/v3/pkg/acceptor"
	"github.com/topfreegames/pitaya/v3/pkg/component"
	"github.com/topfreegames/pitaya/v3/pkg/config"
	"github.com/topfreegames/pitaya/v3/pkg/logger"
)

const serverType = "hkmj"

func main() {
	path := flag.String("config", "etc/hkmj.yaml", "config file")
	flag.Parse()

	conf, err := game.LoadConfig(*path)
	if err != nil {
		logger.Log.Fatalf("load config %s: %v", *path, err)
	}
	c := conf.Get()
	l, err := utils.Logger(c.Log)
	if err != nil {
		logger.Log.Fatalf("create logger: %v", err)
	}
	logger.SetLogger(l)

	mode := pitaya.Standalone
	if c.Cluster.Enable {
		mode = pitaya.Cluster
	}
	frontend := !c.Cluster.Enable || c.Cluster.Frontend
	builder := pitaya.NewDefaultBuilder(frontend, serverType, mode, map[string]string{}, *config.NewDefaultPitayaConfig())
	if frontend {
		builder.AddAcceptor(acceptor.NewWSAcceptor(c.Listen))
	}
	app := builder.Build()

	cache, err := bot.NewWaitCache(c.Bot.Cache)
	if err != nil {
		logger.Log.Fatalf("%v", err)
	}
	defer cache.Close()

	frontendType := serverType
	if c.Cluster.Enable && !c.Cluster.Frontend {
		frontendType = "proxy"
	}
	tables := game.NewTableManager(conf, app, game.WithRoute("hkmj.ack", frontendType), game.WithWaitCache(cache))
	defer tables.Close()

	var binder service.Binder
	if c.Cluster.Enable {
		binding := storage.NewETCDBinding(app.GetServer(), config.ETCDBindingConfig{
			DialTimeout: time.Duration(c.Cluster.DialTimeout) * time.Second,
			Endpoints:   c.Cluster.Endpoints,
			Prefix:      c.Cluster.Prefix,
			LeaseTTL:    time.Duration(c.Cluster.LeaseTTL) * time.Second,
		})
		if err := app.RegisterModule(binding, "seatBinding"); err != nil {
			logger.Log.Fatalf("register seat binding: %v", err)
		}
		binder = binding
	}

	app.Register(service.NewRoom(app, tables, binder), component.WithName("room"), component.WithNameFunc(strings.ToLower))
	app.Register(service.NewGame(app, tables, binder), component.WithName("game"), component.WithNameFunc(strings.ToLower))

	api := httpapi.NewServer(c.Http.Addr, tables)
	go func() {
		if err := api.Start(); err != nil {
			logger.Log.Errorf("http api stopped: %v", err)
		}
	}()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := api.Shutdown(ctx); err != nil {
			logger.Log.Errorf("http api shutdown: %v", err)
		}
	}()

	app.Start()
}
