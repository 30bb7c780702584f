package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"
	"nyiyui.ca/hato/kidou/config"
	"nyiyui.ca/hato/kidou/edit"
	"nyiyui.ca/hato/kidou/journal"
	"nyiyui.ca/hato/kidou/kujo"
	"nyiyui.ca/hato/kidou/sakuragi"
	"nyiyui.ca/hato/kidou/trackset"
)

func main() {
	defer zap.S().Sync()
	level := zap.LevelFlag("log-level", zap.DebugLevel, "set log level")
	configPath := flag.String("config", "", "path to config file")
	index := flag.String("index", "", "path to track index (overrides config)")
	listen := flag.String("listen", "", "address to listen on (overrides config)")
	journalPath := flag.String("journal", "", "path to journal database (overrides config)")
	accessLog := flag.Bool("access-log", false, "log requests to stdout in combined log format")
	flag.Parse()
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(*level)
	dev, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(dev)

	conf, err := config.Load(*configPath)
	if err != nil {
		zap.S().Fatalf("load config: %s", err)
	}
	if *index != "" {
		conf.Index = *index
	}
	if *listen != "" {
		conf.Listen = *listen
	}
	if *journalPath != "" {
		conf.Journal = *journalPath
	}

	ts, err := trackset.Load(conf.Index)
	if err != nil {
		zap.S().Fatalf("load tracks: %s", err)
	}
	zap.S().Infow("loaded tracks", "index", conf.Index, "tracks", ts.Len())

	var j *journal.Journal
	if conf.Journal != "" {
		j, err = journal.Open(conf.Journal)
		if err != nil {
			zap.S().Fatalf("open journal: %s", err)
		}
		defer j.Close()
	}

	s := edit.New(ts, j)
	kujoServer := kujo.NewServer(s)
	defer kujoServer.Close()
	kujoServer.Router().Handle("/", sakuragi.New(s)).Methods(http.MethodGet)

	var h http.Handler = kujo.WithCORS(kujoServer, conf.CORSOrigins)
	if *accessLog {
		h = handlers.CombinedLoggingHandler(os.Stdout, h)
	}
	srv := &http.Server{
		Addr:              conf.Listen,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	zap.S().Infow("listening", "addr", srv.Addr)
	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.S().Errorw("serve failed", "err", err)
	}
}
