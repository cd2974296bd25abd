package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"net/http"
	_ "net/http/pprof"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/chenx-dust/refptr/app"
	"github.com/chenx-dust/refptr/app/churn"
	"github.com/chenx-dust/refptr/app/fanout"
	"github.com/chenx-dust/refptr/buffer"
	"github.com/chenx-dust/refptr/config"
)

func main() {
	cfgFilename := flag.StringP("config", "c", "", "config file (yaml or json)")
	mode := flag.String("mode", "", "override mode: churn or fanout")
	workers := flag.Int("workers", 0, "override worker count")
	listen := flag.String("listen", "", "serve pprof and metrics on this address")
	verbosity := flag.IntP("verbosity", "v", 0, "log verbosity")
	flag.Parse()

	logger := funcr.New(func(prefix, args string) {
		if prefix != "" {
			log.Println(prefix, args)
		} else {
			log.Println(args)
		}
	}, funcr.Options{Verbosity: *verbosity})

	cfg, err := loadConfig(*cfgFilename, *mode, *workers)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ListenAddr != "" || *listen != "" {
		addr := cfg.ListenAddr
		if *listen != "" {
			addr = *listen
		}
		serveDebug(addr, logger)
	}

	var application app.App
	switch cfg.Mode {
	case config.ChurnMode:
		application = churn.NewChurn(cfg, logger)
	case config.FanoutMode:
		application, err = fanout.NewFanout(cfg, logger)
		if err != nil {
			log.Fatalf("Failed to create fanout: %v", err)
		}
	default:
		log.Fatalf("Invalid mode: %v", cfg.Mode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = application.Run(ctx)
	if err != nil {
		log.Fatalf("Failed to run application: %v", err)
	}
}

func loadConfig(filename, mode string, workers int) (*config.Config, error) {
	cfg := config.Default()
	if filename != "" {
		log.Println("loading config from", filename)
		var err error
		cfg, err = config.LoadFromFile(filename)
		if err != nil {
			return nil, err
		}
	}
	if mode != "" {
		m, err := config.ParseMode(mode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = m
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	return cfg, cfg.Validate()
}

func serveDebug(addr string, logger logr.Logger) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := buffer.RegisterMetrics(reg); err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	go func() {
		logger.Info("starting debug server", "addr", addr)
		err := http.ListenAndServe(addr, nil)
		if err != nil {
			log.Fatalf("Failed to start debug server: %v", err)
		}
	}()
}
