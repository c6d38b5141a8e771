package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/edgy1net/trackd/internal/bot"
	"github.com/edgy1net/trackd/internal/config"
	"github.com/edgy1net/trackd/internal/irc"
	"github.com/edgy1net/trackd/internal/metrics"
	"github.com/edgy1net/trackd/internal/storage"
)

// Version information - set at build time via ldflags
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	configPath := flag.String("c", "./config.yaml", "Path to configuration file")
	showVersion := flag.Bool("v", false, "Show version information and exit")
	showVersionLong := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("trackd version %s\n", version)
		fmt.Printf("Built: %s\n", buildDate)
		fmt.Printf("Commit: %s\n", gitCommit)
		os.Exit(0)
	}

	irc.Version = version
	irc.BuildDate = buildDate
	irc.GitCommit = gitCommit

	if err := writePIDFile(); err != nil {
		log.Printf("Warning: could not write PID file: %v", err)
	}

	run(*configPath)
}

func writePIDFile() error {
	return os.WriteFile("pid.txt", []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}

func run(configPath string) {
	if !filepath.IsAbs(configPath) {
		wd, _ := os.Getwd()
		configPath = filepath.Join(wd, configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	audit, err := storage.OpenAudit(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open audit log: %v", err)
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			log.Printf("Serving metrics on %s", cfg.MetricsAddr)
			if err := m.Serve(cfg.MetricsAddr); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	core := bot.New(cfg, audit, m)

	channel := irc.NewChannel(cfg, core)
	core.AttachChannel(channel)

	links := make([]*irc.ServerLink, 0, len(cfg.Servers))
	for _, sc := range cfg.Servers {
		link := irc.NewServerLink(cfg, sc, core)
		core.RegisterAdapter(sc.Name, link)
		links = append(links, link)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		channel.Quit()
		for _, link := range links {
			link.Quit()
		}
		cancel()
		os.Exit(0)
	}()

	go core.Run(ctx)

	for _, link := range links {
		link := link
		go func() {
			log.Printf("Connecting to server %s...", link.Name())
			if err := link.Connect(); err != nil {
				log.Printf("Failed to connect to %s, will retry: %v", link.Name(), err)
			}
			link.Loop()
		}()
	}

	log.Printf("Connecting to %s:%d...", cfg.Server, cfg.Port)
	if err := channel.Connect(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	log.Println("Connected, entering main loop...")
	channel.Loop()
}
