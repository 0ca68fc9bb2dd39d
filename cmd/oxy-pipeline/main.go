package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/config"
	"github.com/Carmen-Shannon/oxy-pipeline/engine"
)

func main() {
	configPath := flag.String("config", "~/.config/oxy-pipeline/config.yaml", "path to a YAML or TOML config file")
	backendName := flag.String("backend", "", "graphics backend: opengl or wgpu (overrides the config)")
	modeName := flag.String("mode", "", "initial render mode: forward, deferred or bloom (overrides the config)")
	flag.Parse()

	if err := run(*configPath, *backendName, *modeName); err != nil {
		fmt.Fprintln(os.Stderr, "oxy-pipeline:", err)
		os.Exit(1)
	}
}

func run(configPath, backendName, modeName string) error {
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if backendName != "" {
		cfg.Backend = backendName
	}
	if modeName != "" {
		cfg.Mode = modeName
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.Level()
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	eng, err := engine.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	return eng.Run()
}
