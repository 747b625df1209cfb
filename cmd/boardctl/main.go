package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-dashboard-composer/config"
)

type cli struct {
	Config  string   `type:"path" help:"Optional YAML config file (falls back to COMPOSER_CONFIG)."`
	EnvFile []string `name:"env-file" help:"Dotenv files to load when present (defaults to .env.local and .env)."`

	Serve   serveCmd   `cmd:"" help:"Run the dashboard composer web server."`
	Catalog catalogCmd `cmd:"" help:"Manage catalog manifests."`
	Preview previewCmd `cmd:"" help:"Render one catalog widget to a standalone HTML page."`
	Export  exportCmd  `cmd:"" help:"Dump folders and dashboards from storage as a manifest seed."`
}

type catalogCmd struct {
	Scaffold scaffoldCmd `cmd:"" help:"Add a catalog entry to a manifest."`
}

func main() {
	root := &cli{}
	ctx := kong.Parse(root,
		kong.Name("boardctl"),
		kong.Description("Dashboard composer server and catalog tooling."),
		kong.UsageOnError(),
		kong.Bind(root),
	)
	err := ctx.Run(context.Background())
	ctx.FatalIfErrorf(err)
}

func (c *cli) loadConfig() (config.Config, error) {
	return config.Load(config.LoadOptions{ConfigFile: c.Config, EnvFiles: c.EnvFile})
}

// newLogger builds a production zap logger at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if strings.TrimSpace(level) != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("boardctl: log level: %w", err)
		}
		lvl = parsed
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
