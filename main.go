package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"api-doc-explorer/internal/config"
	"api-doc-explorer/internal/describe"
	"api-doc-explorer/internal/llm"
	"api-doc-explorer/internal/logger"
	"api-doc-explorer/internal/parser"
	"api-doc-explorer/internal/types"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	specSource  string
	logLevel    string
	metricsAddr string

	rootCmd = &cobra.Command{
		Use:   "api-doc-explorer",
		Short: "Browse the parameters of an OpenAPI document with lazily loaded descriptions",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		SilenceUsage: true,
	}

	cfg *config.Config
	log *logger.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default "+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().StringVar(&specSource, "spec", "", "OpenAPI document URL or file, overrides spec.source")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides logging.level")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	rootCmd.AddCommand(endpointsCmd, exploreCmd)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer teardown()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func setup() error {
	var err error
	cfg, err = loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cfg); err != nil {
		return err
	}

	log, err = logger.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.Info("configuration loaded", "spec", cfg.Spec.Source, "sources", cfg.Descriptions.Sources)

	if metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.Error("metrics server stopped", "addr", metricsAddr, "error", err)
			}
		}()
	}
	return nil
}

// applyFlags layers command line overrides onto c and validates the result.
func applyFlags(c *config.Config) error {
	if specSource != "" {
		c.Spec.Source = specSource
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if len(formats) > 0 {
		c.Reporting.Format = formats
	}
	if c.Spec.Source == "" {
		return errors.New("no OpenAPI document given: set spec.source or pass --spec")
	}
	return c.Validate()
}

func teardown() {
	if log != nil {
		log.Close()
	}
}

// loadConfig reads the explicit config file, then the default one, and
// falls back to built-in defaults when neither exists.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfig(configPath)
	}
	if _, err := os.Stat(config.DefaultPath); err == nil {
		return config.LoadConfig(config.DefaultPath)
	}
	return config.Default(), nil
}

func loadEndpoints(ctx context.Context) ([]types.Endpoint, error) {
	source := cfg.Spec.Source
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		ctx, cancel := context.WithTimeout(ctx, cfg.SpecTimeout())
		defer cancel()
		return parser.NewSwaggerParser(source, log.Logger).ParseEndpoints(ctx)
	}
	return parser.NewSwaggerParser("", log.Logger).ParseFile(source)
}

// buildSource assembles the configured description sources in order. The
// returned function releases any connections they hold.
func buildSource(ctx context.Context) (describe.Source, func(), error) {
	var (
		chain   describe.Chain
		closers []func() error
	)
	release := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("failed to close description source", "error", err)
			}
		}
	}

	for _, name := range cfg.Descriptions.Sources {
		switch name {
		case config.SourceEmbedded:
			chain = append(chain, describe.Embedded{})
		case config.SourceHTTP:
			service := cfg.Descriptions.HTTP
			chain = append(chain, describe.NewHTTPSource(service.BaseURL, service.Auth.Token, cfg.HTTPTimeout()))
		case config.SourceDatabase:
			src, err := describe.OpenSQLSource(ctx, cfg.Descriptions.Database)
			if err != nil {
				release()
				return nil, nil, err
			}
			closers = append(closers, src.Close)
			chain = append(chain, src)
		case config.SourceLLM:
			client, err := llm.NewClient(&cfg.Descriptions.LLM, log)
			if err != nil {
				release()
				return nil, nil, err
			}
			chain = append(chain, describe.NewLLMSource(client))
		default:
			release()
			return nil, nil, fmt.Errorf("unknown description source %q", name)
		}
		log.Debug("description source enabled", "source", name)
	}
	return chain, release, nil
}
