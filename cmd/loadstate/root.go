package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/loadstate/async"
	"github.com/tailored-agentic-units/loadstate/httpcheck"
	"github.com/tailored-agentic-units/loadstate/loader"
	"github.com/tailored-agentic-units/loadstate/workflow"
)

var errChecksFailed = errors.New("one or more checks failed")

type rootOptions struct {
	configFile string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "loadstate",
		Short:         "Track HTTP endpoint loads as load-state records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to config file (JSON or YAML)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging to stderr")

	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newServeCmd(opts))

	return cmd
}

func (o *rootOptions) config() (loader.Config, error) {
	if o.configFile == "" {
		return loader.DefaultConfig(), nil
	}

	cfg, err := loader.LoadConfig(o.configFile)
	if err != nil {
		return loader.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return *cfg, nil
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// checker starts one validated GET per URL under the states group.
type checker struct {
	loader *loader.Loader
	client *http.Client
	urls   []string
}

func newChecker(l *loader.Loader, urls []string) *checker {
	return &checker{
		loader: l,
		client: &http.Client{Timeout: l.Config().HTTP.Timeout},
		urls:   urls,
	}
}

func (c *checker) start(ctx context.Context) (map[string]*async.Future[*httpcheck.Response], error) {
	expected := c.loader.Config().HTTP.ExpectedStatus

	ops := make(map[string]async.Operation[*httpcheck.Response], len(c.urls))
	for _, url := range c.urls {
		op, err := httpcheck.Get(c.client, url)
		if err != nil {
			return nil, err
		}
		ops[url] = httpcheck.ValidateOperation(op, expected)
	}

	return workflow.LoadStates(ctx, c.loader.Runner(), ops), nil
}

func (c *checker) failed() bool {
	rec, ok := c.loader.Store().Get(workflow.GroupStates, c.loader.Runner().AggregateKey())
	return ok && rec.Failed != nil
}

func newLoader(o *rootOptions, cmd *cobra.Command, mutate func(*loader.Config)) (*loader.Loader, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(&cfg)
	}

	l, err := loader.New(&cfg, loader.WithLogger(o.logger(cmd)))
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}
	return l, nil
}
