package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/guarzo/repolookup/common"
	"github.com/guarzo/repolookup/common/config"
	"github.com/guarzo/repolookup/common/model"
	"github.com/guarzo/repolookup/modules/github"
	"github.com/guarzo/repolookup/modules/lookup"
	"github.com/guarzo/repolookup/modules/store"
)

type options struct {
	configPath    string
	sessionUser   string
	sessionID     string
	sessionGitHub bool
	retries       int
	refresh       bool
	output        string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "repolookup [username]",
		Short: "List the public GitHub repositories of a user",
		Long: `Resolve a GitHub username to its numeric id and list the user's public
repositories. Without a username the session user is looked up instead.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var explicit string
			if len(args) == 1 {
				explicit = args[0]
			}
			return run(cmd.Context(), cmd.OutOrStdout(), opts, model.Query{
				ExplicitUsername:  explicit,
				SessionUsername:   opts.sessionUser,
				SessionNumericID:  opts.sessionID,
				SessionOnPlatform: opts.sessionGitHub,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.sessionUser, "session-user", "", "username of the signed-in session")
	flags.StringVar(&opts.sessionID, "session-id", "", "numeric GitHub id of the signed-in session, used when --session-user is empty")
	flags.BoolVar(&opts.sessionGitHub, "session-github", true, "whether the session identity is a GitHub account")
	flags.IntVar(&opts.retries, "retries", 0, "extra attempts after a transport error")
	flags.BoolVar(&opts.refresh, "refresh", false, "drop cached entries for the target before looking it up")
	flags.StringVarP(&opts.output, "output", "o", "table", "output format: table or json")

	return cmd
}

func run(ctx context.Context, out io.Writer, opts *options, q model.Query) error {
	if opts.output != "table" && opts.output != "json" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := common.InitLogger(cfg.Log.Level, cfg.Log.Dir); err != nil {
		return err
	}

	cache, err := store.New(cfg.Cache)
	if err != nil {
		return err
	}
	if closer, ok := cache.(io.Closer); ok {
		defer closer.Close()
	}

	hc := common.NewHttpClient(cfg.GitHub.UserAgent, &http.Client{}, common.TokenSource(cfg.GitHub.Token), cfg.GitHub.Timeout)
	hc.SetMaxRetries(opts.retries + 1)
	defer hc.CloseIdleConnections()

	client, err := github.NewGitHubClient(
		github.WithBaseURL(cfg.GitHub.BaseURL),
		github.WithHTTPClient(hc),
	)
	if err != nil {
		return err
	}

	svc := lookup.NewLookupService(client, cache,
		lookup.WithCacheDuration(cfg.Cache.Duration),
		lookup.WithListener(func(r model.Result) {
			logrus.WithFields(logrus.Fields{"target": r.Target, "status": r.Status.String()}).Debug("state changed")
		}),
	)

	if opts.refresh {
		target := lookup.ResolveTarget(q)
		switch {
		case target.Username != "":
			svc.Invalidate(target.Username)
		case target.NumericID != "":
			svc.InvalidateRepositories(target.NumericID)
		}
	}

	// Retrying is the caller's decision; only transport errors are worth it.
	v, _ := hc.RetryWithExponentialBackoff(func() (interface{}, error) {
		res := svc.GetRepositoriesFor(ctx, q)
		if res.Status.Kind == common.KindTransportError {
			return res, fmt.Errorf("lookup of %q: %w", res.Target, common.ErrTransport)
		}
		return res, nil
	})
	res := svc.State()
	if r, ok := v.(model.Result); ok {
		res = r
	}

	if err := render(out, opts.output, res); err != nil {
		return err
	}
	if res.Status.State == model.StateError {
		return fmt.Errorf("lookup failed: %s", res.Status)
	}
	return nil
}
