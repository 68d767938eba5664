package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Frank-Junran-Yang/portfolio/internal/config"
	"github.com/Frank-Junran-Yang/portfolio/internal/database"
	"github.com/Frank-Junran-Yang/portfolio/internal/dataset"
	"github.com/Frank-Junran-Yang/portfolio/internal/github"
	"github.com/Frank-Junran-Yang/portfolio/internal/httpserver"
	"github.com/Frank-Junran-Yang/portfolio/internal/locparser"
	"github.com/Frank-Junran-Yang/portfolio/internal/projects"
	"github.com/Frank-Junran-Yang/portfolio/internal/site"
)

func serveCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site and its JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().String("data", "", "loc dataset path (overrides data.path)")
	cmd.Flags().Bool("watch", false, "reload the dataset when the file changes")
	_ = v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("data.path", cmd.Flags().Lookup("data"))
	_ = v.BindPFlag("data.watch", cmd.Flags().Lookup("watch"))

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	s, err := openSite(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if cfg.Data.Watch && !cfg.UseStore() {
		w, err := dataset.Watch(cfg.Data.Path, logger, func() {
			s.reload(ctx, logger)
		})
		if err != nil {
			return fmt.Errorf("watching %s: %w", cfg.Data.Path, err)
		}
		defer w.Stop()
		logger.Info("watching dataset", "path", cfg.Data.Path)
	}

	srv := s.server(cfg, logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	return g.Wait()
}

// siteDeps is everything the site needs besides the HTTP server itself.
type siteDeps struct {
	holder   *dataset.Holder
	source   dataset.Source
	opts     dataset.Options
	projects []projects.Project
	prefs    site.Preferences
	github   *github.Client
	store    database.Store
	// policy is the timestamp policy for files imported later.
	policy   string
}

// openSite builds the dataset source and preference store, then loads the
// dataset and project list concurrently. A dataset that fails to load is
// recorded in the holder so the commit endpoints can report it.
func openSite(ctx context.Context, cfg *config.Config, logger *log.Logger) (*siteDeps, error) {
	s := &siteDeps{
		holder: &dataset.Holder{},
		opts:   dataset.Options{RepoURL: cfg.Data.RepoURL},
		policy: cfg.Data.TimestampPolicy,
	}

	if cfg.UseStore() {
		store, err := database.OpenStore(cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
		}
		s.store = store
		s.source = dataset.StoreSource{Store: store}
	} else {
		s.source = dataset.FileSource{
			Path:    cfg.Data.Path,
			Format:  cfg.Data.Format,
			Options: locparser.Options{Policy: locparser.Policy(cfg.Data.TimestampPolicy)},
		}
	}

	prefs, err := openPreferences(ctx, cfg.Prefs, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.prefs = prefs

	if cfg.Site.GitHubUser != "" {
		gh, err := github.NewClient(github.Options{BaseURL: cfg.GitHub.BaseURL, Token: cfg.GitHub.Token})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.github = gh
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.reload(gctx, logger)
		return nil
	})
	g.Go(func() error {
		ps, err := projects.Load(cfg.Site.ProjectsPath)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("no project list", "path", cfg.Site.ProjectsPath)
			return nil
		}
		if err != nil {
			return err
		}
		s.projects = ps
		logger.Info("projects loaded", "count", len(ps))
		return nil
	})
	if err := g.Wait(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func openPreferences(ctx context.Context, cfg config.PrefsConfig, logger *log.Logger) (site.Preferences, error) {
	if cfg.Backend != "redis" {
		return site.NewMemoryPreferences(), nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("theme preferences in redis", "addr", cfg.RedisAddr)
	return site.NewRedisPreferences(rdb, "portfolio", cfg.TTL), nil
}

// reload loads the dataset again. On failure the previous snapshot stays
// in service.
func (s *siteDeps) reload(ctx context.Context, logger *log.Logger) {
	snap, err := s.holder.Reload(ctx, s.source, s.opts)
	if err != nil {
		logger.Error("dataset load failed", "source", s.source.Name(), "err", err)
		return
	}
	logger.Info("dataset loaded",
		"source", snap.Source,
		"records", len(snap.Records),
		"commits", len(snap.Commits),
	)
	if r := snap.Result; r != nil && r.Mismatches > 0 {
		logger.Warn("datetime disagrees with date/time/timezone",
			"rows", r.Mismatches,
			"first", r.MismatchRows,
		)
	}
}

func (s *siteDeps) server(cfg *config.Config, logger *log.Logger) *httpserver.Server {
	opts := httpserver.Options{
		Addr:            cfg.Server.Addr,
		Holder:          s.holder,
		Projects:        s.projects,
		Prefs:           s.prefs,
		GitHubUser:      cfg.Site.GitHubUser,
		BasePath:        cfg.Site.BasePath,
		Logger:          logger.WithPrefix("http"),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	if s.github != nil {
		opts.GitHub = s.github
	}
	return httpserver.New(opts)
}

func (s *siteDeps) Close() {
	if s.prefs != nil {
		s.prefs.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
}
