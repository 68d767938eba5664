// Package httpserver serves the portfolio pages and the JSON API they call.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"github.com/Frank-Junran-Yang/portfolio/internal/dataset"
	"github.com/Frank-Junran-Yang/portfolio/internal/github"
	"github.com/Frank-Junran-Yang/portfolio/internal/projects"
	"github.com/Frank-Junran-Yang/portfolio/internal/site"
)

// profileTTL bounds how often the GitHub API is hit for the home page.
const profileTTL = 10 * time.Minute

// profileFetchTimeout bounds one shared GitHub fetch.
const profileFetchTimeout = 10 * time.Second

// ProfileFetcher is the part of the GitHub client the server needs.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, user string) (*github.Profile, error)
}

// Options configures a Server. Holder is required.
type Options struct {
	Addr            string
	Holder          *dataset.Holder
	Projects        []projects.Project
	Prefs           site.Preferences
	GitHub          ProfileFetcher
	GitHubUser      string
	BasePath        string
	Logger          *log.Logger
	ShutdownTimeout time.Duration
}

// Server provides the site and its JSON API.
type Server struct {
	addr       string
	holder     *dataset.Holder
	projects   []projects.Project
	prefs      site.Preferences
	github     ProfileFetcher
	githubUser string
	basePath   string
	pages      []site.Page
	logger     *log.Logger
	metrics    *metrics
	engine     *gin.Engine
	server     *http.Server
	shutdown   time.Duration
	startTime  time.Time

	// profileMu guards the cached profile only; fetches are shared through
	// profileFlight and run without it held.
	profileMu     sync.Mutex
	profile       *github.Profile
	profileAge    time.Time
	profileFlight singleflight.Group
}

// New builds a server and its routes. Nothing listens until Run or Start.
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Prefs == nil {
		opts.Prefs = site.NewMemoryPreferences()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	s := &Server{
		addr:       opts.Addr,
		holder:     opts.Holder,
		projects:   opts.Projects,
		prefs:      opts.Prefs,
		github:     opts.GitHub,
		githubUser: opts.GitHubUser,
		basePath:   opts.BasePath,
		pages:      site.DefaultPages(opts.GitHubUser),
		logger:     opts.Logger,
		metrics:    newMetrics(prometheus.NewRegistry()),
		shutdown:   opts.ShutdownTimeout,
		startTime:  time.Now(),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the gin engine, for embedding in other hosts such as the
// desktop shell's asset server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.observe())

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/nav", s.handleNav)
	api.GET("/profile", s.handleProfile)
	api.GET("/projects", s.handleProjects)
	api.GET("/projects/pie", s.handleProjectPie)
	api.GET("/theme", s.handleGetTheme)
	api.POST("/theme", s.handleSetTheme)

	api.GET("/commits", s.handleCommits)
	api.GET("/commits/filter", s.handleFilter)
	api.POST("/commits/select", s.handleSelect)
	api.GET("/commits/steps", s.handleSteps)
	api.GET("/commits/files", s.handleFiles)
	api.GET("/commits/:id/lines", s.handleLines)
	api.POST("/charts/scatter", s.handleScatter)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))
	r.NoRoute(s.serveStatic)
	return r
}

// Start begins serving HTTP requests in the background.
func (s *Server) Start() error {
	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.startTime = time.Now()
	s.logger.Info("listening", "addr", listener.Addr().String())

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", "err", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Run serves until ctx is canceled, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.logger.Info("shutting down")
	return s.Stop()
}
