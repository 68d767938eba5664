package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Frank-Junran-Yang/portfolio/internal/chart"
	"github.com/Frank-Junran-Yang/portfolio/internal/commits"
	"github.com/Frank-Junran-Yang/portfolio/internal/dataset"
	"github.com/Frank-Junran-Yang/portfolio/internal/github"
	"github.com/Frank-Junran-Yang/portfolio/internal/projects"
	"github.com/Frank-Junran-Yang/portfolio/internal/render"
	"github.com/Frank-Junran-Yang/portfolio/internal/selection"
	"github.com/Frank-Junran-Yang/portfolio/internal/site"
	"github.com/Frank-Junran-Yang/portfolio/internal/timeline"
)

// visitorCookie identifies a browser for theme preferences.
const visitorCookie = "portfolio_visitor"

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	}
	snap, err := s.holder.Current()
	if err != nil {
		body["status"] = "degraded"
		body["error"] = err.Error()
		c.JSON(http.StatusOK, body)
		return
	}
	body["source"] = snap.Source
	body["records"] = len(snap.Records)
	body["commits"] = len(snap.Commits)
	body["loadedAt"] = snap.LoadedAt
	if snap.Result != nil {
		body["mismatches"] = snap.Result.Mismatches
	}
	if err := s.holder.LastError(); err != nil {
		body["reloadError"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleNav(c *gin.Context) {
	host := c.DefaultQuery("host", c.Request.Host)
	path := c.DefaultQuery("path", "/")
	base := site.BaseFor(host, s.basePath)
	c.JSON(http.StatusOK, gin.H{
		"base":  base,
		"links": site.BuildNav(s.pages, base, host, path),
	})
}

func (s *Server) handleProfile(c *gin.Context) {
	if s.githubUser == "" || s.github == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no github user configured"})
		return
	}

	s.profileMu.Lock()
	cached, age := s.profile, s.profileAge
	s.profileMu.Unlock()
	if cached != nil && time.Since(age) < profileTTL {
		c.JSON(http.StatusOK, cached)
		return
	}

	// Concurrent misses share one fetch. It outlives any single request, and
	// a caller that goes away stops waiting for it.
	ctx := context.WithoutCancel(c.Request.Context())
	ch := s.profileFlight.DoChan(s.githubUser, func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, profileFetchTimeout)
		defer cancel()
		p, err := s.github.FetchProfile(ctx, s.githubUser)
		if err != nil {
			return nil, err
		}
		s.profileMu.Lock()
		s.profile, s.profileAge = p, time.Now()
		s.profileMu.Unlock()
		return p, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			s.logger.Warn("github profile", "user", s.githubUser, "err", res.Err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch github profile"})
			return
		}
		c.JSON(http.StatusOK, res.Val.(*github.Profile))
	case <-c.Request.Context().Done():
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "github profile request canceled"})
	}
}

func (s *Server) handleProjects(c *gin.Context) {
	if raw := c.Query("latest"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "latest must be a non-negative integer"})
			return
		}
		latest := projects.Latest(s.projects, n)
		c.JSON(http.StatusOK, gin.H{"projects": latest, "title": projects.Title(len(latest))})
		return
	}
	c.JSON(http.StatusOK, projects.NewView(s.projects, c.Query("q"), c.Query("year")))
}

func (s *Server) handleProjectPie(c *gin.Context) {
	year := c.Query("year")
	if clicked := c.Query("toggle"); clicked != "" {
		year = projects.ToggleYear(year, clicked)
	}
	view := projects.NewView(s.projects, c.Query("q"), year)
	c.JSON(http.StatusOK, gin.H{
		"slices":   view.Slices,
		"selected": view.Selected,
		"title":    view.Title,
		"option":   render.Options(render.ProjectPie(view.Slices, view.Selected)),
	})
}

// visitor returns the visitor id, issuing a cookie on first contact.
func (s *Server) visitor(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookie); err == nil && id != "" {
		return id
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(visitorCookie, id, int((365 * 24 * time.Hour).Seconds()), "/", "", false, true)
	return id
}

func (s *Server) handleGetTheme(c *gin.Context) {
	scheme, err := s.prefs.Get(c.Request.Context(), s.visitor(c))
	if err != nil {
		s.logger.Warn("reading theme", "err", err)
		scheme = site.Automatic
	}
	c.JSON(http.StatusOK, gin.H{"scheme": scheme})
}

func (s *Server) handleSetTheme(c *gin.Context) {
	var req struct {
		Scheme string `json:"scheme"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	scheme, err := site.ParseScheme(req.Scheme)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.prefs.Set(c.Request.Context(), s.visitor(c), scheme); err != nil {
		s.logger.Error("saving theme", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save theme"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scheme": scheme})
}

// snapshot returns the current dataset or writes a 503 with the load error.
func (s *Server) snapshot(c *gin.Context) (*dataset.Snapshot, bool) {
	snap, err := s.holder.Current()
	if err != nil {
		status := http.StatusServiceUnavailable
		msg := err.Error()
		if errors.Is(err, dataset.ErrNoDataset) {
			msg = "dataset not loaded yet"
		}
		c.JSON(status, gin.H{"error": msg})
		return nil, false
	}
	return snap, true
}

// progressParam reads ?progress=, defaulting to the full timeline.
func progressParam(c *gin.Context) (float64, bool) {
	raw := strings.TrimSpace(c.Query("progress"))
	if raw == "" {
		return timeline.MaxProgress, true
	}
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "progress must be a number"})
		return 0, false
	}
	return p, true
}

func (s *Server) handleCommits(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	body := gin.H{"count": len(snap.Commits), "commits": snap.Commits}
	if min, max, ok := commits.Extent(snap.Commits); ok {
		body["extent"] = [2]time.Time{min, max}
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleFilter(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	p, ok := progressParam(c)
	if !ok {
		return
	}

	var st *chart.State
	s.metrics.timed("filter", func() {
		st = chart.NewState(snap.Commits, chart.Area{})
		st.SetProgress(p)
	})
	c.JSON(http.StatusOK, gin.H{
		"progress": st.Progress,
		"cutoff":   st.Cutoff,
		"count":    len(st.Visible),
		"visible":  st.Visible,
	})
}

// chartRequest is the body of the select and scatter endpoints.
type chartRequest struct {
	Progress *float64        `json:"progress"`
	Rect     *selection.Rect `json:"rect"`
	Area     *chart.Area     `json:"area"`
}

func (s *Server) chartState(c *gin.Context, snap *dataset.Snapshot) (*chart.State, bool) {
	var req chartRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return nil, false
		}
	}
	area := chart.Area{}
	if req.Area != nil {
		area = *req.Area
	}
	p := timeline.MaxProgress
	if req.Progress != nil {
		p = *req.Progress
	}

	st := chart.NewState(snap.Commits, area)
	st.SetProgress(p)
	st.SetBrush(req.Rect)
	return st, true
}

func (s *Server) handleSelect(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	st, ok := s.chartState(c, snap)
	if !ok {
		return
	}

	var res selection.Result
	s.metrics.timed("select", func() { res = st.Selection() })
	c.JSON(http.StatusOK, gin.H{
		"count":     res.Count,
		"label":     res.Label(),
		"selected":  res.Selected,
		"breakdown": res.Breakdown,
		"lines":     res.Breakdown.Format(),
	})
}

func (s *Server) handleSteps(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	steps := timeline.Steps(snap.Commits)
	if raw := c.Query("step"); raw != "" {
		i, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "step must be an integer"})
			return
		}
		cutoff, _ := timeline.CutoffAtStep(snap.Commits, i)
		cur, err := timeline.NewCursor(snap.Commits)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"steps":    steps,
			"cutoff":   cutoff,
			"progress": cur.Progress(cutoff),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"steps": steps})
}

func (s *Server) handleFiles(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	p, ok := progressParam(c)
	if !ok {
		return
	}
	visible := timeline.FilterByProgress(snap.Commits, p)
	c.JSON(http.StatusOK, gin.H{"files": chart.Files(visible)})
}

func (s *Server) handleLines(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	cm := commits.ByID(snap.Commits, c.Param("id"))
	if cm == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "commit not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"commit": cm,
		"files":  cm.Files(),
		"lines":  cm.Lines,
	})
}

func (s *Server) handleScatter(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	st, ok := s.chartState(c, snap)
	if !ok {
		return
	}

	var scatter, bar map[string]interface{}
	var res selection.Result
	s.metrics.timed("scatter", func() {
		res = st.Selection()
		scatter = render.Options(render.Scatter(st))
		bar = render.Options(render.BreakdownBar(res.Breakdown))
	})
	c.JSON(http.StatusOK, gin.H{
		"label":     res.Label(),
		"progress":  st.Progress,
		"cutoff":    st.Cutoff,
		"scatter":   scatter,
		"breakdown": bar,
	})
}
