// Package site builds the navigation menu and stores per-visitor theme
// preferences.
package site

import (
	"net"
	"net/url"
	"strings"
)

// DefaultBase is the path prefix the site is published under.
const DefaultBase = "/portfolio/"

// Page is one navigation entry. URL is relative to the base path unless it
// is absolute.
type Page struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// DefaultPages lists the site's pages in menu order.
func DefaultPages(githubUser string) []Page {
	pages := []Page{
		{URL: "", Title: "Home"},
		{URL: "projects/", Title: "Projects"},
		{URL: "meta/", Title: "Meta"},
		{URL: "cv.html", Title: "CV"},
		{URL: "contact/", Title: "Contact"},
	}
	if githubUser != "" {
		pages = append(pages, Page{URL: "https://github.com/" + githubUser, Title: "GitHub"})
	}
	return pages
}

// Link is a rendered navigation entry.
type Link struct {
	Href    string `json:"href"`
	Title   string `json:"title"`
	Current bool   `json:"current"`
	// External links open in a new tab.
	External bool `json:"external"`
}

// BaseFor returns "/" when the site is served from localhost and the
// configured base otherwise. host may carry a port.
func BaseFor(host, configured string) string {
	if isLocal(host) {
		return "/"
	}
	if configured == "" {
		configured = DefaultBase
	}
	if !strings.HasPrefix(configured, "/") {
		configured = "/" + configured
	}
	if !strings.HasSuffix(configured, "/") {
		configured += "/"
	}
	return configured
}

func isLocal(host string) bool {
	name := hostname(host)
	return name == "localhost" || name == "127.0.0.1" || name == "::1"
}

func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}

// BuildNav renders pages for a visitor at currentHost/currentPath.
// Relative URLs are prefixed with base. A link is current when its host
// and path match the request, and external when its host differs.
func BuildNav(pages []Page, base, currentHost, currentPath string) []Link {
	links := make([]Link, 0, len(pages))
	for _, p := range pages {
		href := p.URL
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			href = base + strings.TrimPrefix(href, "/")
		}

		linkHost, linkPath := currentHost, href
		if u, err := url.Parse(href); err == nil && u.Host != "" {
			linkHost, linkPath = u.Host, u.Path
		}
		if linkPath == "" {
			linkPath = "/"
		}

		links = append(links, Link{
			Href:     href,
			Title:    p.Title,
			Current:  linkHost == currentHost && linkPath == currentPath,
			External: linkHost != currentHost,
		})
	}
	return links
}
