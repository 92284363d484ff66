package site

import (
	"fmt"
	"strings"
)

// RobotRule groups the paths one user agent may or may not crawl.
type RobotRule struct {
	UserAgent string
	Allow     []string
	Disallow  []string
}

// Robots is a robots.txt file.
type Robots struct {
	Sitemaps []string
	Rules    []RobotRule
}

// String renders the file: sitemaps first, a blank line, then one group
// per rule.
func (r *Robots) String() string {
	var b strings.Builder
	for _, sm := range r.Sitemaps {
		fmt.Fprintf(&b, "Sitemap: %s\n", sm)
	}
	if len(r.Sitemaps) > 0 {
		b.WriteByte('\n')
	}
	for i, rule := range r.Rules {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "User-agent: %s\n", rule.UserAgent)
		for _, p := range rule.Disallow {
			fmt.Fprintf(&b, "Disallow: %s\n", p)
		}
		for _, p := range rule.Allow {
			fmt.Fprintf(&b, "Allow: %s\n", p)
		}
	}
	return b.String()
}
