// Package platform classifies media URLs by source platform and, for
// platforms with stable addressing schemes, extracts and reconstructs
// short canonical identifiers. Matching is pure string work; nothing
// here touches the network.
package platform

import (
	"fmt"
	"regexp"
	"strings"
)

// Platform describes one source platform's URL capabilities.
type Platform interface {
	// Name returns the display name of the platform.
	Name() string
	// MatchURL reports whether this platform can handle the URL.
	MatchURL(url string) bool
	// ExtractID extracts the platform-specific ID from the URL, or ""
	// when the URL carries no stable identifier.
	ExtractID(url string) string
	// ReconstructURL rebuilds the canonical URL from a platform ID.
	// Must only be called when SupportsIDExtraction reports true.
	ReconstructURL(id string) string
	// SupportsIDExtraction reports whether ExtractID can yield a
	// reversible identifier for this platform.
	SupportsIDExtraction() bool
}

// domainPlatform covers platforms that are recognized by domain alone
// and offer no ID extraction.
type domainPlatform struct {
	name    string
	pattern *regexp.Regexp
}

func newDomainPlatform(name string, domains ...string) *domainPlatform {
	escaped := make([]string, len(domains))
	for i, d := range domains {
		escaped[i] = regexp.QuoteMeta(d)
	}
	pattern := regexp.MustCompile(
		`(?i)^(https?://)?(www\.)?(` + strings.Join(escaped, "|") + `)/.+$`,
	)
	return &domainPlatform{name: name, pattern: pattern}
}

func (p *domainPlatform) Name() string                { return p.name }
func (p *domainPlatform) MatchURL(url string) bool    { return p.pattern.MatchString(url) }
func (p *domainPlatform) ExtractID(string) string     { return "" }
func (p *domainPlatform) ReconstructURL(id string) string {
	return id
}
func (p *domainPlatform) SupportsIDExtraction() bool { return false }

// youtube recognizes youtube.com and youtu.be and extracts the 11-char
// video ID from watch, embed, shorts, live and attribution URLs.
type youtube struct{}

var (
	youtubeMatch = regexp.MustCompile(`(?i)^(https?://)?(www\.)?(youtube\.com|youtu\.?be)/.+$`)
	youtubeIDRes = []*regexp.Regexp{
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/(?:watch\?v=|embed/|shorts/|live/|v/|attribution_link\?a=.*&u=/watch\?v%3D)([0-9A-Za-z_-]{11})(?:[?&]|$)`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtu\.be/([0-9A-Za-z_-]{11})(?:[?&]|$)`),
	}
)

func (youtube) Name() string             { return "YouTube" }
func (youtube) MatchURL(url string) bool { return youtubeMatch.MatchString(url) }

func (youtube) ExtractID(url string) string {
	for _, re := range youtubeIDRes {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

func (youtube) ReconstructURL(id string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", id)
}

func (youtube) SupportsIDExtraction() bool { return true }

// twitter recognizes twitter.com and x.com status URLs and extracts the
// numeric tweet ID.
type twitter struct{}

var (
	twitterMatch = regexp.MustCompile(`(?i)^(https?://)?(www\.)?(twitter\.com|x\.com)/.+$`)
	twitterIDRes = []*regexp.Regexp{
		regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:twitter\.com|x\.com)/\w+/status/(\d+)`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:twitter\.com|x\.com)/i/web/status/(\d+)`),
	}
)

func (twitter) Name() string             { return "Twitter/X" }
func (twitter) MatchURL(url string) bool { return twitterMatch.MatchString(url) }

func (twitter) ExtractID(url string) string {
	for _, re := range twitterIDRes {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

func (twitter) ReconstructURL(id string) string {
	return fmt.Sprintf("https://twitter.com/i/web/status/%s", id)
}

func (twitter) SupportsIDExtraction() bool { return true }

// tiktok matches tiktok.com URLs. IDs are not extracted: short-link and
// username forms make reconstruction unreliable.
type tiktok struct{}

var tiktokMatch = regexp.MustCompile(`(?i)^(https?://)?(www\.)?tiktok\.com/.+$`)

func (tiktok) Name() string                 { return "TikTok" }
func (tiktok) MatchURL(url string) bool     { return tiktokMatch.MatchString(url) }
func (tiktok) ExtractID(string) string      { return "" }
func (tiktok) ReconstructURL(id string) string {
	return id
}
func (tiktok) SupportsIDExtraction() bool { return false }

// generic is the fallback platform; it matches every URL.
type generic struct{}

func (generic) Name() string                 { return "Video Platform" }
func (generic) MatchURL(string) bool         { return true }
func (generic) ExtractID(string) string      { return "" }
func (generic) ReconstructURL(id string) string {
	return id
}
func (generic) SupportsIDExtraction() bool { return false }
