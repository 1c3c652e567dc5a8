package platform

// Resolver dispatches URL classification over the ordered platform
// list. The order matters: more specific platforms come first and the
// generic fallback is always last.
type Resolver struct {
	platforms []Platform
	fallback  Platform
}

// NewResolver builds a resolver with the full platform registry.
func NewResolver() *Resolver {
	fallback := generic{}
	return &Resolver{
		platforms: []Platform{
			youtube{},
			tiktok{},
			twitter{},
			newDomainPlatform("Instagram", "instagram.com"),
			newDomainPlatform("Facebook", "facebook.com", "fb.watch"),
			newDomainPlatform("Vimeo", "vimeo.com"),
			newDomainPlatform("Dailymotion", "dailymotion.com"),
			newDomainPlatform("Twitch", "twitch.tv"),
			newDomainPlatform("Reddit", "reddit.com"),
			newDomainPlatform("Streamable", "streamable.com"),
			newDomainPlatform("Imgur", "imgur.com"),
			fallback,
		},
		fallback: fallback,
	}
}

// ForURL returns the first platform that matches the URL. The generic
// fallback guarantees a non-nil result.
func (r *Resolver) ForURL(url string) Platform {
	for _, p := range r.platforms {
		if p.MatchURL(url) {
			return p
		}
	}
	return r.fallback
}

// IsSupported reports whether a non-fallback platform matches the URL.
func (r *Resolver) IsSupported(url string) bool {
	for _, p := range r.platforms[:len(r.platforms)-1] {
		if p.MatchURL(url) {
			return true
		}
	}
	return false
}

// ExtractID returns the stable identifier for the URL, or "" when its
// platform offers none.
func (r *Resolver) ExtractID(url string) string {
	p := r.ForURL(url)
	if !p.SupportsIDExtraction() {
		return ""
	}
	return p.ExtractID(url)
}
