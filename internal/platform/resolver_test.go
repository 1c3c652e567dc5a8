package platform

import "testing"

func TestForURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "YouTube"},
		{"https://youtu.be/dQw4w9WgXcQ", "YouTube"},
		{"https://www.tiktok.com/@user/video/123", "TikTok"},
		{"https://twitter.com/someone/status/123456", "Twitter/X"},
		{"https://x.com/someone/status/123456", "Twitter/X"},
		{"https://www.instagram.com/reel/abc/", "Instagram"},
		{"https://fb.watch/abc123/", "Facebook"},
		{"https://vimeo.com/12345", "Vimeo"},
		{"https://www.dailymotion.com/video/x123", "Dailymotion"},
		{"https://www.twitch.tv/videos/123", "Twitch"},
		{"https://www.reddit.com/r/videos/comments/abc/", "Reddit"},
		{"https://streamable.com/abc", "Streamable"},
		{"https://imgur.com/gallery/abc", "Imgur"},
		{"https://example.com/video.mp4", "Video Platform"},
		{"not a url at all", "Video Platform"},
	}

	r := NewResolver()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			if got := r.ForURL(tt.url).Name(); got != tt.want {
				t.Fatalf("ForURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	if !r.IsSupported("https://vimeo.com/12345") {
		t.Fatal("vimeo should be supported")
	}
	if r.IsSupported("https://example.com/clip") {
		t.Fatal("unknown domain should fall through to the generic platform only")
	}
}

func TestYouTubeExtractID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=10s", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?si=xyz", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/live/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/playlist?list=PL123", ""},
	}

	r := NewResolver()
	for _, tt := range tests {
		if got := r.ExtractID(tt.url); got != tt.want {
			t.Fatalf("ExtractID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestReconstructRoundTrip(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	tests := []struct {
		url       string
		canonical string
	}{
		{
			url:       "https://youtu.be/dQw4w9WgXcQ",
			canonical: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			url:       "https://x.com/someone/status/1234567890",
			canonical: "https://twitter.com/i/web/status/1234567890",
		},
	}
	for _, tt := range tests {
		p := r.ForURL(tt.url)
		if !p.SupportsIDExtraction() {
			t.Fatalf("%s should support ID extraction", p.Name())
		}
		id := p.ExtractID(tt.url)
		if id == "" {
			t.Fatalf("no ID extracted from %q", tt.url)
		}
		if got := p.ReconstructURL(id); got != tt.canonical {
			t.Fatalf("ReconstructURL(%q) = %q, want %q", id, got, tt.canonical)
		}
		// The canonical form itself must round-trip to the same ID.
		if again := p.ExtractID(tt.canonical); again != id {
			t.Fatalf("canonical form re-extracts %q, want %q", again, id)
		}
	}
}

func TestNoIDPlatformsReturnEmpty(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	for _, url := range []string{
		"https://www.tiktok.com/@user/video/7299",
		"https://vimeo.com/12345",
		"https://example.com/thing",
	} {
		if id := r.ExtractID(url); id != "" {
			t.Fatalf("ExtractID(%q) = %q, want empty", url, id)
		}
	}
}
