package media

import "testing"

func TestIsSupportedURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"empty", "", false},
		{"whitespace only", "   \t", false},
		{"unknown host", "https://example.com/watch?v=abc", false},
		{"lookalike host", "https://nottube.example/video", false},
		{"youtube", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"youtube short link", "https://youtu.be/dQw4w9WgXcQ", true},
		{"vimeo", "https://vimeo.com/123456789", true},
		{"dailymotion", "https://www.dailymotion.com/video/x7tgad0", true},
		{"twitch", "https://www.twitch.tv/videos/123456", true},
		{"mixed case", "https://WWW.YouTube.COM/watch?v=abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSupportedURL(tt.url); got != tt.want {
				t.Errorf("IsSupportedURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
