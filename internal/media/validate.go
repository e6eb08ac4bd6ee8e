package media

import "strings"

// supportedHosts is the coarse allow-list of video platforms. Substring
// matching against the lowered URL is intentional: false negatives for hosts
// not listed here are expected, this is not a correctness check.
var supportedHosts = []string{
	"youtube.com",
	"youtu.be",
	"vimeo.com",
	"dailymotion.com",
	"twitch.tv",
}

// IsSupportedURL reports whether the URL belongs to a supported video
// platform. Empty and whitespace-only input is rejected.
func IsSupportedURL(url string) bool {
	if strings.TrimSpace(url) == "" {
		return false
	}
	lower := strings.ToLower(url)
	for _, host := range supportedHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}
