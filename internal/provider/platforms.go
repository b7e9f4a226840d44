package provider

import (
	"net/url"
	"strings"
	"time"
)

// Platform is a social site probed for handle existence.
type Platform struct {
	Name     string
	Template string // URL with a {handle} placeholder
}

// URL renders the profile URL for a handle.
func (p Platform) URL(handle string) string {
	return strings.ReplaceAll(p.Template, "{handle}", url.PathEscape(handle))
}

// QueryURL renders the template with q escaped as a query value.
func (p Platform) QueryURL(q string) string {
	return strings.ReplaceAll(p.Template, "{handle}", url.QueryEscape(q))
}

// Descriptor returns the registry entry for the platform. Each platform is
// its own rate class so probes against unrelated sites can run in parallel.
func (p Platform) Descriptor() Descriptor {
	host := p.Template
	if u, err := url.Parse(strings.ReplaceAll(p.Template, "{handle}", "x")); err == nil {
		host = u.Host
	}
	return Descriptor{
		Name:         p.Name,
		Host:         host,
		Auth:         AuthNone,
		Tier:         TierFree,
		Capabilities: NewKindSet(KindHandle),
		Class:        "platform:" + strings.ToLower(p.Name),
		Timeout:      5 * time.Second,
	}
}

// Platforms is the default handle sweep.
var Platforms = []Platform{
	{Name: "Instagram", Template: "https://www.instagram.com/{handle}/"},
	{Name: "Twitter", Template: "https://twitter.com/{handle}"},
	{Name: "X", Template: "https://x.com/{handle}"},
	{Name: "Facebook", Template: "https://www.facebook.com/{handle}"},
	{Name: "GitHub", Template: "https://github.com/{handle}"},
	{Name: "Reddit", Template: "https://www.reddit.com/user/{handle}"},
	{Name: "TikTok", Template: "https://www.tiktok.com/@{handle}"},
	{Name: "LinkedIn", Template: "https://www.linkedin.com/in/{handle}"},
	{Name: "Pinterest", Template: "https://www.pinterest.com/{handle}/"},
	{Name: "YouTube", Template: "https://www.youtube.com/{handle}"},
	{Name: "Snapchat", Template: "https://www.snapchat.com/add/{handle}"},
	{Name: "Twitch", Template: "https://www.twitch.tv/{handle}"},
	{Name: "Discord", Template: "https://discord.com/users/{handle}"}, // profile URLs vary
	{Name: "Medium", Template: "https://medium.com/@{handle}"},
	{Name: "Dribbble", Template: "https://dribbble.com/{handle}"},
	{Name: "Behance", Template: "https://www.behance.net/{handle}"},
	{Name: "Flickr", Template: "https://www.flickr.com/people/{handle}/"},
	{Name: "SoundCloud", Template: "https://soundcloud.com/{handle}"},
	{Name: "Steam", Template: "https://steamcommunity.com/id/{handle}"},
	{Name: "Spotify", Template: "https://open.spotify.com/user/{handle}"},
	{Name: "GitLab", Template: "https://gitlab.com/{handle}"},
	{Name: "Vimeo", Template: "https://vimeo.com/{handle}"},
	{Name: "Patreon", Template: "https://www.patreon.com/{handle}"},
	{Name: "StackOverflow", Template: "https://stackoverflow.com/users/{handle}"},
	{Name: "Goodreads", Template: "https://www.goodreads.com/{handle}"},
	{Name: "Letterboxd", Template: "https://letterboxd.com/{handle}/"},
	{Name: "ProductHunt", Template: "https://www.producthunt.com/@{handle}"},
}

// DorkSites are searched for an email address with a site: restriction.
var DorkSites = []string{"pastebin.com", "github.com", "reddit.com"}

// SocialSearch holds search-page URL templates for an email address, rendered
// with QueryURL. The links are not verified.
var SocialSearch = []Platform{
	{Name: "GitHub", Template: "https://github.com/search?q={handle}"},
	{Name: "LinkedIn", Template: "https://www.linkedin.com/search/results/people/?keywords={handle}"},
	{Name: "Twitter", Template: "https://twitter.com/search?q={handle}"},
	{Name: "Facebook", Template: "https://www.facebook.com/search/top?q={handle}"},
}
