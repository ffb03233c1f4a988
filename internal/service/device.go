package service

import "strings"

// DeviceInfo carries the request metadata recorded on a session. It is
// informational only and never feeds security decisions.
type DeviceInfo struct {
	UserAgent string
	IP        string
}

type deviceClass struct {
	Browser    string
	OS         string
	DeviceType string
}

// classifyDevice does a coarse substring classification of the user
// agent, enough for a "manage devices" listing.
func classifyDevice(userAgent string) deviceClass {
	ua := strings.ToLower(userAgent)
	c := deviceClass{Browser: "unknown", OS: "unknown", DeviceType: "desktop"}

	switch {
	case strings.Contains(ua, "edg/"):
		c.Browser = "edge"
	case strings.Contains(ua, "firefox"):
		c.Browser = "firefox"
	case strings.Contains(ua, "chrome"):
		c.Browser = "chrome"
	case strings.Contains(ua, "safari"):
		c.Browser = "safari"
	}

	switch {
	case strings.Contains(ua, "android"):
		c.OS = "android"
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"):
		c.OS = "ios"
	case strings.Contains(ua, "windows"):
		c.OS = "windows"
	case strings.Contains(ua, "mac os"):
		c.OS = "macos"
	case strings.Contains(ua, "linux"):
		c.OS = "linux"
	}

	if strings.Contains(ua, "mobile") || c.OS == "android" || c.OS == "ios" {
		c.DeviceType = "mobile"
	}
	if ua == "" {
		c.DeviceType = "unknown"
	}
	return c
}
