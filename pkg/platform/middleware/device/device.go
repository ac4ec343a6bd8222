// Package device turns User-Agent strings into short labels shown on the
// operator profile page and recorded with each login.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// Label returns "<browser> on <os>", e.g. "Chrome on Intel Mac OS X 10_15_7".
// Empty input yields "Unknown Device".
func Label(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return unknownDevice
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OS()
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.Join(strings.Fields(browser+" on "+os), " ")
}

// IsMobile reports whether the agent looks like a phone or tablet. Mobile
// desks get the camera-capture flow by default.
func IsMobile(userAgent string) bool {
	if strings.TrimSpace(userAgent) == "" {
		return false
	}
	return useragent.New(userAgent).Mobile()
}
