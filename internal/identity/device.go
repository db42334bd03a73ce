package identity

import (
	"strings"

	"github.com/mssola/useragent"
)

// DescribeDevice turns a raw User-Agent header into a short human-readable
// device name ("Chrome on Mac OS X") for login logs and audit trails. The
// raw header is never stored.
func DescribeDevice(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name
	if os == "" {
		os = ua.Platform()
	}

	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return "Unknown Browser on " + os
	default:
		return "Unknown Device"
	}
}
