// Package useragent maps a raw User-Agent header to a coarse device and browser family.
//
// Matching is a case-sensitive substring test in a fixed precedence order.
// Browser tokens overlap (Chrome user agents also carry "Safari", Edge ones
// carry "Chrome"), so the order below is what disambiguates them and must not
// be rearranged.
package useragent

import "strings"

// DeviceFamily is the coarse device class of a client.
type DeviceFamily string

// Device families.
const (
	DeviceIPhone    DeviceFamily = "iPhone"
	DeviceIPad      DeviceFamily = "iPad"
	DeviceAndroid   DeviceFamily = "Android"
	DeviceMac       DeviceFamily = "Mac"
	DeviceWindowsPC DeviceFamily = "WindowsPC"
	DeviceLinux     DeviceFamily = "Linux"
	DeviceUnknown   DeviceFamily = "Unknown"
)

// BrowserFamily is the coarse browser class of a client.
type BrowserFamily string

// Browser families.
const (
	BrowserChrome  BrowserFamily = "Chrome"
	BrowserSafari  BrowserFamily = "Safari"
	BrowserFirefox BrowserFamily = "Firefox"
	BrowserEdge    BrowserFamily = "Edge"
	BrowserUnknown BrowserFamily = "Unknown"
)

// deviceRules is checked top to bottom; first match wins.
var deviceRules = []struct {
	token  string
	family DeviceFamily
}{
	{"iPhone", DeviceIPhone},
	{"iPad", DeviceIPad},
	{"Android", DeviceAndroid},
	{"Macintosh", DeviceMac},
	{"Windows", DeviceWindowsPC},
	{"Linux", DeviceLinux},
}

// Classify returns the device and browser family for a raw User-Agent value.
// It never fails: empty or unrecognised input yields Unknown for both.
func Classify(raw string) (DeviceFamily, BrowserFamily) {
	return Device(raw), Browser(raw)
}

// Device returns the device family for raw.
func Device(raw string) DeviceFamily {
	for _, rule := range deviceRules {
		if strings.Contains(raw, rule.token) {
			return rule.family
		}
	}
	return DeviceUnknown
}

// Browser returns the browser family for raw.
func Browser(raw string) BrowserFamily {
	hasChrome := strings.Contains(raw, "Chrome")
	hasEdge := strings.Contains(raw, "Edg")

	switch {
	case hasChrome && !hasEdge:
		return BrowserChrome
	case strings.Contains(raw, "Safari") && !hasChrome:
		return BrowserSafari
	case strings.Contains(raw, "Firefox"):
		return BrowserFirefox
	case hasEdge:
		return BrowserEdge
	default:
		return BrowserUnknown
	}
}

// Label returns the human-readable name shown on the control page.
func (d DeviceFamily) Label() string {
	if d == DeviceWindowsPC {
		return "Windows PC"
	}
	return string(d)
}

// Mobile reports whether the family is a phone or tablet.
func (d DeviceFamily) Mobile() bool {
	switch d {
	case DeviceIPhone, DeviceIPad, DeviceAndroid:
		return true
	default:
		return false
	}
}

// Icon returns the glyph the control page shows next to a client's address.
func (d DeviceFamily) Icon() string {
	switch {
	case d.Mobile():
		return "📱"
	case d == DeviceUnknown:
		return "🖥️"
	default:
		return "💻"
	}
}
