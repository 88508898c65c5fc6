package locale

import (
	"strings"
)

const (
	DefaultRegion   = "TW"
	DefaultTimezone = "Asia/Taipei"
)

type Country struct {
	Code            string   // ISO 3166-1 alpha-2 country code (e.g., "TW", "JP")
	Name            string   // Human-readable country name
	PhonePrefixes   []string // Valid phone number prefixes (e.g., ["+886", "886"])
	DefaultTimezone string   // IANA timezone identifier (e.g., "Asia/Taipei")
}

var (
	Countries = map[string]Country{
		"TW": {
			Code:            "TW",
			Name:            "Taiwan",
			PhonePrefixes:   []string{"+886", "886"},
			DefaultTimezone: "Asia/Taipei",
		},
		"JP": {
			Code:            "JP",
			Name:            "Japan",
			PhonePrefixes:   []string{"+81", "81"},
			DefaultTimezone: "Asia/Tokyo",
		},
		"US": {
			Code:            "US",
			Name:            "United States",
			PhonePrefixes:   []string{"+1", "1"},
			DefaultTimezone: "America/New_York",
		},
	}

	TimeZoneTags = map[string][]string{
		"TW": {"Asia/Taipei", "ROC"},
		"JP": {"Asia/Tokyo", "Japan"},
		"US": {"America/New_York", "America/Los_Angeles", "US/Eastern", "US/Pacific"},
	}
)

// DetectRegion maps an IANA time zone to the region whose local phone numbers
// are parsed without a country prefix.
func DetectRegion(tz string) string {
	for region, zones := range TimeZoneTags {
		for _, z := range zones {
			if strings.EqualFold(tz, z) {
				return region
			}
		}
	}
	return DefaultRegion
}

// PhoneRegions lists the regions to try when parsing a phone number, primary
// region first.
func PhoneRegions(primary string) []string {
	regions := []string{primary}
	for _, code := range []string{"TW", "JP", "US"} {
		if code != primary {
			regions = append(regions, code)
		}
	}
	return regions
}
