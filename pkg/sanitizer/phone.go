package sanitizer

import (
	"spadesk/pkg/locale"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone returns the E.164 form of phone, or "" when no supported
// region accepts it. Local numbers are read in region first.
func NormalizePhone(phone string, region string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}
	if region == "" {
		region = locale.DefaultRegion
	}

	for _, r := range locale.PhoneRegions(region) {
		parsedNumber, err := phonenumbers.Parse(phone, r)
		if err != nil || !phonenumbers.IsValidNumber(parsedNumber) {
			continue
		}
		return phonenumbers.Format(parsedNumber, phonenumbers.E164)
	}
	return ""
}
