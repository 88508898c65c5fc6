package testutil

import (
	"time"

	"spadesk/pkg/config"
	"spadesk/pkg/logger"
)

// Taipei is the business time zone used by service tests. It is fixed so
// tests do not depend on the host's zoneinfo.
var Taipei = time.FixedZone("CST", 8*60*60)

// Config returns a configuration with the default membership policy and a
// silent logger.
func Config() *config.Config {
	return &config.Config{
		Location:         Taipei,
		BusinessTimezone: "Asia/Taipei",
		PhoneRegion:      "TW",
		Policy:           config.DefaultMembershipPolicy(),
		ReadTimeout:      time.Second,
		WriteTimeout:     time.Second,
		Log:              logger.Nop(),
	}
}
