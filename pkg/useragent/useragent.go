// Package useragent builds the User-Agent sent on outgoing HTTP requests.
//
// Spotify asks API consumers to identify themselves; every client in this
// module uses String() rather than a browser user agent.
package useragent

import (
	"fmt"
	"runtime"

	"github.com/toozej/moodlist/pkg/version"
)

// Product is the product token at the start of the user agent
const Product = "moodlist"

// String returns e.g. "moodlist/v1.2.3 (linux; amd64; +https://github.com/toozej/moodlist)"
func String() string {
	return Build(version.Version)
}

// Build returns the user agent for a given version
func Build(v string) string {
	if v == "" {
		v = "local"
	}
	return fmt.Sprintf("%s/%s (%s; %s; +https://github.com/toozej/moodlist)", Product, v, runtime.GOOS, runtime.GOARCH)
}
