// Package version holds build-time version information for the bookmind binary.
// The variables in this package are populated at build time via -ldflags:
//
//	go build -ldflags="-X github.com/bookmind-ai/bookmind-go/internal/version.Version=v1.2.3 \
//	                    -X github.com/bookmind-ai/bookmind-go/internal/version.Commit=abc1234 \
//	                    -X github.com/bookmind-ai/bookmind-go/internal/version.BuildDate=2026-01-01"
//
// When built without ldflags (e.g. `go run`), the values fall back to
// human-readable defaults so the binary is always usable.
package version

// Version is the semantic version of the binary (e.g. "v1.2.3").
// Set at build time via -ldflags. Defaults to "dev" for local builds.
var Version = "dev"

// Commit is the short git SHA of the commit the binary was built from.
// Set at build time via -ldflags. Defaults to "unknown".
var Commit = "unknown"

// BuildDate is the UTC date the binary was built (RFC3339 format).
// Set at build time via -ldflags. Defaults to "unknown".
var BuildDate = "unknown"

// UserAgent returns the User-Agent header bookmind sends on outbound HTTP
// requests (embedding calls, feed fetches), e.g. "bookmind/v1.2.3".
// Feed hosts throttle anonymous default agents, so every client identifies
// itself.
func UserAgent() string {
	return "bookmind/" + Version
}
