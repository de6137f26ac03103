package version

import (
	"strings"
	"testing"
)

func TestUserAgentCarriesVersion(t *testing.T) {
	t.Parallel()

	ua := UserAgent()
	if !strings.HasPrefix(ua, "bookmind/") {
		t.Errorf("user agent %q must start with bookmind/", ua)
	}
	if !strings.HasSuffix(ua, Version) {
		t.Errorf("user agent %q must end with the version %q", ua, Version)
	}
}
