package avito

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Listing URLs end in the item id: https://www.avito.ru/moskva/kvartiry/2-k._kvartira_54m_1234567890
var itemIDSuffix = regexp.MustCompile(`_(\d{6,})$`)

// ItemIDFromURL extracts the numeric item id from a listing link.
func ItemIDFromURL(link string) (int64, bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return 0, false
	}
	host := strings.ToLower(u.Hostname())
	if host != "avito.ru" && !strings.HasSuffix(host, ".avito.ru") {
		return 0, false
	}

	m := itemIDSuffix.FindStringSubmatch(strings.TrimRight(u.Path, "/"))
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
