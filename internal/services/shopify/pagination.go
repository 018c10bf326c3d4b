package shopify

import (
	"net/url"
	"strings"

	"github.com/tomnomnom/linkheader"
)

// nextPageInfo extracts the page_info cursor of the rel="next" entry of a
// Link header. An empty result means there is no next page.
func nextPageInfo(header string) string {
	if header == "" {
		return ""
	}

	for _, link := range linkheader.Parse(header) {
		if !hasRel(link.Rel, "next") {
			continue
		}
		u, err := url.Parse(link.URL)
		if err != nil {
			continue
		}
		if cursor := u.Query().Get("page_info"); cursor != "" {
			return cursor
		}
	}
	return ""
}

func hasRel(rels, want string) bool {
	for _, rel := range strings.Fields(rels) {
		if strings.EqualFold(strings.Trim(rel, `"`), want) {
			return true
		}
	}
	return false
}
