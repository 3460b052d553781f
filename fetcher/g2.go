package fetcher

import (
	"fmt"
	"net/url"
	"strings"
)

// G2PageURL returns a PageURLFunc for the reviews of company on G2.
// company is the product slug used in G2 URLs, e.g. "notion".
func G2PageURL(baseURL, company string) PageURLFunc {
	base := strings.TrimRight(baseURL, "/")
	slug := url.PathEscape(strings.TrimSpace(company))
	return func(page int) string {
		return fmt.Sprintf("%s/products/%s/reviews?page=%d", base, slug, page)
	}
}
