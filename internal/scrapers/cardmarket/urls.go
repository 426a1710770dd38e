package cardmarket

import (
	"fmt"
	"net/url"
	"strings"
)

const DefaultBaseURL = "https://www.cardmarket.com"

// endpoints builds every page url of one game's catalogue.
type endpoints struct {
	base string
	game Game
}

func newEndpoints(base string, game Game) endpoints {
	return endpoints{base: strings.TrimSuffix(base, "/"), game: game}
}

func (e endpoints) landing() string {
	return fmt.Sprintf("%s/en/%s", e.base, e.game)
}

// referalPage is the site-relative landing path the login form redirects to.
func (e endpoints) referalPage() string {
	return fmt.Sprintf("/en/%s", e.game)
}

func (e endpoints) login() string       { return e.landing() + "/PostGetAction/User_Login" }
func (e endpoints) singles() string     { return e.landing() + "/Products/Singles" }
func (e endpoints) stock() string       { return e.landing() + "/Stock" }
func (e endpoints) stockOffers() string { return e.stock() + "/Offers" }
func (e endpoints) sales() string       { return e.landing() + "/Orders/Sales" }
func (e endpoints) purchases() string   { return e.landing() + "/Orders/Purchases" }
func (e endpoints) messages() string    { return e.landing() + "/Account/Messages" }

func (e endpoints) search(term string) string {
	return fmt.Sprintf("%s?searchString=%s", e.singles(), url.QueryEscape(term))
}

// absolute turns a site-relative path into a full url, full urls are kept as is.
func (e endpoints) absolute(ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref
	case strings.HasPrefix(ref, "/"):
		return e.base + ref
	default:
		return e.base + "/" + ref
	}
}

// withFilters appends the query parameters of the filters that are set, ok is
// false (and cardURL returned as is) when none are.
func withFilters(cardURL string, f CardFilters) (filtered string, ok bool) {
	params := []string{}
	if f.Language != "" {
		params = append(params, "language="+url.QueryEscape(f.Language))
	}
	if f.Condition != "" {
		params = append(params, "minCondition="+url.QueryEscape(f.Condition))
	}
	if f.Foil != "" {
		params = append(params, "isFoil="+url.QueryEscape(f.Foil))
	}
	if len(params) == 0 {
		return cardURL, false
	}

	sep := "?"
	if strings.Contains(cardURL, "?") {
		sep = "&"
	}
	return cardURL + sep + strings.Join(params, "&"), true
}

// setFromPath derives the expansion name from a product path, the segment
// right before the card slug: ".../Singles/Alpha/Black-Lotus" gives "Alpha".
func setFromPath(ref string) string {
	if parsed, err := url.Parse(ref); err == nil {
		ref = parsed.Path
	}
	parts := strings.Split(strings.TrimSuffix(ref, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return strings.ReplaceAll(parts[len(parts)-2], "-", " ")
}

// AbsoluteURL resolves a site-relative card path against base.
func AbsoluteURL(base, ref string) string {
	return newEndpoints(base, "").absolute(ref)
}

// SetFromURL derives the expansion name from a card url.
func SetFromURL(cardURL string) string {
	return setFromPath(cardURL)
}
