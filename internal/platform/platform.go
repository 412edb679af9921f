package platform

import (
	"net/url"
	"regexp"
	"strings"
)

// ID identifies one of the supported e-commerce platforms
type ID string

const (
	Shopee ID = "shopee"
	Momo   ID = "momo"
	PChome ID = "pchome"
)

// Supported lists the platforms in declaration order. Classification and
// default fetch order both follow this order.
var Supported = []ID{Shopee, Momo, PChome}

const (
	// defaultSearchPath is used when a rule has no SearchPath
	defaultSearchPath = "product/{keyword}"
	// UnknownID is the identifier of a link without path segments
	UnknownID = "unknown"
)

// IsSupported reports whether id is one of the supported platforms
func IsSupported(id ID) bool {
	for _, s := range Supported {
		if s == id {
			return true
		}
	}
	return false
}

// Names returns the supported identifiers as strings
func Names() []string {
	names := make([]string, len(Supported))
	for i, id := range Supported {
		names[i] = string(id)
	}
	return names
}

// Selectors contains CSS selectors for the product page
type Selectors struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Image string `json:"image"`
}

// Rule holds the static parsing configuration for one platform
type Rule struct {
	ID         ID        `json:"id"`
	Name       string    `json:"name"`
	Domain     string    `json:"domain"`
	URLPattern string    `json:"urlPattern"`
	SearchPath string    `json:"searchPath,omitempty"`
	Selectors  Selectors `json:"selectors"`

	// IDQueryParam names a query parameter holding the product id
	IDQueryParam string `json:"idQueryParam,omitempty"`
	// IDPattern narrows the last path segment to the product id. The first
	// capture group is used when present.
	IDPattern string `json:"idPattern,omitempty"`
}

// MatchesHost reports whether host contains the rule's domain, ignoring case
func (r Rule) MatchesHost(host string) bool {
	if r.Domain == "" {
		return false
	}
	return strings.Contains(strings.ToLower(host), strings.ToLower(r.Domain))
}

// SearchURL builds the platform URL used to look a product up by keyword
func (r Rule) SearchURL(keyword string) string {
	path := r.SearchPath
	if path == "" {
		path = defaultSearchPath
	}
	path = strings.ReplaceAll(path, "{keyword}", url.QueryEscape(keyword))
	return r.URLPattern + path
}

// ExtractID derives the product identifier from a product link. The last
// non-empty path segment is used unless IDQueryParam or IDPattern picks out
// a narrower value.
func (r Rule) ExtractID(u *url.URL) string {
	if r.IDQueryParam != "" {
		if v := strings.TrimSpace(u.Query().Get(r.IDQueryParam)); v != "" {
			return v
		}
	}

	segment := UnknownID
	parts := strings.Split(u.Path, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			segment = parts[i]
			break
		}
	}
	if segment == UnknownID || r.IDPattern == "" {
		return segment
	}

	re, err := regexp.Compile(r.IDPattern)
	if err != nil {
		return segment
	}
	match := re.FindStringSubmatch(segment)
	switch {
	case len(match) > 1 && match[1] != "":
		return match[1]
	case len(match) == 1:
		return match[0]
	default:
		return segment
	}
}
