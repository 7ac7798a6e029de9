// Package frontend models the magazine page's interaction layer and renders the
// browser script that implements it. The Go side owns every constant and decision
// (thresholds, whitelists, messages, rotation), so the script and its tests agree.
package frontend

import (
	"regexp"
	"strings"
	"time"

	"github.com/luxequeer/deployer/internal/content"
)

const (
	// ScrollThreshold is the vertical offset in pixels past which the header collapses.
	ScrollThreshold = 50
	// HeaderOffset is subtracted from an anchor target so it clears the fixed header.
	HeaderOffset = 80
	// QuoteInterval is how often the banner quotation changes.
	QuoteInterval = 8 * time.Second
	// QuoteFade is the cross-fade duration of the banner quotation.
	QuoteFade = 500 * time.Millisecond
	// ModalFade is the modal show/hide transition.
	ModalFade = 300 * time.Millisecond

	// ScrolledClass is toggled on the header past ScrollThreshold.
	ScrolledClass = "header--scrolled"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailPattern is the newsletter validation expression, shared with the browser script.
func EmailPattern() string { return emailPattern.String() }

// ValidEmail reports whether s (after trimming) has the shape local@domain.tld.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && emailPattern.MatchString(s)
}

// HeaderCollapsed reports whether the header is in its collapsed style at scrollY.
func HeaderCollapsed(scrollY float64) bool {
	return scrollY > ScrollThreshold
}

// AnchorScrollTop is where the viewport scrolls for an in-page target at offsetTop.
func AnchorScrollTop(offsetTop float64) float64 {
	return offsetTop - HeaderOffset
}

// InterceptsPlaceholder reports whether a link is routed to a placeholder message
// instead of navigating.
func InterceptsPlaceholder(href string, classes ...string) bool {
	for _, c := range classes {
		if c == "feature-link" {
			return true
		}
	}
	return strings.Contains(href, "features/") || href == "octavia.html" || href == "subscribe.html"
}

// PageToken extracts the page name used to pick a placeholder message.
func PageToken(href string) string {
	return strings.Replace(href[strings.LastIndex(href, "/")+1:], ".html", "", 1)
}

// PlaceholderMessage returns the message shown for an intercepted link.
func PlaceholderMessage(c *content.Catalog, href string) string {
	if msg, ok := c.Placeholders.Pages[PageToken(href)]; ok {
		return msg
	}
	return c.Placeholders.ComingSoon
}

// SocialMessage returns the message for a recognised social link.
func SocialMessage(c *content.Catalog, href string) (string, bool) {
	for _, p := range c.Social.Platforms {
		if strings.HasPrefix(href, p.Prefix) {
			return strings.Replace(c.Social.Message, "%s", p.Name, 1), true
		}
	}
	return "", false
}

// LinkMessage resolves the message for any intercepted link: social, mailto, or placeholder.
func LinkMessage(c *content.Catalog, href string, classes ...string) (string, bool) {
	if msg, ok := SocialMessage(c, href); ok {
		return msg, true
	}
	if strings.HasPrefix(href, "mailto:") {
		return c.Social.Contact, true
	}
	if InterceptsPlaceholder(href, classes...) {
		return PlaceholderMessage(c, href), true
	}
	return "", false
}

// NewsletterMessage is the modal text after a newsletter submission.
func NewsletterMessage(c *content.Catalog, email string) string {
	if ValidEmail(email) {
		return c.Newsletter.Success
	}
	return c.Newsletter.Invalid
}

// HoverTransform returns the CSS transform for a blue lipstick element.
func HoverTransform(class string, hovering bool) string {
	switch class {
	case "blue-lipstick-mark":
		if hovering {
			return "rotate(30deg) scale(1.1)"
		}
		return "rotate(15deg)"
	case "blue-lipstick-accent":
		if hovering {
			return "scaleX(1.2)"
		}
		return "scaleX(1)"
	}
	return ""
}
