package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ogresolver/internal/fetch"
)

// imageMetaKeys are the property/name values that declare a preview image.
var imageMetaKeys = map[string]struct{}{
	"og:image":          {},
	"twitter:image":     {},
	"twitter:image:src": {},
}

// mediaLinkPatterns match direct links into known media CDNs.
var mediaLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://pbs\.twimg\.com/media/[^\s"'<>]+`),
}

// ExtractImage finds the preview image declared by html, resolved against
// baseURL. Meta tags win over a raw media link. When the value cannot be
// resolved it is returned as found.
func ExtractImage(html, baseURL string) (string, bool) {
	found := findMetaImage(html)
	if found == "" {
		found = FindMediaLink(html)
	}
	if found == "" {
		return "", false
	}

	abs, err := fetch.ResolveReference(baseURL, found)
	if err != nil {
		return found, true
	}
	return abs, true
}

// FindMediaLink returns the first direct media CDN link in text.
func FindMediaLink(text string) string {
	for _, re := range mediaLinkPatterns {
		if m := re.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

// findMetaImage returns the content of the first image meta tag in
// document order, whichever attribute comes first in the tag.
func findMetaImage(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !isImageMeta(s) {
			return true
		}
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return true
		}
		found = content
		return false
	})
	return found
}

func isImageMeta(s *goquery.Selection) bool {
	for _, attr := range []string{"property", "name"} {
		if v, ok := s.Attr(attr); ok {
			if _, match := imageMetaKeys[strings.ToLower(strings.TrimSpace(v))]; match {
				return true
			}
		}
	}
	return false
}
