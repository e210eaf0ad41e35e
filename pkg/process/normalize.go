package process

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

func Normalize(url string) (string, error) {
	flags := purell.FlagLowercaseScheme |
		purell.FlagLowercaseHost |
		purell.FlagRemoveDefaultPort |
		purell.FlagRemoveFragment |
		purell.FlagDecodeUnnecessaryEscapes |
		purell.FlagSortQuery |
		purell.FlagRemoveDuplicateSlashes |
		purell.FlagRemoveDotSegments

	return purell.NormalizeURLString(url, flags)
}

// ResolveIndexURL turns a catalog href into the absolute, normalised URL of
// the session's XML vote index. The catalog links the HTML rendition, so a
// trailing .htm is rewritten to .xml.
func ResolveIndexURL(href, catalogURL string) (string, error) {
	base, err := url.Parse(catalogURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}

	abs, err := Normalize(base.ResolveReference(ref).String())
	if err != nil {
		return "", err
	}

	if strings.HasSuffix(abs, ".htm") {
		abs = strings.TrimSuffix(abs, ".htm") + ".xml"
	}
	return abs, nil
}
