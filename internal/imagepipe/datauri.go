// Package imagepipe turns inline SVG data URIs into hosted, minified images.
package imagepipe

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// SVGMediaType is the media type of SVG images.
const SVGMediaType = "image/svg+xml"

const svgDataPrefix = "data:" + SVGMediaType

// IsDataSVG reports whether s is an SVG data URI.
func IsDataSVG(s string) bool {
	return len(s) >= len(svgDataPrefix) && strings.EqualFold(s[:len(svgDataPrefix)], svgDataPrefix)
}

// DecodeDataURI returns the payload of a data URI. Both base64 and
// percent-encoded payloads are supported.
func DecodeDataURI(s string) ([]byte, error) {
	if len(s) < 5 || !strings.EqualFold(s[:5], "data:") {
		return nil, fmt.Errorf("not a data URI")
	}

	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return nil, fmt.Errorf("data URI missing payload separator")
	}
	header, payload := s[5:comma], s[comma+1:]

	isBase64 := false
	for _, param := range strings.Split(header, ";")[1:] {
		if strings.EqualFold(strings.TrimSpace(param), "base64") {
			isBase64 = true
		}
	}

	if isBase64 {
		// Some producers percent-encode the base64 alphabet.
		if unescaped, err := url.PathUnescape(payload); err == nil {
			payload = unescaped
		}
		payload = strings.TrimSpace(payload)
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
			if err != nil {
				return nil, fmt.Errorf("decode base64 payload: %w", err)
			}
		}
		return data, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode percent-encoded payload: %w", err)
	}
	return []byte(data), nil
}
