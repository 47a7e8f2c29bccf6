package event

import (
	"net/url"
	"regexp"
	"strings"
)

var imageExt = regexp.MustCompile(`(?i)\.(jpeg|jpg|gif|png|webp|svg|bmp|tiff?)$`)

// ImageURLValidator accepts upload-host URLs and anything that looks like an
// image file.
type ImageURLValidator struct {
	hosts map[string]struct{}
}

func NewImageURLValidator(allowedHosts []string) *ImageURLValidator {
	hosts := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		hosts[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	return &ImageURLValidator{hosts: hosts}
}

func (v *ImageURLValidator) Valid(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if _, ok := v.hosts[strings.ToLower(u.Hostname())]; ok {
		return true
	}
	return imageExt.MatchString(u.Path)
}
