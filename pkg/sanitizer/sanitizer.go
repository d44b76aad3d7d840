package sanitizer

import (
	"net/url"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// CollapseSpaces trims s and folds every run of whitespace into one space.
func CollapseSpaces(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	lastWasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}
	return b.String()
}

func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func NormalizeName(name string) string {
	return Pipeline{CollapseSpaces, dropControl}.Apply(name)
}

// NormalizeRoomType keeps the caller's casing; lookups match room types
// case-insensitively.
func NormalizeRoomType(roomType string) string {
	return Pipeline{CollapseSpaces, dropControl}.Apply(roomType)
}

func NormalizeDescription(description string) string {
	return strings.TrimSpace(description)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeURL trims the URL, defaults the scheme to https and strips utm_
// tracking parameters. It returns "" for input that cannot be a URL.
func NormalizeURL(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	lowered := strings.ToLower(s)
	if !strings.HasPrefix(lowered, "http://") && !strings.HasPrefix(lowered, "https://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	q := u.Query()
	for key := range q {
		if strings.HasPrefix(strings.ToLower(key), "utm_") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}
