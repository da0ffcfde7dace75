package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Field limits, in characters.
const (
	MaxGroupNameLength    = 100
	MaxIntroductionLength = 1000
	MaxNicknameLength     = 50
	MaxTitleLength        = 200
	MaxContentLength      = 10000
	MaxLocationLength     = 100
	MaxImageURLLength     = 2048
)

func requireText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return limitText(field, value, max)
}

func limitText(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s must not exceed %d characters", field, max)
	}
	return nil
}

// ValidateGroupName checks a group name.
func ValidateGroupName(name string) error {
	return requireText("name", name, MaxGroupNameLength)
}

// ValidateIntroduction checks an optional group introduction.
func ValidateIntroduction(intro string) error {
	return limitText("introduction", intro, MaxIntroductionLength)
}

// ValidateNickname checks a post or comment author nickname.
func ValidateNickname(nickname string) error {
	return requireText("nickname", nickname, MaxNicknameLength)
}

// ValidateTitle checks a post title.
func ValidateTitle(title string) error {
	return requireText("title", title, MaxTitleLength)
}

// ValidateContent checks post and comment bodies.
func ValidateContent(content string) error {
	return requireText("content", content, MaxContentLength)
}

// ValidateLocation checks an optional post location.
func ValidateLocation(location string) error {
	return limitText("location", location, MaxLocationLength)
}

// ValidateImageURL accepts an empty value, a site-relative path or an absolute http(s) URL.
func ValidateImageURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > MaxImageURLLength {
		return fmt.Errorf("imageUrl must not exceed %d characters", MaxImageURLLength)
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("imageUrl must be an http(s) URL or a site path")
	}
	return nil
}
