package domain

import (
	"strings"
	"time"
)

type Author struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// Photo is the stored metadata of one remote post, keyed by StatusID.
type Photo struct {
	StatusID    string    `json:"statusId"`
	CreatedAt   time.Time `json:"createdAt"`
	Author      Author    `json:"author"`
	CaptionHTML string    `json:"captionHtml"`
	PostURL     string    `json:"postUrl"`
	Tags        []string  `json:"tags"`
	URL         string    `json:"url"`
	PreviewURL  string    `json:"previewUrl"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// HasTag reports whether the photo carries tag, ignoring case.
func (p Photo) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// MatchesTags applies tagmode semantics: all requires every tag, any requires one.
// An empty tag list matches everything.
func (p Photo) MatchesTags(tags []string, mode TagMode) bool {
	if len(tags) == 0 {
		return true
	}
	if mode == TagModeAll {
		for _, t := range tags {
			if !p.HasTag(t) {
				return false
			}
		}
		return true
	}
	for _, t := range tags {
		if p.HasTag(t) {
			return true
		}
	}
	return false
}

type AlbumItem struct {
	AlbumID  string
	StatusID string
	AddedAt  time.Time
}

// CompareStatusIDs orders remote status ids. Mastodon ids are decimal
// snowflakes, so a longer numeric id is newer; other ids compare as strings.
func CompareStatusIDs(a, b string) int {
	if isDigits(a) && isDigits(b) {
		a = strings.TrimLeft(a, "0")
		b = strings.TrimLeft(b, "0")
		if len(a) != len(b) {
			if len(a) < len(b) {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
