package timeline

import (
	"strings"
	"time"

	"github.com/McKael/madon/v3"
	"github.com/microcosm-cc/bluemonday"
	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/pkg/normalize"
)

// Normalizer turns remote statuses into Photo records.
type Normalizer struct {
	host   string
	policy *bluemonday.Policy
}

// NewNormalizer qualifies local account handles with host.
func NewNormalizer(host string) *Normalizer {
	return &Normalizer{
		host:   strings.ToLower(host),
		policy: bluemonday.UGCPolicy(),
	}
}

// Photo converts st using its first image attachment. It reports false
// when the status has no id or no image.
func (n *Normalizer) Photo(st madon.Status, fetchedAt time.Time) (domain.Photo, bool) {
	if st.Reblog != nil {
		st = *st.Reblog
	}
	if st.ID == "" {
		return domain.Photo{}, false
	}

	var image *madon.Attachment
	for i := range st.MediaAttachments {
		if st.MediaAttachments[i].Type == "image" {
			image = &st.MediaAttachments[i]
			break
		}
	}
	if image == nil {
		return domain.Photo{}, false
	}

	url := image.URL
	if url == "" && image.RemoteURL != nil {
		url = *image.RemoteURL
	}
	preview := image.PreviewURL
	if preview == "" {
		preview = url
	}

	rawTags := make([]string, 0, len(st.Tags))
	for _, t := range st.Tags {
		rawTags = append(rawTags, t.Name)
	}

	postURL := st.URL
	if postURL == "" {
		postURL = st.URI
	}

	return domain.Photo{
		StatusID:    string(st.ID),
		CreatedAt:   st.CreatedAt.UTC(),
		Author:      n.author(st.Account),
		CaptionHTML: n.policy.Sanitize(st.Content),
		PostURL:     postURL,
		Tags:        normalize.Tags(rawTags),
		URL:         url,
		PreviewURL:  preview,
		FetchedAt:   fetchedAt.UTC(),
	}, true
}

// Photos converts a page of statuses, dropping the ones without images.
func (n *Normalizer) Photos(statuses []madon.Status, fetchedAt time.Time) []domain.Photo {
	photos := make([]domain.Photo, 0, len(statuses))
	for _, st := range statuses {
		if p, ok := n.Photo(st, fetchedAt); ok {
			photos = append(photos, p)
		}
	}
	return photos
}

func (n *Normalizer) author(acc *madon.Account) domain.Author {
	if acc == nil {
		return domain.Author{}
	}
	handle := acc.Acct
	if handle != "" && !strings.Contains(handle, "@") && n.host != "" {
		handle += "@" + n.host
	}
	return domain.Author{
		ID:          string(acc.ID),
		Handle:      normalize.Handle(handle),
		Username:    acc.Username,
		DisplayName: acc.DisplayName,
		AvatarURL:   acc.Avatar,
	}
}
