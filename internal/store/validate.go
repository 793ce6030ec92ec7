package store

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrInvalid = errors.New("invalid article")

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every field problem of one article.
type ValidationError struct {
	Items []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Items) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Items))
	for i, item := range e.Items {
		parts[i] = item.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, msg string) {
	e.Items = append(e.Items, FieldError{Field: field, Message: msg})
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func (e ValidationError) HasAny() bool {
	return len(e.Items) > 0
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const (
	maxTitleLen   = 200
	maxSummaryLen = 500
	maxTags       = 10
)

// ValidateArticle returns a ValidationError, or nil when a is storable.
func ValidateArticle(a *Article) error {
	var verr ValidationError
	if a == nil {
		verr.Add("", "article is required")
		return verr
	}

	title := strings.TrimSpace(a.Title)
	switch {
	case title == "":
		verr.Add("title", "is required")
	case utf8.RuneCountInString(title) > maxTitleLen:
		verr.Add("title", fmt.Sprintf("must be at most %d characters", maxTitleLen))
	}
	if utf8.RuneCountInString(a.Summary) > maxSummaryLen {
		verr.Add("summary", fmt.Sprintf("must be at most %d characters", maxSummaryLen))
	}
	if !slugPattern.MatchString(a.Slug) {
		verr.Add("slug", "must be lowercase letters, digits and single hyphens")
	}
	switch a.Status {
	case StatusDraft, StatusPublished:
	default:
		verr.Add("status", fmt.Sprintf("must be %q or %q", StatusDraft, StatusPublished))
	}
	if len(a.Tags) > maxTags {
		verr.Add("tags", fmt.Sprintf("at most %d tags", maxTags))
	}
	for _, tag := range a.Tags {
		if strings.TrimSpace(tag) == "" {
			verr.Add("tags", "must not contain empty tags")
			break
		}
	}
	if a.CoverURL != "" {
		if u, err := url.Parse(a.CoverURL); err != nil || (u.Scheme != "http" && u.Scheme != "https" && !strings.HasPrefix(a.CoverURL, "/")) {
			verr.Add("cover_url", "must be an http(s) URL or an absolute path")
		}
	}

	if verr.HasAny() {
		return verr
	}
	return nil
}
