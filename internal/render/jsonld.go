package render

import (
	"strings"
	"time"

	"github.com/dgallion1/articlepipe/internal/store"
)

// Site identifies the publisher in structured data and page chrome.
type Site struct {
	Name string
	URL  string
}

// ArticleURL is the canonical page URL for slug.
func (s Site) ArticleURL(slug string) string {
	return strings.TrimRight(s.URL, "/") + "/articles/" + slug
}

// BlogPosting is the schema.org JSON-LD payload embedded in article pages.
type BlogPosting struct {
	Context              string             `json:"@context"`
	Type                 string             `json:"@type"`
	Headline             string             `json:"headline"`
	Description          string             `json:"description,omitempty"`
	Image                string             `json:"image,omitempty"`
	URL                  string             `json:"url"`
	MainEntityOfPage     string             `json:"mainEntityOfPage"`
	DatePublished        string             `json:"datePublished,omitempty"`
	DateModified         string             `json:"dateModified,omitempty"`
	Author               *schemaThing       `json:"author,omitempty"`
	Publisher            schemaThing        `json:"publisher"`
	ArticleSection       string             `json:"articleSection,omitempty"`
	Keywords             string             `json:"keywords,omitempty"`
	WordCount            int                `json:"wordCount"`
	TimeRequired         string             `json:"timeRequired"`
	InteractionStatistic interactionCounter `json:"interactionStatistic"`
}

type schemaThing struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type interactionCounter struct {
	Type                 string `json:"@type"`
	InteractionType      string `json:"interactionType"`
	UserInteractionCount int64  `json:"userInteractionCount"`
}

// StructuredData builds the BlogPosting for a rendered article.
func StructuredData(site Site, a *store.Article, res *Result) BlogPosting {
	page := site.ArticleURL(a.Slug)
	bp := BlogPosting{
		Context:          "https://schema.org",
		Type:             "BlogPosting",
		Headline:         a.Title,
		Description:      a.Summary,
		Image:            absoluteURL(site, a.CoverURL),
		URL:              page,
		MainEntityOfPage: page,
		Publisher:        schemaThing{Type: "Organization", Name: site.Name, URL: site.URL},
		ArticleSection:   a.Category,
		Keywords:         strings.Join(a.Tags, ", "),
		WordCount:        res.Metrics.Words,
		TimeRequired:     res.Metrics.ISODuration(),
		InteractionStatistic: interactionCounter{
			Type:                 "InteractionCounter",
			InteractionType:      "https://schema.org/ReadAction",
			UserInteractionCount: a.ViewCount,
		},
	}
	if a.PublishedAt != nil {
		bp.DatePublished = a.PublishedAt.UTC().Format(time.RFC3339)
	}
	if !a.UpdatedAt.IsZero() {
		bp.DateModified = a.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if a.Author != "" {
		bp.Author = &schemaThing{Type: "Person", Name: a.Author}
	}
	return bp
}

func absoluteURL(site Site, u string) string {
	if strings.HasPrefix(u, "/") {
		return strings.TrimRight(site.URL, "/") + u
	}
	return u
}
