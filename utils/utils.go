package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

func hexToken(n int) string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:n])
}

// GenerateReferralCode returns "GA" followed by 8 upper-case hex characters.
func GenerateReferralCode() string {
	return "GA" + hexToken(8)
}

// GenerateCertificateNumber returns "GA-<year>-<8 hex>".
func GenerateCertificateNumber(issuedAt time.Time) string {
	return fmt.Sprintf("GA-%d-%s", issuedAt.Year(), hexToken(8))
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases title and joins its words with dashes.
func Slugify(title string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "program"
	}
	return s
}

// Pagination normalizes page/limit query values.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return Pagination{Page: page, Limit: limit}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta builds the pagination block returned with list responses.
func (p Pagination) Meta(total int64) map[string]interface{} {
	pages := int64(0)
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return map[string]interface{}{
		"page":        p.Page,
		"limit":       p.Limit,
		"total":       total,
		"total_pages": pages,
	}
}

// RenderPlaceholders replaces {{key}} markers with values.
func RenderPlaceholders(text string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
