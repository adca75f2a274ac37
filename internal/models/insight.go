// ABOUTME: Insight model for free-text coaching notes.
// ABOUTME: Insights are independent of sessions and sort pinned-first.
package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Insight is a coach or athlete note not tied to a single session.
type Insight struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	Content   string    `json:"content" yaml:"content"`
	Pinned    bool      `json:"pinned" yaml:"pinned"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// NewInsight creates an insight with a generated UUID and current timestamps.
func NewInsight(content string) *Insight {
	now := time.Now().UTC()
	return &Insight{
		ID:        uuid.New(),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithPinned sets the pinned flag.
func (i *Insight) WithPinned(pinned bool) *Insight {
	i.Pinned = pinned
	return i
}

// Validate rejects empty content.
func (i *Insight) Validate() error {
	if strings.TrimSpace(i.Content) == "" {
		return fmt.Errorf("%w: insight content must not be empty", ErrInvalid)
	}
	return nil
}

// SortInsights orders insights pinned-first, then most recently updated.
func SortInsights(insights []*Insight) {
	sort.SliceStable(insights, func(a, b int) bool {
		if insights[a].Pinned != insights[b].Pinned {
			return insights[a].Pinned
		}
		return insights[a].UpdatedAt.After(insights[b].UpdatedAt)
	})
}
