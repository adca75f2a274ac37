// ABOUTME: Ledger abstracts where MCP tools read and write training data.
// ABOUTME: The local ledger uses storage directly; the API client serves remote mode.
package mcp

import (
	"context"

	"github.com/harperreed/cledger/internal/analytics"
	"github.com/harperreed/cledger/internal/client"
	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
)

// Ledger is the data surface the MCP tools and resources need.
type Ledger interface {
	ListSessions(ctx context.Context, f storage.SessionFilter) ([]*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	CreateSession(ctx context.Context, in models.SessionInput) (*models.Session, error)
	UpdateSession(ctx context.Context, id string, in models.SessionInput) (*models.Session, error)
	ListInjuries(ctx context.Context, f storage.SessionFilter) ([]analytics.InjuryEntry, error)
	Analytics(ctx context.Context) (*models.Analytics, error)
	Summary(ctx context.Context) (*analytics.TrainingSummary, error)
	ListInsights(ctx context.Context) ([]*models.Insight, error)
	CreateInsight(ctx context.Context, in models.InsightInput) (*models.Insight, error)
	UpdateInsight(ctx context.Context, id string, in models.InsightInput) (*models.Insight, error)
}

var (
	_ Ledger = (*LocalLedger)(nil)
	_ Ledger = (*client.Client)(nil)
)

// LocalLedger serves the tools from a repository in this process.
type LocalLedger struct {
	repo      storage.Repository
	assembler *analytics.Assembler
}

// NewLocalLedger creates a LocalLedger.
func NewLocalLedger(repo storage.Repository, assembler *analytics.Assembler) *LocalLedger {
	return &LocalLedger{repo: repo, assembler: assembler}
}

func (l *LocalLedger) ListSessions(ctx context.Context, f storage.SessionFilter) ([]*models.Session, error) {
	return l.repo.ListSessions(ctx, f)
}

func (l *LocalLedger) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return l.repo.GetSession(ctx, id)
}

func (l *LocalLedger) CreateSession(ctx context.Context, in models.SessionInput) (*models.Session, error) {
	s, err := models.NewSessionFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := l.repo.CreateSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (l *LocalLedger) UpdateSession(ctx context.Context, id string, in models.SessionInput) (*models.Session, error) {
	s, err := l.repo.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.Apply(s); err != nil {
		return nil, err
	}
	if err := l.repo.UpdateSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (l *LocalLedger) ListInjuries(ctx context.Context, f storage.SessionFilter) ([]analytics.InjuryEntry, error) {
	f.Limit = 0
	sessions, err := l.repo.ListSessions(ctx, f)
	if err != nil {
		return nil, err
	}
	return analytics.FlattenInjuries(sessions), nil
}

func (l *LocalLedger) Analytics(ctx context.Context) (*models.Analytics, error) {
	return l.assembler.Assemble(ctx)
}

func (l *LocalLedger) Summary(ctx context.Context) (*analytics.TrainingSummary, error) {
	return analytics.Summarize(ctx, l.repo, l.assembler)
}

func (l *LocalLedger) ListInsights(ctx context.Context) ([]*models.Insight, error) {
	return l.repo.ListInsights(ctx)
}

func (l *LocalLedger) CreateInsight(ctx context.Context, in models.InsightInput) (*models.Insight, error) {
	i := models.NewInsight(in.Content).WithPinned(in.Pinned)
	if err := l.repo.CreateInsight(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (l *LocalLedger) UpdateInsight(ctx context.Context, id string, in models.InsightInput) (*models.Insight, error) {
	i, err := l.repo.GetInsight(ctx, id)
	if err != nil {
		return nil, err
	}
	i.Content = in.Content
	i.Pinned = in.Pinned
	if err := l.repo.UpdateInsight(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}
