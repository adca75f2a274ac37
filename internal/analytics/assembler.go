// ABOUTME: Builds an Analytics snapshot by running every named aggregate concurrently.
// ABOUTME: Any failing aggregate fails the whole snapshot; no partial results are returned.
package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a whole assembly.
const DefaultTimeout = 10 * time.Second

// Source runs named aggregates. storage.Repository satisfies it.
type Source interface {
	Aggregate(ctx context.Context, name string, today time.Time) ([]storage.Row, error)
}

// Assembler fans out aggregate queries and joins them into one snapshot.
type Assembler struct {
	source  Source
	specs   []storage.AggregateSpec
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithTimeout bounds each Assemble call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(a *Assembler) { a.timeout = d }
}

// WithClock overrides how "today" is determined.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// WithMetrics enables prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(a *Assembler) { a.metrics = m }
}

// WithAggregates replaces the aggregate set.
func WithAggregates(specs []storage.AggregateSpec) Option {
	return func(a *Assembler) { a.specs = specs }
}

// NewAssembler creates an Assembler over source.
func NewAssembler(source Source, opts ...Option) *Assembler {
	a := &Assembler{
		source:  source,
		specs:   storage.Aggregates,
		timeout: DefaultTimeout,
		now:     models.Today,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer("github.com/harperreed/cledger/internal/analytics"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Today returns the calendar day the assembler evaluates aggregates for.
func (a *Assembler) Today() time.Time {
	return a.now()
}

// Assemble runs every aggregate and returns the combined snapshot.
func (a *Assembler) Assemble(ctx context.Context) (*models.Analytics, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	ctx, span := a.tracer.Start(ctx, "analytics.Assemble")
	defer span.End()

	today := a.now()
	results := make([][]storage.Row, len(a.specs))

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range a.specs {
		g.Go(func() error {
			rows, err := a.fetch(gctx, spec.Name, today)
			if err != nil {
				return fmt.Errorf("aggregate %s: %w", spec.Name, err)
			}
			results[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assemble analytics")
		a.logger.Warn("analytics assembly failed", zap.Error(err))
		return nil, err
	}

	raw := make(map[string]any, len(a.specs))
	for i, spec := range a.specs {
		key := camelCase(spec.Name)
		if !spec.Scalar {
			raw[key] = renameRows(results[i])
			continue
		}
		if len(results[i]) == 0 {
			return nil, fmt.Errorf("aggregate %s: no rows", spec.Name)
		}
		raw[key] = results[i][0][spec.Name]
	}

	out, err := decodeAnalytics(raw)
	if err != nil {
		return nil, err
	}
	out.LoadTrend = ClassifyLoadTrend(out.Loads())

	a.logger.Debug("analytics assembled",
		zap.String("today", models.FormatDate(today)),
		zap.Int("aggregates", len(a.specs)))
	return out, nil
}

func (a *Assembler) fetch(ctx context.Context, name string, today time.Time) ([]storage.Row, error) {
	ctx, span := a.tracer.Start(ctx, "analytics.aggregate",
		trace.WithAttributes(attribute.String("aggregate", name)))
	defer span.End()

	start := time.Now()
	rows, err := a.source.Aggregate(ctx, name, today)
	if a.metrics != nil {
		a.metrics.AggregateDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if a.metrics != nil {
			a.metrics.AggregateFailures.WithLabelValues(name).Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return rows, nil
}

// renameRows converts storage column names to camelCase keys. Values are untouched.
func renameRows(rows []storage.Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		m := make(map[string]any, len(row))
		for k, v := range row {
			m[camelCase(k)] = v
		}
		out[i] = m
	}
	return out
}

// camelCase turns week_start into weekStart and hard_sessions_last_7_days
// into hardSessionsLast7Days.
func camelCase(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

func decodeAnalytics(raw map[string]any) (*models.Analytics, error) {
	var out models.Analytics
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &out,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode analytics: %w", err)
	}

	if out.PainFlagsLast30Days == nil {
		out.PainFlagsLast30Days = []models.PainFlagCount{}
	}
	if out.WeeklySessionCounts == nil {
		out.WeeklySessionCounts = []models.WeeklySessionCount{}
	}
	if out.WeeklyTrainingLoad == nil {
		out.WeeklyTrainingLoad = []models.WeeklyTrainingLoad{}
	}
	if out.PerformanceTrend == nil {
		out.PerformanceTrend = []models.WeeklyTrend{}
	}
	if out.ProductivityTrend == nil {
		out.ProductivityTrend = []models.WeeklyTrend{}
	}
	return &out, nil
}
