// Package report implements the catalog report pipeline: resolve the live
// catalogs (cache or fetch), filter them, enrich each surviving stream with
// EPG and probe data, and assemble display-ready rows.
package report

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xtreamctl/xtreamctl/internal/cachestore"
	"github.com/xtreamctl/xtreamctl/internal/ffprobe"
	"github.com/xtreamctl/xtreamctl/pkg/xtream"
)

// Cache data types for the two live catalogs.
const (
	DataTypeLiveCategories = "live_categories"
	DataTypeLiveStreams    = "live_streams"
)

// Options configures an Assembler.
type Options struct {
	Client *xtream.Client

	// Cache is the day-scoped catalog cache. Nil disables caching.
	Cache *cachestore.Store

	// Server keys cache entries; typically the provider host.
	Server string

	// Prober enriches rows with stream details. Nil disables probing.
	Prober *ffprobe.Prober

	// Category and Channel are the optional substring filters.
	Category string
	Channel  string

	// CheckEPG enables per-stream EPG entry counting.
	CheckEPG bool

	// Concurrency bounds the enrichment worker pool. Values below 1 are
	// treated as 1, which processes rows strictly in sequence.
	Concurrency int

	// RequestInterval paces enrichment requests against the provider.
	// Zero disables pacing.
	RequestInterval time.Duration

	// NameWidth and CategoryWidth are display truncation limits.
	NameWidth     int
	CategoryWidth int

	Logger *slog.Logger
}

// Assembler runs the report pipeline. Each Run is a pure resolve, filter,
// enrich, assemble pass with no state carried between runs.
type Assembler struct {
	opts    Options
	logger  *slog.Logger
	limiter *rate.Limiter
}

// NewAssembler creates an Assembler.
func NewAssembler(opts Options) *Assembler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if opts.RequestInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.RequestInterval), 1)
	}

	return &Assembler{
		opts:    opts,
		logger:  logger,
		limiter: limiter,
	}
}

// Run executes the pipeline and returns the assembled rows in filter order.
// A top-level catalog fetch or decode failure is returned as-is and should
// be treated as fatal by the caller.
func (a *Assembler) Run(ctx context.Context) ([]Row, error) {
	categories, streams, err := a.resolve(ctx)
	if err != nil {
		return nil, err
	}

	filtered := Filter(categories, streams, a.opts.Category, a.opts.Channel)
	a.logger.Info("catalog filtered",
		slog.Int("categories", len(categories)),
		slog.Int("streams", len(streams)),
		slog.Int("matched", len(filtered)),
	)

	names := CategoryNames(categories)

	// Enrichment fans out on a bounded pool. Rows land in an
	// index-addressed slice so output order always equals filter order.
	rows := make([]Row, len(filtered))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(a.opts.Concurrency, 1))

	for i, stream := range filtered {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = a.enrich(gctx, stream, names)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// resolve returns the live catalogs, preferring same-day cache entries.
// When either catalog misses, both are fetched fresh and both cached, so
// the pair always reflects one provider snapshot.
func (a *Assembler) resolve(ctx context.Context) ([]xtream.Category, []xtream.Stream, error) {
	if a.opts.Cache != nil {
		rawCats, okCats := a.opts.Cache.Load(a.opts.Server, DataTypeLiveCategories)
		rawStreams, okStreams := a.opts.Cache.Load(a.opts.Server, DataTypeLiveStreams)
		if okCats && okStreams {
			categories, catErr := xtream.DecodeCategories(rawCats)
			streams, streamErr := xtream.DecodeStreams(rawStreams)
			if catErr == nil && streamErr == nil {
				a.logger.Debug("using cached catalogs",
					slog.Int("categories", len(categories)),
					slog.Int("streams", len(streams)),
				)
				return categories, streams, nil
			}
			a.logger.Warn("cached catalog failed to decode, refetching",
				slog.String("error", errors.Join(catErr, streamErr).Error()),
			)
		}
	}

	rawCats, err := a.opts.Client.GetRaw(ctx, xtream.ActionGetLiveCategories)
	if err != nil {
		return nil, nil, err
	}
	rawStreams, err := a.opts.Client.GetRaw(ctx, xtream.ActionGetLiveStreams)
	if err != nil {
		return nil, nil, err
	}

	categories, err := xtream.DecodeCategories(rawCats)
	if err != nil {
		return nil, nil, err
	}
	streams, err := xtream.DecodeStreams(rawStreams)
	if err != nil {
		return nil, nil, err
	}

	if a.opts.Cache != nil {
		if err := a.opts.Cache.Save(a.opts.Server, DataTypeLiveCategories, rawCats); err != nil {
			a.logger.Warn("caching live categories failed", slog.String("error", err.Error()))
		}
		if err := a.opts.Cache.Save(a.opts.Server, DataTypeLiveStreams, rawStreams); err != nil {
			a.logger.Warn("caching live streams failed", slog.String("error", err.Error()))
		}
	}

	return categories, streams, nil
}

// enrich builds the row for one stream. EPG and probe lookups are each
// optional and independent; their failures degrade the row, never the run.
func (a *Assembler) enrich(ctx context.Context, stream xtream.Stream, names map[string]string) Row {
	categoryName, ok := names[stream.CategoryID.String()]
	if !ok {
		categoryName = UnknownCategory
	}

	epg := ""
	if a.opts.CheckEPG {
		epg = strconv.Itoa(a.epgCount(ctx, stream.StreamID.Int()))
	}

	var probe *ffprobe.Result
	if a.opts.Prober != nil {
		a.pace(ctx)
		result := a.opts.Prober.Probe(ctx, a.opts.Client.LiveStreamURL(stream.StreamID.Int()))
		if result.Status != ffprobe.StatusWorking {
			a.logger.Warn("stream probe unsuccessful",
				slog.Int64("stream_id", stream.StreamID.Int()),
				slog.String("status", string(result.Status)),
				slog.String("error", result.ErrorMessage),
			)
		}
		probe = &result
	}

	return buildRow(stream, categoryName, epg, probe, a.opts.NameWidth, a.opts.CategoryWidth)
}

// epgCount fetches the EPG table for a stream and returns its entry count.
// A fetch failure degrades to zero with a warning; it never aborts the run.
func (a *Assembler) epgCount(ctx context.Context, streamID int64) int {
	a.pace(ctx)
	table, err := a.opts.Client.GetSimpleDataTable(ctx, streamID)
	if err != nil {
		a.logger.Warn("EPG lookup failed",
			slog.Int64("stream_id", streamID),
			slog.String("error", err.Error()),
		)
		return 0
	}
	return table.Count()
}

// pace blocks until the shared rate limiter admits another provider request.
func (a *Assembler) pace(ctx context.Context) {
	if a.limiter == nil {
		return
	}
	if err := a.limiter.Wait(ctx); err != nil && ctx.Err() == nil {
		a.logger.Debug("rate limiter wait failed", slog.String("error", err.Error()))
	}
}
