// Package enrich adds geocoded lat/lon fields to address records in JSON files.
package enrich

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/coordfill/internal/resilience"
	"github.com/sells-group/coordfill/pkg/geocode"
)

// DefaultPause is the wait after each fetched record.
const DefaultPause = time.Second

// Geocoder resolves one address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocode.Coordinates, error)
}

// Stats counts what happened to the records of one document.
type Stats struct {
	Groups   int `json:"groups"`
	Records  int `json:"records"`
	Resolved int `json:"resolved"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Option configures an Updater.
type Option func(*Updater)

// WithPause sets the wait after every record that was sent to the geocoder.
func WithPause(d time.Duration) Option {
	return func(u *Updater) {
		u.pause = d
	}
}

// WithRefetch makes the updater geocode records that already have coordinates.
func WithRefetch(refetch bool) Option {
	return func(u *Updater) {
		u.refetch = refetch
	}
}

// WithSleep replaces the pause implementation. Tests use it to avoid waiting.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(u *Updater) {
		u.sleep = fn
	}
}

// Updater walks a document record by record, one fetch at a time.
type Updater struct {
	geocoder Geocoder
	pause    time.Duration
	refetch  bool
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates an Updater backed by g.
func New(g Geocoder, opts ...Option) *Updater {
	u := &Updater{
		geocoder: g,
		pause:    DefaultPause,
		sleep:    resilience.SleepContext,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// UpdateFile reads inputPath, geocodes its records and writes the result to
// outputPath. Reading or parsing the input is fatal and nothing is written;
// failures on individual records are logged and do not stop the run.
func (u *Updater) UpdateFile(ctx context.Context, inputPath, outputPath string) (*Stats, error) {
	log := zap.L().With(
		zap.String("run_id", uuid.NewString()),
		zap.String("input", inputPath),
		zap.String("output", outputPath),
	)

	doc, err := LoadDocument(inputPath)
	if err != nil {
		return nil, err
	}

	log.Info("updating file", zap.Int("groups", len(doc.Groups())))

	stats, err := u.update(ctx, log, doc)
	if err != nil {
		return stats, err
	}

	if err := doc.WriteFile(outputPath); err != nil {
		return stats, err
	}

	log.Info("file updated",
		zap.Int("records", stats.Records),
		zap.Int("resolved", stats.Resolved),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

// UpdateDocument geocodes the records of doc in place.
func (u *Updater) UpdateDocument(ctx context.Context, doc *Document) (*Stats, error) {
	return u.update(ctx, zap.L(), doc)
}

func (u *Updater) update(ctx context.Context, log *zap.Logger, doc *Document) (*Stats, error) {
	stats := &Stats{}

	for _, g := range doc.Groups() {
		stats.Groups++
		glog := log.With(zap.String("group", g.Name))

		if g.Records < 0 {
			glog.Warn("group is not an array, leaving it unchanged")
			continue
		}

		for i := 0; i < g.Records; i++ {
			if err := ctx.Err(); err != nil {
				return stats, eris.Wrap(err, "enrich: update cancelled")
			}
			stats.Records++
			rlog := glog.With(zap.Int("index", i))

			rec := doc.Record(g.Name, i)
			if !rec.IsObject() {
				rlog.Warn("record is not an object, skipping")
				stats.Skipped++
				continue
			}

			addr := rec.Get("address")
			if addr.Type != gjson.String || strings.TrimSpace(addr.Str) == "" {
				rlog.Warn("record has no address, skipping")
				stats.Skipped++
				continue
			}

			if !u.refetch && hasCoordinates(rec) {
				rlog.Debug("record already has coordinates", zap.String("address", addr.Str))
				stats.Skipped++
				continue
			}

			rlog.Info("fetching coordinates", zap.String("address", addr.Str))

			coords, err := u.geocoder.Geocode(ctx, addr.Str)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return stats, eris.Wrap(ctxErr, "enrich: update cancelled")
				}
				stats.Failed++
				rlog.Error("error fetching coordinates",
					zap.String("address", addr.Str),
					zap.String("reason", failureReason(err)),
					zap.Error(err),
				)
			} else {
				if err := doc.SetCoordinates(g.Name, i, coords.Lat, coords.Lon); err != nil {
					return stats, err
				}
				stats.Resolved++
				rlog.Info("coordinates fetched",
					zap.String("address", addr.Str),
					zap.String("lat", coords.Lat),
					zap.String("lon", coords.Lon),
				)
			}

			if u.pause > 0 {
				if err := u.sleep(ctx, u.pause); err != nil {
					return stats, eris.Wrap(err, "enrich: pause")
				}
			}
		}
	}

	return stats, nil
}

func hasCoordinates(rec gjson.Result) bool {
	return present(rec.Get("lat")) && present(rec.Get("lon"))
}

func present(v gjson.Result) bool {
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.Str) != ""
	case gjson.Number:
		return true
	default:
		return false
	}
}

// failureReason gives a short machine-friendly label for a fetch error.
func failureReason(err error) string {
	var (
		nf *geocode.NotFoundError
		pe *geocode.ParseError
		rl *geocode.RateLimitError
		he *geocode.HTTPError
		te *geocode.TransportError
	)
	switch {
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &pe):
		return "parse_error"
	case errors.As(err, &rl):
		return "rate_limit_exhausted"
	case errors.As(err, &he):
		return "http_error"
	case errors.As(err, &te):
		return "transport_error"
	default:
		return "unknown"
	}
}
