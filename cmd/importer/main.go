package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/markermove/internal/adapters/postgres"
	"github.com/samirrijal/markermove/internal/core/domain"
	"github.com/samirrijal/markermove/internal/core/ports"
	"github.com/samirrijal/markermove/internal/pkg/config"
	"github.com/samirrijal/markermove/internal/pkg/logging"
)

const batchSize = 5000

// importer bulk loads a recorded track from CSV with the header
// marker_id,time,lat,lon[,source,accuracy,speed]. Time is RFC 3339.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: importer <track.csv>")
	}

	cfg, err := config.Load("markermove-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("markermove-importer", cfg.Log.Level, cfg.Log.Format)

	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer f.Close()

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	start := time.Now()
	n, skipped, err := importCSV(ctx, f, postgres.NewFixRepo(db))
	if err != nil {
		log.Fatalf("import: %v", err)
	}
	slog.Info("import finished", "fixes", n, "skipped", skipped, "took", time.Since(start).Round(time.Millisecond))
}

// importCSV reads fixes from r and stores them in batches. Rows that fail to
// parse are logged and skipped.
func importCSV(ctx context.Context, r io.Reader, repo ports.FixRepository) (imported int64, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return 0, 0, err
	}

	batch := make([]domain.Fix, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := repo.InsertBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		imported += n
		batch = batch[:0]
		return nil
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, skipped, fmt.Errorf("line %d: %w", line, err)
		}

		fix, err := parseRecord(rec, cols)
		if err != nil {
			slog.Warn("skip row", "line", line, "error", err)
			skipped++
			continue
		}
		batch = append(batch, fix)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return imported, skipped, err
			}
		}
	}
	return imported, skipped, flush()
}

var requiredColumns = []string{"marker_id", "time", "lat", "lon"}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}
	return cols, nil
}

func parseRecord(rec []string, cols map[string]int) (domain.Fix, error) {
	get := func(name string) string {
		if i, ok := cols[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var fix domain.Fix
	fix.MarkerID = get("marker_id")
	if fix.MarkerID == "" {
		return fix, fmt.Errorf("%w: empty marker_id", domain.ErrInvalidFix)
	}

	t, err := time.Parse(time.RFC3339Nano, get("time"))
	if err != nil {
		return fix, fmt.Errorf("time: %w", err)
	}
	fix.Time = t

	if fix.Location.Lat, err = strconv.ParseFloat(get("lat"), 64); err != nil {
		return fix, fmt.Errorf("lat: %w", err)
	}
	if fix.Location.Lon, err = strconv.ParseFloat(get("lon"), 64); err != nil {
		return fix, fmt.Errorf("lon: %w", err)
	}
	if err := fix.Location.Validate(); err != nil {
		return fix, err
	}

	fix.Source = domain.FixSource(get("source"))
	switch fix.Source {
	case "":
		fix.Source = domain.SourceGPS
	case domain.SourceGPS, domain.SourceTap, domain.SourceFeed, domain.SourceReplay:
	default:
		return fix, fmt.Errorf("%w: unknown source %q", domain.ErrInvalidFix, fix.Source)
	}

	if fix.Accuracy, err = optionalFloat(get("accuracy")); err != nil {
		return fix, fmt.Errorf("accuracy: %w", err)
	}
	if fix.Speed, err = optionalFloat(get("speed")); err != nil {
		return fix, fmt.Errorf("speed: %w", err)
	}
	return fix, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
