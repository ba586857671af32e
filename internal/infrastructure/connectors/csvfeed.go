package connectors

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/shared/biztime"
	"github.com/junction-io/junction/internal/shared/id"
	"github.com/junction-io/junction/internal/shared/logger"
)

// CSVFeedFactory serves file-based feeds: one directory per connected
// system, one CSV file per external type, one JSONL outbox for exports.
// This is the reference adapter for flat HR-style feeds; directory layout:
//
//	<base>/<system name>/<external type>.csv
//	<base>/<system name>/outbox.jsonl
//
// CSV columns: unique_id, then optional partition and deleted, then one
// column per attribute (text-valued).
type CSVFeedFactory struct {
	baseDir string
	logger  logger.Interface
}

// NewCSVFeedFactory creates a factory rooted at baseDir.
func NewCSVFeedFactory(baseDir string, log logger.Interface) *CSVFeedFactory {
	return &CSVFeedFactory{baseDir: baseDir, logger: log}
}

// NewImporter returns a CSV importer for the system's feed directory.
func (f *CSVFeedFactory) NewImporter(system *connector.ConnectedSystem) (connector.Importer, error) {
	return &csvImporter{
		dir:    filepath.Join(f.baseDir, system.Name()),
		logger: f.logger.With("system", system.Name()),
	}, nil
}

// NewExporter returns an outbox exporter for the system's feed directory.
func (f *CSVFeedFactory) NewExporter(system *connector.ConnectedSystem) (connector.Exporter, error) {
	return &outboxExporter{
		path:   filepath.Join(f.baseDir, system.Name(), "outbox.jsonl"),
		logger: f.logger.With("system", system.Name()),
	}, nil
}

type csvImporter struct {
	dir    string
	logger logger.Interface
}

// ReadPage serves snapshots in file order using a decimal offset cursor.
// Re-reading the feed per call keeps the cursor restartable across process
// restarts; feed files are small enough that this is not a concern.
func (imp *csvImporter) ReadPage(ctx context.Context, cursor []byte, pageSize int) ([]connector.ObjectSnapshot, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	all, err := imp.readAll()
	if err != nil {
		return nil, nil, err
	}

	offset := 0
	if len(cursor) > 0 {
		offset, err = strconv.Atoi(string(cursor))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid feed cursor %q: %w", cursor, err)
		}
	}
	if offset >= len(all) {
		return nil, nil, nil
	}

	end := offset + pageSize
	if end >= len(all) {
		return all[offset:], nil, nil
	}
	return all[offset:end], []byte(strconv.Itoa(end)), nil
}

func (imp *csvImporter) readAll() ([]connector.ObjectSnapshot, error) {
	entries, err := os.ReadDir(imp.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed directory %s: %w", imp.dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".csv") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	var all []connector.ObjectSnapshot
	for _, name := range files {
		externalType := strings.TrimSuffix(name, ".csv")
		snapshots, err := imp.readFile(filepath.Join(imp.dir, name), externalType)
		if err != nil {
			return nil, err
		}
		all = append(all, snapshots...)
	}
	return all, nil
}

func (imp *csvImporter) readFile(path, externalType string) ([]connector.ObjectSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed file %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed file %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := rows[0]
	uniqueCol := -1
	for i, col := range header {
		if col == "unique_id" {
			uniqueCol = i
		}
	}
	if uniqueCol < 0 {
		return nil, fmt.Errorf("feed file %s has no unique_id column", path)
	}

	snapshots := make([]connector.ObjectSnapshot, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(header) {
			continue
		}

		snap := connector.ObjectSnapshot{
			ExternalType: externalType,
			UniqueID:     row[uniqueCol],
			Values:       make(attribute.Values),
		}
		for i, col := range header {
			switch col {
			case "unique_id":
				// already captured
			case "partition":
				snap.Partition = row[i]
			case "deleted":
				snap.Deleted = row[i] == "true" || row[i] == "1"
			default:
				if row[i] != "" {
					snap.Values[col] = []attribute.Value{attribute.NewText(row[i])}
				}
			}
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// outboxRecord is one exported change set written to the outbox file.
type outboxRecord struct {
	ExportedAt   time.Time                   `json:"exported_at"`
	ExternalType string                      `json:"external_type"`
	UniqueID     string                      `json:"unique_id"`
	ChangeType   string                      `json:"change_type"`
	Changes      []connector.AttributeChange `json:"changes,omitempty"`
}

type outboxExporter struct {
	path   string
	logger logger.Interface
}

// Apply appends the change set to the system's outbox. Creates without a
// unique identifier are assigned one here, standing in for the identifier
// the downstream system would mint.
func (exp *outboxExporter) Apply(ctx context.Context, externalType, uniqueID string, changeType connector.ChangeType, changes []connector.AttributeChange) (connector.ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return connector.ExportResult{}, err
	}

	result := connector.ExportResult{}
	if changeType == connector.ChangeTypeCreate && uniqueID == "" {
		uniqueID = id.MustGenerate(12)
		result.AssignedUniqueID = uniqueID
	}

	record := outboxRecord{
		ExportedAt:   biztime.NowUTC(),
		ExternalType: externalType,
		UniqueID:     uniqueID,
		ChangeType:   string(changeType),
		Changes:      changes,
	}
	line, err := json.Marshal(record)
	if err != nil {
		return connector.ExportResult{}, fmt.Errorf("failed to encode outbox record: %w", err)
	}

	f, err := os.OpenFile(exp.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return connector.ExportResult{}, fmt.Errorf("failed to open outbox %s: %w", exp.path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return connector.ExportResult{}, fmt.Errorf("failed to write outbox record: %w", err)
	}

	exp.logger.Debugw("outbox record written",
		"external_type", externalType,
		"unique_id", uniqueID,
		"change_type", changeType,
	)
	return result, nil
}
