package testutil

import (
	"context"
	"sync"

	"github.com/junction-io/junction/internal/domain/connector"
)

// FakeImporter serves pre-built snapshot pages in order.
type FakeImporter struct {
	mu    sync.Mutex
	pages [][]connector.ObjectSnapshot
	calls int

	readError error
}

// NewFakeImporter creates an importer serving the given pages.
func NewFakeImporter(pages ...[]connector.ObjectSnapshot) *FakeImporter {
	return &FakeImporter{pages: pages}
}

// SetReadError injects an error returned by every ReadPage call.
func (f *FakeImporter) SetReadError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readError = err
}

// Calls reports how many pages were requested.
func (f *FakeImporter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeImporter) ReadPage(ctx context.Context, cursor []byte, pageSize int) ([]connector.ObjectSnapshot, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readError != nil {
		return nil, nil, f.readError
	}
	if f.calls >= len(f.pages) {
		return nil, nil, nil
	}
	page := f.pages[f.calls]
	f.calls++
	if f.calls < len(f.pages) {
		return page, []byte{byte(f.calls)}, nil
	}
	return page, nil, nil
}

// AppliedChange records one Apply call observed by the FakeExporter.
type AppliedChange struct {
	ExternalType string
	UniqueID     string
	ChangeType   connector.ChangeType
	Changes      []connector.AttributeChange
}

// FakeExporter records applied changes and can fail a configured number of
// times before succeeding, or fail permanently.
type FakeExporter struct {
	mu      sync.Mutex
	applied []AppliedChange

	failuresLeft int
	applyError   error
	assignID     string
}

// NewFakeExporter creates an exporter that accepts everything.
func NewFakeExporter() *FakeExporter {
	return &FakeExporter{}
}

// FailTimes makes the next n Apply calls return err, then succeed.
func (f *FakeExporter) FailTimes(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failuresLeft = n
	f.applyError = err
}

// AssignUniqueID makes confirmed creates hand back the given identifier.
func (f *FakeExporter) AssignUniqueID(uid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignID = uid
}

// Applied returns every successfully applied change.
func (f *FakeExporter) Applied() []AppliedChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]AppliedChange, len(f.applied))
	copy(out, f.applied)
	return out
}

func (f *FakeExporter) Apply(ctx context.Context, externalType, uniqueID string, changeType connector.ChangeType, changes []connector.AttributeChange) (connector.ExportResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return connector.ExportResult{}, f.applyError
	}
	f.applied = append(f.applied, AppliedChange{
		ExternalType: externalType,
		UniqueID:     uniqueID,
		ChangeType:   changeType,
		Changes:      changes,
	})
	result := connector.ExportResult{}
	if changeType == connector.ChangeTypeCreate {
		result.AssignedUniqueID = f.assignID
	}
	return result, nil
}
