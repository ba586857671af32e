// Package testutil provides in-memory mock implementations for testing the
// sync application layer.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/domain/audit"
	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/domain/hub"
	"github.com/junction-io/junction/internal/domain/run"
	"github.com/junction-io/junction/internal/domain/syncrule"
	"github.com/junction-io/junction/internal/shared/errors"
)

// MockHubRepository is an in-memory hub.Repository.
type MockHubRepository struct {
	mu      sync.RWMutex
	objects map[string]*hub.HubObject
	nextID  uint

	updateError error
}

// NewMockHubRepository creates an empty mock hub repository.
func NewMockHubRepository() *MockHubRepository {
	return &MockHubRepository{objects: make(map[string]*hub.HubObject)}
}

// SetUpdateError injects an error returned by Update.
func (m *MockHubRepository) SetUpdateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateError = err
}

func (m *MockHubRepository) Create(ctx context.Context, obj *hub.HubObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if obj.ID() == 0 {
		m.nextID++
		if err := obj.SetID(m.nextID); err != nil {
			return err
		}
	}
	m.objects[obj.SID()] = obj
	return nil
}

func (m *MockHubRepository) GetBySID(ctx context.Context, sid string) (*hub.HubObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[sid]
	if !ok {
		return nil, errors.NewNotFoundError("hub object not found")
	}
	return obj, nil
}

func (m *MockHubRepository) Update(ctx context.Context, obj *hub.HubObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateError != nil {
		return m.updateError
	}
	if _, ok := m.objects[obj.SID()]; !ok {
		return errors.NewNotFoundError("hub object not found")
	}
	m.objects[obj.SID()] = obj
	return nil
}

func (m *MockHubRepository) FindByAttributeEquals(ctx context.Context, objectType, attributeName string, v attribute.Value) ([]*hub.HubObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*hub.HubObject
	for _, obj := range m.objects {
		if obj.ObjectType() != objectType || obj.Status() == hub.StatusObsolete {
			continue
		}
		if attribute.ContainsEqual(obj.ValuesFor(attributeName), v) {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (m *MockHubRepository) ListPendingDeletion(ctx context.Context) ([]*hub.HubObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*hub.HubObject
	for _, obj := range m.objects {
		if obj.Status() == hub.StatusPendingDeletion {
			out = append(out, obj)
		}
	}
	return out, nil
}

// MockTypePolicyRepository is an in-memory hub.TypePolicyRepository.
// Missing policies default to manual deletion.
type MockTypePolicyRepository struct {
	mu       sync.RWMutex
	policies map[string]*hub.TypePolicy
}

// NewMockTypePolicyRepository creates an empty mock policy repository.
func NewMockTypePolicyRepository() *MockTypePolicyRepository {
	return &MockTypePolicyRepository{policies: make(map[string]*hub.TypePolicy)}
}

func (m *MockTypePolicyRepository) GetByObjectType(ctx context.Context, objectType string) (*hub.TypePolicy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.policies[objectType]; ok {
		return p, nil
	}
	return hub.NewTypePolicy(objectType, hub.DeletionManual, 0)
}

func (m *MockTypePolicyRepository) Save(ctx context.Context, policy *hub.TypePolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[policy.ObjectType()] = policy
	return nil
}

// MockCSObjectRepository is an in-memory connector.CSObjectRepository.
type MockCSObjectRepository struct {
	mu      sync.RWMutex
	objects map[string]*connector.CSObject
	nextID  uint

	updateError error
}

// NewMockCSObjectRepository creates an empty mock object repository.
func NewMockCSObjectRepository() *MockCSObjectRepository {
	return &MockCSObjectRepository{objects: make(map[string]*connector.CSObject)}
}

// SetUpdateError injects an error returned by Update.
func (m *MockCSObjectRepository) SetUpdateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateError = err
}

func (m *MockCSObjectRepository) Create(ctx context.Context, obj *connector.CSObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if obj.ID() == 0 {
		m.nextID++
		if err := obj.SetID(m.nextID); err != nil {
			return err
		}
	}
	m.objects[obj.SID()] = obj
	return nil
}

func (m *MockCSObjectRepository) GetBySID(ctx context.Context, sid string) (*connector.CSObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[sid]
	if !ok {
		return nil, errors.NewNotFoundError("object not found")
	}
	return obj, nil
}

func (m *MockCSObjectRepository) GetByUniqueID(ctx context.Context, systemSID, externalType, uniqueID string) (*connector.CSObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, obj := range m.objects {
		if obj.SystemSID() == systemSID && obj.ExternalType() == externalType && obj.UniqueID() == uniqueID {
			return obj, nil
		}
	}
	return nil, errors.NewNotFoundError("object not found")
}

func (m *MockCSObjectRepository) Update(ctx context.Context, obj *connector.CSObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateError != nil {
		return m.updateError
	}
	if _, ok := m.objects[obj.SID()]; !ok {
		return errors.NewNotFoundError("object not found")
	}
	m.objects[obj.SID()] = obj
	return nil
}

func (m *MockCSObjectRepository) Delete(ctx context.Context, obj *connector.CSObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, obj.SID())
	return nil
}

func (m *MockCSObjectRepository) ListPage(ctx context.Context, systemSID string, afterID uint, limit int) ([]*connector.CSObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.page(func(obj *connector.CSObject) bool {
		return obj.SystemSID() == systemSID
	}, afterID, limit), nil
}

func (m *MockCSObjectRepository) ListJoinedToHub(ctx context.Context, hubSID string) ([]*connector.CSObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*connector.CSObject
	for _, obj := range m.objects {
		if obj.IsJoined() && obj.HubSID() == hubSID {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (m *MockCSObjectRepository) ListUpdatedSince(ctx context.Context, systemSID string, since time.Time, afterID uint, limit int) ([]*connector.CSObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.page(func(obj *connector.CSObject) bool {
		return obj.SystemSID() == systemSID && obj.UpdatedAt().After(since)
	}, afterID, limit), nil
}

func (m *MockCSObjectRepository) CountJoined(ctx context.Context, hubSID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, obj := range m.objects {
		if obj.IsJoined() && obj.HubSID() == hubSID {
			n++
		}
	}
	return n, nil
}

func (m *MockCSObjectRepository) page(match func(*connector.CSObject) bool, afterID uint, limit int) []*connector.CSObject {
	var out []*connector.CSObject
	for id := afterID + 1; id <= m.nextID && (limit <= 0 || len(out) < limit); id++ {
		for _, obj := range m.objects {
			if obj.ID() == id && match(obj) {
				out = append(out, obj)
				break
			}
		}
	}
	return out
}

// MockPendingExportRepository is an in-memory connector.PendingExportRepository.
type MockPendingExportRepository struct {
	mu      sync.RWMutex
	exports map[string]*connector.PendingExport
	nextID  uint
}

// NewMockPendingExportRepository creates an empty mock export repository.
func NewMockPendingExportRepository() *MockPendingExportRepository {
	return &MockPendingExportRepository{exports: make(map[string]*connector.PendingExport)}
}

func (m *MockPendingExportRepository) Create(ctx context.Context, pe *connector.PendingExport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pe.ID() == 0 {
		m.nextID++
		if err := pe.SetID(m.nextID); err != nil {
			return err
		}
	}
	m.exports[pe.SID()] = pe
	return nil
}

func (m *MockPendingExportRepository) GetBySID(ctx context.Context, sid string) (*connector.PendingExport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pe, ok := m.exports[sid]
	if !ok {
		return nil, errors.NewNotFoundError("pending export not found")
	}
	return pe, nil
}

func (m *MockPendingExportRepository) GetByCSObject(ctx context.Context, csObjectSID string) (*connector.PendingExport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, pe := range m.exports {
		if pe.CSObjectSID() == csObjectSID {
			return pe, nil
		}
	}
	return nil, errors.NewNotFoundError("pending export not found")
}

func (m *MockPendingExportRepository) Update(ctx context.Context, pe *connector.PendingExport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exports[pe.SID()]; !ok {
		return errors.NewNotFoundError("pending export not found")
	}
	m.exports[pe.SID()] = pe
	return nil
}

func (m *MockPendingExportRepository) Delete(ctx context.Context, pe *connector.PendingExport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.exports, pe.SID())
	return nil
}

func (m *MockPendingExportRepository) ListBySystem(ctx context.Context, systemSID string, afterID uint, limit int) ([]*connector.PendingExport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*connector.PendingExport
	for id := afterID + 1; id <= m.nextID && (limit <= 0 || len(out) < limit); id++ {
		for _, pe := range m.exports {
			if pe.ID() == id && pe.SystemSID() == systemSID {
				out = append(out, pe)
				break
			}
		}
	}
	return out, nil
}

// Count reports how many exports are staged.
func (m *MockPendingExportRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.exports)
}

// MockSyncRuleRepository is an in-memory syncrule.Repository.
type MockSyncRuleRepository struct {
	mu     sync.RWMutex
	rules  []*syncrule.SyncRule
	nextID uint
}

// NewMockSyncRuleRepository creates an empty mock rule repository.
func NewMockSyncRuleRepository() *MockSyncRuleRepository {
	return &MockSyncRuleRepository{}
}

func (m *MockSyncRuleRepository) Create(ctx context.Context, rule *syncrule.SyncRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rule.ID() == 0 {
		m.nextID++
		if err := rule.SetID(m.nextID); err != nil {
			return err
		}
	}
	m.rules = append(m.rules, rule)
	return nil
}

func (m *MockSyncRuleRepository) GetBySID(ctx context.Context, sid string) (*syncrule.SyncRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rule := range m.rules {
		if rule.SID() == sid {
			return rule, nil
		}
	}
	return nil, errors.NewNotFoundError("rule not found")
}

func (m *MockSyncRuleRepository) Update(ctx context.Context, rule *syncrule.SyncRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rules {
		if r.SID() == rule.SID() {
			m.rules[i] = rule
			return nil
		}
	}
	return errors.NewNotFoundError("rule not found")
}

func (m *MockSyncRuleRepository) Delete(ctx context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rules {
		if r.SID() == sid {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return nil
		}
	}
	return errors.NewNotFoundError("rule not found")
}

func (m *MockSyncRuleRepository) ListInScope(ctx context.Context, systemSID, externalType string, direction syncrule.Direction) ([]*syncrule.SyncRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*syncrule.SyncRule
	for _, rule := range m.rules {
		if rule.Enabled() && rule.SystemSID() == systemSID && rule.ExternalType() == externalType && rule.Direction() == direction {
			out = append(out, rule)
		}
	}
	sortByPrecedence(out)
	return out, nil
}

func (m *MockSyncRuleRepository) ListBySystem(ctx context.Context, systemSID string) ([]*syncrule.SyncRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*syncrule.SyncRule
	for _, rule := range m.rules {
		if rule.SystemSID() == systemSID {
			out = append(out, rule)
		}
	}
	sortByPrecedence(out)
	return out, nil
}

func sortByPrecedence(rules []*syncrule.SyncRule) {
	for i := 1; i < len(rules); i++ {
		for j := i; j > 0 && rules[j].Precedence() < rules[j-1].Precedence(); j-- {
			rules[j], rules[j-1] = rules[j-1], rules[j]
		}
	}
}

// MockChangeRepository is an in-memory audit.ChangeRepository.
type MockChangeRepository struct {
	mu      sync.RWMutex
	records []audit.ChangeRecord
}

// NewMockChangeRepository creates an empty mock change repository.
func NewMockChangeRepository() *MockChangeRepository {
	return &MockChangeRepository{}
}

func (m *MockChangeRepository) Append(ctx context.Context, records []audit.ChangeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *MockChangeRepository) ListByObject(ctx context.Context, objectSID string, afterID uint, limit int) ([]audit.ChangeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []audit.ChangeRecord
	for _, r := range m.records {
		if r.ObjectSID == objectSID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockChangeRepository) ListByActivity(ctx context.Context, activitySID string, afterID uint, limit int) ([]audit.ChangeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []audit.ChangeRecord
	for _, r := range m.records {
		if r.ActivitySID == activitySID {
			out = append(out, r)
		}
	}
	return out, nil
}

// All returns every appended record.
func (m *MockChangeRepository) All() []audit.ChangeRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]audit.ChangeRecord, len(m.records))
	copy(out, m.records)
	return out
}

// MockProfileRepository is an in-memory run.ProfileRepository.
type MockProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*run.Profile
	nextID   uint
}

// NewMockProfileRepository creates an empty mock profile repository.
func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{profiles: make(map[string]*run.Profile)}
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *run.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if profile.ID() == 0 {
		m.nextID++
		if err := profile.SetID(m.nextID); err != nil {
			return err
		}
	}
	m.profiles[profile.SID()] = profile
	return nil
}

func (m *MockProfileRepository) GetBySID(ctx context.Context, sid string) (*run.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[sid]
	if !ok {
		return nil, errors.NewNotFoundError("run profile not found")
	}
	return p, nil
}

func (m *MockProfileRepository) Update(ctx context.Context, profile *run.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[profile.SID()]; !ok {
		return errors.NewNotFoundError("run profile not found")
	}
	m.profiles[profile.SID()] = profile
	return nil
}

func (m *MockProfileRepository) List(ctx context.Context) ([]*run.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*run.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (m *MockProfileRepository) ListEnabled(ctx context.Context) ([]*run.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*run.Profile
	for _, p := range m.profiles {
		if p.Enabled() {
			out = append(out, p)
		}
	}
	return out, nil
}

// MockActivityRepository is an in-memory run.ActivityRepository.
type MockActivityRepository struct {
	mu         sync.RWMutex
	activities map[string]*run.Activity
	nextID     uint
}

// NewMockActivityRepository creates an empty mock activity repository.
func NewMockActivityRepository() *MockActivityRepository {
	return &MockActivityRepository{activities: make(map[string]*run.Activity)}
}

func (m *MockActivityRepository) Create(ctx context.Context, activity *run.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if activity.ID() == 0 {
		m.nextID++
		if err := activity.SetID(m.nextID); err != nil {
			return err
		}
	}
	m.activities[activity.SID()] = activity
	return nil
}

func (m *MockActivityRepository) GetBySID(ctx context.Context, sid string) (*run.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.activities[sid]
	if !ok {
		return nil, errors.NewNotFoundError("activity not found")
	}
	return a, nil
}

func (m *MockActivityRepository) Update(ctx context.Context, activity *run.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.activities[activity.SID()]; !ok {
		return errors.NewNotFoundError("activity not found")
	}
	m.activities[activity.SID()] = activity
	return nil
}

func (m *MockActivityRepository) ListByProfile(ctx context.Context, profileSID string, afterID uint, limit int) ([]*run.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*run.Activity
	for _, a := range m.activities {
		if a.ProfileSID() == profileSID {
			out = append(out, a)
		}
	}
	return out, nil
}

// MockOutcomeRepository is an in-memory run.OutcomeRepository.
type MockOutcomeRepository struct {
	mu    sync.RWMutex
	items []run.OutcomeItem
}

// NewMockOutcomeRepository creates an empty mock outcome repository.
func NewMockOutcomeRepository() *MockOutcomeRepository {
	return &MockOutcomeRepository{}
}

func (m *MockOutcomeRepository) Append(ctx context.Context, items []run.OutcomeItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, items...)
	return nil
}

func (m *MockOutcomeRepository) ListByActivity(ctx context.Context, activitySID string, afterID uint, limit int) ([]run.OutcomeItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []run.OutcomeItem
	for _, item := range m.items {
		if item.ActivitySID == activitySID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *MockOutcomeRepository) ListChildren(ctx context.Context, parentSID string) ([]run.OutcomeItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []run.OutcomeItem
	for _, item := range m.items {
		if item.ParentSID == parentSID {
			out = append(out, item)
		}
	}
	return out, nil
}

// All returns every recorded outcome item.
func (m *MockOutcomeRepository) All() []run.OutcomeItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]run.OutcomeItem, len(m.items))
	copy(out, m.items)
	return out
}
