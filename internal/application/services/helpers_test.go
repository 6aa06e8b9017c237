package services_test

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medlab/internal/adapters/cache"
	"github.com/zatekoja/medlab/internal/adapters/database"
	"github.com/zatekoja/medlab/internal/domain/entities"
	"github.com/zatekoja/medlab/internal/domain/repositories"
	"github.com/zatekoja/medlab/internal/infrastructure/clients/sqlite"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// clock is a settable time source shared by the store and the services.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *clock { return &clock{t: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func newTestStore(t *testing.T, c *clock) *database.Store {
	t.Helper()
	ctx := context.Background()

	client, err := sqlite.NewClient(ctx, sqlite.MemoryPath)
	require.NoError(t, err)

	store, err := database.Open(ctx, client, database.WithClock(c.Now))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// MockCacheProvider is an in-memory cache honouring glob patterns.
type MockCacheProvider struct {
	mu      sync.RWMutex
	data    map[string][]byte
	deleted []string
	failSet bool
}

func NewMockCacheProvider() *MockCacheProvider {
	return &MockCacheProvider{data: make(map[string][]byte)}
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return apperrors.NewStorageUnavailableError("cache down", nil)
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MockCacheProvider) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.data, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}

func (m *MockCacheProvider) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *MockCacheProvider) Keys(prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// MockEventBus delivers published events to in-process subscribers.
type MockEventBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan *entities.ChangeEvent
	published   []*entities.ChangeEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{subscribers: make(map[string][]chan *entities.ChangeEvent)}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.ChangeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	for _, ch := range m.subscribers[channel] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ChangeEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.ChangeEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers[channel] {
		close(ch)
	}
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error { return nil }

func (m *MockEventBus) Published() []*entities.ChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entities.ChangeEvent(nil), m.published...)
}

func (m *MockEventBus) SubscriberCount(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers[channel])
}

// MockBackupSink keeps backups in memory.
type MockBackupSink struct {
	objects map[string][]byte
}

func NewMockBackupSink() *MockBackupSink {
	return &MockBackupSink{objects: make(map[string][]byte)}
}

func (m *MockBackupSink) Put(ctx context.Context, key string, data []byte) error {
	if _, ok := m.objects[key]; ok {
		return apperrors.NewDuplicateNameError("backup " + key + " already exists")
	}
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *MockBackupSink) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, apperrors.NewNotFoundError("backup " + key + " not found")
	}
	return data, nil
}

func (m *MockBackupSink) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MockBackupSink) Driver() string { return "memory" }

// MockTestDefinitionRepository is a testify mock of the catalog repository.
type MockTestDefinitionRepository struct {
	mock.Mock
}

func (m *MockTestDefinitionRepository) Create(ctx context.Context, def *entities.TestDefinition) error {
	return m.Called(ctx, def).Error(0)
}

func (m *MockTestDefinitionRepository) GetByID(ctx context.Context, id int64) (*entities.TestDefinition, error) {
	args := m.Called(ctx, id)
	def, _ := args.Get(0).(*entities.TestDefinition)
	return def, args.Error(1)
}

func (m *MockTestDefinitionRepository) GetByName(ctx context.Context, name string) (*entities.TestDefinition, error) {
	args := m.Called(ctx, name)
	def, _ := args.Get(0).(*entities.TestDefinition)
	return def, args.Error(1)
}

func (m *MockTestDefinitionRepository) List(ctx context.Context) ([]*entities.TestDefinition, error) {
	args := m.Called(ctx)
	tests, _ := args.Get(0).([]*entities.TestDefinition)
	return tests, args.Error(1)
}

func (m *MockTestDefinitionRepository) Update(ctx context.Context, id int64, patch entities.TestDefinitionPatch) (*entities.TestDefinition, error) {
	args := m.Called(ctx, id, patch)
	def, _ := args.Get(0).(*entities.TestDefinition)
	return def, args.Error(1)
}

func (m *MockTestDefinitionRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTestDefinitionRepository) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockEncounterRepository is a testify mock of the results repository.
type MockEncounterRepository struct {
	mock.Mock
}

func (m *MockEncounterRepository) Create(ctx context.Context, e *entities.Encounter) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEncounterRepository) GetByID(ctx context.Context, id int64) (*entities.Encounter, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*entities.Encounter)
	return e, args.Error(1)
}

func (m *MockEncounterRepository) List(ctx context.Context) ([]*entities.Encounter, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*entities.Encounter)
	return list, args.Error(1)
}

func (m *MockEncounterRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]*entities.Encounter, error) {
	args := m.Called(ctx, start, end)
	list, _ := args.Get(0).([]*entities.Encounter)
	return list, args.Error(1)
}

func (m *MockEncounterRepository) ListByPatientID(ctx context.Context, patientID string) ([]*entities.Encounter, error) {
	args := m.Called(ctx, patientID)
	list, _ := args.Get(0).([]*entities.Encounter)
	return list, args.Error(1)
}

func (m *MockEncounterRepository) Update(ctx context.Context, id int64, patch entities.EncounterPatch) (*entities.Encounter, error) {
	args := m.Called(ctx, id, patch)
	e, _ := args.Get(0).(*entities.Encounter)
	return e, args.Error(1)
}

func (m *MockEncounterRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockEncounterRepository) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func lineItem(id int64, name string, price float64) entities.LineItem {
	return entities.LineItem{TestID: id, TestName: name, ReportedValue: "ok", ReferenceRange: "-", Price: price}
}

func newEncounter(name, patientID string, items ...entities.LineItem) *entities.Encounter {
	return &entities.Encounter{
		PatientName:   name,
		PatientAge:    30,
		PatientGender: entities.GenderFemale,
		PatientID:     patientID,
		LineItems:     items,
	}
}

// MockHospitalRepository is a testify mock of the hospital repository.
type MockHospitalRepository struct {
	mock.Mock
}

func (m *MockHospitalRepository) Get(ctx context.Context) (*entities.HospitalProfile, error) {
	args := m.Called(ctx)
	profile, _ := args.Get(0).(*entities.HospitalProfile)
	return profile, args.Error(1)
}

func (m *MockHospitalRepository) Save(ctx context.Context, profile *entities.HospitalProfile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *MockHospitalRepository) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockGateway bundles mock repositories behind the gateway interface.
type MockGateway struct {
	mock.Mock
	HospitalRepo   *MockHospitalRepository
	TestsRepo      *MockTestDefinitionRepository
	EncountersRepo *MockEncounterRepository
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		HospitalRepo:   &MockHospitalRepository{},
		TestsRepo:      &MockTestDefinitionRepository{},
		EncountersRepo: &MockEncounterRepository{},
	}
}

func (m *MockGateway) Hospital() repositories.HospitalRepository { return m.HospitalRepo }
func (m *MockGateway) Tests() repositories.TestDefinitionRepository { return m.TestsRepo }
func (m *MockGateway) Encounters() repositories.EncounterRepository { return m.EncountersRepo }

func (m *MockGateway) ExportAll(ctx context.Context) (*entities.Export, error) {
	args := m.Called(ctx)
	export, _ := args.Get(0).(*entities.Export)
	return export, args.Error(1)
}

func (m *MockGateway) ImportAll(ctx context.Context, payload *entities.Export) (*entities.ImportResult, error) {
	args := m.Called(ctx, payload)
	result, _ := args.Get(0).(*entities.ImportResult)
	return result, args.Error(1)
}

func (m *MockGateway) ClearAll(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockGateway) Ping(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockGateway) Close() error { return nil }

// recordingNotifier remembers every change it is told about.
type recordingNotifier struct {
	mu      sync.Mutex
	changes []string
}

func (r *recordingNotifier) Notify(ctx context.Context, collection entities.Collection, action entities.ChangeAction, recordID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, string(collection)+":"+string(action))
}

func (r *recordingNotifier) Changes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.changes...)
}
