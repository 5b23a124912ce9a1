package main

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	AddFunc     func(ctx context.Context, book *Book) error
	AddManyFunc func(ctx context.Context, books []Book) error
	GetOneFunc  func(ctx context.Context, id int64) (Book, error)
	GetAllFunc  func(ctx context.Context) ([]Book, error)
	UpdateFunc  func(ctx context.Context, id int64, br BookRequest) (Book, error)
	DeleteFunc  func(ctx context.Context, id int64) error
}

// Add mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Add(ctx context.Context, book *Book) error {
	return m.AddFunc(ctx, book)
}

// AddMany mocks the behavior of books bulk creation by the repository.
func (m *MockBookStorage) AddMany(ctx context.Context, books []Book) error {
	return m.AddManyFunc(ctx, books)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id int64) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// GetAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id int64, br BookRequest) (Book, error) {
	return m.UpdateFunc(ctx, id, br)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}

// MockHealthChecker implements a fake HealthChecker.
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) Ping(_ context.Context) error {
	return m.Err
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}

// newTestConfig provides a config with all defaults applied.
func newTestConfig() *Config {
	config := &Config{}
	setDefaults(config)
	return config
}

// newTestAPIHandler builds an api handler on top of the given storage.
func newTestAPIHandler(storage BookStorage, db HealthChecker) *APIHandler {
	config := newTestConfig()
	bs := NewBookService(zap.NewNop(), config, storage)
	if db == nil {
		db = &MockHealthChecker{}
	}
	return NewAPIHandler(
		zap.NewNop(),
		config,
		&Statistics{started: NewMockClocker().Now()},
		NewMockClocker(),
		NewMockUIDHandler("abc", true),
		bs,
		db,
	)
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }

// stubStorage provides a storage where every operation succeeds.
func stubStorage() *MockBookStorage {
	return &MockBookStorage{
		AddFunc:     func(context.Context, *Book) error { return nil },
		AddManyFunc: func(context.Context, []Book) error { return nil },
		GetOneFunc:  func(_ context.Context, id int64) (Book, error) { return Book{ID: id}, nil },
		GetAllFunc:  func(context.Context) ([]Book, error) { return []Book{}, nil },
		UpdateFunc:  func(_ context.Context, id int64, _ BookRequest) (Book, error) { return Book{ID: id}, nil },
		DeleteFunc:  func(context.Context, int64) error { return nil },
	}
}

func jsonNumber(id int64) string {
	return strconv.FormatInt(id, 10)
}
