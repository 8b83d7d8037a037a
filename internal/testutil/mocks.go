package testutil

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/dafibh/fortuna/fortuna-import/internal/domain"
	"github.com/dafibh/fortuna/fortuna-import/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories     []*domain.Category
	FindCalls      [][]string
	CreateCalls    [][]*domain.Category
	FindByTitlesFn func(titles []string) ([]*domain.Category, error)
	CreateBatchFn  func(categories []*domain.Category) ([]*domain.Category, error)
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make([]*domain.Category, 0),
	}
}

// FindByTitles returns stored categories whose title is in titles, in storage order
func (m *MockCategoryRepository) FindByTitles(ctx context.Context, titles []string) ([]*domain.Category, error) {
	m.FindCalls = append(m.FindCalls, append([]string(nil), titles...))
	if m.FindByTitlesFn != nil {
		return m.FindByTitlesFn(titles)
	}

	wanted := make(map[string]bool, len(titles))
	for _, t := range titles {
		wanted[t] = true
	}

	result := make([]*domain.Category, 0)
	for _, c := range m.Categories {
		if wanted[c.Title] {
			result = append(result, c)
		}
	}
	return result, nil
}

// CreateBatch stores the categories and assigns identities
func (m *MockCategoryRepository) CreateBatch(ctx context.Context, categories []*domain.Category) ([]*domain.Category, error) {
	m.CreateCalls = append(m.CreateCalls, categories)
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(categories)
	}

	now := time.Now()
	created := make([]*domain.Category, len(categories))
	for i, c := range categories {
		stored := *c
		if stored.ID == uuid.Nil {
			stored.ID = uuid.New()
		}
		stored.CreatedAt = now
		stored.UpdatedAt = now
		m.Categories = append(m.Categories, &stored)
		created[i] = &stored
	}
	return created, nil
}

// GetAll returns every stored category
func (m *MockCategoryRepository) GetAll(ctx context.Context) ([]*domain.Category, error) {
	return m.Categories, nil
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(title string) *domain.Category {
	c := &domain.Category{ID: uuid.New(), Title: title, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.Categories = append(m.Categories, c)
	return c
}

// CountByTitle returns how many stored categories have the title
func (m *MockCategoryRepository) CountByTitle(title string) int {
	n := 0
	for _, c := range m.Categories {
		if c.Title == title {
			n++
		}
	}
	return n
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions  []*domain.Transaction
	CreateCalls   int
	CreateBatchFn func(transactions []*domain.Transaction) ([]*domain.Transaction, error)
	GetAllFn      func() ([]*domain.Transaction, error)
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make([]*domain.Transaction, 0),
	}
}

// CreateBatch stores the transactions and assigns identities
func (m *MockTransactionRepository) CreateBatch(ctx context.Context, transactions []*domain.Transaction) ([]*domain.Transaction, error) {
	m.CreateCalls++
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(transactions)
	}

	now := time.Now()
	created := make([]*domain.Transaction, len(transactions))
	for i, t := range transactions {
		stored := *t
		if stored.ID == uuid.Nil {
			stored.ID = uuid.New()
		}
		stored.CreatedAt = now
		stored.UpdatedAt = now
		m.Transactions = append(m.Transactions, &stored)
		created[i] = &stored
	}
	return created, nil
}

// GetAll returns every stored transaction
func (m *MockTransactionRepository) GetAll(ctx context.Context) ([]*domain.Transaction, error) {
	if m.GetAllFn != nil {
		return m.GetAllFn()
	}
	return m.Transactions, nil
}

// GetBalance sums stored transactions by type
func (m *MockTransactionRepository) GetBalance(ctx context.Context) (*domain.Balance, error) {
	balance := &domain.Balance{Income: decimal.Zero, Outcome: decimal.Zero}
	for _, t := range m.Transactions {
		switch t.Type {
		case domain.TransactionTypeIncome:
			balance.Income = balance.Income.Add(t.Amount)
		case domain.TransactionTypeOutcome:
			balance.Outcome = balance.Outcome.Add(t.Amount)
		}
	}
	balance.Total = balance.Income.Sub(balance.Outcome)
	return balance, nil
}

// MockTransactor is a mock implementation of domain.Transactor that runs fn directly
type MockTransactor struct {
	Calls  int
	Err    error
	Active bool // true while fn runs
}

// WithinTransaction runs fn and returns its error
func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	m.Active = true
	defer func() { m.Active = false }()
	return fn(ctx)
}

// MockSourceArchive is a mock implementation of domain.SourceArchive
type MockSourceArchive struct {
	Archived map[string][]byte
	Err      error
}

// NewMockSourceArchive creates a new MockSourceArchive
func NewMockSourceArchive() *MockSourceArchive {
	return &MockSourceArchive{Archived: make(map[string][]byte)}
}

// Archive records the source under a generated key
func (m *MockSourceArchive) Archive(ctx context.Context, name string, data io.Reader, size int64) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	key := "imports/" + name
	m.Archived[key] = body
	return key, nil
}

// RecordingPublisher captures published events
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []websocket.Event
}

// Publish records the event
func (p *RecordingPublisher) Publish(event websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
}

// EventTypes returns the types of recorded events in publish order
func (p *RecordingPublisher) EventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.Events))
	for i, e := range p.Events {
		types[i] = e.Type
	}
	return types
}
