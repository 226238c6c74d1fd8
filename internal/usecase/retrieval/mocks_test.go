package retrieval_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"lex-retriever/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// MockPassageReader is a test double for domain.PassageReader.
type MockPassageReader struct {
	mock.Mock
}

func (m *MockPassageReader) GetByID(ctx context.Context, id string) (*domain.PassageRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PassageRecord), args.Error(1)
}

func (m *MockPassageReader) FetchByIDs(ctx context.Context, ids []string) ([]domain.PassageRecord, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PassageRecord), args.Error(1)
}

func (m *MockPassageReader) FetchByDocumentID(ctx context.Context, documentID string, limit int) ([]domain.PassageRecord, error) {
	args := m.Called(ctx, documentID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PassageRecord), args.Error(1)
}

func (m *MockPassageReader) FindByDocumentNumber(ctx context.Context, number string) ([]domain.PassageRecord, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PassageRecord), args.Error(1)
}

func (m *MockPassageReader) ScanLiteral(ctx context.Context, term string, limit int) ([]domain.PassageRecord, error) {
	args := m.Called(ctx, term, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PassageRecord), args.Error(1)
}

// MockNgramIndex is a test double for domain.NgramIndex.
type MockNgramIndex struct {
	mock.Mock
}

func (m *MockNgramIndex) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockNgramIndex) CandidateIDs(ctx context.Context, term string) ([]string, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockFullTextIndex is a test double for domain.FullTextIndex.
type MockFullTextIndex struct {
	mock.Mock
}

func (m *MockFullTextIndex) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockFullTextIndex) SearchPrefixGroups(ctx context.Context, groups [][]string, limit int) ([]string, error) {
	args := m.Called(ctx, groups, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockAnnSearcher is a test double for domain.AnnSearcher.
type MockAnnSearcher struct {
	mock.Mock
}

func (m *MockAnnSearcher) Search(ctx context.Context, embedding []float32, limit int) ([]domain.AnnHit, error) {
	args := m.Called(ctx, embedding, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnnHit), args.Error(1)
}

// MockEmbeddingSampler is a test double for domain.EmbeddingSampler.
type MockEmbeddingSampler struct {
	mock.Mock
}

func (m *MockEmbeddingSampler) SampleEmbeddings(ctx context.Context, limit int) ([]domain.EmbeddedPassage, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EmbeddedPassage), args.Error(1)
}
