package service

import (
	"context"
	"errors"
	"testing"

	"github.com/airobotics/docqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDocumentSource is a mock implementation of DocumentSource
type MockDocumentSource struct {
	mock.Mock
}

func (m *MockDocumentSource) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDocumentSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockContentExtractor is a mock implementation of ContentExtractor
type MockContentExtractor struct {
	mock.Mock
}

func (m *MockContentExtractor) Supported(name string) bool {
	args := m.Called(name)
	return args.Bool(0)
}

func (m *MockContentExtractor) ExtractBytes(name string, content []byte) ([]domain.ContentUnit, error) {
	args := m.Called(name, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ContentUnit), args.Error(1)
}

// MockChunkIndex is a mock implementation of ChunkIndex
type MockChunkIndex struct {
	mock.Mock
}

func (m *MockChunkIndex) UpsertNew(ctx context.Context, units []domain.ContentUnit) (int, error) {
	args := m.Called(ctx, units)
	return args.Int(0), args.Error(1)
}

func (m *MockChunkIndex) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestIngestService_Run(t *testing.T) {
	unit := domain.NewContentUnit("manual.pdf", 1, domain.ContentKindText, 0, "Robots are built at AIR Lab.")

	t.Run("extracts supported documents and indexes the units", func(t *testing.T) {
		source := new(MockDocumentSource)
		extractor := new(MockContentExtractor)
		index := new(MockChunkIndex)
		svc := NewIngestService(source, extractor, index)

		source.On("List", mock.Anything).Return([]string{"manual.pdf", "photo.png"}, nil)
		extractor.On("Supported", "manual.pdf").Return(true)
		extractor.On("Supported", "photo.png").Return(false)
		source.On("Fetch", mock.Anything, "manual.pdf").Return([]byte("%PDF"), nil)
		extractor.On("ExtractBytes", "manual.pdf", []byte("%PDF")).Return([]domain.ContentUnit{unit}, nil)
		index.On("UpsertNew", mock.Anything, []domain.ContentUnit{unit}).Return(1, nil)

		result, err := svc.Run(context.Background(), false)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Documents)
		assert.Equal(t, 0, result.Failed)
		assert.Equal(t, 1, result.Units)
		assert.Equal(t, 1, result.Inserted)
		source.AssertNotCalled(t, "Fetch", mock.Anything, "photo.png")
		index.AssertNotCalled(t, "Reset", mock.Anything)
	})

	t.Run("a failing document is skipped and the rest ingests", func(t *testing.T) {
		source := new(MockDocumentSource)
		extractor := new(MockContentExtractor)
		index := new(MockChunkIndex)
		svc := NewIngestService(source, extractor, index)

		source.On("List", mock.Anything).Return([]string{"broken.pdf", "manual.pdf"}, nil)
		extractor.On("Supported", mock.Anything).Return(true)
		source.On("Fetch", mock.Anything, "broken.pdf").Return([]byte("junk"), nil)
		extractor.On("ExtractBytes", "broken.pdf", []byte("junk")).Return(nil, errors.New("open PDF: malformed"))
		source.On("Fetch", mock.Anything, "manual.pdf").Return([]byte("%PDF"), nil)
		extractor.On("ExtractBytes", "manual.pdf", []byte("%PDF")).Return([]domain.ContentUnit{unit}, nil)
		index.On("UpsertNew", mock.Anything, []domain.ContentUnit{unit}).Return(1, nil)

		result, err := svc.Run(context.Background(), false)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Documents)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 1, result.Inserted)
	})

	t.Run("reset clears the index before ingesting", func(t *testing.T) {
		source := new(MockDocumentSource)
		extractor := new(MockContentExtractor)
		index := new(MockChunkIndex)
		svc := NewIngestService(source, extractor, index)

		index.On("Reset", mock.Anything).Return(nil)
		source.On("List", mock.Anything).Return([]string{}, nil)
		index.On("UpsertNew", mock.Anything, mock.Anything).Return(0, nil)

		result, err := svc.Run(context.Background(), true)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Documents)
		index.AssertCalled(t, "Reset", mock.Anything)
	})

	t.Run("index failure aborts the run", func(t *testing.T) {
		source := new(MockDocumentSource)
		extractor := new(MockContentExtractor)
		index := new(MockChunkIndex)
		svc := NewIngestService(source, extractor, index)

		source.On("List", mock.Anything).Return([]string{"manual.pdf"}, nil)
		extractor.On("Supported", "manual.pdf").Return(true)
		source.On("Fetch", mock.Anything, "manual.pdf").Return([]byte("%PDF"), nil)
		extractor.On("ExtractBytes", "manual.pdf", []byte("%PDF")).Return([]domain.ContentUnit{unit}, nil)
		index.On("UpsertNew", mock.Anything, mock.Anything).Return(0, domain.NewDomainError(domain.ErrCodeEmbedding, "model unavailable"))

		_, err := svc.Run(context.Background(), false)
		require.Error(t, err)
	})

	t.Run("listing failure aborts the run", func(t *testing.T) {
		source := new(MockDocumentSource)
		extractor := new(MockContentExtractor)
		index := new(MockChunkIndex)
		svc := NewIngestService(source, extractor, index)

		source.On("List", mock.Anything).Return(nil, errors.New("bucket unreachable"))

		_, err := svc.Run(context.Background(), false)
		require.Error(t, err)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeStorage, domainErr.Code)
	})
}
