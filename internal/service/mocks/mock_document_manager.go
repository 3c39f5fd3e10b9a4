package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/florinivan/asdallinkickboxing/internal/model"
	"github.com/florinivan/asdallinkickboxing/internal/repository"
	"github.com/florinivan/asdallinkickboxing/internal/service"
	"github.com/florinivan/asdallinkickboxing/internal/storage"
)

type MockDocumentManager struct {
	mock.Mock
}

func (m *MockDocumentManager) Generate(ctx context.Context, form model.FormRecord) (*service.GenerateResult, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GenerateResult), args.Error(1)
}

func (m *MockDocumentManager) Get(ctx context.Context, id string) (*model.GeneratedDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GeneratedDocument), args.Error(1)
}

func (m *MockDocumentManager) List(ctx context.Context) ([]model.GeneratedDocument, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GeneratedDocument), args.Error(1)
}

func (m *MockDocumentManager) Search(ctx context.Context, filter model.SearchFilter) ([]model.GeneratedDocument, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GeneratedDocument), args.Error(1)
}

func (m *MockDocumentManager) Stats(ctx context.Context) (*model.DocumentStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentStats), args.Error(1)
}

func (m *MockDocumentManager) FetchBlob(ctx context.Context, filename string) (*storage.FetchResult, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.FetchResult), args.Error(1)
}

func (m *MockDocumentManager) UpdateTags(ctx context.Context, id string, tags []string) error {
	args := m.Called(ctx, id, tags)
	return args.Error(0)
}

func (m *MockDocumentManager) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentManager) Subscribe(ctx context.Context, filter model.SearchFilter) (*repository.Subscription, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Subscription), args.Error(1)
}
