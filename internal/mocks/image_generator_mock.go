package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"deck-server/internal/generator"
)

// MockImageGenerator is a mock type for the ImageGenerator type
type MockImageGenerator struct {
	mock.Mock
}

// GenerateImage provides a mock function with given fields: ctx, req
func (_m *MockImageGenerator) GenerateImage(ctx context.Context, req generator.ImageRequest) (string, error) {
	ret := _m.Called(ctx, req)

	if rf, ok := ret.Get(0).(func(context.Context, generator.ImageRequest) (string, error)); ok {
		return rf(ctx, req)
	}
	return ret.String(0), ret.Error(1)
}

// NewMockImageGenerator creates a new instance of MockImageGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockImageGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockImageGenerator {
	m := &MockImageGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ generator.ImageGenerator = (*MockImageGenerator)(nil)
