package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"deck-server/internal/ai"
)

// MockTextClient is a mock type for the TextClient type
type MockTextClient struct {
	mock.Mock
}

// GenerateJSON provides a mock function with given fields: ctx, req
func (_m *MockTextClient) GenerateJSON(ctx context.Context, req ai.Request) (string, ai.Usage, error) {
	ret := _m.Called(ctx, req)

	var r0 string
	var r1 ai.Usage
	var r2 error
	if rf, ok := ret.Get(0).(func(context.Context, ai.Request) (string, ai.Usage, error)); ok {
		return rf(ctx, req)
	}
	r0 = ret.String(0)
	if u, ok := ret.Get(1).(ai.Usage); ok {
		r1 = u
	}
	r2 = ret.Error(2)

	return r0, r1, r2
}

// Model provides a mock function with given fields:
func (_m *MockTextClient) Model() string {
	ret := _m.Called()
	return ret.String(0)
}

// NewMockTextClient creates a new instance of MockTextClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTextClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTextClient {
	m := &MockTextClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ ai.TextClient = (*MockTextClient)(nil)
