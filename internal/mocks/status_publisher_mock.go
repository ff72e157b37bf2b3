package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"deck-server/internal/notify"
	"deck-server/internal/store"
)

// MockStatusPublisher is a mock type for the StatusPublisher type
type MockStatusPublisher struct {
	mock.Mock
}

// Publish provides a mock function with given fields: ctx, event
func (_m *MockStatusPublisher) Publish(ctx context.Context, event store.Event) error {
	ret := _m.Called(ctx, event)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, store.Event) error); ok {
		r0 = rf(ctx, event)
	} else {
		r0 = ret.Error(0)
	}
	return r0
}

// Close provides a mock function with given fields:
func (_m *MockStatusPublisher) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}

// NewMockStatusPublisher creates a new instance of MockStatusPublisher. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockStatusPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStatusPublisher {
	m := &MockStatusPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ notify.StatusPublisher = (*MockStatusPublisher)(nil)
