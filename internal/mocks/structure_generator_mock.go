package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"deck-server/internal/generator"
)

// MockStructureGenerator is a mock type for the StructureGenerator type
type MockStructureGenerator struct {
	mock.Mock
}

// GenerateStructure provides a mock function with given fields: ctx, req
func (_m *MockStructureGenerator) GenerateStructure(ctx context.Context, req generator.StructureRequest) (generator.StructureResponse, error) {
	ret := _m.Called(ctx, req)

	if rf, ok := ret.Get(0).(func(context.Context, generator.StructureRequest) (generator.StructureResponse, error)); ok {
		return rf(ctx, req)
	}

	var r0 generator.StructureResponse
	if v, ok := ret.Get(0).(generator.StructureResponse); ok {
		r0 = v
	}
	return r0, ret.Error(1)
}

// NewMockStructureGenerator creates a new instance of MockStructureGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockStructureGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStructureGenerator {
	m := &MockStructureGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ generator.StructureGenerator = (*MockStructureGenerator)(nil)
