// Package mocks provides test doubles for the brreg client.
package mocks

import (
	"context"

	model "github.com/sells-group/salgsmotor/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// FetchByOrgNumber provides a mock function with given fields: ctx, orgnr
func (_m *MockClient) FetchByOrgNumber(ctx context.Context, orgnr string) (*model.Company, error) {
	ret := _m.Called(ctx, orgnr)

	if len(ret) == 0 {
		panic("no return value specified for FetchByOrgNumber")
	}

	var r0 *model.Company
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*model.Company, error)); ok {
		return rf(ctx, orgnr)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *model.Company); ok {
		r0 = rf(ctx, orgnr)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.Company)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, orgnr)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// SearchByName provides a mock function with given fields: ctx, name
func (_m *MockClient) SearchByName(ctx context.Context, name string) (model.OrgNumber, error) {
	ret := _m.Called(ctx, name)

	if len(ret) == 0 {
		panic("no return value specified for SearchByName")
	}

	var r0 model.OrgNumber
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (model.OrgNumber, error)); ok {
		return rf(ctx, name)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) model.OrgNumber); ok {
		r0 = rf(ctx, name)
	} else {
		r0 = ret.Get(0).(model.OrgNumber)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, name)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
