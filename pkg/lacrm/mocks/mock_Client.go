// Package mocks provides test doubles for the lacrm client.
package mocks

import (
	"context"

	lacrm "github.com/sells-group/salgsmotor/pkg/lacrm"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// SearchContacts provides a mock function with given fields: ctx, text
func (_m *MockClient) SearchContacts(ctx context.Context, text string) ([]lacrm.Contact, error) {
	ret := _m.Called(ctx, text)

	if len(ret) == 0 {
		panic("no return value specified for SearchContacts")
	}

	var r0 []lacrm.Contact
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]lacrm.Contact, error)); ok {
		return rf(ctx, text)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []lacrm.Contact); ok {
		r0 = rf(ctx, text)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]lacrm.Contact)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, text)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// GetCustomFields provides a mock function with given fields: ctx
func (_m *MockClient) GetCustomFields(ctx context.Context) (*lacrm.CustomFields, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for GetCustomFields")
	}

	var r0 *lacrm.CustomFields
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (*lacrm.CustomFields, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) *lacrm.CustomFields); ok {
		r0 = rf(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*lacrm.CustomFields)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// GetPipelines provides a mock function with given fields: ctx
func (_m *MockClient) GetPipelines(ctx context.Context) ([]lacrm.Pipeline, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for GetPipelines")
	}

	var r0 []lacrm.Pipeline
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) ([]lacrm.Pipeline, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) []lacrm.Pipeline); ok {
		r0 = rf(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]lacrm.Pipeline)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// CreatePipeline provides a mock function with given fields: ctx, name, statuses
func (_m *MockClient) CreatePipeline(ctx context.Context, name string, statuses []string) (string, error) {
	ret := _m.Called(ctx, name, statuses)

	if len(ret) == 0 {
		panic("no return value specified for CreatePipeline")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, []string) (string, error)); ok {
		return rf(ctx, name, statuses)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, []string) string); ok {
		r0 = rf(ctx, name, statuses)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, []string) error); ok {
		r1 = rf(ctx, name, statuses)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// CreatePipelineItem provides a mock function with given fields: ctx, item
func (_m *MockClient) CreatePipelineItem(ctx context.Context, item lacrm.PipelineItem) (string, error) {
	ret := _m.Called(ctx, item)

	if len(ret) == 0 {
		panic("no return value specified for CreatePipelineItem")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, lacrm.PipelineItem) (string, error)); ok {
		return rf(ctx, item)
	}
	if rf, ok := ret.Get(0).(func(context.Context, lacrm.PipelineItem) string); ok {
		r0 = rf(ctx, item)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, lacrm.PipelineItem) error); ok {
		r1 = rf(ctx, item)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// EditContact provides a mock function with given fields: ctx, contactID, fields
func (_m *MockClient) EditContact(ctx context.Context, contactID string, fields map[string]string) error {
	ret := _m.Called(ctx, contactID, fields)

	if len(ret) == 0 {
		panic("no return value specified for EditContact")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, map[string]string) error); ok {
		r0 = rf(ctx, contactID, fields)
	} else {
		r0 = ret.Error(0)
	}

	return r0
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
