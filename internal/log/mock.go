package log

import "github.com/stretchr/testify/mock"

// Mock stands in for a real logger in tests that need to assert log calls
// or simply don't want to pay for a live seelog receiver.
type Mock struct {
	mock.Mock
}

// NewMockLog returns a Mock with the usual no-op expectations already set.
func NewMockLog() *Mock {
	l := new(Mock)
	l.On("Close").Return()
	l.On("Flush").Return()
	l.On("Debug", mock.Anything).Return()
	l.On("Error", mock.Anything).Return(nil)
	l.On("Trace", mock.Anything).Return()
	l.On("Info", mock.Anything).Return()
	l.On("Warn", mock.Anything).Return(nil)
	l.On("Debugf", mock.Anything, mock.Anything).Return()
	l.On("Errorf", mock.Anything, mock.Anything).Return(nil)
	l.On("Tracef", mock.Anything, mock.Anything).Return()
	l.On("Infof", mock.Anything, mock.Anything).Return()
	l.On("Warnf", mock.Anything, mock.Anything).Return(nil)
	return l
}

func (m *Mock) WithContext(context ...string) T { return m }

func (m *Mock) Tracef(format string, params ...interface{}) { m.Called(format, params) }
func (m *Mock) Debugf(format string, params ...interface{}) { m.Called(format, params) }
func (m *Mock) Infof(format string, params ...interface{})  { m.Called(format, params) }

func (m *Mock) Warnf(format string, params ...interface{}) error {
	ret := m.Called(format, params)
	return ret.Error(0)
}

func (m *Mock) Errorf(format string, params ...interface{}) error {
	ret := m.Called(format, params)
	return ret.Error(0)
}

func (m *Mock) Criticalf(format string, params ...interface{}) error {
	ret := m.Called(format, params)
	return ret.Error(0)
}

func (m *Mock) Trace(v ...interface{}) { m.Called(v) }
func (m *Mock) Debug(v ...interface{}) { m.Called(v) }
func (m *Mock) Info(v ...interface{})  { m.Called(v) }

func (m *Mock) Warn(v ...interface{}) error {
	ret := m.Called(v)
	return ret.Error(0)
}

func (m *Mock) Error(v ...interface{}) error {
	ret := m.Called(v)
	return ret.Error(0)
}

func (m *Mock) Critical(v ...interface{}) error {
	ret := m.Called(v)
	return ret.Error(0)
}

func (m *Mock) Flush() { m.Called() }
func (m *Mock) Close()  { m.Called() }
