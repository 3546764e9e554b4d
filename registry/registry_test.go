package registry

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logger interface {
	Log(msg string)
}

type consoleLogger struct{}

func (consoleLogger) Log(msg string) {}

type fileLogger struct{}

func (fileLogger) Log(msg string) {}

var (
	loggerType  = reflect.TypeOf((*logger)(nil)).Elem()
	consoleType = reflect.TypeOf(&consoleLogger{})
	fileType    = reflect.TypeOf(&fileLogger{})
)

func TestAddAccumulatesInDeclarationOrder(t *testing.T) {
	m := New()
	require.NoError(t, m.Add(&Registration{ServiceType: loggerType, ImplType: consoleType, Kind: KindStruct}))
	require.NoError(t, m.Add(&Registration{ServiceType: loggerType, ImplType: fileType, Kind: KindStruct}))

	assert.Equal(t, 2, m.Len())
	assert.True(t, m.Has(loggerType))

	regs := m.ForService(loggerType)
	require.Len(t, regs, 2)
	assert.Equal(t, consoleType, regs[0].ImplType)
	assert.Equal(t, fileType, regs[1].ImplType)
}

func TestAddValidation(t *testing.T) {
	m := New()
	require.Error(t, m.Add(nil))
	require.Error(t, m.Add(&Registration{ImplType: consoleType}))
	require.Error(t, m.Add(&Registration{ServiceType: loggerType}))
	assert.Equal(t, 0, m.Len())
}

func TestFreezeRejectsFurtherRegistrations(t *testing.T) {
	m := New()
	require.NoError(t, m.Add(&Registration{ServiceType: loggerType, ImplType: consoleType, Kind: KindStruct}))

	assert.False(t, m.Frozen())
	m.Freeze()
	assert.True(t, m.Frozen())

	err := m.Add(&Registration{ServiceType: loggerType, ImplType: fileType, Kind: KindStruct})
	require.ErrorIs(t, err, ErrFrozen)
	assert.Equal(t, 1, m.Len())

	// Freezing twice is a no-op.
	m.Freeze()
	assert.True(t, m.Frozen())
}

func TestForServiceReturnsCopy(t *testing.T) {
	m := New()
	require.NoError(t, m.Add(&Registration{ServiceType: loggerType, ImplType: consoleType, Kind: KindStruct}))

	regs := m.ForService(loggerType)
	regs[0] = nil

	fresh := m.ForService(loggerType)
	require.Len(t, fresh, 1)
	assert.NotNil(t, fresh[0])

	assert.Nil(t, m.ForService(consoleType))
}

func TestServicesInFirstRegistrationOrder(t *testing.T) {
	m := New()
	require.NoError(t, m.Add(&Registration{ServiceType: loggerType, ImplType: consoleType, Kind: KindStruct}))
	require.NoError(t, m.Add(&Registration{ServiceType: consoleType, ImplType: consoleType, Kind: KindStruct}))
	require.NoError(t, m.Add(&Registration{ServiceType: loggerType, ImplType: fileType, Kind: KindStruct}))

	services := m.Services()
	require.Len(t, services, 2)
	assert.Equal(t, loggerType, services[0])
	assert.Equal(t, consoleType, services[1])
}

func TestAllReturnsCopy(t *testing.T) {
	m := New()
	require.NoError(t, m.Add(&Registration{ServiceType: loggerType, ImplType: consoleType, Kind: KindStruct}))

	all := m.All()
	require.Len(t, all, 1)
	all[0] = nil
	assert.NotNil(t, m.All()[0])
}
