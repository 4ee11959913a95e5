package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/config"
)

type storeConfig struct {
	Driver   string `env:"TEST_STORE_DRIVER" envDefault:"memory"`
	PageSize int    `env:"TEST_PAGE_SIZE" envDefault:"20"`
}

type requiredConfig struct {
	Secret string `env:"TEST_REQUIRED_SECRET_THAT_IS_NEVER_SET,required"`
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_STORE_DRIVER", "mongo")

	var cfg storeConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "mongo", cfg.Driver)
	assert.Equal(t, 20, cfg.PageSize)

	t.Setenv("TEST_STORE_DRIVER", "memory")
	var again storeConfig
	require.NoError(t, config.Load(&again))
	assert.Equal(t, "mongo", again.Driver, "cached per type")
}

func TestLoad_Errors(t *testing.T) {
	var cfg requiredConfig
	assert.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)
	assert.ErrorIs(t, config.Load[requiredConfig](nil), config.ErrNilPointer)
	assert.Panics(t, func() { config.MustLoad(&requiredConfig{}) })
}
