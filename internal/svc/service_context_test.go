package svc

import (
	"clmm-price-sol/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNewServiceContext(t *testing.T) {
	c := config.Default()
	c.Validation.MaxEpochLag = 5

	ctx, err := NewServiceContext(&c)
	require.NoError(t, err)
	defer ctx.Close()

	assert.NotNil(t, ctx.Fetcher)
	assert.NotNil(t, ctx.Validator)
	assert.NotNil(t, ctx.Inspector)
	assert.Nil(t, ctx.Sink, "未配置 Kafka")
	assert.Len(t, ctx.Resolved.Pools, 2)
	assert.Equal(t, c.Validation.StaleEpochThreshold, ctx.Validator.StaleEpochThreshold())
}

func TestNewServiceContext_InvalidConfig(t *testing.T) {
	c := config.Default()
	c.Pools = nil

	_, err := NewServiceContext(&c)
	assert.ErrorIs(t, err, config.ErrNoPools)
}
