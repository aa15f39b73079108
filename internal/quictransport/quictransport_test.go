package quictransport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMatchesSpecTimeouts(t *testing.T) {
	cfg := Config()
	assert.Equal(t, maxIdleTimeout, cfg.MaxIdleTimeout)
	assert.Equal(t, keepAlivePeriod, cfg.KeepAlivePeriod)
}

func TestGenerateInsecureTLSConfigProducesUsableCert(t *testing.T) {
	tlsConf, err := GenerateInsecureTLSConfig()
	require.NoError(t, err)
	require.Len(t, tlsConf.Certificates, 1)
	assert.NotEmpty(t, tlsConf.Certificates[0].Certificate)
}
