package exporters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTLPExporter_Disabled(t *testing.T) {
	exp, err := NewOTLPExporter(context.Background(), OTLPConfig{Protocol: ProtocolGRPC})
	require.NoError(t, err)
	assert.Nil(t, exp)

	exp, err = NewOTLPExporter(context.Background(), OTLPConfig{Endpoint: "localhost:4317", Protocol: ProtocolNone})
	require.NoError(t, err)
	assert.Nil(t, exp)
}

func TestNewOTLPExporter_UnknownProtocol(t *testing.T) {
	_, err := NewOTLPExporter(context.Background(), OTLPConfig{Endpoint: "localhost:4317", Protocol: "udp"})
	assert.Error(t, err)
}
