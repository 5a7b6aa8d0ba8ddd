package audittest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminctl/internal/audit"
)

func TestMemory_Recent(t *testing.T) {
	mem := &Memory{}
	for _, msg := range []string{"a", "b", "c"} {
		_ = mem.Append(context.Background(), audit.Record{Message: msg})
	}

	got, err := mem.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Message)
	assert.Equal(t, "b", got[1].Message)
	assert.Equal(t, []string{"a", "b", "c"}, mem.Messages())
}

var (
	_ audit.Sink    = (*Memory)(nil)
	_ audit.History = (*Memory)(nil)
)
