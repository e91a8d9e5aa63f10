package mcp

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_handleIndexResource(t *testing.T) {
	server := newTestServer(t, &mockRecommender{})
	req := &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "animerec://index"},
	}

	result, err := server.handleIndexResource(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "animerec://index", result.Contents[0].URI)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
	assert.Equal(t, "hashing-384", got["model"])
	assert.EqualValues(t, 12, got["entries"])
	assert.EqualValues(t, 3, got["min_query_length"])
}
