//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgenius/flowdex/internal/testutil"
)

func TestS3Client_PutGetHeadDelete(t *testing.T) {
	ctx := context.Background()
	rc := testutil.NewRustFSContainer(ctx, t)
	defer rc.Terminate(ctx)

	client, err := NewS3Client(ctx, S3ClientConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "flowdex-documents",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(ctx))

	body := []byte("# Runbook\n\nRestart the service before rotating credentials.")
	require.NoError(t, client.PutObject(ctx, "docs/runbook.md", body, "text/markdown"))

	data, meta, err := client.GetObject(ctx, "docs/runbook.md")
	require.NoError(t, err)
	assert.Equal(t, body, data)
	assert.Equal(t, int64(len(body)), meta.ContentLength)

	head, err := client.HeadObject(ctx, "docs/runbook.md")
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), head.ContentLength)

	require.NoError(t, client.DeleteObject(ctx, "docs/runbook.md"))

	_, _, err = client.GetObject(ctx, "docs/runbook.md")
	assert.Error(t, err)
}
