package storage_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/storefront/pkg/storage"
)

func TestLocalDiskRoundTrip(t *testing.T) {
	ctx := context.Background()
	disk, err := storage.NewLocalDisk(t.TempDir(), "http://localhost:8000/storage/")
	require.NoError(t, err)

	require.NoError(t, disk.Put(ctx, "products/p-1/cover.png", strings.NewReader("png-bytes"), "image/png"))

	ok, err := disk.Exists(ctx, "products/p-1/cover.png")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := disk.Get(ctx, "products/p-1/cover.png")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png-bytes", string(data))

	assert.Equal(t, "http://localhost:8000/storage/products/p-1/cover.png", disk.URL("products/p-1/cover.png"))

	require.NoError(t, disk.Delete(ctx, "products/p-1/cover.png"))
	require.NoError(t, disk.Delete(ctx, "products/p-1/cover.png"))
	_, err = disk.Get(ctx, "products/p-1/cover.png")
	assert.ErrorIs(t, err, storage.ErrNotExist)
}

func TestLocalDiskStaysInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	disk, err := storage.NewLocalDisk(root, "")
	require.NoError(t, err)

	require.NoError(t, disk.Put(ctx, "../../escape.txt", strings.NewReader("x"), ""))

	ok, err := disk.Exists(ctx, "escape.txt")
	require.NoError(t, err)
	assert.True(t, ok, "traversal is clamped to the root")
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Disk(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	disk := storage.NewS3DiskWithClient(fake, "atelier-media", "https://cdn.example.com/")

	require.NoError(t, disk.Put(ctx, "/products/p-1/cover.webp", strings.NewReader("webp"), "image/webp"))
	assert.Equal(t, "image/webp", fake.types["products/p-1/cover.webp"])
	assert.Equal(t, "https://cdn.example.com/products/p-1/cover.webp", disk.URL("/products/p-1/cover.webp"))

	ok, err := disk.Exists(ctx, "products/p-1/cover.webp")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, disk.Delete(ctx, "products/p-1/cover.webp"))
	ok, err = disk.Exists(ctx, "products/p-1/cover.webp")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = disk.Get(ctx, "products/p-1/cover.webp")
	assert.ErrorIs(t, err, storage.ErrNotExist)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := storage.Open(context.Background(), storage.Config{Driver: "ftp"})
	assert.Error(t, err)
}
