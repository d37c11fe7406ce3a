package artifact_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/absmach/flclient/pkg/artifact"
	pkgerrors "github.com/absmach/flclient/pkg/errors"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := artifact.NewFileStore(dir)
	require.NoError(t, err)

	cases := []struct {
		desc string
		name string
		path string
		err  error
	}{
		{desc: "fixed model name", name: artifact.ModelName, path: artifact.ModelName},
		{desc: "path traversal is flattened", name: "../../etc/passwd", path: "etcpasswd"},
		{desc: "nested path is flattened", name: "a/b.bin", path: "ab.bin"},
		{desc: "only separators", name: "../", err: artifact.ErrInvalidName},
		{desc: "empty name", name: "", err: artifact.ErrInvalidName},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			data := []byte("payload-" + tc.desc)
			err := store.Save(context.Background(), tc.name, data)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)

			onDisk, err := os.ReadFile(filepath.Join(dir, tc.path))
			require.NoError(t, err)
			assert.Equal(t, data, onDisk)

			loaded, err := store.Load(context.Background(), tc.name)
			require.NoError(t, err)
			assert.Equal(t, data, loaded)
		})
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := artifact.NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), artifact.ModelName, []byte("first")))
	require.NoError(t, store.Save(context.Background(), artifact.ModelName, []byte("second")))

	data, err := store.Load(context.Background(), artifact.ModelName)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	_, err = store.Load(context.Background(), "missing.cbor")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Bucket+"/"+*in.Key] = data

	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}

	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Store(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{objects: map[string][]byte{}}
	store := artifact.NewS3StoreWithClient(fake, "models", "clients/1/")

	require.NoError(t, store.Save(context.Background(), artifact.ModelName, []byte("weights")))
	assert.Contains(t, fake.objects, "models/clients/1/"+artifact.ModelName)

	data, err := store.Load(context.Background(), artifact.ModelName)
	require.NoError(t, err)
	assert.Equal(t, []byte("weights"), data)

	_, err = store.Load(context.Background(), "other.cbor")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestNew(t *testing.T) {
	t.Parallel()

	store, err := artifact.New(context.Background(), artifact.Config{Type: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &artifact.FileStore{}, store)

	_, err = artifact.New(context.Background(), artifact.Config{Type: "s3"})
	assert.Error(t, err)

	_, err = artifact.New(context.Background(), artifact.Config{Type: "gcs"})
	assert.ErrorIs(t, err, artifact.ErrUnsupported)
}
