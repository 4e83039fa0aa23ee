package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockObjects struct {
	mock.Mock
}

func (m *mockObjects) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(bucket, key, size, opts.ContentType)
	return minio.UploadInfo{Bucket: bucket, Key: key}, args.Error(0)
}

func (m *mockObjects) RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error {
	return m.Called(bucket, key).Error(0)
}

func testStore(t *testing.T, client objectAPI) *MinIOStore {
	t.Helper()
	endpoint, err := url.Parse("https://files.example.com")
	require.NoError(t, err)
	return newStore(client, endpoint, "images")
}

func TestUpload(t *testing.T) {
	objs := &mockObjects{}
	objs.On("PutObject", "images", "users/abc.png", int64(3), "image/png").Return(nil)
	s := testStore(t, objs)

	got, err := s.Upload(context.Background(), strings.NewReader("png"), 3, "image/png", "users", "abc.png")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/images/users/abc.png", got)
	objs.AssertExpectations(t)
}

func TestUploadFailure(t *testing.T) {
	objs := &mockObjects{}
	objs.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("boom"))
	s := testStore(t, objs)

	_, err := s.Upload(context.Background(), strings.NewReader("x"), 1, "", "users", "f")
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestRemove(t *testing.T) {
	objs := &mockObjects{}
	objs.On("RemoveObject", "images", "users/my photo.png").Return(nil)
	s := testStore(t, objs)

	got, err := s.Remove(context.Background(), "https://files.example.com/images/users/my%20photo.png")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/images/users/my%20photo.png", got)
	objs.AssertExpectations(t)
}

func TestRemoveOutsideRootIsNoop(t *testing.T) {
	objs := &mockObjects{}
	s := testStore(t, objs)

	for _, u := range []string{
		"https://lh3.googleusercontent.com/a/photo.jpg",
		"https://files.example.com/other-bucket/users/a.png",
		"https://files.example.com/images/",
		"",
	} {
		got, err := s.Remove(context.Background(), u)
		require.NoError(t, err, u)
		assert.Empty(t, got, u)
	}
	objs.AssertNotCalled(t, "RemoveObject", mock.Anything, mock.Anything)
}

func TestRemoveFailure(t *testing.T) {
	objs := &mockObjects{}
	objs.On("RemoveObject", "images", "users/a.png").Return(errors.New("denied"))
	s := testStore(t, objs)

	_, err := s.Remove(context.Background(), "https://files.example.com/images/users/a.png")
	assert.ErrorIs(t, err, ErrDeleteFailed)
}

func TestDisabled(t *testing.T) {
	var b Blob = Disabled{}
	_, err := b.Upload(context.Background(), strings.NewReader(""), 0, "", "users", "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = b.Remove(context.Background(), "https://x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
