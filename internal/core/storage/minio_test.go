package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMinio struct {
	bucketExists    bool
	bucketExistsErr error
	makeBucketErr   error
	madeBucket      bool

	putErr     error
	putPath    string
	putObject  string
	presignErr error
}

func (f *fakeMinio) BucketExists(context.Context, string) (bool, error) {
	return f.bucketExists, f.bucketExistsErr
}

func (f *fakeMinio) MakeBucket(context.Context, string, minio.MakeBucketOptions) error {
	f.madeBucket = true
	return f.makeBucketErr
}

func (f *fakeMinio) FPutObject(_ context.Context, _, object, path string, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.putObject, f.putPath = object, path
	return minio.UploadInfo{Key: object}, f.putErr
}

func (f *fakeMinio) PresignedGetObject(_ context.Context, bucket, object string, _ time.Duration, _ url.Values) (*url.URL, error) {
	if f.presignErr != nil {
		return nil, f.presignErr
	}
	return &url.URL{Scheme: "http", Host: "minio:9000", Path: "/" + bucket + "/" + object}, nil
}

func TestNewUploaderWithAPI_CreatesMissingBucket(t *testing.T) {
	api := &fakeMinio{}
	_, err := NewUploaderWithAPI(context.Background(), api, "uploads", time.Hour)
	require.NoError(t, err)
	assert.True(t, api.madeBucket)

	api = &fakeMinio{bucketExists: true}
	_, err = NewUploaderWithAPI(context.Background(), api, "uploads", time.Hour)
	require.NoError(t, err)
	assert.False(t, api.madeBucket)
}

func TestNewUploaderWithAPI_BucketErrors(t *testing.T) {
	_, err := NewUploaderWithAPI(context.Background(), &fakeMinio{bucketExistsErr: errors.New("boom")}, "b", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check bucket")

	_, err = NewUploaderWithAPI(context.Background(), &fakeMinio{makeBucketErr: errors.New("denied")}, "b", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create bucket")
}

func TestUploader_Upload(t *testing.T) {
	api := &fakeMinio{bucketExists: true}
	u, err := NewUploaderWithAPI(context.Background(), api, "uploads", time.Hour)
	require.NoError(t, err)

	link, err := u.Upload(context.Background(), "/tmp/staged-123", "../cat.png")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/staged-123", api.putPath)
	assert.True(t, strings.HasSuffix(api.putObject, "/cat.png"), api.putObject)
	assert.Equal(t, "http://minio:9000/uploads/"+api.putObject, link)
}

func TestUploader_UploadErrors(t *testing.T) {
	u := &Uploader{api: &fakeMinio{putErr: errors.New("put-fail")}, bucket: "b", expiry: time.Hour}
	_, err := u.Upload(context.Background(), "/tmp/x", "x")
	require.Error(t, err)

	u = &Uploader{api: &fakeMinio{presignErr: errors.New("sign-fail")}, bucket: "b", expiry: time.Hour}
	_, err = u.Upload(context.Background(), "/tmp/x", "x")
	require.Error(t, err)

	var disabled *Uploader
	_, err = disabled.Upload(context.Background(), "/tmp/x", "x")
	assert.ErrorIs(t, err, ErrDisabled)
}
