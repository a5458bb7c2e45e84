package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrDisabled = errors.New("object storage is not configured")

// minioAPI 是 *minio.Client 用到的子集，测试里替换成 fake
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	URLExpiry time.Duration
}

type Uploader struct {
	api    minioAPI
	bucket string
	expiry time.Duration
}

func NewUploader(ctx context.Context, o Options) (*Uploader, error) {
	cl, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return NewUploaderWithAPI(ctx, cl, o.Bucket, o.URLExpiry)
}

// NewUploaderWithAPI 确保 bucket 存在
func NewUploaderWithAPI(ctx context.Context, api minioAPI, bucket string, expiry time.Duration) (*Uploader, error) {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	u := &Uploader{api: api, bucket: bucket, expiry: expiry}

	ok, err := api.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	if !ok {
		if err := api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
	}
	return u, nil
}

// Upload 上传本地文件并返回可下载的预签名 URL。
// 对象名带随机前缀，同名文件不会互相覆盖。
func (u *Uploader) Upload(ctx context.Context, localPath, name string) (string, error) {
	if u == nil {
		return "", ErrDisabled
	}
	object := uuid.NewString() + "/" + filepath.Base(name)
	if _, err := u.api.FPutObject(ctx, u.bucket, object, localPath, minio.PutObjectOptions{}); err != nil {
		return "", fmt.Errorf("put object %q: %w", object, err)
	}
	link, err := u.api.PresignedGetObject(ctx, u.bucket, object, u.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w", object, err)
	}
	return link.String(), nil
}
