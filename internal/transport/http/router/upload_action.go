package router

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storeapi/internal/core/storage"
	httpez "storeapi/internal/transport/http/ez"
	mdw "storeapi/internal/transport/http/middleware"
)

const uploadFailed = "There was an error uploading the file"

type uploadOut struct {
	Detail  string `json:"detail"`
	FileURL string `json:"file_url"`
}

type uploadAction struct {
	uploader Uploader
	log      *zap.Logger
}

func (uploadAction) Priority() int { return 30 }

// Mount POST /upload（multipart 字段 file）；任何失败都只回一条通用 500，原因写日志
func (a uploadAction) Mount(pub, _ *gin.RouterGroup) {
	httpez.RegisterAction(httpez.New(pub, a.log), httpez.Action[struct{}, uploadOut]{
		Method: http.MethodPost,
		Path:   "/upload",
		Binder: httpez.BindNone,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *struct{}) (uploadOut, error) {
			fh, err := c.FormFile("file")
			if err != nil {
				if mdw.IsBodyTooLarge(err) {
					return uploadOut{}, err
				}
				return uploadOut{}, httpez.Unprocessable("field 'file' is required")
			}
			url, err := a.stageAndUpload(c, fh.Filename, func(dst io.Writer) error {
				src, err := fh.Open()
				if err != nil {
					return err
				}
				defer src.Close()
				_, err = io.Copy(dst, src)
				return err
			})
			if err != nil {
				return uploadOut{}, httpez.Internal(uploadFailed, err)
			}
			return uploadOut{Detail: fmt.Sprintf("Successfully uploaded %s", fh.Filename), FileURL: url}, nil
		},
	})
}

// stageAndUpload 先落到临时文件再交给对象存储，返回前删除临时文件
func (a uploadAction) stageAndUpload(c *gin.Context, name string, copyTo func(io.Writer) error) (string, error) {
	if a.uploader == nil {
		return "", storage.ErrDisabled
	}
	tmp, err := os.CreateTemp("", "upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	a.log.Info("saving uploaded file temporarily",
		zap.String("rid", c.GetString(mdw.KeyRequestID)),
		zap.String("file", name),
		zap.String("tmp", tmp.Name()),
	)
	if err := copyTo(tmp); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	return a.uploader.Upload(c.Request.Context(), tmp.Name(), filepath.Base(name))
}
