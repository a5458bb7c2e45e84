// Package enrich 在帖子创建后异步生成图片，并以系统评论的形式挂到帖子上。
package enrich

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storeapi/internal/core/mail"
	"storeapi/internal/core/metrics"
	"storeapi/internal/core/task"
	"storeapi/internal/domain"
)

const taskName = "generate_image"

type Request struct {
	Email   string
	UserID  uint // 帖子作者，系统评论记在他名下
	PostID  uint
	PostURL string
	Prompt  string
}

type Config struct {
	Log       *zap.Logger
	Runner    task.Spawner
	Generator Generator
	Posts     domain.PostRepository
	Mail      mail.Sender // 可为 nil
	// AfterAttach 图片写入成功后调用（用于清理 feed 缓存）
	AfterAttach func(ctx context.Context)
}

type Dispatcher struct {
	cfg Config
	log *zap.Logger
}

func NewDispatcher(cfg Config) *Dispatcher {
	return &Dispatcher{cfg: cfg, log: cfg.Log.Named("enrich")}
}

// Dispatch 派发后台任务后立即返回；prompt 为空时什么都不做。
// 返回错误仅表示任务没能派发（进程正在退出）。
func (d *Dispatcher) Dispatch(req Request) error {
	if req.Prompt == "" {
		return nil
	}
	return d.cfg.Runner.Go(taskName, func(ctx context.Context) error {
		return d.run(ctx, req)
	})
}

func (d *Dispatcher) run(ctx context.Context, req Request) error {
	log := d.log.With(zap.Uint("post_id", req.PostID), zap.String("email", req.Email))

	imageURL, err := d.cfg.Generator.Generate(ctx, req.Prompt)
	if err != nil {
		metrics.ImageGenerationsTotal.WithLabelValues("error").Inc()
		d.notify(ctx, log, "failure", mail.Message{
			To:      req.Email,
			Subject: "Error generating image",
			Text:    fmt.Sprintf("Hi %s! Unfortunately there was an error generating an image for your post.", req.Email),
		})
		return fmt.Errorf("generate image for post %d: %w", req.PostID, err)
	}

	c := &domain.Comment{UserID: req.UserID, Body: commentBody(imageURL, req.PostURL)}
	if err := d.cfg.Posts.AttachGeneratedImage(ctx, req.PostID, imageURL, c); err != nil {
		if errors.Is(err, domain.ErrPostNotFound) || errors.Is(err, domain.ErrImageAlreadySet) {
			metrics.ImageGenerationsTotal.WithLabelValues("skipped").Inc()
		} else {
			metrics.ImageGenerationsTotal.WithLabelValues("error").Inc()
		}
		return fmt.Errorf("attach image to post %d: %w", req.PostID, err)
	}
	metrics.ImageGenerationsTotal.WithLabelValues("ok").Inc()
	log.Info("generated image attached", zap.Uint("comment_id", c.ID), zap.String("image_url", imageURL))

	if d.cfg.AfterAttach != nil {
		d.cfg.AfterAttach(ctx)
	}
	d.notify(ctx, log, "image_ready", mail.Message{
		To:      req.Email,
		Subject: "Image generation completed",
		Text: fmt.Sprintf("Hi %s! Your image has been generated and added to your post. "+
			"Please click on the following link to view it: %s\n\nImage: %s", req.Email, req.PostURL, imageURL),
	})
	return nil
}

// notify 尽力而为，失败只记日志
func (d *Dispatcher) notify(ctx context.Context, log *zap.Logger, kind string, m mail.Message) {
	if d.cfg.Mail == nil || m.To == "" {
		return
	}
	if err := d.cfg.Mail.Send(ctx, m); err != nil {
		metrics.MailsTotal.WithLabelValues(kind, "error").Inc()
		log.Warn("notification mail failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	metrics.MailsTotal.WithLabelValues(kind, "ok").Inc()
}

func commentBody(imageURL, postURL string) string {
	return fmt.Sprintf("Generated image: %s\nPost: %s", imageURL, postURL)
}
