package post

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storeapi/internal/core/cache"
	"storeapi/internal/domain"
	"storeapi/internal/feature/enrich"
)

const (
	feedKeyPrefix  = "storeapi:feed:"
	feedVersionKey = feedKeyPrefix + "version"
)

// feedKey 带上版本号；写操作只需把版本号加一，所有排序方式一起失效
func feedKey(version int64, sort domain.PostSort) string {
	return fmt.Sprintf("%sv%d:%s", feedKeyPrefix, version, sort)
}

type Enricher interface {
	Dispatch(req enrich.Request) error
}

type Service struct {
	posts    domain.PostRepository
	cache    *cache.Cache // nil 表示不缓存
	feedTTL  time.Duration
	enricher Enricher
	log      *zap.Logger
}

func NewService(l *zap.Logger, posts domain.PostRepository, c *cache.Cache, feedTTL time.Duration, e Enricher) *Service {
	return &Service{posts: posts, cache: c, feedTTL: feedTTL, enricher: e, log: l.Named("post")}
}

func (s *Service) ListPosts(ctx context.Context, sort domain.PostSort) ([]domain.PostWithLikes, error) {
	load := func(ctx context.Context) ([]domain.PostWithLikes, error) {
		return s.posts.ListWithLikes(ctx, sort)
	}
	ver, err := s.cache.Version(ctx, feedVersionKey)
	if err != nil {
		return load(ctx)
	}
	return cache.GetOrLoadJSON(s.cache, ctx, feedKey(ver, sort), s.feedTTL, load)
}

// InvalidateFeed 失败只记日志；缓存 TTL 很短，最坏情况是 TTL 内读到旧数据
func (s *Service) InvalidateFeed(ctx context.Context) {
	if err := s.cache.Bump(ctx, feedVersionKey); err != nil {
		s.log.Warn("feed cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) GetPostWithComments(ctx context.Context, postID uint) (domain.PostWithLikes, []domain.Comment, error) {
	p, err := s.posts.FindWithLikes(ctx, postID)
	if err != nil {
		return domain.PostWithLikes{}, nil, err
	}
	cs, err := s.posts.ListComments(ctx, postID)
	if err != nil {
		return domain.PostWithLikes{}, nil, err
	}
	return p, cs, nil
}

func (s *Service) ListComments(ctx context.Context, postID uint) ([]domain.Comment, error) {
	if err := s.mustExist(ctx, postID); err != nil {
		return nil, err
	}
	return s.posts.ListComments(ctx, postID)
}

type CreatePostInput struct {
	Author *domain.User
	Body   string
	Prompt string
	// PostURL 根据新帖 id 生成回调地址，写进系统评论
	PostURL func(postID uint) string
}

// CreatePost 写库后立即返回；有 prompt 时派发后台生成，不等待结果
func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) (*domain.Post, error) {
	p := &domain.Post{UserID: in.Author.ID, Body: in.Body}
	if err := s.posts.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	s.InvalidateFeed(ctx)

	if in.Prompt != "" && s.enricher != nil {
		req := enrich.Request{
			Email:  in.Author.Email,
			UserID: in.Author.ID,
			PostID: p.ID,
			Prompt: in.Prompt,
		}
		if in.PostURL != nil {
			req.PostURL = in.PostURL(p.ID)
		}
		if err := s.enricher.Dispatch(req); err != nil {
			s.log.Warn("image generation not scheduled", zap.Uint("post_id", p.ID), zap.Error(err))
		}
	}
	return p, nil
}

func (s *Service) CreateComment(ctx context.Context, author *domain.User, postID uint, body string) (*domain.Comment, error) {
	if err := s.mustExist(ctx, postID); err != nil {
		return nil, err
	}
	c := &domain.Comment{PostID: postID, UserID: author.ID, Body: body}
	if err := s.posts.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Like(ctx context.Context, author *domain.User, postID uint) (*domain.Like, error) {
	if err := s.mustExist(ctx, postID); err != nil {
		return nil, err
	}
	l := &domain.Like{PostID: postID, UserID: author.ID}
	if err := s.posts.CreateLike(ctx, l); err != nil {
		return nil, err
	}
	s.InvalidateFeed(ctx)
	return l, nil
}

func (s *Service) mustExist(ctx context.Context, postID uint) error {
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return fmt.Errorf("check post %d: %w", postID, err)
	}
	if !ok {
		return domain.ErrPostNotFound
	}
	return nil
}
