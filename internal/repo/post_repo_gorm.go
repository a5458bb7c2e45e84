package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storeapi/internal/domain"
)

var _ domain.PostRepository = (*PostRepo)(nil)

type PostRepo struct{ db *gorm.DB }

func NewPostRepo(db *gorm.DB) *PostRepo { return &PostRepo{db: db} }

var (
	colPostID = clause.Column{Table: "posts", Name: "id"}
	colLikes  = clause.Column{Name: "likes"}
)

// 三种排序固定写死，不接受外部拼接；most_likes 同票按 id 倒序（新帖在前）
func orderBy(s domain.PostSort) []clause.OrderByColumn {
	switch s {
	case domain.SortOld:
		return []clause.OrderByColumn{{Column: colPostID}}
	case domain.SortMostLikes:
		return []clause.OrderByColumn{{Column: colLikes, Desc: true}, {Column: colPostID, Desc: true}}
	default:
		return []clause.OrderByColumn{{Column: colPostID, Desc: true}}
	}
}

// LEFT JOIN 保证没有点赞的帖子也会出现（likes = 0）
func (r *PostRepo) withLikes(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&domain.Post{}).
		Select("posts.*, COUNT(likes.id) AS likes").
		Joins("LEFT JOIN likes ON likes.post_id = posts.id").
		Group("posts.id")
}

func (r *PostRepo) CreatePost(ctx context.Context, p *domain.Post) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (r *PostRepo) Exists(ctx context.Context, postID uint) (bool, error) {
	return exists(r.db.WithContext(ctx), postID)
}

func exists(tx *gorm.DB, postID uint) (bool, error) {
	var n int64
	if err := tx.Model(&domain.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("find post: %w", err)
	}
	return n > 0, nil
}

func (r *PostRepo) ListWithLikes(ctx context.Context, sort domain.PostSort) ([]domain.PostWithLikes, error) {
	q := r.withLikes(ctx)
	for _, o := range orderBy(sort) {
		q = q.Order(o)
	}
	out := []domain.PostWithLikes{}
	if err := q.Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return out, nil
}

func (r *PostRepo) FindWithLikes(ctx context.Context, postID uint) (domain.PostWithLikes, error) {
	var row domain.PostWithLikes
	res := r.withLikes(ctx).Where("posts.id = ?", postID).Scan(&row)
	if res.Error != nil {
		return domain.PostWithLikes{}, fmt.Errorf("find post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.PostWithLikes{}, domain.ErrPostNotFound
	}
	return row, nil
}

func (r *PostRepo) CreateComment(ctx context.Context, c *domain.Comment) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *PostRepo) ListComments(ctx context.Context, postID uint) ([]domain.Comment, error) {
	out := []domain.Comment{}
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}

func (r *PostRepo) CreateLike(ctx context.Context, l *domain.Like) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("create like: %w", err)
	}
	return nil
}

func (r *PostRepo) AttachGeneratedImage(ctx context.Context, postID uint, imageURL string, c *domain.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Post{}).
			Where("id = ? AND image_url IS NULL", postID).
			Update("image_url", imageURL)
		if res.Error != nil {
			return fmt.Errorf("set post image: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			ok, err := exists(tx, postID)
			switch {
			case err != nil:
				return err
			case !ok:
				return domain.ErrPostNotFound
			default:
				return domain.ErrImageAlreadySet
			}
		}
		c.PostID = postID
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("create generated comment: %w", err)
		}
		return nil
	})
}
