package domain

import (
	"context"
	"fmt"
)

type Post struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	UserID   uint    `gorm:"index;not null" json:"user_id"`
	Body     string  `gorm:"type:text;not null" json:"body"`
	ImageURL *string `gorm:"size:2048" json:"image_url"`
}

func (Post) TableName() string { return "posts" }

type Comment struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	PostID uint   `gorm:"index;not null" json:"post_id"`
	UserID uint   `gorm:"not null" json:"user_id"`
	Body   string `gorm:"type:text;not null" json:"body"`
}

func (Comment) TableName() string { return "comments" }

type Like struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	PostID uint `gorm:"index;not null" json:"post_id"`
	UserID uint `gorm:"not null" json:"user_id"`
}

func (Like) TableName() string { return "likes" }

// PostWithLikes 不落表，由 posts LEFT JOIN likes 聚合得到
type PostWithLikes struct {
	Post
	Likes int64 `json:"likes"`
}

type PostSort string

const (
	SortNew       PostSort = "new"
	SortOld       PostSort = "old"
	SortMostLikes PostSort = "most_likes"
)

func ParsePostSort(s string) (PostSort, error) {
	switch PostSort(s) {
	case SortNew, SortOld, SortMostLikes:
		return PostSort(s), nil
	case "":
		return SortNew, nil
	}
	return "", fmt.Errorf("unknown sorting %q", s)
}

type PostRepository interface {
	CreatePost(ctx context.Context, p *Post) error
	// Exists 只看主键
	Exists(ctx context.Context, postID uint) (bool, error)
	ListWithLikes(ctx context.Context, sort PostSort) ([]PostWithLikes, error)
	// FindWithLikes 查不到返回 ErrPostNotFound
	FindWithLikes(ctx context.Context, postID uint) (PostWithLikes, error)
	CreateComment(ctx context.Context, c *Comment) error
	// ListComments 按创建顺序（id 升序）
	ListComments(ctx context.Context, postID uint) ([]Comment, error)
	CreateLike(ctx context.Context, l *Like) error
	// AttachGeneratedImage 同一事务内：image_url 为空时写入，并追加一条系统评论。
	// 帖子不存在或 image_url 已被设置时返回 ErrPostNotFound / ErrImageAlreadySet，且不写任何数据。
	AttachGeneratedImage(ctx context.Context, postID uint, imageURL string, c *Comment) error
}
