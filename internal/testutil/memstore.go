// Package testutil 提供测试用的内存仓储、日志和假外部依赖。
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"storeapi/internal/domain"
)

// MemStore 在内存里实现 UserRepository 与 PostRepository，排序语义与 SQL 版本一致
type MemStore struct {
	mu       sync.Mutex
	users    []domain.User
	posts    []domain.Post
	comments []domain.Comment
	likes    []domain.Like

	// AttachErr 非 nil 时 AttachGeneratedImage 直接返回它
	AttachErr error
}

var (
	_ domain.UserRepository = (*MemStore)(nil)
	_ domain.PostRepository = (*MemStore)(nil)
)

func NewMemStore() *MemStore { return &MemStore{} }

func (m *MemStore) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Email == u.Email {
			return domain.ErrUserExists
		}
	}
	u.ID = uint(len(m.users) + 1)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.users = append(m.users, *u)
	return nil
}

func (m *MemStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Email == email {
			u := x
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MemStore) SetConfirmed(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].Email == email {
			m.users[i].Confirmed = true
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (m *MemStore) CreatePost(_ context.Context, p *domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uint(len(m.posts) + 1)
	m.posts = append(m.posts, *p)
	return nil
}

func (m *MemStore) Exists(_ context.Context, postID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexOf(postID) >= 0, nil
}

func (m *MemStore) indexOf(postID uint) int {
	for i, p := range m.posts {
		if p.ID == postID {
			return i
		}
	}
	return -1
}

func (m *MemStore) withLikes(p domain.Post) domain.PostWithLikes {
	var n int64
	for _, l := range m.likes {
		if l.PostID == p.ID {
			n++
		}
	}
	return domain.PostWithLikes{Post: p, Likes: n}
}

func (m *MemStore) ListWithLikes(_ context.Context, s domain.PostSort) ([]domain.PostWithLikes, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.PostWithLikes, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, m.withLikes(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch s {
		case domain.SortOld:
			return a.ID < b.ID
		case domain.SortMostLikes:
			if a.Likes != b.Likes {
				return a.Likes > b.Likes
			}
			return a.ID > b.ID
		default:
			return a.ID > b.ID
		}
	})
	return out, nil
}

func (m *MemStore) FindWithLikes(_ context.Context, postID uint) (domain.PostWithLikes, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(postID)
	if i < 0 {
		return domain.PostWithLikes{}, domain.ErrPostNotFound
	}
	return m.withLikes(m.posts[i]), nil
}

func (m *MemStore) CreateComment(_ context.Context, c *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uint(len(m.comments) + 1)
	m.comments = append(m.comments, *c)
	return nil
}

func (m *MemStore) ListComments(_ context.Context, postID uint) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Comment{}
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemStore) CreateLike(_ context.Context, l *domain.Like) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = uint(len(m.likes) + 1)
	m.likes = append(m.likes, *l)
	return nil
}

func (m *MemStore) AttachGeneratedImage(_ context.Context, postID uint, imageURL string, c *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AttachErr != nil {
		return m.AttachErr
	}
	i := m.indexOf(postID)
	if i < 0 {
		return domain.ErrPostNotFound
	}
	if m.posts[i].ImageURL != nil {
		return domain.ErrImageAlreadySet
	}
	u := imageURL
	m.posts[i].ImageURL = &u
	c.PostID = postID
	c.ID = uint(len(m.comments) + 1)
	m.comments = append(m.comments, *c)
	return nil
}

// Comments 返回全部评论的快照
func (m *MemStore) Comments() []domain.Comment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Comment(nil), m.comments...)
}
