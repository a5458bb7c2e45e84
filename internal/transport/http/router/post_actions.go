package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storeapi/internal/domain"
	"storeapi/internal/feature/post"
	httpez "storeapi/internal/transport/http/ez"
	mdw "storeapi/internal/transport/http/middleware"
)

type listPostsIn struct {
	Sorting string `form:"sorting" binding:"omitempty,postsort"`
}

type postIDIn struct {
	ID uint `uri:"id" binding:"required"`
}

type createPostQuery struct {
	Prompt string `form:"prompt"`
}

type createPostIn struct {
	Body string `json:"body" binding:"required"`
}

type commentIn struct {
	PostID uint   `json:"post_id" binding:"required"`
	Body   string `json:"body"    binding:"required"`
}

type likeIn struct {
	PostID uint `json:"post_id" binding:"required"`
}

type postWithCommentsOut struct {
	Post     domain.PostWithLikes `json:"post"`
	Comments []domain.Comment     `json:"comments"`
}

type postActions struct {
	posts *post.Service
	links links
	log   *zap.Logger
}

func (postActions) Priority() int { return 20 }

func (a postActions) Mount(pub, authed *gin.RouterGroup) {
	ezPublic := httpez.New(pub, a.log)
	ezAuth := httpez.New(authed, a.log)

	// GET /post?sorting=new|old|most_likes
	httpez.RegisterAction(ezPublic, httpez.Action[listPostsIn, []domain.PostWithLikes]{
		Method: http.MethodGet,
		Path:   "/post",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *listPostsIn) ([]domain.PostWithLikes, error) {
			sort, err := domain.ParsePostSort(in.Sorting)
			if err != nil {
				return nil, httpez.Unprocessable(err.Error())
			}
			return a.posts.ListPosts(c.Request.Context(), sort)
		},
	})

	httpez.RegisterAction(ezPublic, httpez.Action[postIDIn, postWithCommentsOut]{
		Method: http.MethodGet,
		Path:   "/post/:id",
		Binder: httpez.BindURI,
		Handler: func(c *gin.Context, in *postIDIn) (postWithCommentsOut, error) {
			p, cs, err := a.posts.GetPostWithComments(c.Request.Context(), in.ID)
			if err != nil {
				return postWithCommentsOut{}, err
			}
			return postWithCommentsOut{Post: p, Comments: cs}, nil
		},
	})

	httpez.RegisterAction(ezPublic, httpez.Action[postIDIn, []domain.Comment]{
		Method: http.MethodGet,
		Path:   "/post/:id/comment",
		Binder: httpez.BindURI,
		Handler: func(c *gin.Context, in *postIDIn) ([]domain.Comment, error) {
			return a.posts.ListComments(c.Request.Context(), in.ID)
		},
	})

	// POST /post?prompt=...：body 走 JSON，prompt 走 query；生成在响应之后进行
	httpez.RegisterAction(ezAuth, httpez.Action[createPostIn, *domain.Post]{
		Method: http.MethodPost,
		Path:   "/post",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *createPostIn) (*domain.Post, error) {
			var q createPostQuery
			if err := c.ShouldBindQuery(&q); err != nil {
				return nil, httpez.Unprocessable(err.Error())
			}
			base := a.links.base(c)
			return a.posts.CreatePost(c.Request.Context(), post.CreatePostInput{
				Author: mdw.CurrentUser(c),
				Body:   in.Body,
				Prompt: q.Prompt,
				PostURL: func(id uint) string {
					return fmt.Sprintf("%s%s/post/%d", base, apiPrefix, id)
				},
			})
		},
	})

	httpez.RegisterAction(ezAuth, httpez.Action[commentIn, *domain.Comment]{
		Method: http.MethodPost,
		Path:   "/comment",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *commentIn) (*domain.Comment, error) {
			return a.posts.CreateComment(c.Request.Context(), mdw.CurrentUser(c), in.PostID, in.Body)
		},
	})

	httpez.RegisterAction(ezAuth, httpez.Action[likeIn, *domain.Like]{
		Method: http.MethodPost,
		Path:   "/like",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *likeIn) (*domain.Like, error) {
			return a.posts.Like(c.Request.Context(), mdw.CurrentUser(c), in.PostID)
		},
	})
}
