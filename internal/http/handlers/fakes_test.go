package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/domain/vote"
	"github.com/geocoder89/postboard/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUserStore struct {
	createFn     func(ctx context.Context, email, hash string) (user.User, error)
	getByIDFn    func(ctx context.Context, id int64) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
}

func (f *fakeUserStore) Create(ctx context.Context, email, hash string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, email, hash)
	}
	return user.User{}, nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id int64) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}

type fakePostStore struct {
	createFn    func(ctx context.Context, ownerID int64, req post.CreateRequest) (post.Post, error)
	getByIDFn   func(ctx context.Context, id int64) (post.Post, error)
	getDetailFn func(ctx context.Context, id int64) (post.Detail, error)
	listFn      func(ctx context.Context, filter post.ListFilter) ([]post.Detail, int, error)
	updateFn    func(ctx context.Context, id int64, req post.UpdateRequest) (post.Post, error)
	deleteFn    func(ctx context.Context, id int64) error
}

func (f *fakePostStore) Create(ctx context.Context, ownerID int64, req post.CreateRequest) (post.Post, error) {
	if f.createFn != nil {
		return f.createFn(ctx, ownerID, req)
	}
	return post.Post{}, nil
}

func (f *fakePostStore) GetByID(ctx context.Context, id int64) (post.Post, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return post.Post{}, post.ErrNotFound
}

func (f *fakePostStore) GetDetail(ctx context.Context, id int64) (post.Detail, error) {
	if f.getDetailFn != nil {
		return f.getDetailFn(ctx, id)
	}
	return post.Detail{}, post.ErrNotFound
}

func (f *fakePostStore) List(ctx context.Context, filter post.ListFilter) ([]post.Detail, int, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (f *fakePostStore) Update(ctx context.Context, id int64, req post.UpdateRequest) (post.Post, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return post.Post{}, nil
}

func (f *fakePostStore) Delete(ctx context.Context, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

type fakeVoteStore struct {
	findFn   func(ctx context.Context, userID, postID int64) (vote.Vote, error)
	createFn func(ctx context.Context, userID, postID int64) (vote.Vote, error)
	deleteFn func(ctx context.Context, userID, postID int64) error
	countFn  func(ctx context.Context, postID int64) (int, error)
}

func (f *fakeVoteStore) Find(ctx context.Context, userID, postID int64) (vote.Vote, error) {
	if f.findFn != nil {
		return f.findFn(ctx, userID, postID)
	}
	return vote.Vote{}, vote.ErrNotFound
}

func (f *fakeVoteStore) Create(ctx context.Context, userID, postID int64) (vote.Vote, error) {
	if f.createFn != nil {
		return f.createFn(ctx, userID, postID)
	}
	return vote.Vote{UserID: userID, PostID: postID}, nil
}

func (f *fakeVoteStore) Delete(ctx context.Context, userID, postID int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, userID, postID)
	}
	return nil
}

func (f *fakeVoteStore) CountForPost(ctx context.Context, postID int64) (int, error) {
	if f.countFn != nil {
		return f.countFn(ctx, postID)
	}
	return 0, nil
}

// asUser stands in for RequireAuth so handlers see a resolved caller.
func asUser(u user.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxUser, u)
		c.Next()
	}
}

// small helper which returns the gin engine to mount one handler per test
func setupRouter(method, path string, h ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Handle(method, path, h...)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body: %v body=%s", err, w.Body.String())
	}
	return resp.Error.Code
}
