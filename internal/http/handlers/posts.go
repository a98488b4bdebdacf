package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/postboard/internal/auth"
	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type PostsHandler struct {
	posts PostStore
}

func NewPostsHandler(posts PostStore) *PostsHandler {
	return &PostsHandler{posts: posts}
}

func (h *PostsHandler) List(ctx *gin.Context) {
	filter, fieldErrs := parseListFilter(ctx)
	if len(fieldErrs) > 0 {
		RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": fieldErrs})
		return
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	items, total, err := h.posts.List(cctx, filter)
	if err != nil {
		_ = ctx.Error(err)
		RespondInternal(ctx, "Could not list posts")
		return
	}

	if items == nil {
		items = []post.Detail{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":  items,
		"count":  len(items),
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (h *PostsHandler) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	d, err := h.posts.GetDetail(cctx, id)
	if err != nil {
		h.respondStoreErr(ctx, err, "Could not fetch post")
		return
	}

	ctx.JSON(http.StatusOK, d)
}

func (h *PostsHandler) Create(ctx *gin.Context) {
	caller, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondAuthError(ctx, auth.ErrMissing)
		return
	}

	var req post.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := h.posts.Create(cctx, caller.ID, req)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// caller was deleted after the gate resolved them
			RespondAuthError(ctx, auth.ErrUnknownSubject)
			return
		}

		_ = ctx.Error(err)
		RespondInternal(ctx, "Could not create post")
		return
	}

	ctx.JSON(http.StatusCreated, post.Detail{Post: p, Owner: caller, Votes: 0})
}

func (h *PostsHandler) Update(ctx *gin.Context) {
	caller, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondAuthError(ctx, auth.ErrMissing)
		return
	}

	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req post.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	if !h.authorizeOwner(ctx, id, caller.ID) {
		return
	}

	updated, err := h.posts.Update(cctx, id, req)
	if err != nil {
		h.respondStoreErr(ctx, err, "Could not update post")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *PostsHandler) Delete(ctx *gin.Context) {
	caller, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondAuthError(ctx, auth.ErrMissing)
		return
	}

	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	if !h.authorizeOwner(ctx, id, caller.ID) {
		return
	}

	if err := h.posts.Delete(cctx, id); err != nil {
		h.respondStoreErr(ctx, err, "Could not delete post")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// authorizeOwner loads the post and checks the caller owns it. Absence wins
// over ownership: a missing post is 404 for everyone.
func (h *PostsHandler) authorizeOwner(ctx *gin.Context, postID, callerID int64) bool {
	cctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	p, err := h.posts.GetByID(cctx, postID)
	if err != nil {
		h.respondStoreErr(ctx, err, "Could not fetch post")
		return false
	}

	if err := auth.RequireOwner(p.OwnerID, callerID); err != nil {
		RespondAuthError(ctx, err)
		return false
	}

	return true
}

func (h *PostsHandler) respondStoreErr(ctx *gin.Context, err error, message string) {
	if errors.Is(err, post.ErrNotFound) {
		RespondNotFound(ctx, "Post not found")
		return
	}

	_ = ctx.Error(err)
	RespondInternal(ctx, message)
}

// parseListFilter reads limit, offset (or its alias skip) and search. Limit is
// clamped rather than rejected; non-numeric values and negative offsets are
// reported back as field errors.
func parseListFilter(ctx *gin.Context) (post.ListFilter, []FieldError) {
	filter := post.ListFilter{Limit: post.DefaultLimit}
	var errs []FieldError

	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			errs = append(errs, FieldError{Field: "limit", Rule: "type", Message: "must be an integer"})
		case n < 1:
			filter.Limit = 1
		case n > post.MaxLimit:
			filter.Limit = post.MaxLimit
		default:
			filter.Limit = n
		}
	}

	rawOffset := ctx.Query("offset")
	if rawOffset == "" {
		rawOffset = ctx.Query("skip")
	}
	if rawOffset != "" {
		n, err := strconv.Atoi(rawOffset)
		switch {
		case err != nil:
			errs = append(errs, FieldError{Field: "offset", Rule: "type", Message: "must be an integer"})
		case n < 0:
			errs = append(errs, FieldError{Field: "offset", Rule: "min", Param: "0", Message: "must be at least 0"})
		default:
			filter.Offset = n
		}
	}

	if q := strings.TrimSpace(ctx.Query("search")); q != "" {
		filter.Search = &q
	}

	return filter, errs
}
