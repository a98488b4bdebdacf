package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/postboard/internal/auth"
	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/domain/vote"
	"github.com/geocoder89/postboard/internal/http/middlewares"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/gin-gonic/gin"
)

type VotesHandler struct {
	posts PostStore
	votes VoteStore
	prom  *observability.Prom
}

func NewVotesHandler(posts PostStore, votes VoteStore, prom *observability.Prom) *VotesHandler {
	return &VotesHandler{posts: posts, votes: votes, prom: prom}
}

type VoteResponse struct {
	Message string `json:"message"`
	Votes   int    `json:"votes"`
}

// Cast applies the caller's vote direction to a post: 1 adds a vote, 0 removes it.
func (h *VotesHandler) Cast(ctx *gin.Context) {
	caller, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondAuthError(ctx, auth.ErrMissing)
		return
	}

	var req vote.CastRequest
	if !BindJSON(ctx, &req) {
		return
	}

	dir, err := vote.ParseDirection(*req.Dir)
	if err != nil {
		RespondError(ctx, http.StatusBadRequest, "invalid_direction", "dir must be 0 or 1", nil)
		return
	}

	cctx, cancel := withTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := h.posts.GetByID(cctx, req.PostID); err != nil {
		h.respondVoteErr(ctx, err)
		return
	}

	existing := true
	if _, err := h.votes.Find(cctx, caller.ID, req.PostID); err != nil {
		if !errors.Is(err, vote.ErrNotFound) {
			h.respondVoteErr(ctx, err)
			return
		}
		existing = false
	}

	action, err := vote.Transition(dir, existing)
	if err != nil {
		h.respondVoteErr(ctx, err)
		return
	}

	status, message := http.StatusCreated, "successfully added vote"

	switch action {
	case vote.ActionCreate:
		_, err = h.votes.Create(cctx, caller.ID, req.PostID)
	case vote.ActionDelete:
		err = h.votes.Delete(cctx, caller.ID, req.PostID)
		status, message = http.StatusOK, "successfully deleted vote"
	}
	if err != nil {
		h.respondVoteErr(ctx, err)
		return
	}

	if action == vote.ActionCreate {
		h.prom.IncVote("create")
	} else {
		h.prom.IncVote("delete")
	}

	n, err := h.votes.CountForPost(cctx, req.PostID)
	if err != nil {
		_ = ctx.Error(err)
		RespondInternal(ctx, "Could not count votes")
		return
	}

	ctx.JSON(status, VoteResponse{Message: message, Votes: n})
}

func (h *VotesHandler) respondVoteErr(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, post.ErrNotFound):
		RespondNotFound(ctx, "Post not found")
	case errors.Is(err, vote.ErrAlreadyVoted):
		RespondConflict(ctx, "already_voted", "You have already voted on this post.")
	case errors.Is(err, vote.ErrNotFound):
		RespondNotFound(ctx, "Vote does not exist")
	case errors.Is(err, user.ErrNotFound):
		RespondAuthError(ctx, auth.ErrUnknownSubject)
	default:
		_ = ctx.Error(err)
		RespondInternal(ctx, "Could not apply vote")
	}
}
