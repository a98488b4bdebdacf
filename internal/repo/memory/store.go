package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/domain/vote"
)

// Store keeps users, posts and votes in process memory with the same
// uniqueness and foreign-key rules as the postgres schema.
type Store struct {
	mu sync.RWMutex

	users      map[int64]user.User
	emails     map[string]int64
	posts      map[int64]post.Post
	votes      map[voteKey]vote.Vote
	nextUserID int64
	nextPostID int64
	now        func() time.Time
}

type voteKey struct {
	userID int64
	postID int64
}

func NewStore() *Store {
	return &Store{
		users:  make(map[int64]user.User),
		emails: make(map[string]int64),
		posts:  make(map[int64]post.Post),
		votes:  make(map[voteKey]vote.Vote),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() *UsersRepo { return &UsersRepo{s: s} }
func (s *Store) Posts() *PostsRepo { return &PostsRepo{s: s} }
func (s *Store) Votes() *VotesRepo { return &VotesRepo{s: s} }

func (s *Store) Ping(context.Context) error { return nil }

type UsersRepo struct{ s *Store }

func (r *UsersRepo) Create(_ context.Context, email, passwordHash string) (user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.emails[email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	r.s.nextUserID++
	u := user.User{
		ID:           r.s.nextUserID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    r.s.now(),
	}

	r.s.users[u.ID] = u
	r.s.emails[email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.s.users[id], nil
}

// Delete removes a user and cascades to their posts and votes.
func (r *UsersRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.ErrNotFound
	}

	delete(r.s.users, id)
	delete(r.s.emails, u.Email)

	for pid, p := range r.s.posts {
		if p.OwnerID == id {
			r.s.deletePostLocked(pid)
		}
	}
	for k := range r.s.votes {
		if k.userID == id {
			delete(r.s.votes, k)
		}
	}

	return nil
}

type PostsRepo struct{ s *Store }

func (r *PostsRepo) Create(_ context.Context, ownerID int64, req post.CreateRequest) (post.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[ownerID]; !ok {
		return post.Post{}, user.ErrNotFound
	}

	p := post.NewFromCreateRequest(ownerID, req)
	r.s.nextPostID++
	p.ID = r.s.nextPostID
	p.CreatedAt = r.s.now()

	r.s.posts[p.ID] = p

	return p, nil
}

func (r *PostsRepo) GetByID(_ context.Context, id int64) (post.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	return p, nil
}

func (r *PostsRepo) GetDetail(_ context.Context, id int64) (post.Detail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return post.Detail{}, post.ErrNotFound
	}
	return r.s.detailLocked(p), nil
}

func (r *PostsRepo) List(_ context.Context, filter post.ListFilter) ([]post.Detail, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := ""
	if filter.Search != nil {
		search = strings.ToLower(*filter.Search)
	}

	matched := make([]post.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		matched = append(matched, p)
	}

	// newest first, id breaks ties, same as the SQL ordering
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)

	start := filter.Offset
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}

	out := make([]post.Detail, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, r.s.detailLocked(p))
	}

	return out, total, nil
}

func (r *PostsRepo) Update(_ context.Context, id int64, req post.UpdateRequest) (post.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	p.Title = req.Title
	p.Content = req.Content
	p.Published = req.IsPublished()
	r.s.posts[id] = p

	return p, nil
}

func (r *PostsRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[id]; !ok {
		return post.ErrNotFound
	}

	r.s.deletePostLocked(id)
	return nil
}

type VotesRepo struct{ s *Store }

func (r *VotesRepo) Find(_ context.Context, userID, postID int64) (vote.Vote, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.votes[voteKey{userID, postID}]
	if !ok {
		return vote.Vote{}, vote.ErrNotFound
	}
	return v, nil
}

func (r *VotesRepo) Create(_ context.Context, userID, postID int64) (vote.Vote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return vote.Vote{}, user.ErrNotFound
	}
	if _, ok := r.s.posts[postID]; !ok {
		return vote.Vote{}, post.ErrNotFound
	}

	k := voteKey{userID, postID}
	if _, exists := r.s.votes[k]; exists {
		return vote.Vote{}, vote.ErrAlreadyVoted
	}

	v := vote.Vote{UserID: userID, PostID: postID, CreatedAt: r.s.now()}
	r.s.votes[k] = v

	return v, nil
}

func (r *VotesRepo) Delete(_ context.Context, userID, postID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := voteKey{userID, postID}
	if _, ok := r.s.votes[k]; !ok {
		return vote.ErrNotFound
	}

	delete(r.s.votes, k)
	return nil
}

func (r *VotesRepo) CountForPost(_ context.Context, postID int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.countVotesLocked(postID), nil
}

func (s *Store) detailLocked(p post.Post) post.Detail {
	return post.Detail{
		Post:  p,
		Owner: s.users[p.OwnerID],
		Votes: s.countVotesLocked(p.ID),
	}
}

func (s *Store) countVotesLocked(postID int64) int {
	n := 0
	for k := range s.votes {
		if k.postID == postID {
			n++
		}
	}
	return n
}

func (s *Store) deletePostLocked(id int64) {
	delete(s.posts, id)

	for k := range s.votes {
		if k.postID == id {
			delete(s.votes, k)
		}
	}
}
