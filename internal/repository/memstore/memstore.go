// Package memstore is an in-memory Entity Store that enforces the same
// integrity rules as db/schema.sql: unique username and email, foreign keys,
// and cascading deletes. It backs tests and local runs without PostgreSQL.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"sharebnb/internal/model"
	"sharebnb/internal/repository"
)

// Store holds every table behind one lock, so each call behaves like a
// single transaction.
type Store struct {
	mu sync.RWMutex

	users    map[string]model.User
	listings map[int64]model.Listing
	messages map[int64]model.Message

	nextListingID int64
	nextMessageID int64
	lastCreatedAt time.Time

	// Now stamps sent_at on new messages and created_at on new users.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		users:         make(map[string]model.User),
		listings:      make(map[int64]model.Listing),
		messages:      make(map[int64]model.Message),
		nextListingID: 1,
		nextMessageID: 1,
		Now:           time.Now,
	}
}

func (s *Store) Users() repository.UserRepository       { return userRepo{s} }
func (s *Store) Listings() repository.ListingRepository { return listingRepo{s} }
func (s *Store) Messages() repository.MessageRepository { return messageRepo{s} }

// ---- users ----

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, u *model.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Username]; ok {
		return model.ErrUsernameTaken
	}
	for _, other := range s.users {
		if other.Email == u.Email {
			return model.ErrEmailTaken
		}
	}
	// microsecond precision like TIMESTAMPTZ, and never repeated so a
	// re-registered username always gets a new value
	created := s.Now().UTC().Truncate(time.Microsecond)
	if !created.After(s.lastCreatedAt) {
		created = s.lastCreatedAt.Add(time.Microsecond)
	}
	s.lastCreatedAt = created
	u.CreatedAt = created
	s.users[u.Username] = *u
	return nil
}

func (r userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (r userRepo) List(ctx context.Context, query string) ([]model.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	users := []model.User{}
	for _, u := range s.users {
		if q == "" || strings.Contains(strings.ToLower(u.Username), q) {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r userRepo) Update(ctx context.Context, username string, upd model.UserUpdate) (*model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	if upd.Email != nil && *upd.Email != u.Email {
		for name, other := range s.users {
			if name != username && other.Email == *upd.Email {
				return nil, model.ErrEmailTaken
			}
		}
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&u.Bio, upd.Bio)
	set(&u.FirstName, upd.FirstName)
	set(&u.LastName, upd.LastName)
	set(&u.Email, upd.Email)
	set(&u.ImageURL, upd.ImageURL)
	set(&u.Location, upd.Location)
	if upd.ImageKey != nil {
		key := *upd.ImageKey
		u.ImageKey = &key
	}

	s.users[username] = u
	return &u, nil
}

func (r userRepo) Delete(ctx context.Context, username string) ([]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}

	var keys []string
	for _, id := range s.sortedListingIDs() {
		l := s.listings[id]
		if l.CreatedBy == username {
			if l.PhotoKey != nil {
				keys = append(keys, *l.PhotoKey)
			}
			s.deleteListingLocked(id)
			continue
		}
		if l.RentedBy != nil && *l.RentedBy == username {
			l.RentedBy = nil
			s.listings[id] = l
		}
	}
	for id, m := range s.messages {
		if m.FromUser == username || m.ToUser == username {
			delete(s.messages, id)
		}
	}
	delete(s.users, username)

	if u.ImageKey != nil {
		keys = append(keys, *u.ImageKey)
	}
	return keys, nil
}

// ---- listings ----

type listingRepo struct{ s *Store }

func (r listingRepo) Create(ctx context.Context, l *model.Listing) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkListingRefsLocked(l); err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	l.ID = s.nextListingID
	s.nextListingID++
	s.listings[l.ID] = cloneListing(*l)
	return nil
}

func (r listingRepo) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, model.ErrListingNotFound
	}
	l = cloneListing(l)
	return &l, nil
}

func (r listingRepo) Find(ctx context.Context, criteria model.ListingCriteria) ([]model.Listing, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Listing{}
	for _, id := range s.sortedListingIDs() {
		l := s.listings[id]
		if repository.MatchListing(criteria, &l) {
			out = append(out, cloneListing(l))
		}
	}
	return out, nil
}

func (r listingRepo) ListByCreator(ctx context.Context, username string) ([]model.Listing, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Listing{}
	for _, id := range s.sortedListingIDs() {
		if l := s.listings[id]; l.CreatedBy == username {
			out = append(out, cloneListing(l))
		}
	}
	return out, nil
}

func (r listingRepo) Update(ctx context.Context, l *model.Listing) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.listings[l.ID]
	if !ok {
		return model.ErrListingNotFound
	}
	if err := s.checkListingRefsLocked(l); err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	updated := cloneListing(*l)
	updated.CreatedBy = existing.CreatedBy
	s.listings[l.ID] = updated
	return nil
}

func (r listingRepo) Delete(ctx context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[id]; !ok {
		return model.ErrListingNotFound
	}
	s.deleteListingLocked(id)
	return nil
}

// ---- messages ----

type messageRepo struct{ s *Store }

func (r messageRepo) Create(ctx context.Context, m *model.Message) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	_, fromOK := s.users[m.FromUser]
	_, toOK := s.users[m.ToUser]
	_, listingOK := s.listings[m.ListingID]
	if !fromOK || !toOK || !listingOK {
		return fmt.Errorf("insert message: %w", model.ErrReferenceNotFound)
	}

	m.ID = s.nextMessageID
	s.nextMessageID++
	m.SentAt = s.Now().UTC()
	m.ReadAt = nil
	s.messages[m.ID] = *m
	return nil
}

func (r messageRepo) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, model.ErrMessageNotFound
	}
	return &m, nil
}

func (r messageRepo) ListBetween(ctx context.Context, fromUser, toUser string, limit int) ([]model.Message, error) {
	return r.s.selectMessages(limit, func(m *model.Message) bool {
		return m.FromUser == fromUser && m.ToUser == toUser
	}), nil
}

func (r messageRepo) ListByListingAndSender(ctx context.Context, listingID int64, sender string, limit int) ([]model.Message, error) {
	return r.s.selectMessages(limit, func(m *model.Message) bool {
		return m.ListingID == listingID && m.FromUser == sender
	}), nil
}

// ---- helpers ----

// selectMessages returns matching messages ordered by sent_at DESC, id DESC.
func (s *Store) selectMessages(limit int, keep func(m *model.Message) bool) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Message{}
	for _, m := range s.messages {
		if keep(&m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].SentAt.After(out[j].SentAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) checkListingRefsLocked(l *model.Listing) error {
	if _, ok := s.users[l.CreatedBy]; !ok {
		return model.ErrReferenceNotFound
	}
	if l.RentedBy != nil {
		if _, ok := s.users[*l.RentedBy]; !ok {
			return model.ErrReferenceNotFound
		}
	}
	return nil
}

func (s *Store) deleteListingLocked(id int64) {
	delete(s.listings, id)
	for mid, m := range s.messages {
		if m.ListingID == id {
			delete(s.messages, mid)
		}
	}
}

func (s *Store) sortedListingIDs() []int64 {
	ids := make([]int64, 0, len(s.listings))
	for id := range s.listings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func cloneListing(l model.Listing) model.Listing {
	if l.RentedBy != nil {
		v := *l.RentedBy
		l.RentedBy = &v
	}
	if l.PhotoKey != nil {
		v := *l.PhotoKey
		l.PhotoKey = &v
	}
	return l
}
