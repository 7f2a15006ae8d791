// Package memrepo holds in-memory implementations of the repository
// interfaces for unit tests. They follow the Postgres implementations'
// contracts: missing rows read as (nil, nil), versioned writes bump
// row_version, booking writes enforce the strict overlap rule.
package memrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

func tag(n int) pgconn.CommandTag {
	return pgconn.CommandTag(fmt.Sprintf("UPDATE %d", n))
}

// Store shares one lock and one set of tables across the fakes so that
// joins (room owner, cleaner name, comment author) behave like SQL.
type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]models.User
	rooms    map[uuid.UUID]models.Room
	bookings map[uuid.UUID]models.Booking
	comments map[uuid.UUID]models.Comment
	creds    map[uuid.UUID]models.AvitoCredential
	refresh  map[string]models.RefreshToken
	resets   map[string]models.PasswordResetToken
	audit    []models.AuditLog
}

func NewStore() *Store {
	return &Store{
		users:    map[uuid.UUID]models.User{},
		rooms:    map[uuid.UUID]models.Room{},
		bookings: map[uuid.UUID]models.Booking{},
		comments: map[uuid.UUID]models.Comment{},
		creds:    map[uuid.UUID]models.AvitoCredential{},
		refresh:  map[string]models.RefreshToken{},
		resets:   map[string]models.PasswordResetToken{},
	}
}

func (s *Store) Users() repositories.UserRepository                  { return &Users{s} }
func (s *Store) Rooms() repositories.RoomRepository                  { return &Rooms{s} }
func (s *Store) Bookings() repositories.BookingRepository            { return &Bookings{s} }
func (s *Store) Comments() repositories.CommentRepository            { return &Comments{s} }
func (s *Store) Credentials() repositories.AvitoCredentialRepository { return &Credentials{s} }
func (s *Store) Tokens() repositories.TokenRepository                { return &Tokens{s} }
func (s *Store) AuditLogs() repositories.AuditLogRepository          { return &AuditLogs{s} }

// AuditEntries returns a snapshot of everything logged so far.
func (s *Store) AuditEntries() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditLog(nil), s.audit...)
}

/* ---------------- users ---------------- */

type Users struct{ s *Store }

func (r *Users) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if strings.EqualFold(other.Email, u.Email) {
			return utils.ErrEmailExists
		}
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt, u.RowVersion = now, now, 1
	r.s.users[u.ID] = *u
	return nil
}

func (r *Users) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *Users) list(keep func(models.User) bool) []*models.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.User
	for _, u := range r.s.users {
		if keep(u) {
			u := u
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (r *Users) List(_ context.Context) ([]*models.User, error) {
	return r.list(func(models.User) bool { return true }), nil
}

func (r *Users) ListByRelatedTo(_ context.Context, ownerID uuid.UUID) ([]*models.User, error) {
	return r.list(func(u models.User) bool { return u.RelatedTo != nil && *u.RelatedTo == ownerID }), nil
}

func (r *Users) UpdateIfVersion(_ context.Context, u *models.User, expected int64) (pgconn.CommandTag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok || cur.RowVersion != expected {
		return tag(0), nil
	}
	cur.FirstName, cur.LastName = u.FirstName, u.LastName
	cur.Role, cur.RelatedTo = u.Role, u.RelatedTo
	cur.DateFormat, cur.TimeFormat = u.DateFormat, u.TimeFormat
	cur.RowVersion++
	cur.UpdatedAt = time.Now()
	r.s.users[u.ID] = cur
	return tag(1), nil
}

func (r *Users) UpdateExpected(ctx context.Context, u *models.User, expected int64) error {
	t, err := r.UpdateIfVersion(ctx, u, expected)
	if err != nil {
		return err
	}
	if t.RowsAffected() == 0 {
		return utils.ErrRowVersionConflict
	}
	u.RowVersion = expected + 1
	return nil
}

func (r *Users) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error {
	return repositories.WithRetry(ctx, 3, id.String(),
		func(ctx context.Context, s string) (*models.User, error) { return r.GetByID(ctx, uuid.MustParse(s)) },
		r.UpdateIfVersion, mutate)
}

func (r *Users) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return utils.ErrNotFound
	}
	u.PasswordHash = hash
	u.RowVersion++
	r.s.users[id] = u
	return nil
}

func (r *Users) TouchLastSignIn(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		now := time.Now()
		u.LastSignInAt = &now
		r.s.users[id] = u
	}
	return nil
}

func (r *Users) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

/* ---------------- rooms ---------------- */

type Rooms struct{ s *Store }

func (r *Rooms) Create(_ context.Context, room *models.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	room.CreatedAt, room.UpdatedAt, room.RowVersion = now, now, 1
	r.s.rooms[room.ID] = *room
	return nil
}

// joined mimics the LEFT JOIN on the cleaner's name. Caller holds the lock.
func (r *Rooms) joined(room models.Room) *models.Room {
	room.LastCleanedByName = nil
	if room.LastCleanedBy != nil {
		if u, ok := r.s.users[*room.LastCleanedBy]; ok {
			name := strings.TrimSpace(u.FirstName + " " + u.LastName)
			if name != "" {
				room.LastCleanedByName = &name
			}
		}
	}
	return &room
}

func (r *Rooms) GetByID(_ context.Context, id uuid.UUID) (*models.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, nil
	}
	return r.joined(room), nil
}

func (r *Rooms) list(keep func(models.Room) bool) []*models.Room {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Room
	for _, room := range r.s.rooms {
		if keep(room) {
			out = append(out, r.joined(room))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *Rooms) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*models.Room, error) {
	return r.list(func(room models.Room) bool { return room.UserID == ownerID }), nil
}

func (r *Rooms) ListLinkedToAvito(_ context.Context, ownerID uuid.UUID) ([]*models.Room, error) {
	return r.list(func(room models.Room) bool { return room.UserID == ownerID && room.AvitoItemID != nil }), nil
}

func (r *Rooms) UpdateIfVersion(_ context.Context, room *models.Room, expected int64) (pgconn.CommandTag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.rooms[room.ID]
	if !ok || cur.RowVersion != expected {
		return tag(0), nil
	}
	cur.Name, cur.Status, cur.Color = room.Name, room.Status, room.Color
	cur.LastCleanedAt, cur.LastCleanedBy = room.LastCleanedAt, room.LastCleanedBy
	cur.AvitoLink, cur.AvitoItemID = room.AvitoLink, room.AvitoItemID
	cur.RowVersion++
	cur.UpdatedAt = time.Now()
	r.s.rooms[room.ID] = cur
	return tag(1), nil
}

func (r *Rooms) UpdateExpected(ctx context.Context, room *models.Room, expected int64) error {
	t, err := r.UpdateIfVersion(ctx, room, expected)
	if err != nil {
		return err
	}
	if t.RowsAffected() == 0 {
		return utils.ErrRowVersionConflict
	}
	room.RowVersion = expected + 1
	return nil
}

func (r *Rooms) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Room) error) error {
	return repositories.WithRetry(ctx, 3, id.String(),
		func(ctx context.Context, s string) (*models.Room, error) { return r.GetByID(ctx, uuid.MustParse(s)) },
		r.UpdateIfVersion, mutate)
}

func (r *Rooms) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rooms[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.s.rooms, id)
	// ON DELETE CASCADE
	for bid, b := range r.s.bookings {
		if b.RoomID == id {
			delete(r.s.bookings, bid)
		}
	}
	for cid, c := range r.s.comments {
		if c.RoomID == id {
			delete(r.s.comments, cid)
		}
	}
	return nil
}

/* ---------------- bookings ---------------- */

type Bookings struct{ s *Store }

func (r *Bookings) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *Bookings) list(keep func(models.Booking) bool) []*models.Booking {
	var out []*models.Booking
	for _, b := range r.s.bookings {
		if keep(b) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out
}

func (r *Bookings) ListByOwner(_ context.Context, ownerID uuid.UUID, f repositories.BookingFilter) ([]*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(b models.Booking) bool {
		if b.UserID != ownerID {
			return false
		}
		if f.RoomID != nil && b.RoomID != *f.RoomID {
			return false
		}
		if f.To != nil && !b.CheckIn.Before(*f.To) {
			return false
		}
		if f.From != nil && !b.CheckOut.After(*f.From) {
			return false
		}
		return true
	}), nil
}

func (r *Bookings) ListByRoom(_ context.Context, roomID uuid.UUID) ([]*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(b models.Booking) bool { return b.RoomID == roomID }), nil
}

func (r *Bookings) findOverlapping(q repositories.OverlapQuery) []*models.Booking {
	return r.list(func(b models.Booking) bool {
		if b.RoomID != q.RoomID || b.UserID != q.OwnerID {
			return false
		}
		if q.ExcludeID != nil && b.ID == *q.ExcludeID {
			return false
		}
		return utils.Overlaps(b.CheckIn, b.CheckOut, q.Start, q.End)
	})
}

func (r *Bookings) FindOverlapping(_ context.Context, q repositories.OverlapQuery) ([]*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.findOverlapping(q), nil
}

func (r *Bookings) check(b *models.Booking, exclude *uuid.UUID) error {
	room, ok := r.s.rooms[b.RoomID]
	if !ok || room.UserID != b.UserID {
		return utils.ErrNotFound
	}
	conflicts := r.findOverlapping(repositories.OverlapQuery{
		RoomID: b.RoomID, OwnerID: b.UserID, Start: b.CheckIn, End: b.CheckOut, ExcludeID: exclude,
	})
	if len(conflicts) > 0 {
		return &repositories.BookingConflictError{Conflicts: conflicts}
	}
	return nil
}

func (r *Bookings) insert(b *models.Booking) {
	now := time.Now()
	b.CreatedAt, b.UpdatedAt, b.RowVersion = now, now, 1
	r.s.bookings[b.ID] = *b
}

func (r *Bookings) CreateIfNoOverlap(_ context.Context, b *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.check(b, nil); err != nil {
		return err
	}
	r.insert(b)
	return nil
}

func (r *Bookings) update(b *models.Booking, expected int64) bool {
	cur, ok := r.s.bookings[b.ID]
	if !ok || cur.RowVersion != expected {
		return false
	}
	next := *b
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now()
	next.RowVersion = expected + 1
	r.s.bookings[b.ID] = next
	b.UpdatedAt = next.UpdatedAt
	return true
}

func (r *Bookings) UpdateIfNoOverlap(_ context.Context, b *models.Booking, expected int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.check(b, &b.ID); err != nil {
		return err
	}
	if !r.update(b, expected) {
		return utils.ErrRowVersionConflict
	}
	b.RowVersion = expected + 1
	return nil
}

func (r *Bookings) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bookings[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.s.bookings, id)
	return nil
}

func (r *Bookings) ApplySync(_ context.Context, _ uuid.UUID, updates, inserts []*models.Booking) (*repositories.SyncResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res := &repositories.SyncResult{}
	bookable := func(b *models.Booking) bool {
		room, ok := r.s.rooms[b.RoomID]
		return ok && room.Status.Bookable()
	}
	for _, b := range updates {
		if !bookable(b) || r.check(b, &b.ID) != nil || !r.update(b, b.RowVersion) {
			res.Skipped++
			continue
		}
		b.RowVersion++
		res.Updated++
	}
	for _, b := range inserts {
		if !bookable(b) || r.check(b, nil) != nil {
			res.Skipped++
			continue
		}
		r.insert(b)
		res.Inserted++
	}
	return res, nil
}

/* ---------------- comments ---------------- */

type Comments struct{ s *Store }

func (r *Comments) Create(_ context.Context, c *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.comments[c.ID] = *c
	return nil
}

func (r *Comments) joined(c models.Comment) *models.Comment {
	if u, ok := r.s.users[c.UserID]; ok {
		c.AuthorName = u.DisplayName()
	}
	return &c
}

func (r *Comments) GetByID(_ context.Context, id uuid.UUID) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, nil
	}
	return r.joined(c), nil
}

func (r *Comments) ListByRoom(_ context.Context, roomID uuid.UUID) ([]*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Comment
	for _, c := range r.s.comments {
		if c.RoomID == roomID {
			out = append(out, r.joined(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *Comments) UpdateBody(_ context.Context, id uuid.UUID, body string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return utils.ErrNotFound
	}
	c.Body = body
	c.UpdatedAt = time.Now()
	r.s.comments[id] = c
	return nil
}

func (r *Comments) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.s.comments, id)
	return nil
}

/* ---------------- avito credentials ---------------- */

type Credentials struct{ s *Store }

func (r *Credentials) Upsert(_ context.Context, c *models.AvitoCredential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	if prev, ok := r.s.creds[c.UserID]; ok {
		c.CreatedAt = prev.CreatedAt
	} else {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	r.s.creds[c.UserID] = *c
	return nil
}

func (r *Credentials) GetByUserID(_ context.Context, userID uuid.UUID) (*models.AvitoCredential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.creds[userID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *Credentials) ListUserIDs(_ context.Context) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]uuid.UUID, 0, len(r.s.creds))
	for id := range r.s.creds {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (r *Credentials) Delete(_ context.Context, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.creds[userID]
	delete(r.s.creds, userID)
	return ok, nil
}

/* ---------------- tokens ---------------- */

type Tokens struct{ s *Store }

func (r *Tokens) CreateRefreshToken(_ context.Context, t *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *t
	stored.Token = utils.HashToken(t.Token)
	r.s.refresh[stored.Token] = stored
	return nil
}

func (r *Tokens) GetRefreshToken(_ context.Context, rawToken string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.refresh[utils.HashToken(rawToken)]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *Tokens) RemoveRefreshToken(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, t := range r.s.refresh {
		if t.ID == id {
			delete(r.s.refresh, k)
		}
	}
	return nil
}

func (r *Tokens) RemoveAllRefreshTokensByUserID(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, t := range r.s.refresh {
		if t.UserID == userID {
			delete(r.s.refresh, k)
		}
	}
	return nil
}

func (r *Tokens) CleanupExpiredRefreshTokens(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, t := range r.s.refresh {
		if t.Revoked || t.IsExpired() {
			delete(r.s.refresh, k)
			n++
		}
	}
	return n, nil
}

func (r *Tokens) CreatePasswordReset(_ context.Context, t *models.PasswordResetToken, rawToken string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.TokenHash = utils.HashToken(rawToken)
	t.CreatedAt = time.Now()
	r.s.resets[t.TokenHash] = *t
	return nil
}

func (r *Tokens) GetPasswordReset(_ context.Context, rawToken string) (*models.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.resets[utils.HashToken(rawToken)]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *Tokens) MarkPasswordResetUsed(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, t := range r.s.resets {
		if t.ID == id && t.UsedAt == nil {
			now := time.Now()
			t.UsedAt = &now
			r.s.resets[k] = t
		}
	}
	return nil
}

/* ---------------- audit ---------------- */

type AuditLogs struct{ s *Store }

func (r *AuditLogs) Create(_ context.Context, l *models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.CreatedAt = time.Now()
	r.s.audit = append(r.s.audit, *l)
	return nil
}

func (r *AuditLogs) ListByTarget(_ context.Context, targetType models.AuditTargetType, targetID uuid.UUID) ([]*models.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.AuditLog
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		l := r.s.audit[i]
		if l.TargetType == targetType && l.TargetID == targetID {
			out = append(out, &l)
		}
	}
	return out, nil
}
