package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/constants"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/metrics"
	"github.com/rikster-r/booking-calendar/backend/shared/go-models"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

// PresenceStore tracks who is online across instances. A user with several
// open tabs is counted once.
type PresenceStore interface {
	Add(ctx context.Context, u dtos.OnlineUser) (first bool, err error)
	Remove(ctx context.Context, userID string) (last bool, err error)
	List(ctx context.Context) ([]dtos.OnlineUser, error)

	// Publish and Subscribe relay events between instances. Subscribe
	// returns nil when there is nothing to relay.
	Publish(ctx context.Context, ev dtos.PresenceEvent) error
	Subscribe(ctx context.Context) (<-chan dtos.PresenceEvent, error)
}

// PresenceSubscriber is one open presence connection.
type PresenceSubscriber struct {
	C    chan dtos.PresenceEvent
	User dtos.OnlineUser
}

// PresenceService owns the registry of local connections. Broadcasts never
// block: a subscriber whose buffer is full misses the event.
type PresenceService interface {
	Join(ctx context.Context, user *models.User) (*PresenceSubscriber, error)
	Leave(ctx context.Context, sub *PresenceSubscriber)
	Online(ctx context.Context) ([]dtos.OnlineUser, error)
	// Run relays events published by other instances until ctx ends.
	Run(ctx context.Context) error
}

type presenceHub struct {
	store PresenceStore
	mu    sync.Mutex
	subs  map[*PresenceSubscriber]struct{}
}

func NewPresenceService(store PresenceStore) PresenceService {
	return &presenceHub{
		store: store,
		subs:  map[*PresenceSubscriber]struct{}{},
	}
}

func (h *presenceHub) Join(ctx context.Context, user *models.User) (*PresenceSubscriber, error) {
	sub := &PresenceSubscriber{
		C:    make(chan dtos.PresenceEvent, constants.PresenceSendBuffer),
		User: dtos.OnlineUser{
			UserID:   user.ID.String(),
			Name:     user.DisplayName(),
			Role:     string(user.Role),
			OnlineAt: time.Now().UTC(),
		},
	}

	first, err := h.store.Add(ctx, sub.User)
	if err != nil {
		return nil, err
	}
	if first {
		h.emit(ctx, dtos.PresenceEvent{Type: dtos.PresenceJoin, User: &sub.User})
	}

	online, err := h.store.List(ctx)
	if err != nil {
		_, _ = h.store.Remove(ctx, sub.User.UserID)
		return nil, err
	}
	sub.C <- dtos.PresenceEvent{Type: dtos.PresenceSync, Users: online}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	metrics.PresenceConnected()
	return sub, nil
}

func (h *presenceHub) Leave(ctx context.Context, sub *PresenceSubscriber) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.subs, sub)
	h.mu.Unlock()
	metrics.PresenceDisconnected()

	last, err := h.store.Remove(ctx, sub.User.UserID)
	if err != nil {
		utils.Logger.WithError(err).WithField("user_id", sub.User.UserID).Warn("presence: failed to remove user")
		return
	}
	if last {
		h.emit(ctx, dtos.PresenceEvent{Type: dtos.PresenceLeave, User: &sub.User})
	}
}

func (h *presenceHub) Online(ctx context.Context) ([]dtos.OnlineUser, error) {
	return h.store.List(ctx)
}

func (h *presenceHub) Run(ctx context.Context) error {
	events, err := h.store.Subscribe(ctx)
	if err != nil {
		return err
	}
	if events == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			h.broadcast(ev)
		}
	}
}

// emit delivers locally and to other instances.
func (h *presenceHub) emit(ctx context.Context, ev dtos.PresenceEvent) {
	h.broadcast(ev)
	if err := h.store.Publish(ctx, ev); err != nil {
		utils.Logger.WithError(err).Warn("presence: publish failed")
	}
}

func (h *presenceHub) broadcast(ev dtos.PresenceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.C <- ev:
		default:
			utils.Logger.WithField("user_id", sub.User.UserID).Debug("presence: subscriber buffer full, dropping event")
		}
	}
}

/* ---------------- in-memory store ---------------- */

type memoryPresenceStore struct {
	mu    sync.Mutex
	users map[string]dtos.OnlineUser
	count map[string]int
}

// NewMemoryPresenceStore is the single-instance store.
func NewMemoryPresenceStore() PresenceStore {
	return &memoryPresenceStore{
		users: map[string]dtos.OnlineUser{},
		count: map[string]int{},
	}
}

func (s *memoryPresenceStore) Add(_ context.Context, u dtos.OnlineUser) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count[u.UserID]++
	if s.count[u.UserID] == 1 {
		s.users[u.UserID] = u
		return true, nil
	}
	return false, nil
}

func (s *memoryPresenceStore) Remove(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count[userID] == 0 {
		return false, nil
	}
	s.count[userID]--
	if s.count[userID] == 0 {
		delete(s.count, userID)
		delete(s.users, userID)
		return true, nil
	}
	return false, nil
}

func (s *memoryPresenceStore) List(_ context.Context) ([]dtos.OnlineUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dtos.OnlineUser, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sortOnline(out)
	return out, nil
}

func (s *memoryPresenceStore) Publish(context.Context, dtos.PresenceEvent) error { return nil }

func (s *memoryPresenceStore) Subscribe(context.Context) (<-chan dtos.PresenceEvent, error) {
	return nil, nil
}

/* ---------------- redis store ---------------- */

const (
	presenceUsersKey = "presence:users"
	presenceCountKey = "presence:count"
	presenceChannel  = "presence:events"
)

type presenceEnvelope struct {
	Origin string             `json:"origin"`
	Event  dtos.PresenceEvent `json:"event"`
}

type redisPresenceStore struct {
	rdb        *redis.Client
	instanceID string
}

// NewRedisPresenceStore shares presence between instances through two
// hashes and a pub/sub channel.
func NewRedisPresenceStore(rdb *redis.Client) PresenceStore {
	return &redisPresenceStore{rdb: rdb, instanceID: uuid.NewString()}
}

func (s *redisPresenceStore) Add(ctx context.Context, u dtos.OnlineUser) (bool, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return false, err
	}
	var incr *redis.IntCmd
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.HIncrBy(ctx, presenceCountKey, u.UserID, 1)
		p.HSetNX(ctx, presenceUsersKey, u.UserID, raw)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("presence add: %w", err)
	}
	return incr.Val() == 1, nil
}

func (s *redisPresenceStore) Remove(ctx context.Context, userID string) (bool, error) {
	n, err := s.rdb.HIncrBy(ctx, presenceCountKey, userID, -1).Result()
	if err != nil {
		return false, fmt.Errorf("presence remove: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HDel(ctx, presenceCountKey, userID)
		p.HDel(ctx, presenceUsersKey, userID)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("presence remove: %w", err)
	}
	return n == 0, nil
}

func (s *redisPresenceStore) List(ctx context.Context) ([]dtos.OnlineUser, error) {
	all, err := s.rdb.HGetAll(ctx, presenceUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("presence list: %w", err)
	}
	out := make([]dtos.OnlineUser, 0, len(all))
	for _, raw := range all {
		var u dtos.OnlineUser
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			continue
		}
		out = append(out, u)
	}
	sortOnline(out)
	return out, nil
}

func (s *redisPresenceStore) Publish(ctx context.Context, ev dtos.PresenceEvent) error {
	raw, err := json.Marshal(presenceEnvelope{Origin: s.instanceID, Event: ev})
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, presenceChannel, raw).Err()
}

func (s *redisPresenceStore) Subscribe(ctx context.Context) (<-chan dtos.PresenceEvent, error) {
	ps := s.rdb.Subscribe(ctx, presenceChannel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("presence subscribe: %w", err)
	}

	out := make(chan dtos.PresenceEvent, constants.PresenceSendBuffer)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var env presenceEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					continue
				}
				if env.Origin == s.instanceID {
					continue
				}
				select {
				case out <- env.Event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func sortOnline(users []dtos.OnlineUser) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].OnlineAt.Equal(users[j].OnlineAt) {
			return users[i].UserID < users[j].UserID
		}
		return users[i].OnlineAt.Before(users[j].OnlineAt)
	})
}
