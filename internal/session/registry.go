// Package session ties a user's stores and realtime bridge together.
// A session is created on the first authenticated request, loads the
// stores, and subscribes the bridge; sign-out drops it again.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kwhite/taskpulse/internal/database"
	"github.com/kwhite/taskpulse/internal/models"
	"github.com/kwhite/taskpulse/internal/realtime"
	"github.com/kwhite/taskpulse/internal/storage"
	"github.com/kwhite/taskpulse/internal/store"
)

// reloadTimeout bounds the store reloads triggered by change notices
const reloadTimeout = 15 * time.Second

// Deps holds everything a session needs. The registry hands the same
// set to every session it creates.
type Deps struct {
	TaskRepo     database.TaskRepositoryInterface
	SubtaskRepo  database.SubtaskRepositoryInterface
	ActivityRepo database.ActivityRepositoryInterface
	EventRepo    database.EventRepositoryInterface
	ProfileRepo  database.ProfileRepositoryInterface
	Publisher    store.ChangePublisher
	Notifier     store.CompletionNotifier
	Objects      storage.ObjectStorage
	Redis        *redis.Client
	Logger       *zap.Logger
}

// Session owns one user's stores and their realtime bridge
type Session struct {
	Tasks   *store.TaskStore
	Events  *store.EventStore
	Profile *store.ProfileStore

	bridge *realtime.Bridge
}

// Registry maps user IDs to live sessions
type Registry struct {
	deps Deps

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates an empty registry
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:     deps,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// GetOrCreate returns the user's session, establishing it on first
// use: stores get the identity and load, and the bridge subscribes.
// A bridge subscription failure is logged, not fatal; the session
// still works without realtime reloads.
func (r *Registry) GetOrCreate(ctx context.Context, identity *models.Identity) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[identity.UserID]; ok {
		return s
	}

	s := &Session{
		Tasks: store.NewTaskStore(
			r.deps.TaskRepo,
			r.deps.SubtaskRepo,
			r.deps.ActivityRepo,
			r.deps.Publisher,
			r.deps.Notifier,
			r.deps.Logger,
		),
		Events:  store.NewEventStore(r.deps.EventRepo, r.deps.Publisher, r.deps.Logger),
		Profile: store.NewProfileStore(r.deps.ProfileRepo, r.deps.Objects, r.deps.Logger),
	}

	s.Tasks.SetIdentity(identity)
	s.Events.SetIdentity(identity)
	s.Profile.SetIdentity(identity)

	s.Tasks.Load(ctx)
	s.Events.Load(ctx, nil)
	s.Profile.Load(ctx)

	s.bridge = realtime.NewBridge(
		r.deps.Redis,
		identity.UserID,
		func() { reload(func(ctx context.Context) { s.Tasks.Load(ctx) }) },
		func() { reload(func(ctx context.Context) { s.Events.Load(ctx, nil) }) },
		r.deps.Logger,
	)
	if err := s.bridge.Start(ctx); err != nil {
		r.deps.Logger.Warn("failed_to_start_realtime_bridge",
			zap.String("user_id", identity.UserID.String()),
			zap.Error(err),
		)
	}

	r.sessions[identity.UserID] = s

	r.deps.Logger.Info("session_established",
		zap.String("user_id", identity.UserID.String()),
	)
	return s
}

// Get returns the user's session without creating one
func (r *Registry) Get(userID uuid.UUID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[userID]
}

// Drop tears the user's session down: the bridge unsubscribes and the
// stores clear. No-op for an unknown user.
func (r *Registry) Drop(userID uuid.UUID) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	if ok {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	s.bridge.Stop()
	s.Tasks.Clear()
	s.Events.Clear()
	s.Profile.Clear()

	r.deps.Logger.Info("session_dropped",
		zap.String("user_id", userID.String()),
	)
}

// Close drops every live session. Called on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.bridge.Stop()
		s.Tasks.Clear()
		s.Events.Clear()
		s.Profile.Clear()
	}
}

func reload(load func(context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()
	load(ctx)
}
