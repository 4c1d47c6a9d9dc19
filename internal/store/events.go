package store

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kwhite/taskpulse/internal/database"
	"github.com/kwhite/taskpulse/internal/mapper"
	"github.com/kwhite/taskpulse/internal/models"
	"github.com/kwhite/taskpulse/internal/realtime"
	"go.uber.org/zap"
)

// EventStore owns the in-memory event collection for one user, ordered
// by start hour ascending.
type EventStore struct {
	eventRepo database.EventRepositoryInterface
	publisher ChangePublisher
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.RWMutex
	identity *models.Identity
	events   []models.EventItem
	loading  bool

	listeners listeners
}

// NewEventStore creates an event store. Publisher may be nil.
func NewEventStore(eventRepo database.EventRepositoryInterface, publisher ChangePublisher, logger *zap.Logger) *EventStore {
	return &EventStore{
		eventRepo: eventRepo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the store's clock. Test hook.
func (s *EventStore) SetClock(now func() time.Time) {
	s.now = now
}

// SetIdentity binds the store to a user
func (s *EventStore) SetIdentity(identity *models.Identity) {
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
}

// Subscribe registers a listener fired after every state change
func (s *EventStore) Subscribe(fn func()) func() {
	return s.listeners.subscribe(fn)
}

// Events returns a snapshot ordered by start hour
func (s *EventStore) Events() []models.EventItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.EventItem, len(s.events))
	copy(out, s.events)
	return out
}

// Loading reports whether a load is in flight
func (s *EventStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Load fetches the user's events, optionally restricted to a single
// calendar day ("2006-01-02"). A fetch failure empties the collection.
func (s *EventStore) Load(ctx context.Context, date *string) {
	s.mu.Lock()
	identity := s.identity
	s.loading = true
	s.mu.Unlock()
	s.listeners.notify()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		s.listeners.notify()
	}()

	if identity == nil {
		s.replaceState(nil)
		return
	}

	rows, err := s.eventRepo.GetByUserID(ctx, identity.UserID, date)
	if err != nil {
		s.logger.Error("failed_to_fetch_events", zap.Error(err))
		s.replaceState(nil)
		return
	}

	events := make([]models.EventItem, len(rows))
	for i, row := range rows {
		events[i] = mapper.EventFromRow(row)
	}
	s.replaceState(events)
}

func (s *EventStore) replaceState(events []models.EventItem) {
	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
	s.listeners.notify()
}

// Add persists a new event built from a calendar date plus fractional
// hours, then appends it locally and re-sorts by start hour.
func (s *EventStore) Add(ctx context.Context, input models.NewEventInput) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return
	}

	s.mu.RLock()
	identity := s.identity
	s.mu.RUnlock()
	if identity == nil {
		return
	}

	day, err := time.ParseInLocation("2006-01-02", input.Date, time.Local)
	if err != nil {
		s.logger.Warn("invalid_event_date", zap.String("date", input.Date))
		return
	}

	row := &models.EventRow{
		ID:        uuid.New(),
		UserID:    identity.UserID,
		Title:     title,
		StartTime: day.Add(hourOffset(input.StartHour)),
		EndTime:   day.Add(hourOffset(input.EndHour)),
		EventDate: input.Date,
	}
	if tag := strings.TrimSpace(input.Tag); tag != "" {
		row.Tag = &tag
	}

	if err := s.eventRepo.Create(ctx, row); err != nil {
		s.logger.Error("failed_to_add_event", zap.Error(err))
		return
	}

	event := mapper.EventFromRow(*row)

	s.mu.Lock()
	s.events = append(s.events, event)
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].StartHour < s.events[j].StartHour
	})
	s.mu.Unlock()
	s.listeners.notify()

	s.publish(identity.UserID, realtime.OpInsert)
}

// Remove deletes an event optimistically; a failed remote delete
// triggers a corrective reload.
func (s *EventStore) Remove(ctx context.Context, eventID uuid.UUID) {
	s.mu.Lock()
	identity := s.identity
	if identity == nil {
		s.mu.Unlock()
		return
	}
	kept := s.events[:0:0]
	for _, e := range s.events {
		if e.ID != eventID {
			kept = append(kept, e)
		}
	}
	s.events = kept
	s.mu.Unlock()
	s.listeners.notify()

	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		s.logger.Error("failed_to_remove_event", zap.Error(err))
		s.reload()
		return
	}

	s.publish(identity.UserID, realtime.OpDelete)
}

// ToggleStar flips the local-only star. The events table has no
// starred column, so nothing is persisted.
func (s *EventStore) ToggleStar(eventID uuid.UUID) {
	s.mu.Lock()
	for i := range s.events {
		if s.events[i].ID == eventID {
			s.events[i].Starred = !s.events[i].Starred
			break
		}
	}
	s.mu.Unlock()
	s.listeners.notify()
}

// Clear empties the collection and drops the identity
func (s *EventStore) Clear() {
	s.mu.Lock()
	s.identity = nil
	s.events = nil
	s.mu.Unlock()
	s.listeners.notify()
}

func (s *EventStore) publish(userID uuid.UUID, op string) {
	if s.publisher == nil {
		return
	}
	detach(func(ctx context.Context) {
		if err := s.publisher.Publish(ctx, realtime.TableEvents, userID, op); err != nil {
			s.logger.Warn("failed_to_publish_event_change", zap.Error(err))
		}
	})
}

func (s *EventStore) reload() {
	detach(func(ctx context.Context) {
		s.Load(ctx, nil)
	})
}

// hourOffset converts a fractional hour-of-day to a duration from
// midnight, rounded to the minute.
func hourOffset(hour float64) time.Duration {
	return time.Duration(math.Round(hour*60)) * time.Minute
}
