package store

import (
	"context"
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

// ActivityFetchLimit is how many activity entries a load pulls in
const ActivityFetchLimit = 10

// TaskStore owns the authoritative in-memory task list and activity log
// for one user. Tasks are newest-first by creation; activity is
// newest-first. All operations are safe for concurrent use.
type TaskStore struct {
	taskRepo     database.TaskRepositoryInterface
	subtaskRepo  database.SubtaskRepositoryInterface
	activityRepo database.ActivityRepositoryInterface
	publisher    ChangePublisher
	notifier     CompletionNotifier
	logger       *zap.Logger
	now          func() time.Time

	mu       sync.RWMutex
	identity *models.Identity
	tasks    []models.Task
	activity []models.ActivityEntry
	loading  bool

	listeners listeners
}

// NewTaskStore creates a task store. Publisher and notifier may be nil;
// the corresponding side effects are then skipped.
func NewTaskStore(
	taskRepo database.TaskRepositoryInterface,
	subtaskRepo database.SubtaskRepositoryInterface,
	activityRepo database.ActivityRepositoryInterface,
	publisher ChangePublisher,
	notifier CompletionNotifier,
	logger *zap.Logger,
) *TaskStore {
	return &TaskStore{
		taskRepo:     taskRepo,
		subtaskRepo:  subtaskRepo,
		activityRepo: activityRepo,
		publisher:    publisher,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

// SetClock overrides the store's clock. Test hook.
func (s *TaskStore) SetClock(now func() time.Time) {
	s.now = now
}

// SetIdentity binds the store to a user. Called at session creation.
func (s *TaskStore) SetIdentity(identity *models.Identity) {
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
}

// Subscribe registers a listener fired after every state change. The
// returned function unsubscribes.
func (s *TaskStore) Subscribe(fn func()) func() {
	return s.listeners.subscribe(fn)
}

// Tasks returns a snapshot of the task list. Group and tag are
// recomputed against the current clock on every read, so buckets never
// go stale across a midnight boundary.
func (s *TaskStore) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]models.Task, len(s.tasks))
	for i, t := range s.tasks {
		t.Group, t.Tag = mapper.Categorize(t.DueDate, now)
		// Copy the subtasks so the snapshot does not share a backing
		// array with store state a later mutation writes through
		if len(t.Subtasks) > 0 {
			subtasks := make([]models.Subtask, len(t.Subtasks))
			copy(subtasks, t.Subtasks)
			t.Subtasks = subtasks
		}
		out[i] = t
	}
	return out
}

// Activity returns a snapshot of the activity log, newest first
func (s *TaskStore) Activity() []models.ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ActivityEntry, len(s.activity))
	copy(out, s.activity)
	return out
}

// Loading reports whether a load is in flight
func (s *TaskStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Load fetches tasks, their subtasks, and recent activity from the
// repositories, replacing local state. On any fetch failure the
// affected collection is set empty rather than left stale.
func (s *TaskStore) Load(ctx context.Context) {
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
		s.replaceState(nil, nil)
		return
	}

	tasks := s.fetchTasks(ctx, identity.UserID)
	activity := s.fetchActivity(ctx, identity.UserID)
	s.replaceState(tasks, activity)
}

func (s *TaskStore) fetchTasks(ctx context.Context, userID uuid.UUID) []models.Task {
	rows, err := s.taskRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("failed_to_fetch_tasks", zap.Error(err))
		return nil
	}

	taskIDs := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		taskIDs[i] = row.ID
	}

	subtasksByTask := make(map[uuid.UUID][]models.Subtask)
	subtaskRows, err := s.subtaskRepo.GetByTaskIDs(ctx, taskIDs)
	if err != nil {
		// Tasks still render without their checklists
		s.logger.Warn("failed_to_fetch_subtasks", zap.Error(err))
	} else {
		for _, row := range subtaskRows {
			subtasksByTask[row.TaskID] = append(subtasksByTask[row.TaskID], mapper.SubtaskFromRow(row))
		}
	}

	now := s.now()
	tasks := make([]models.Task, len(rows))
	for i, row := range rows {
		tasks[i] = mapper.TaskFromRow(row, subtasksByTask[row.ID], now)
	}
	return tasks
}

func (s *TaskStore) fetchActivity(ctx context.Context, userID uuid.UUID) []models.ActivityEntry {
	rows, err := s.activityRepo.GetRecentByUserID(ctx, userID, ActivityFetchLimit)
	if err != nil {
		s.logger.Error("failed_to_fetch_activity", zap.Error(err))
		return nil
	}

	entries := make([]models.ActivityEntry, len(rows))
	for i, row := range rows {
		entries[i] = mapper.ActivityFromRow(row)
	}
	return entries
}

func (s *TaskStore) replaceState(tasks []models.Task, activity []models.ActivityEntry) {
	s.mu.Lock()
	s.tasks = tasks
	s.activity = activity
	s.mu.Unlock()
	s.listeners.notify()
}

// Add creates a task from the input. A title blank after trimming or a
// missing identity makes the call a no-op. The new task lands at the
// head of the list only after the insert succeeds.
func (s *TaskStore) Add(ctx context.Context, input models.NewTaskInput) {
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

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	row := &models.TaskRow{
		ID:      uuid.New(),
		UserID:  identity.UserID,
		Title:   title,
		Starred: input.Starred,
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		row.Description = &desc
	}
	if input.DueDate != "" {
		due := input.DueDate
		row.DueDate = &due
	}
	priorityStr := strings.ToLower(string(priority))
	row.Priority = &priorityStr
	status := string(models.TaskStatusPending)
	row.Status = &status

	if err := s.taskRepo.Create(ctx, row); err != nil {
		// Nothing was mutated locally; just report
		s.logger.Error("failed_to_add_task", zap.Error(err))
		return
	}

	now := s.now()
	group, tag := mapper.Categorize(input.DueDate, now)
	task := models.Task{
		ID:          row.ID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		DueDate:     input.DueDate,
		Priority:    priority,
		Completed:   false,
		Starred:     input.Starred,
		Expanded:    false,
		Group:       group,
		Tag:         tag,
		Subtasks:    []models.Subtask{},
	}

	s.mu.Lock()
	s.tasks = append([]models.Task{task}, s.tasks...)
	s.mu.Unlock()
	s.listeners.notify()

	s.logActivity(identity, models.ActivityAdded, row.ID, title)
	s.publish(identity.UserID, realtime.OpInsert)
}

// Remove deletes a task optimistically; a failed remote delete triggers
// a corrective reload.
func (s *TaskStore) Remove(ctx context.Context, taskID uuid.UUID) {
	s.mu.Lock()
	identity := s.identity
	if identity == nil {
		s.mu.Unlock()
		return
	}
	kept := s.tasks[:0:0]
	for _, t := range s.tasks {
		if t.ID != taskID {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.mu.Unlock()
	s.listeners.notify()

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		s.logger.Error("failed_to_remove_task", zap.Error(err))
		s.reload()
		return
	}

	s.publish(identity.UserID, realtime.OpDelete)
}

// ToggleComplete flips completion optimistically, persists the
// resulting status, and on a transition to completed logs the activity
// and fires the completion notification.
func (s *TaskStore) ToggleComplete(ctx context.Context, taskID uuid.UUID) {
	s.mu.Lock()
	identity := s.identity
	if identity == nil {
		s.mu.Unlock()
		return
	}
	var title string
	var nowCompleted bool
	found := false
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks[i].Completed = !s.tasks[i].Completed
			nowCompleted = s.tasks[i].Completed
			title = s.tasks[i].Title
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return
	}
	s.listeners.notify()

	status := string(models.TaskStatusPending)
	if nowCompleted {
		status = string(models.TaskStatusCompleted)
	}

	if err := s.taskRepo.UpdateStatus(ctx, taskID, status); err != nil {
		s.logger.Error("failed_to_persist_completion", zap.Error(err))
		s.reload()
		return
	}

	if nowCompleted {
		s.logActivity(identity, models.ActivityCompleted, taskID, title)
		s.notifyCompletion(identity.Email, title)
	}
	s.publish(identity.UserID, realtime.OpUpdate)
}

// ToggleStar flips the star optimistically and persists it. A
// transition to starred logs the activity.
func (s *TaskStore) ToggleStar(ctx context.Context, taskID uuid.UUID) {
	s.mu.Lock()
	identity := s.identity
	if identity == nil {
		s.mu.Unlock()
		return
	}
	var title string
	var nowStarred bool
	found := false
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks[i].Starred = !s.tasks[i].Starred
			nowStarred = s.tasks[i].Starred
			title = s.tasks[i].Title
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return
	}
	s.listeners.notify()

	if err := s.taskRepo.UpdateStarred(ctx, taskID, nowStarred); err != nil {
		s.logger.Error("failed_to_persist_star", zap.Error(err))
		s.reload()
		return
	}

	if nowStarred {
		s.logActivity(identity, models.ActivityStarred, taskID, title)
	}
	s.publish(identity.UserID, realtime.OpUpdate)
}

// ToggleExpanded flips the UI-only expanded flag. Never persisted,
// never fails.
func (s *TaskStore) ToggleExpanded(taskID uuid.UUID) {
	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks[i].Expanded = !s.tasks[i].Expanded
			break
		}
	}
	s.mu.Unlock()
	s.listeners.notify()
}

// ToggleSubtask flips the named subtask's done flag optimistically and
// persists it keyed by the subtask's own id. Failure triggers the same
// corrective reload as the other toggles.
func (s *TaskStore) ToggleSubtask(ctx context.Context, taskID, subtaskID uuid.UUID) {
	s.mu.Lock()
	identity := s.identity
	if identity == nil {
		s.mu.Unlock()
		return
	}
	var newDone bool
	found := false
	for i := range s.tasks {
		if s.tasks[i].ID != taskID {
			continue
		}
		for j := range s.tasks[i].Subtasks {
			if s.tasks[i].Subtasks[j].ID == subtaskID {
				s.tasks[i].Subtasks[j].Done = !s.tasks[i].Subtasks[j].Done
				newDone = s.tasks[i].Subtasks[j].Done
				found = true
				break
			}
		}
		break
	}
	s.mu.Unlock()

	if !found {
		return
	}
	s.listeners.notify()

	if err := s.subtaskRepo.UpdateDone(ctx, subtaskID, newDone); err != nil {
		s.logger.Error("failed_to_persist_subtask", zap.Error(err))
		s.reload()
		return
	}

	s.publish(identity.UserID, realtime.OpUpdate)
}

// Clear empties both collections and drops the identity. Called on
// sign-out.
func (s *TaskStore) Clear() {
	s.mu.Lock()
	s.identity = nil
	s.tasks = nil
	s.activity = nil
	s.mu.Unlock()
	s.listeners.notify()
}

// logActivity appends to the log optimistically and persists the entry
// fire-and-forget. A failed insert is logged only; the feed keeps its
// optimistic entry until the next load.
func (s *TaskStore) logActivity(identity *models.Identity, activityType models.ActivityType, taskID uuid.UUID, title string) {
	entry := models.ActivityEntry{
		ID:        uuid.New(),
		Type:      activityType,
		TaskTitle: title,
		Timestamp: s.now(),
	}

	s.mu.Lock()
	s.activity = append([]models.ActivityEntry{entry}, s.activity...)
	s.mu.Unlock()
	s.listeners.notify()

	row := &models.ActivityRow{
		ID:         entry.ID,
		UserID:     identity.UserID,
		Action:     string(activityType),
		TaskID:     &taskID,
		TaskTitle:  title,
		OccurredAt: entry.Timestamp,
	}
	detach(func(ctx context.Context) {
		if err := s.activityRepo.Create(ctx, row); err != nil {
			s.logger.Warn("failed_to_persist_activity",
				zap.String("action", string(activityType)),
				zap.Error(err),
			)
		}
	})
}

// notifyCompletion fires the completion notification without blocking
// the toggle. Errors are logged and dropped.
func (s *TaskStore) notifyCompletion(email, title string) {
	if s.notifier == nil || email == "" {
		return
	}
	detach(func(ctx context.Context) {
		if err := s.notifier.NotifyCompletion(ctx, email, title); err != nil {
			s.logger.Warn("failed_to_send_completion_notification",
				zap.String("task_title", title),
				zap.Error(err),
			)
		}
	})
}

// publish emits a change notice for other instances, fire-and-forget
func (s *TaskStore) publish(userID uuid.UUID, op string) {
	if s.publisher == nil {
		return
	}
	detach(func(ctx context.Context) {
		if err := s.publisher.Publish(ctx, realtime.TableTasks, userID, op); err != nil {
			s.logger.Warn("failed_to_publish_task_change", zap.Error(err))
		}
	})
}

// reload issues a corrective full load without blocking the caller.
// Overlapping reloads are allowed; the later-completing one wins.
func (s *TaskStore) reload() {
	detach(func(ctx context.Context) {
		s.Load(ctx)
	})
}
