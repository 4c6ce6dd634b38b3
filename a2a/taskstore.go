package a2a

import (
	"sync"
)

// TaskStore keeps task snapshots in memory, keyed by task ID.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]*Task),
	}
}

func (s *TaskStore) Save(task *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
}

func (s *TaskStore) Get(id string) (*Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

// PushConfigStore keeps per-task webhook configurations.
type PushConfigStore struct {
	mu      sync.RWMutex
	configs map[string]PushNotificationConfig
}

func NewPushConfigStore() *PushConfigStore {
	return &PushConfigStore{
		configs: make(map[string]PushNotificationConfig),
	}
}

func (s *PushConfigStore) Set(taskID string, cfg PushNotificationConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[taskID] = cfg
}

func (s *PushConfigStore) Get(taskID string) (PushNotificationConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[taskID]
	return cfg, ok
}
