package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/systemcontrol/defect-service/internal/domain"
)

// memoryStore keeps everything in process memory. It backs tests and
// DSN-less development runs. WithinTx delegates to fn directly: rollback is
// not simulated, callers validate before writing.
type memoryStore struct {
	mu        sync.Mutex
	defects   map[int64]domain.Defect
	history   []domain.DefectHistory
	projects  map[int64]domain.Project
	users     map[int64]domain.User
	comments  map[int64]domain.Comment
	defectSeq  int64
	historySeq int64
	projectSeq int64
	userSeq    int64
	commentSeq int64
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{
		defects:  make(map[int64]domain.Defect),
		projects: make(map[int64]domain.Project),
		users:    make(map[int64]domain.User),
		comments: make(map[int64]domain.Comment),
	}
}

func (s *memoryStore) Defects() DefectRepository        { return (*memDefects)(s) }
func (s *memoryStore) History() DefectHistoryRepository { return (*memHistory)(s) }
func (s *memoryStore) Projects() ProjectRepository      { return (*memProjects)(s) }
func (s *memoryStore) Users() UserRepository            { return (*memUsers)(s) }
func (s *memoryStore) Comments() CommentRepository      { return (*memComments)(s) }

func (s *memoryStore) WithinTx(_ context.Context, fn func(Store) error) error {
	return fn(s)
}

type memDefects memoryStore

func (m *memDefects) Create(_ context.Context, defect *domain.Defect) error {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defectSeq++
	defect.ID = s.defectSeq
	now := time.Now()
	defect.CreatedAt = now
	defect.UpdatedAt = now
	s.defects[defect.ID] = *defect
	return nil
}

func (m *memDefects) Update(_ context.Context, defect *domain.Defect) error {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defects[defect.ID]; !ok {
		return ErrNotFound
	}
	defect.UpdatedAt = time.Now()
	s.defects[defect.ID] = *defect
	return nil
}

func (m *memDefects) GetByID(_ context.Context, id int64) (*domain.Defect, error) {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	defect, ok := s.defects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &defect, nil
}

func (m *memDefects) List(_ context.Context) ([]domain.Defect, error) {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.Defect, 0, len(s.defects))
	for _, d := range s.defects {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memDefects) ListByProject(_ context.Context, projectID int64) ([]domain.Defect, error) {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Defect
	for _, d := range s.defects {
		if d.ProjectID == projectID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memDefects) Delete(_ context.Context, id int64) error {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.defects, id)
	kept := s.history[:0]
	for _, entry := range s.history {
		if entry.DefectID != id {
			kept = append(kept, entry)
		}
	}
	s.history = kept
	for cid, c := range s.comments {
		if c.DefectID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

type memHistory memoryStore

func (m *memHistory) Create(_ context.Context, entry *domain.DefectHistory) error {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historySeq++
	entry.ID = s.historySeq
	entry.CreatedAt = time.Now()
	s.history = append(s.history, *entry)
	return nil
}

func (m *memHistory) ListByDefect(_ context.Context, defectID int64) ([]domain.DefectHistory, error) {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.DefectHistory
	for _, entry := range s.history {
		if entry.DefectID == defectID {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type memProjects memoryStore

func (m *memProjects) Create(_ context.Context, project *domain.Project) error {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectSeq++
	project.ID = s.projectSeq
	project.CreatedAt = time.Now()
	s.projects[project.ID] = *project
	return nil
}

func (m *memProjects) GetByID(_ context.Context, id int64) (*domain.Project, error) {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &project, nil
}

func (m *memProjects) ExistsByID(_ context.Context, id int64) (bool, error) {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.projects[id]
	return ok, nil
}

func (m *memProjects) List(_ context.Context) ([]domain.Project, error) {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memProjects) Delete(_ context.Context, id int64) error {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, id)
	return nil
}

type memUsers memoryStore

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userSeq++
	user.ID = s.userSeq
	user.CreatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memUsers) ExistsByID(_ context.Context, id int64) (bool, error) {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok, nil
}

func (m *memUsers) List(_ context.Context) ([]domain.User, error) {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memUsers) Count(_ context.Context) (int64, error) {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

type memComments memoryStore

func (m *memComments) Create(_ context.Context, comment *domain.Comment) error {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commentSeq++
	comment.ID = s.commentSeq
	comment.CreatedAt = time.Now()
	s.comments[comment.ID] = *comment
	return nil
}

func (m *memComments) ListByDefect(_ context.Context, defectID int64) ([]domain.Comment, error) {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Comment
	for _, c := range s.comments {
		if c.DefectID == defectID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memComments) Delete(_ context.Context, id int64) error {
	s := (*memoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.comments, id)
	return nil
}
