package handler

import (
	"context"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	"github.com/yourusername/mastery-api/internal/middleware"
	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ============================================================================
// Хранилища в памяти для тестов обработчиков
// ============================================================================

type fakeStore struct {
	mu        sync.Mutex
	topics    []entity.Topic
	questions []entity.Question
	progress  map[uint]*entity.StudentProgress
	users     []entity.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{progress: map[uint]*entity.StudentProgress{}}
}

// --- TopicRepository ---

type fakeTopics struct{ *fakeStore }

func (f fakeTopics) Create(ctx context.Context, t *entity.Topic) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.topics {
		if existing.Name == t.Name || existing.Order == t.Order {
			return apperrors.ErrConflict
		}
	}
	t.ID = uint(len(f.topics) + 1)
	f.topics = append(f.topics, *t)
	return nil
}

func (f fakeTopics) GetByID(ctx context.Context, id uint) (*entity.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.topics {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f fakeTopics) GetByOrder(ctx context.Context, order int) (*entity.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.topics {
		if t.Order == order {
			cp := t
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f fakeTopics) ListOrdered(ctx context.Context) ([]entity.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]entity.Topic(nil), f.topics...)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// --- QuestionRepository ---

type fakeQuestions struct{ *fakeStore }

func (f fakeQuestions) Create(ctx context.Context, q *entity.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q.ID = uint(len(f.questions) + 1)
	f.questions = append(f.questions, *q)
	return nil
}

func (f fakeQuestions) CreateBatch(ctx context.Context, qs []entity.Question) error {
	for i := range qs {
		if err := f.Create(ctx, &qs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f fakeQuestions) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.questions {
		if q.ID == id {
			cp := q
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f fakeQuestions) ListByTopic(ctx context.Context, topicID uint) ([]entity.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Question
	for _, q := range f.questions {
		if q.TopicID == topicID {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Difficulty < out[j].Difficulty })
	return out, nil
}

func (f fakeQuestions) find(match func(entity.Question) bool) *entity.Question {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.questions {
		if match(q) {
			cp := q
			return &cp
		}
	}
	return nil
}

func (f fakeQuestions) FindByTopicAndDifficulty(ctx context.Context, topicID uint, d int) (*entity.Question, error) {
	return f.find(func(q entity.Question) bool { return q.TopicID == topicID && q.Difficulty == d }), nil
}

func (f fakeQuestions) FindAnyByTopic(ctx context.Context, topicID uint) (*entity.Question, error) {
	return f.find(func(q entity.Question) bool { return q.TopicID == topicID }), nil
}

// --- ProgressRepository ---

type fakeProgress struct{ *fakeStore }

func (f fakeProgress) Create(ctx context.Context, p *entity.StudentProgress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress[p.StudentID] = p.Clone()
	return nil
}

func (f fakeProgress) GetByStudentID(ctx context.Context, id uint) (*entity.StudentProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.progress[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p.Clone(), nil
}

func (f fakeProgress) Save(ctx context.Context, p *entity.StudentProgress, expected int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.progress[p.StudentID]
	if !ok || stored.Version != expected {
		return apperrors.ErrConflict
	}
	saved := p.Clone()
	saved.Version = expected + 1
	f.progress[p.StudentID] = saved
	p.Version = saved.Version
	return nil
}

func (f fakeProgress) List(ctx context.Context) ([]entity.StudentProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.StudentProgress
	for _, p := range f.progress {
		out = append(out, *p.Clone())
	}
	return out, nil
}

// --- UserRepository ---

type fakeUsers struct{ *fakeStore }

func (f fakeUsers) Create(u *entity.User) error {
	// в postgres пароль хеширует хук BeforeSave
	if err := u.BeforeSave(nil); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = uint(len(f.users) + 1)
	f.users = append(f.users, *u)
	return nil
}

func (f fakeUsers) CreateWithProgress(u *entity.User) error {
	if err := f.Create(u); err != nil {
		return err
	}
	return fakeProgress(f).Create(context.Background(), entity.NewStudentProgress(u.ID))
}

func (f fakeUsers) GetByID(id uint) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			cp := u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f fakeUsers) GetByUsername(name string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == name {
			cp := u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f fakeUsers) ListByRole(role string) ([]entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

// asUser подставляет аутентифицированного пользователя вместо RequireAuth
func asUser(id uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Set(middleware.ContextRole, role)
		c.Next()
	}
}
