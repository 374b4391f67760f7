package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clubportal/internal/model"
)

// ProjectRepository persists projects, join requests, threads and messages.
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	ListForUser(ctx context.Context, userID uint) ([]model.Project, error)
	AddMember(ctx context.Context, projectID, userID uint) error

	CreateRequest(ctx context.Context, req *model.ProjectRequest) error
	FindRequest(ctx context.Context, id uint) (*model.ProjectRequest, error)
	FindRequestByPair(ctx context.Context, projectID, userID uint) (*model.ProjectRequest, error)
	ListRequests(ctx context.Context, projectID uint) ([]model.ProjectRequest, error)
	UpdateRequestStatus(ctx context.Context, id uint, status model.JoinRequestStatus) error

	CreateThread(ctx context.Context, thread *model.ProjectThread) error
	FindThread(ctx context.Context, id uint) (*model.ProjectThread, error)
	ListThreads(ctx context.Context, projectID uint) ([]model.ProjectThread, error)
	SetThreadEphemeral(ctx context.Context, id uint, ephemeral bool) error

	CreateMessage(ctx context.Context, msg *model.ThreadMessage) error
	// ListMessages returns oldest first; a non-nil since drops older messages.
	ListMessages(ctx context.Context, threadID uint, since *time.Time) ([]model.ThreadMessage, error)
	DeleteMessagesBefore(ctx context.Context, threadID uint, cutoff time.Time) (int64, error)
	PurgeMessages(ctx context.Context, threadID uint) (int64, error)
	// LastMessageIDs maps each thread with messages to its newest message id.
	LastMessageIDs(ctx context.Context, threadIDs []uint) (map[uint]uint, error)

	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ProjectRepository) error) error
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// Create inserts the project and links its members in one transaction.
func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}
		txRepo := &projectRepository{db: tx}
		for _, m := range project.Members {
			if err := txRepo.AddMember(ctx, project.ID, m.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error
}

func (r *projectRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &model.Project{}, id)
}

func (r *projectRepository) FindByID(ctx context.Context, id uint) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Preload("Lead").
		Preload("Members").
		Preload("Threads", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := r.db.WithContext(ctx).Preload("Lead").Preload("Members").Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// ListForUser returns projects the user leads or belongs to.
func (r *projectRepository) ListForUser(ctx context.Context, userID uint) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).
		Preload("Lead").
		Preload("Members").
		Where("lead_id = ? OR id IN (?)", userID,
			r.db.Table("project_members").Select("project_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// AddMember has set semantics: adding an existing member is a no-op.
func (r *projectRepository) AddMember(ctx context.Context, projectID, userID uint) error {
	return r.db.WithContext(ctx).
		Exec("INSERT IGNORE INTO project_members (project_id, user_id) VALUES (?, ?)", projectID, userID).Error
}

func (r *projectRepository) CreateRequest(ctx context.Context, req *model.ProjectRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
}

func (r *projectRepository) FindRequest(ctx context.Context, id uint) (*model.ProjectRequest, error) {
	var req model.ProjectRequest
	if err := r.db.WithContext(ctx).Preload("User").First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *projectRepository) FindRequestByPair(ctx context.Context, projectID, userID uint) (*model.ProjectRequest, error) {
	var req model.ProjectRequest
	err := r.db.WithContext(ctx).Where("project_id = ? AND user_id = ?", projectID, userID).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *projectRepository) ListRequests(ctx context.Context, projectID uint) ([]model.ProjectRequest, error) {
	var reqs []model.ProjectRequest
	err := r.db.WithContext(ctx).Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *projectRepository) UpdateRequestStatus(ctx context.Context, id uint, status model.JoinRequestStatus) error {
	return r.db.WithContext(ctx).Model(&model.ProjectRequest{}).Where("id = ?", id).Update("status", status).Error
}

func (r *projectRepository) CreateThread(ctx context.Context, thread *model.ProjectThread) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(thread).Error
}

func (r *projectRepository) FindThread(ctx context.Context, id uint) (*model.ProjectThread, error) {
	var thread model.ProjectThread
	if err := r.db.WithContext(ctx).First(&thread, id).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *projectRepository) ListThreads(ctx context.Context, projectID uint) ([]model.ProjectThread, error) {
	var threads []model.ProjectThread
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id").Find(&threads).Error; err != nil {
		return nil, err
	}
	return threads, nil
}

func (r *projectRepository) SetThreadEphemeral(ctx context.Context, id uint, ephemeral bool) error {
	return r.db.WithContext(ctx).Model(&model.ProjectThread{}).Where("id = ?", id).Update("is_ephemeral", ephemeral).Error
}

func (r *projectRepository) CreateMessage(ctx context.Context, msg *model.ThreadMessage) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error
}

func (r *projectRepository) ListMessages(ctx context.Context, threadID uint, since *time.Time) ([]model.ThreadMessage, error) {
	var msgs []model.ThreadMessage
	q := r.db.WithContext(ctx).Where("thread_id = ?", threadID)
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	if err := q.Order("created_at, id").Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *projectRepository) DeleteMessagesBefore(ctx context.Context, threadID uint, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("thread_id = ? AND created_at < ?", threadID, cutoff).Delete(&model.ThreadMessage{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *projectRepository) PurgeMessages(ctx context.Context, threadID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("thread_id = ?", threadID).Delete(&model.ThreadMessage{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *projectRepository) LastMessageIDs(ctx context.Context, threadIDs []uint) (map[uint]uint, error) {
	out := make(map[uint]uint, len(threadIDs))
	if len(threadIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ThreadID uint
		LastID   uint
	}
	err := r.db.WithContext(ctx).Model(&model.ThreadMessage{}).
		Select("thread_id, MAX(id) AS last_id").
		Where("thread_id IN ?", threadIDs).
		Group("thread_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ThreadID] = row.LastID
	}
	return out, nil
}

// WithTransaction executes a function within a database transaction.
func (r *projectRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ProjectRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &projectRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
