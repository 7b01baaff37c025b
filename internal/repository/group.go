package repository

import (
	"context"

	"yatube/internal/cache"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// GroupRepository defines persistence operations for groups.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	GetBySlug(ctx context.Context, slug string) (*models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id uint) error
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository returns a new GroupRepository implementation.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	return translateWriteError(r.db.WithContext(ctx).Create(group).Error, "Group")
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := readDB(r.db).WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, translateReadError(err, "Group", id)
	}
	return &group, nil
}

func (r *groupRepository) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	err := cache.Aside(ctx, cache.GroupKey(slug), &group, cache.GroupTTL, func() error {
		err := readDB(r.db).WithContext(ctx).Where("slug = ?", slug).First(&group).Error
		return translateReadError(err, "Group", slug)
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := readDB(r.db).WithContext(ctx).Order("title ASC, id ASC").Find(&groups).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

func (r *groupRepository) Update(ctx context.Context, group *models.Group) error {
	var old models.Group
	if err := r.db.WithContext(ctx).First(&old, group.ID).Error; err != nil {
		return translateReadError(err, "Group", group.ID)
	}
	err := r.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", group.ID).Updates(map[string]interface{}{
		"title":       group.Title,
		"slug":        group.Slug,
		"description": group.Description,
	}).Error
	if err != nil {
		return translateWriteError(err, "Group")
	}
	cache.InvalidateGroup(ctx, old.Slug)
	cache.InvalidateGroup(ctx, group.Slug)
	return nil
}

// Delete removes the group. Its posts stay, with no group.
func (r *groupRepository) Delete(ctx context.Context, id uint) error {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return translateReadError(err, "Group", id)
	}
	if err := r.db.WithContext(ctx).Delete(&group).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateGroup(ctx, group.Slug)
	return nil
}
