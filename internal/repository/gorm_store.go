package repository

import (
	"context"
	"errors"
	"time"

	"characterai/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps every collection in a SQL database through gorm
type GormStore struct {
	db            *gorm.DB
	users         *gormUserRepository
	characters    *gormCharacterRepository
	conversations *gormConversationRepository
}

// NewGormStore wraps an open gorm connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:            db,
		users:         &gormUserRepository{db: db},
		characters:    &gormCharacterRepository{db: db},
		conversations: &gormConversationRepository{db: db},
	}
}

// Migrate creates or updates the tables
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&models.User{}, &models.Character{}, &models.Conversation{})
}

func (s *GormStore) Users() UserRepository                 { return s.users }
func (s *GormStore) Characters() CharacterRepository       { return s.characters }
func (s *GormStore) Conversations() ConversationRepository { return s.conversations }

// Ping checks the database connection
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

type gormUserRepository struct {
	db *gorm.DB
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *gormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

type gormCharacterRepository struct {
	db *gorm.DB
}

func (r *gormCharacterRepository) query(ctx context.Context, expand bool) *gorm.DB {
	q := r.db.WithContext(ctx)
	if expand {
		q = q.Preload("Creator")
	}
	return q
}

func (r *gormCharacterRepository) Create(ctx context.Context, character *models.Character) error {
	if character.ID == "" {
		character.ID = uuid.NewString()
	}
	if character.CreatedAt.IsZero() {
		character.CreatedAt = time.Now().UTC()
	}
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(character).Error)
}

func (r *gormCharacterRepository) FindByID(ctx context.Context, id string, expand bool) (*models.Character, error) {
	var character models.Character
	if err := r.query(ctx, expand).First(&character, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &character, nil
}

func (r *gormCharacterRepository) FindAll(ctx context.Context, filter CharacterFilter, expand bool) ([]models.Character, error) {
	q := r.query(ctx, expand).Order("created_at asc")
	if filter.CreatorID != "" {
		q = q.Where("creator_id = ?", filter.CreatorID)
	}

	characters := []models.Character{}
	if err := q.Find(&characters).Error; err != nil {
		return nil, translate(err)
	}
	return characters, nil
}

func (r *gormCharacterRepository) Update(ctx context.Context, id string, patch *models.CharacterPatch) (*models.Character, error) {
	character, err := r.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if cols := patch.Columns(); len(cols) > 0 {
		if err := r.db.WithContext(ctx).Model(&models.Character{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return nil, translate(err)
		}
	}
	patch.Apply(character)
	return character, nil
}

func (r *gormCharacterRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Character{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormConversationRepository struct {
	db *gorm.DB
}

func (r *gormConversationRepository) query(ctx context.Context, expand bool) *gorm.DB {
	q := r.db.WithContext(ctx)
	if expand {
		q = q.Preload("User").Preload("Character")
	}
	return q
}

func (r *gormConversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.NewString()
	}
	if conversation.StartedAt.IsZero() {
		conversation.StartedAt = time.Now().UTC()
	}
	if conversation.Messages == nil {
		conversation.Messages = []models.Message{}
	}
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(conversation).Error)
}

func (r *gormConversationRepository) FindByID(ctx context.Context, id string, expand bool) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.query(ctx, expand).First(&conversation, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	if conversation.Messages == nil {
		conversation.Messages = []models.Message{}
	}
	return &conversation, nil
}

func (r *gormConversationRepository) FindAll(ctx context.Context, filter ConversationFilter, expand bool) ([]models.Conversation, error) {
	q := r.query(ctx, expand).Order("started_at asc")
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.CharacterID != "" {
		q = q.Where("character_id = ?", filter.CharacterID)
	}

	conversations := []models.Conversation{}
	if err := q.Find(&conversations).Error; err != nil {
		return nil, translate(err)
	}
	for i := range conversations {
		if conversations[i].Messages == nil {
			conversations[i].Messages = []models.Message{}
		}
	}
	return conversations, nil
}

func (r *gormConversationRepository) Save(ctx context.Context, conversation *models.Conversation) error {
	result := r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", conversation.ID).
		Update("messages", conversation.Messages)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
