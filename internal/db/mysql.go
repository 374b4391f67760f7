package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clubportal/internal/model"
)

// NewMySQL returns a connected GORM DB instance.
// Driver errors are translated so unique-key violations surface as gorm.ErrDuplicatedKey.
func NewMySQL(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Role{},
		&model.TeamPosition{},
		&model.Sig{},
		&model.User{},
		&model.MemberProfile{},
		&model.ProfileFieldDefinition{},
		&model.AuditLog{},
		&model.Project{},
		&model.ProjectRequest{},
		&model.ProjectThread{},
		&model.ThreadMessage{},
		&model.Form{},
		&model.FormSection{},
		&model.FormField{},
		&model.FormResponse{},
		&model.Announcement{},
		&model.Event{},
		&model.ContactMessage{},
		&model.Sponsorship{},
		&model.GalleryImage{},
		&model.RecruitmentDrive{},
	}
}

// Migrate runs AutoMigrate for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
