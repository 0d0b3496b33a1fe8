package repository

import (
	"gorm.io/gorm"

	"github.com/anidavtyan/email-reporting-system/interfaces"
	"github.com/anidavtyan/email-reporting-system/internal/models"
)

type Repositories struct {
	ReportJobRepository interfaces.ReportJobRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		ReportJobRepository: NewReportJobRepository(db),
	}
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ReportJob{},
	)
}
