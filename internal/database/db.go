package database

import (
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/logging"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens the connection pool and migrates the schema.
// TranslateError makes unique and foreign key violations comparable with
// gorm.ErrDuplicatedKey and gorm.ErrForeignKeyViolated.
func NewConnection(dsn string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		logging.Error("auto-migrate failed", err, nil)
	}

	return db, nil
}

// Migrate creates or updates every table. Referenced tables go first.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Permission{},
		&model.Role{},
		&model.Sede{},
		&model.User{},
		&model.Dependencia{},
		&model.TipoSolicitud{},
		&model.Producto{},
		&model.Personal{},
		&model.Inventario{},
		&model.Consecutivo{},
		&model.CpPedido{},
		&model.CpItemPedido{},
		&model.CpEntregaActivosFijos{},
		&model.CpEntregaActivosFijosItem{},
		&model.AuditLog{},
	)
}
