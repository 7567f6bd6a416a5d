package database

import (
	"errors"
	"fmt"
	"strings"

	"palmera/config"
	applog "palmera/logger"
	"palmera/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// ErrUnknownDriver 不支持的数据库驱动
var ErrUnknownDriver = errors.New("不支持的数据库驱动")

// Dialector 按配置选择 gorm 驱动
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres", "postgresql", "":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.DBName, orDefault(cfg.SSLMode, "disable"))
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, orDefault(cfg.Charset, "utf8mb4"))
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(orDefault(cfg.Path, "palmera.db")), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Init 初始化数据库连接并完成迁移
func Init(cfg *config.Config) error {
	dialector, err := Dialector(cfg.Database)
	if err != nil {
		return err
	}

	level := logger.Info
	if cfg.IsRelease() {
		level = logger.Warn
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	// 获取底层 *sql.DB 连接池配置
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if strings.EqualFold(cfg.Database.Driver, "sqlite") {
		sqlDB.SetMaxOpenConns(1) // sqlite 单写
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}

	if err := Migrate(db); err != nil {
		return err
	}

	DB = db
	l := applog.Get()
	l.Info().Str("driver", cfg.Database.Driver).Msg("数据库初始化成功")
	return nil
}

// OpenMemory 打开一个已迁移的内存 sqlite 数据库，name 区分不同实例
func OpenMemory(name string) (*gorm.DB, error) {
	if name == "" {
		name = uuid.NewString()
	}
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate 自动迁移表结构，写入默认服务目录，并升级历史收入记录
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.UserProfile{},
		&models.UserRole{},
		&models.Manicurist{},
		&models.Service{},
		&models.IncomeRecord{},
		&models.ExpenseRecord{},
		&models.EmailVerification{},
		&models.BootstrapMarker{},
	); err != nil {
		return fmt.Errorf("迁移表结构失败: %w", err)
	}

	// 初始化默认服务目录（仅当表为空时）
	var count int64
	if err := db.Model(&models.Service{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		catalog := models.DefaultServiceCatalog()
		if err := db.Create(&catalog).Error; err != nil {
			return fmt.Errorf("写入默认服务目录失败: %w", err)
		}
	}

	migrated, err := MigrateLegacyIncome(db)
	if err != nil {
		return err
	}
	if migrated > 0 {
		l := applog.Get()
		l.Info().Int("rows", migrated).Msg("已升级历史收入记录")
	}
	return nil
}

// MigrateLegacyIncome 把 v1 收入记录的自由文本美甲师名映射到 manicurists 表
// 在一个事务内完成，返回升级的行数
func MigrateLegacyIncome(db *gorm.DB) (int, error) {
	var rows []models.IncomeRecord
	if err := db.Where("schema_version < ?", models.IncomeSchemaVersion).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("读取历史收入记录失败: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var known []models.Manicurist
		if err := tx.Find(&known).Error; err != nil {
			return err
		}
		plan := models.PlanIncomeMigration(rows, known)

		ids := make(map[string]string, len(known)+len(plan.Create))
		for _, m := range known {
			ids[m.Name] = m.ID
		}
		for _, name := range plan.Create {
			m := models.Manicurist{Name: name, IsActive: true}
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("创建美甲师 %q 失败: %w", name, err)
			}
			ids[name] = m.ID
		}

		for _, r := range rows {
			name := plan.Assign[r.ID]
			updates := map[string]interface{}{
				"schema_version":  models.IncomeSchemaVersion,
				"manicurist_name": name,
				"manicurist_id":   nil,
			}
			if id, ok := ids[name]; ok && name != "" {
				updates["manicurist_id"] = id
			}
			if err := tx.Model(&models.IncomeRecord{}).Where("id = ?", r.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("升级历史收入记录失败: %w", err)
	}
	return len(rows), nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
