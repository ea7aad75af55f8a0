package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// StorageConfig selects the file storage driver
type StorageConfig struct {
	Driver   string // local, s3
	Root     string
	S3Bucket string
}

// MailConfig selects the mail transport
type MailConfig struct {
	Driver string // log, ses
	From   string
}

// ExportConfig points to optional .xlsx templates. Empty means built-in layout.
type ExportConfig struct {
	PedidoTemplate  string
	EntregaTemplate string
}

// WorkflowPolicy holds the approval rules that differ between stages
type WorkflowPolicy struct {
	RequireManagementSignature    bool
	RequirePurchasingRejectReason bool
}

// AdminSeed creates the first administrator when Password is set
type AdminSeed struct {
	Usuario  string
	Correo   string
	Password string
}

type Config struct {
	Port    string
	GinMode string

	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSslMode   string
	DBSecretARN string

	JWTSecret []byte
	JWTTTL    time.Duration

	CORSOrigins []string
	AWSRegion   string

	Storage  StorageConfig
	Mail     MailConfig
	Export   ExportConfig
	Workflow WorkflowPolicy
	Admin    AdminSeed
}

// developmentJWTSecret is only accepted outside release mode
const developmentJWTSecret = "default_super_secret_key"

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_SECRET_ARN", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL_HOURS", 24)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("STORAGE_ROOT", "storage")
	v.SetDefault("STORAGE_S3_BUCKET", "")
	v.SetDefault("MAIL_DRIVER", "log")
	v.SetDefault("MAIL_FROM", "no-reply@localhost")
	v.SetDefault("EXPORT_PEDIDO_TEMPLATE", "")
	v.SetDefault("EXPORT_ENTREGA_TEMPLATE", "")
	v.SetDefault("WORKFLOW_REQUIRE_MANAGEMENT_SIGNATURE", false)
	v.SetDefault("WORKFLOW_REQUIRE_PURCHASING_REJECT_REASON", false)
	v.SetDefault("ADMIN_USER", "admin")
	v.SetDefault("ADMIN_EMAIL", "admin@localhost")
	v.SetDefault("ADMIN_PASSWORD", "")
}

// Load reads envFile (if present) into the process environment and resolves
// every setting from the environment with defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("No %s file found or error loading it", envFile)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:        v.GetString("PORT"),
		GinMode:     v.GetString("GIN_MODE"),
		DBHost:      v.GetString("DB_HOST"),
		DBPort:      v.GetString("DB_PORT"),
		DBUser:      v.GetString("DB_USER"),
		DBPassword:  v.GetString("DB_PASSWORD"),
		DBName:      v.GetString("DB_NAME"),
		DBSslMode:   v.GetString("DB_SSLMODE"),
		DBSecretARN: v.GetString("DB_SECRET_ARN"),
		JWTTTL:      time.Duration(v.GetInt("JWT_TTL_HOURS")) * time.Hour,
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		AWSRegion:   v.GetString("AWS_REGION"),
		Storage: StorageConfig{
			Driver:   strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Root:     v.GetString("STORAGE_ROOT"),
			S3Bucket: v.GetString("STORAGE_S3_BUCKET"),
		},
		Mail: MailConfig{
			Driver: strings.ToLower(v.GetString("MAIL_DRIVER")),
			From:   v.GetString("MAIL_FROM"),
		},
		Export: ExportConfig{
			PedidoTemplate:  v.GetString("EXPORT_PEDIDO_TEMPLATE"),
			EntregaTemplate: v.GetString("EXPORT_ENTREGA_TEMPLATE"),
		},
		Workflow: WorkflowPolicy{
			RequireManagementSignature:    v.GetBool("WORKFLOW_REQUIRE_MANAGEMENT_SIGNATURE"),
			RequirePurchasingRejectReason: v.GetBool("WORKFLOW_REQUIRE_PURCHASING_REJECT_REASON"),
		},
		Admin: AdminSeed{
			Usuario:  v.GetString("ADMIN_USER"),
			Correo:   v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
	}

	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		if cfg.GinMode == "release" {
			return nil, errors.New("JWT_SECRET environment variable is required in release mode")
		}
		secret = developmentJWTSecret
	}
	cfg.JWTSecret = []byte(secret)

	if cfg.JWTTTL <= 0 {
		cfg.JWTTTL = 24 * time.Hour
	}

	switch cfg.Storage.Driver {
	case "local", "s3":
	default:
		return nil, errors.New("STORAGE_DRIVER must be local or s3")
	}
	if cfg.Storage.Driver == "s3" && cfg.Storage.S3Bucket == "" {
		return nil, errors.New("STORAGE_S3_BUCKET is required for the s3 storage driver")
	}

	switch cfg.Mail.Driver {
	case "log", "ses":
	default:
		return nil, errors.New("MAIL_DRIVER must be log or ses")
	}

	return cfg, nil
}

// DSN builds the postgres connection string from the DB_* settings
func (c *Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSslMode
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
