package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "/etc/adminctl/config.yml"
	envFile     = ".env"
)

type (
	Config struct {
		// LogMode selects the zap preset, "development" or "production".
		LogMode string `yaml:"log_mode" env:"ADMINCTL_LOG_MODE" env-default:"production" validate:"oneof=development production"`

		MySQL    MySQLConfig    `yaml:"mysql"`
		Backup   BackupConfig   `yaml:"backup"`
		Firewall FirewallConfig `yaml:"firewall"`
		Audit    AuditConfig    `yaml:"audit"`
		Confirm  ConfirmConfig  `yaml:"confirm"`
		AuthLog  AuthLogConfig  `yaml:"auth_log"`
	}

	MySQLConfig struct {
		Host string `yaml:"host" env:"MYSQL_HOST" env-default:"127.0.0.1" validate:"required"`
		Port int    `yaml:"port" env:"MYSQL_PORT" env-default:"3306" validate:"min=1,max=65535"`
		User string `yaml:"user" env:"MYSQL_USER" env-default:"root" validate:"required"`

		// Password never comes from the YAML file. It is read from MYSQL_PWD,
		// the keyring, or an interactive prompt, in that order.
		Password string `yaml:"-" env:"MYSQL_PWD"`
	}

	BackupConfig struct {
		Dir string `yaml:"dir" env:"ADMINCTL_BACKUP_DIR" env-default:"/var/backups/mysql" validate:"required"`

		// S3 is optional, when Endpoint is empty backups stay on the local filesystem.
		S3 S3Config `yaml:"s3"`
	}

	S3Config struct {
		Endpoint    string `yaml:"endpoint" env:"ADMINCTL_S3_ENDPOINT"`
		AccessKeyID string `yaml:"access_key_id" env:"ADMINCTL_S3_ACCESS_KEY_ID"`
		SecretKey   string `yaml:"-" env:"ADMINCTL_S3_SECRET_KEY"`
		Region      string `yaml:"region" env:"ADMINCTL_S3_REGION"`
		Bucket      string `yaml:"bucket" env:"ADMINCTL_S3_BUCKET" env-default:"backups"`
		Secure      bool   `yaml:"secure" env:"ADMINCTL_S3_SECURE"`
	}

	FirewallConfig struct {
		Backend      string `yaml:"backend" env:"ADMINCTL_FIREWALL_BACKEND" env-default:"iptables" validate:"oneof=iptables nftables"`
		Chain        string `yaml:"chain" env:"ADMINCTL_FIREWALL_CHAIN" env-default:"INPUT" validate:"required"`
		Table        string `yaml:"table" env:"ADMINCTL_FIREWALL_TABLE" env-default:"adminctl"`
		IPTablesPath string `yaml:"iptables_path" env:"ADMINCTL_IPTABLES" env-default:"iptables"`
	}

	AuditConfig struct {
		LogFile string `yaml:"log_file" env:"ADMINCTL_AUDIT_LOG" env-default:"/var/log/adminctl.log" validate:"required"`

		// DatabasePath enables the queryable history when set.
		DatabasePath string `yaml:"database_path" env:"ADMINCTL_AUDIT_DB"`
	}

	ConfirmConfig struct {
		DatabaseToken string `yaml:"database_token" env:"ADMINCTL_CONFIRM_DB" env-default:"yes" validate:"required"`
		FirewallToken string `yaml:"firewall_token" env:"ADMINCTL_CONFIRM_FW" env-default:"y" validate:"required"`
	}

	AuthLogConfig struct {
		Files []string `yaml:"files" env:"ADMINCTL_AUTH_LOGS" env-separator:"," env-default:"/var/log/auth.log,/var/log/secure,/var/log/messages"`
	}
)

// Load reads path (when it exists) and the environment into a Config.
// Environment variables always override values from the file.
func Load(path string) (Config, error) {
	var cfg Config

	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return cfg, errors.Wrap(err, "failed to load "+envFile)
		}
	}

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, next := range validationErrors {
				return fmt.Errorf("invalid value provided for: %s", next.Namespace())
			}
		}
		return err
	}
	return nil
}

func (c S3Config) Enabled() bool {
	return c.Endpoint != ""
}

// Save writes cfg as YAML to path, creating the parent directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	value, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, value, 0600)
}
