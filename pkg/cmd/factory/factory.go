// Package factory builds the dependencies shared by every command.
package factory

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"adminctl/internal/audit"
	"adminctl/internal/auth"
	"adminctl/internal/cmdutil"
	"adminctl/internal/config"
	"adminctl/internal/database"
	"adminctl/internal/dispatch"
	"adminctl/internal/mysqladmin"
	"adminctl/internal/preflight"
	"adminctl/internal/prompt"
	"adminctl/internal/storage"
	"adminctl/internal/types"
	"adminctl/logger"
)

// sessionHistory bounds the in-memory history used without an audit database.
const sessionHistory = 500

type Factory struct {
	ConfigPath string

	In  io.ReadCloser
	Out io.WriteCloser

	config *config.Config
}

func New() *Factory {
	return &Factory{
		ConfigPath: config.DefaultPath,
		In:         os.Stdin,
		Out:        os.Stdout,
	}
}

// Config loads the configuration once and initialises the logger with it.
func (f *Factory) Config() (config.Config, error) {
	if f.config != nil {
		return *f.config, nil
	}

	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return cfg, preflight.Failed(err)
	}
	if err := logger.InitLogger(cfg.LogMode); err != nil {
		return cfg, err
	}
	f.config = &cfg
	return cfg, nil
}

// Interactive reports whether both ends are a terminal.
func (f *Factory) Interactive() bool {
	in, ok := f.In.(*os.File)
	if !ok {
		return false
	}
	out, ok := f.Out.(*os.File)
	if !ok {
		return false
	}
	return isTerminal(in.Fd()) && isTerminal(out.Fd())
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (f *Factory) Printer() *cmdutil.Printer {
	return cmdutil.NewPrinter(f.Out, f.Interactive())
}

func (f *Factory) Prompter() prompt.Prompter {
	if f.Interactive() {
		return prompt.NewTerminal(f.In, f.Out)
	}
	return prompt.NewLineReader(f.In, f.Out)
}

// Audit returns the sink every record goes to and the history read back by
// the menus. Without a database the history only covers this run.
func (f *Factory) Audit(cfg config.Config) (audit.Sink, audit.History, error) {
	file := audit.NewFileSink(cfg.Audit.LogFile)

	if cfg.Audit.DatabasePath == "" {
		history := audit.NewRecentHistory(sessionHistory)
		return audit.Multi(file, history), history, nil
	}

	db, err := database.Open(cfg.Audit.DatabasePath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open audit database")
	}
	history := audit.NewHistory(database.NewAuditRepository(db))
	return audit.Multi(file, history), history, nil
}

// Session starts an interactive session gated by token.
func (f *Factory) Session(cfg config.Config, token string) (*dispatch.Session, audit.History, error) {
	sink, history, err := f.Audit(cfg)
	if err != nil {
		return nil, nil, err
	}

	s := dispatch.NewSession(f.Prompter(), f.Printer(), sink, dispatch.Gate{Token: token})
	logger.Info("session started", zap.String("session", s.ID.String()))
	return s, history, nil
}

// Credential resolves the MySQL password from the environment, then the
// keyring, then by asking the operator.
func (f *Factory) Credential(cfg config.MySQLConfig, p prompt.Prompter) (mysqladmin.Credential, error) {
	cred := mysqladmin.Credential{User: cfg.User, Password: cfg.Password, Host: cfg.Host, Port: cfg.Port}
	if cred.Password != "" {
		return cred, nil
	}

	stored, err := auth.Get(cfg.User, cfg.Host)
	if err != nil {
		logger.Warn("keyring unavailable", zap.Error(err))
	}
	if stored != "" {
		cred.Password = stored
		return cred, nil
	}

	pwd, err := p.Secret("MySQL password for " + cfg.User)
	if err != nil {
		return cred, err
	}
	cred.Password = pwd
	return cred, nil
}

func (f *Factory) Storage(cfg config.BackupConfig) (storage.Storage, error) {
	if !cfg.S3.Enabled() {
		return storage.New(cfg.Dir, nil)
	}
	return storage.New(cfg.Dir, &types.StorageCredentials{
		Endpoint:    cfg.S3.Endpoint,
		AccessKeyID: cfg.S3.AccessKeyID,
		SecretKey:   cfg.S3.SecretKey,
		Region:      cfg.S3.Region,
		Bucket:      cfg.S3.Bucket,
		Secure:      cfg.S3.Secure,
	})
}
