// Package mysqladmin is a typed client for MySQL server administration.
package mysqladmin

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	drv "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var systemSchemas = []string{"information_schema", "mysql", "performance_schema", "sys"}

type (
	Credential struct {
		User     string
		Password string
		Host     string
		Port     int
	}

	User struct {
		Name string
		Host string
	}

	Column struct {
		Field   string
		Type    string
		Null    string
		Key     string
		Default string
		Extra   string
	}

	Result struct {
		Columns []string
		Rows    [][]string
	}

	Admin interface {
		Ping(ctx context.Context) error
		ListDatabases(ctx context.Context) ([]string, error)
		ListTables(ctx context.Context, database string) ([]string, error)
		DescribeTable(ctx context.Context, database, table string) ([]Column, error)
		ListUsers(ctx context.Context) ([]User, error)
		CreateDatabase(ctx context.Context, name string) error
		DropDatabase(ctx context.Context, name string) error
		DropTable(ctx context.Context, database, table string) error
		CreateUser(ctx context.Context, user User, password string) error
		DropUser(ctx context.Context, user User) error
		Grant(ctx context.Context, user User, privileges, database string) error
		Revoke(ctx context.Context, user User, database string) error
		ShowGrants(ctx context.Context, user User) ([]string, error)
		Query(ctx context.Context, statement string) (Result, error)
		Close() error
	}

	admin struct {
		db *gorm.DB
	}
)

func (u User) String() string {
	return quoteString(u.Name) + "@" + quoteString(u.Host)
}

// Addr returns host:port for the credential.
func (c Credential) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// DSN builds the driver connection string for c.
func (c Credential) DSN() string {
	cfg := drv.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = c.Addr()
	cfg.Timeout = 10 * time.Second
	cfg.InterpolateParams = true
	return cfg.FormatDSN()
}

// Connect opens a connection pool for cred and checks it.
func Connect(ctx context.Context, cred Credential) (Admin, error) {
	db, err := gorm.Open(mysql.Open(cred.DSN()), newGormConfig())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to mysql at %s", cred.Addr())
	}

	a := &admin{db: db}
	if err := a.Ping(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// New wraps an existing *sql.DB.
func New(conn *sql.DB) (Admin, error) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), newGormConfig())
	if err != nil {
		return nil, err
	}
	return &admin{db: db}, nil
}

func newGormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	}
}

func (a admin) Ping(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return errors.Wrap(sqlDB.PingContext(ctx), "mysql ping failed")
}

// ListDatabases returns user databases, system schemas are left out.
func (a admin) ListDatabases(ctx context.Context) ([]string, error) {
	names, err := a.strings(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list databases")
	}
	return lo.Filter(names, func(item string, _ int) bool {
		return !lo.Contains(systemSchemas, item)
	}), nil
}

func (a admin) ListTables(ctx context.Context, database string) ([]string, error) {
	names, err := a.strings(ctx, "SHOW TABLES FROM "+quoteIdent(database))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list tables of %s", database)
	}
	return names, nil
}

func (a admin) DescribeTable(ctx context.Context, database, table string) ([]Column, error) {
	rows, err := a.db.WithContext(ctx).Raw("DESCRIBE " + quoteIdent(database) + "." + quoteIdent(table)).Rows()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to describe %s.%s", database, table)
	}
	defer rows.Close()

	var result []Column
	for rows.Next() {
		var c Column
		var def sql.NullString
		if err := rows.Scan(&c.Field, &c.Type, &c.Null, &c.Key, &def, &c.Extra); err != nil {
			return nil, err
		}
		c.Default = def.String
		result = append(result, c)
	}
	return result, rows.Err()
}

func (a admin) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := a.db.WithContext(ctx).Raw("SELECT User, Host FROM mysql.user ORDER BY User, Host").Rows()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Name, &u.Host); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (a admin) CreateDatabase(ctx context.Context, name string) error {
	return a.exec(ctx, "CREATE DATABASE "+quoteIdent(name))
}

func (a admin) DropDatabase(ctx context.Context, name string) error {
	return a.exec(ctx, "DROP DATABASE "+quoteIdent(name))
}

func (a admin) DropTable(ctx context.Context, database, table string) error {
	return a.exec(ctx, "DROP TABLE "+quoteIdent(database)+"."+quoteIdent(table))
}

func (a admin) CreateUser(ctx context.Context, user User, password string) error {
	return a.exec(ctx, fmt.Sprintf("CREATE USER %s IDENTIFIED BY %s", user, quoteString(password)))
}

func (a admin) DropUser(ctx context.Context, user User) error {
	return a.exec(ctx, "DROP USER "+user.String())
}

// Grant gives privileges (e.g. "ALL PRIVILEGES" or "SELECT, INSERT") on every
// table of database. The privilege list is passed through as typed.
func (a admin) Grant(ctx context.Context, user User, privileges, database string) error {
	if err := a.exec(ctx, fmt.Sprintf("GRANT %s ON %s.* TO %s", privileges, quoteIdent(database), user)); err != nil {
		return err
	}
	return a.exec(ctx, "FLUSH PRIVILEGES")
}

func (a admin) Revoke(ctx context.Context, user User, database string) error {
	if err := a.exec(ctx, fmt.Sprintf("REVOKE ALL PRIVILEGES ON %s.* FROM %s", quoteIdent(database), user)); err != nil {
		return err
	}
	return a.exec(ctx, "FLUSH PRIVILEGES")
}

func (a admin) ShowGrants(ctx context.Context, user User) ([]string, error) {
	grants, err := a.strings(ctx, "SHOW GRANTS FOR "+user.String())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to show grants for %s", user)
	}
	return grants, nil
}

// Query runs an arbitrary statement and returns its rows as text.
func (a admin) Query(ctx context.Context, statement string) (Result, error) {
	rows, err := a.db.WithContext(ctx).Raw(statement).Rows()
	if err != nil {
		return Result{}, errors.Wrap(err, "query failed")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}

	result := Result{Columns: columns}
	raw := make([]sql.RawBytes, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return Result{}, err
		}
		row := make([]string, len(raw))
		for i, v := range raw {
			if v == nil {
				row[i] = "NULL"
			} else {
				row[i] = string(v)
			}
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

func (a admin) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (a admin) exec(ctx context.Context, statement string) error {
	return a.db.WithContext(ctx).Exec(statement).Error
}

// strings runs statement and collects the first column of every row.
func (a admin) strings(ctx context.Context, statement string) ([]string, error) {
	rows, err := a.db.WithContext(ctx).Raw(statement).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}
