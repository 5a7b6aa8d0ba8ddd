// Package dbmenu is the interactive MySQL administration menu.
package dbmenu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"

	"adminctl/internal/audit"
	"adminctl/internal/backup"
	"adminctl/internal/dispatch"
	"adminctl/internal/mysqladmin"
	"adminctl/internal/types"
)

const (
	Title = "MySQL Database Management"

	categoryDatabases = "Databases"
	categoryTables    = "Tables"
	categoryUsers     = "Users"
	categoryTools     = "Tools"

	defaultPrivileges = "ALL PRIVILEGES"
	defaultUserHost   = "localhost"
)

type (
	Deps struct {
		Admin   mysqladmin.Admin
		Backup  backup.Executor
		History audit.History
	}

	menu struct {
		Deps
	}
)

// New returns the catalog of database actions.
func New(deps Deps) *dispatch.Catalog {
	m := &menu{Deps: deps}
	return dispatch.NewCatalog(Title,
		dispatch.Action{Category: categoryDatabases, Label: "List databases", Handler: m.listDatabases},
		dispatch.Action{Category: categoryDatabases, Label: "Create database", Handler: m.createDatabase},
		dispatch.Action{Category: categoryDatabases, Label: "Drop database (backs up first)", Handler: m.dropDatabase},
		dispatch.Action{Category: categoryDatabases, Label: "Backup database", Handler: m.backupDatabase},
		dispatch.Action{Category: categoryDatabases, Label: "Backup all databases", Handler: m.backupAll},
		dispatch.Action{Category: categoryDatabases, Label: "Restore database from backup", Handler: m.restoreDatabase},
		dispatch.Action{Category: categoryTables, Label: "List tables", Handler: m.listTables},
		dispatch.Action{Category: categoryTables, Label: "Describe table", Handler: m.describeTable},
		dispatch.Action{Category: categoryTables, Label: "Drop table", Handler: m.dropTable},
		dispatch.Action{Category: categoryUsers, Label: "List users", Handler: m.listUsers},
		dispatch.Action{Category: categoryUsers, Label: "Create user", Handler: m.createUser},
		dispatch.Action{Category: categoryUsers, Label: "Drop user", Handler: m.dropUser},
		dispatch.Action{Category: categoryUsers, Label: "Grant privileges", Handler: m.grant},
		dispatch.Action{Category: categoryUsers, Label: "Revoke privileges", Handler: m.revoke},
		dispatch.Action{Category: categoryUsers, Label: "Show grants", Handler: m.showGrants},
		dispatch.Action{Category: categoryTools, Label: "Run SQL statement", Handler: m.runSQL},
		dispatch.Action{Category: categoryTools, Label: "Show audit history", Handler: dispatch.ShowHistory(deps.History)},
	)
}

func (m *menu) databases() dispatch.Listing[string] {
	return dispatch.Listing[string]{
		Noun:  "database",
		List:  m.Admin.ListDatabases,
		Label: identity,
	}
}

func (m *menu) tables(database string) dispatch.Listing[string] {
	return dispatch.Listing[string]{
		Noun: "table",
		List: func(ctx context.Context) ([]string, error) {
			return m.Admin.ListTables(ctx, database)
		},
		Label: identity,
	}
}

func (m *menu) users() dispatch.Listing[mysqladmin.User] {
	return dispatch.Listing[mysqladmin.User]{
		Noun:  "user",
		List:  m.Admin.ListUsers,
		Label: mysqladmin.User.String,
	}
}

func (m *menu) backups() dispatch.Listing[types.FileStat] {
	return dispatch.Listing[types.FileStat]{
		Noun: "backup",
		List: func(ctx context.Context) ([]types.FileStat, error) {
			return m.Backup.List(ctx, "")
		},
		Label: func(f types.FileStat) string {
			return fmt.Sprintf("%s  (%s, %s)", f.Name, humanize.IBytes(uint64(f.Size)), f.ModTime.Format(time.DateTime))
		},
	}
}

func (m *menu) listDatabases(ctx context.Context, s *dispatch.Session) error {
	databases, err := m.Admin.ListDatabases(ctx)
	if err != nil {
		return dispatch.ExternalFailure("list databases", err)
	}
	if len(databases) == 0 {
		s.Printer.PrintW("No databases found")
		return nil
	}
	s.Printer.Numbered("Database", databases)
	return nil
}

func (m *menu) createDatabase(ctx context.Context, s *dispatch.Session) error {
	name, err := askName(s, "Database name")
	if err != nil {
		return err
	}
	return s.Perform(ctx, "create database", name, nil, func(ctx context.Context) error {
		return m.Admin.CreateDatabase(ctx, name)
	})
}

// dropDatabase takes a backup before dropping. A failed backup aborts the
// drop.
func (m *menu) dropDatabase(ctx context.Context, s *dispatch.Session) error {
	database, err := dispatch.Choose(ctx, s, m.databases())
	if err != nil {
		return err
	}

	return s.PerformDestructive(ctx, dispatch.DestructiveAction{
		Verb:     "drop database",
		Entity:   database,
		Question: fmt.Sprintf("Are you sure you want to drop database '%s'? It will be backed up first.", database),
		Before: func(ctx context.Context) (string, error) {
			bk, err := m.Backup.Dump(ctx, database)
			if err != nil {
				return "", err
			}
			s.Printer.Printf("Backup stored at %s", bk.Location)
			return "backup " + bk.Location, nil
		},
		Do: func(ctx context.Context) error {
			return m.Admin.DropDatabase(ctx, database)
		},
	})
}

func (m *menu) backupDatabase(ctx context.Context, s *dispatch.Session) error {
	database, err := dispatch.Choose(ctx, s, m.databases())
	if err != nil {
		return err
	}
	return s.PerformNoted(ctx, "backup database", database, m.dump(database))
}

func (m *menu) backupAll(ctx context.Context, s *dispatch.Session) error {
	databases, err := m.Admin.ListDatabases(ctx)
	if err != nil {
		return dispatch.ExternalFailure("list databases", err)
	}
	if len(databases) == 0 {
		return dispatch.Invalid("no databases found")
	}

	var failed []string
	for _, next := range databases {
		if err := s.PerformNoted(ctx, "backup database", next, m.dump(next)); err != nil {
			s.Printer.PrintE(err.Error())
			failed = append(failed, next)
		}
	}
	if len(failed) > 0 {
		return dispatch.ExternalFailure("backup all databases",
			fmt.Errorf("%d of %d backups failed: %s", len(failed), len(databases), strings.Join(failed, ", ")))
	}
	return nil
}

func (m *menu) dump(database string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		bk, err := m.Backup.Dump(ctx, database)
		if err != nil {
			return "", err
		}
		return bk.Location, nil
	}
}

func (m *menu) restoreDatabase(ctx context.Context, s *dispatch.Session) error {
	file, err := dispatch.Choose(ctx, s, m.backups())
	if err != nil {
		return err
	}

	database := backup.DatabaseOf(file.Name)
	if database == "" {
		return dispatch.Invalid("%s is not a database backup", file.Name)
	}

	return s.PerformDestructive(ctx, dispatch.DestructiveAction{
		Verb:     "restore database",
		Entity:   database,
		Question: fmt.Sprintf("Restore '%s' from %s? Existing data will be overwritten.", database, file.Name),
		Do: func(ctx context.Context) error {
			return m.Backup.Restore(ctx, file.Name)
		},
	})
}

func (m *menu) listTables(ctx context.Context, s *dispatch.Session) error {
	database, err := dispatch.Choose(ctx, s, m.databases())
	if err != nil {
		return err
	}

	tables, err := m.Admin.ListTables(ctx, database)
	if err != nil {
		return dispatch.ExternalFailure("list tables", err)
	}
	if len(tables) == 0 {
		s.Printer.PrintW(fmt.Sprintf("No tables in %s", database))
		return nil
	}
	s.Printer.Numbered("Table", tables)
	return nil
}

func (m *menu) chooseTable(ctx context.Context, s *dispatch.Session) (string, string, error) {
	database, err := dispatch.Choose(ctx, s, m.databases())
	if err != nil {
		return "", "", err
	}
	table, err := dispatch.Choose(ctx, s, m.tables(database))
	if err != nil {
		return "", "", err
	}
	return database, table, nil
}

func (m *menu) describeTable(ctx context.Context, s *dispatch.Session) error {
	database, name, err := m.chooseTable(ctx, s)
	if err != nil {
		return err
	}

	columns, err := m.Admin.DescribeTable(ctx, database, name)
	if err != nil {
		return dispatch.ExternalFailure("describe table", err)
	}

	rows := lo.Map(columns, func(c mysqladmin.Column, _ int) table.Row {
		return table.Row{c.Field, c.Type, c.Null, c.Key, c.Default, c.Extra}
	})
	s.Printer.Table(table.Row{"Field", "Type", "Null", "Key", "Default", "Extra"}, rows)
	return nil
}

func (m *menu) dropTable(ctx context.Context, s *dispatch.Session) error {
	database, name, err := m.chooseTable(ctx, s)
	if err != nil {
		return err
	}

	return s.PerformDestructive(ctx, dispatch.DestructiveAction{
		Verb:   "drop table",
		Entity: database + "." + name,
		Do: func(ctx context.Context) error {
			return m.Admin.DropTable(ctx, database, name)
		},
	})
}

func (m *menu) listUsers(ctx context.Context, s *dispatch.Session) error {
	users, err := m.Admin.ListUsers(ctx)
	if err != nil {
		return dispatch.ExternalFailure("list users", err)
	}
	if len(users) == 0 {
		s.Printer.PrintW("No users found")
		return nil
	}
	s.Printer.Numbered("User", lo.Map(users, func(u mysqladmin.User, _ int) string {
		return u.String()
	}))
	return nil
}

func (m *menu) createUser(ctx context.Context, s *dispatch.Session) error {
	name, err := askName(s, "Username")
	if err != nil {
		return err
	}

	host, err := s.Ask(fmt.Sprintf("Host (default %s)", defaultUserHost))
	if err != nil {
		return err
	}
	host = strings.TrimSpace(host)
	if host == "" {
		host = defaultUserHost
	}
	if strings.ContainsAny(host, "'\\") {
		return dispatch.Invalid("invalid host %q", host)
	}

	password, err := s.Prompt.Secret("Password")
	if err != nil {
		return err
	}
	if password == "" {
		return dispatch.Invalid("password is required")
	}

	user := mysqladmin.User{Name: name, Host: host}
	return s.Perform(ctx, "create user", user.String(), nil, func(ctx context.Context) error {
		return m.Admin.CreateUser(ctx, user, password)
	})
}

func (m *menu) dropUser(ctx context.Context, s *dispatch.Session) error {
	user, err := dispatch.Choose(ctx, s, m.users())
	if err != nil {
		return err
	}

	return s.PerformDestructive(ctx, dispatch.DestructiveAction{
		Verb:   "drop user",
		Entity: user.String(),
		Do: func(ctx context.Context) error {
			return m.Admin.DropUser(ctx, user)
		},
	})
}

func (m *menu) grant(ctx context.Context, s *dispatch.Session) error {
	user, err := dispatch.Choose(ctx, s, m.users())
	if err != nil {
		return err
	}
	database, err := dispatch.Choose(ctx, s, m.databases())
	if err != nil {
		return err
	}

	privileges, err := s.Ask(fmt.Sprintf("Privileges (default %s)", defaultPrivileges))
	if err != nil {
		return err
	}
	privileges = strings.TrimSpace(privileges)
	if privileges == "" {
		privileges = defaultPrivileges
	}
	if !mysqladmin.ValidPrivileges(privileges) {
		return dispatch.Invalid("invalid privilege list %q", privileges)
	}

	entity := fmt.Sprintf("%s on %s", user, database)
	return s.PerformNoted(ctx, "grant privileges", entity, func(ctx context.Context) (string, error) {
		return privileges, m.Admin.Grant(ctx, user, privileges, database)
	})
}

func (m *menu) revoke(ctx context.Context, s *dispatch.Session) error {
	user, err := dispatch.Choose(ctx, s, m.users())
	if err != nil {
		return err
	}
	database, err := dispatch.Choose(ctx, s, m.databases())
	if err != nil {
		return err
	}

	return s.PerformDestructive(ctx, dispatch.DestructiveAction{
		Verb:   "revoke privileges",
		Entity: fmt.Sprintf("%s on %s", user, database),
		Do: func(ctx context.Context) error {
			return m.Admin.Revoke(ctx, user, database)
		},
	})
}

func (m *menu) showGrants(ctx context.Context, s *dispatch.Session) error {
	user, err := dispatch.Choose(ctx, s, m.users())
	if err != nil {
		return err
	}

	grants, err := m.Admin.ShowGrants(ctx, user)
	if err != nil {
		return dispatch.ExternalFailure("show grants", err)
	}
	s.Printer.Heading("Grants for " + user.String())
	for _, next := range grants {
		s.Printer.Print("  " + next)
	}
	return nil
}

// runSQL executes a statement as typed. It is audited with password literals
// masked but not gated.
func (m *menu) runSQL(ctx context.Context, s *dispatch.Session) error {
	statement, err := s.AskRequired("SQL statement")
	if err != nil {
		return err
	}

	var result mysqladmin.Result
	err = s.PerformNoted(ctx, "run sql", mysqladmin.Redact(statement), func(ctx context.Context) (string, error) {
		var err error
		result, err = m.Admin.Query(ctx, statement)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d rows", len(result.Rows)), nil
	})
	if err != nil {
		return err
	}

	if len(result.Columns) == 0 {
		return nil
	}
	header := lo.Map(result.Columns, func(c string, _ int) any { return c })
	rows := lo.Map(result.Rows, func(r []string, _ int) table.Row {
		return lo.Map(r, func(v string, _ int) any { return v })
	})
	s.Printer.Table(header, rows)
	return nil
}

func askName(s *dispatch.Session, label string) (string, error) {
	name, err := s.AskRequired(label)
	if err != nil {
		return "", err
	}
	if !mysqladmin.ValidName(name) {
		return "", dispatch.Invalid("invalid name %q, use letters, digits, '_', '$' or '-'", name)
	}
	return name, nil
}

func identity(v string) string {
	return v
}
