package macrosrc

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/itsatony/go-cuserr"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/lwmacct/251218-go-pkg-markup/pkg/macro"
)

// 支持的数据库驱动。
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// DefaultTable 为未指定表名时使用的表。
	DefaultTable = "macros"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ═══════════════════════════════════════════════════════════════════════════
// SQL 来源
// ═══════════════════════════════════════════════════════════════════════════

// Store 以 (name, value) 表保存宏定义。
type Store struct {
	db     *sql.DB
	driver string
	table  string
	owned  bool
}

// OpenStore 打开数据库并创建 Store，driver 为 [DriverSQLite] 或 [DriverPostgres]。
//
// table 为空时使用 [DefaultTable]。返回的 Store 负责关闭数据库。
func OpenStore(ctx context.Context, driver, dsn, table string) (*Store, error) {
	if err := checkDriver(driver); err != nil {
		return nil, err
	}
	table, err := checkTable(table)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeSource, "open database failed").
			WithMetadata(MetaKeyTable, table)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, cuserr.WrapStdError(err, ErrCodeSource, "connect database failed").
			WithMetadata(MetaKeyTable, table)
	}

	return &Store{db: db, driver: driver, table: table, owned: true}, nil
}

// NewStore 基于已打开的数据库创建 Store，Close 不会关闭 db。
func NewStore(db *sql.DB, driver, table string) (*Store, error) {
	if err := checkDriver(driver); err != nil {
		return nil, err
	}
	table, err := checkTable(table)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, driver: driver, table: table}, nil
}

// Table 返回表名。
func (s *Store) Table() string {
	return s.table
}

// EnsureTable 创建宏定义表（已存在时不做任何事）。
func (s *Store) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT NOT NULL PRIMARY KEY,
			value TEXT NOT NULL
		)`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return s.wrap(err, "create table failed")
	}

	return nil
}

// Load 读取表中全部宏定义。
func (s *Store) Load(ctx context.Context) (macro.Map, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT name, value FROM %s", s.table))
	if err != nil {
		return nil, s.wrap(err, "query macros failed")
	}
	defer rows.Close()

	out := make(macro.Map)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, s.wrap(err, "scan macro failed")
		}
		out[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap(err, "iterate macros failed")
	}

	return out, nil
}

// Save 在一个事务中写入 values，同名宏会被覆盖。
func (s *Store) Save(ctx context.Context, values macro.Map) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap(err, "begin transaction failed")
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
		INSERT INTO %s (name, value) VALUES (%s, %s)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		s.table, s.placeholder(1), s.placeholder(2))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return s.wrap(err, "prepare upsert failed")
	}
	defer stmt.Close()

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := stmt.ExecContext(ctx, name, values[name]); err != nil {
			return s.wrap(err, "upsert macro failed")
		}
	}

	if err := tx.Commit(); err != nil {
		return s.wrap(err, "commit transaction failed")
	}

	return nil
}

// Delete 删除指定的宏，不存在的名称被忽略。
func (s *Store) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}

	marks := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		marks[i] = s.placeholder(i + 1)
		args[i] = name
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE name IN (%s)", s.table, strings.Join(marks, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return s.wrap(err, "delete macros failed")
	}

	return nil
}

// Close 关闭由 [OpenStore] 打开的数据库。
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}

	return s.db.Close()
}

func (s *Store) placeholder(n int) string {
	if s.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}

	return "?"
}

func (s *Store) wrap(err error, msg string) error {
	return cuserr.WrapStdError(err, ErrCodeSource, msg).
		WithMetadata(MetaKeyTable, s.table)
}

func checkDriver(driver string) error {
	switch driver {
	case DriverSQLite, DriverPostgres:
		return nil
	}

	return cuserr.NewValidationError(ErrCodeSource, fmt.Sprintf("unsupported database driver %q", driver))
}

func checkTable(table string) (string, error) {
	if table == "" {
		return DefaultTable, nil
	}
	if !tableNamePattern.MatchString(table) {
		return "", cuserr.NewValidationError(ErrCodeSource, "invalid table name").
			WithMetadata(MetaKeyTable, table)
	}

	return table, nil
}
