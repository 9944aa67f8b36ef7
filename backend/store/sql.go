package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
)

// SQL dialects understood by SQLStore.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

const profileColumns = "id, name, photograph_url, description, longitude, latitude, contact_info, interest"

// SQLStore keeps the collection in a relational table named after it.
type SQLStore struct {
	db      *sql.DB
	dialect string
	table   string
}

// OpenSQL opens dsn with the dialect's driver, checks the connection and
// creates the table when it does not exist yet.
func OpenSQL(ctx context.Context, dialect, dsn, collection string) (*SQLStore, error) {
	if !tableName.MatchString(collection) {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}

	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case DialectPostgres:
		db, err = sql.Open("postgres", dsn)
	case DialectSQLite:
		db, err = sql.Open("sqlite", dsn)
		if err == nil {
			// SQLite doesn't support multiple writers
			db.SetMaxOpenConns(1)
			db.SetMaxIdleConns(1)
			db.SetConnMaxLifetime(time.Hour)
		}
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	if err != nil {
		return nil, unavailable("open", err)
	}

	s := &SQLStore{db: db, dialect: dialect, table: collection}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, unavailable("ping", err)
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	seq := "seq BIGSERIAL PRIMARY KEY,\n\t\t\tid TEXT NOT NULL UNIQUE"
	if s.dialect == DialectSQLite {
		seq = "seq INTEGER PRIMARY KEY AUTOINCREMENT,\n\t\t\tid TEXT NOT NULL UNIQUE"
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s,
			name TEXT NOT NULL DEFAULT '',
			photograph_url TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			longitude TEXT NOT NULL DEFAULT '',
			latitude TEXT NOT NULL DEFAULT '',
			contact_info TEXT NOT NULL DEFAULT '',
			interest TEXT NOT NULL DEFAULT ''
		)`, s.table, seq))
	if err != nil {
		return unavailable("migrate", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $N for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) ListAll(ctx context.Context) ([]profile.Profile, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY seq`, profileColumns, s.table))
	if err != nil {
		return nil, unavailable("list", err)
	}
	defer rows.Close()

	out := []profile.Profile{}
	for rows.Next() {
		var p profile.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.PhotographURL, &p.Description,
			&p.Longitude, &p.Latitude, &p.ContactInfo, &p.Interest); err != nil {
			return nil, unavailable("list", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list", err)
	}
	return out, nil
}

func (s *SQLStore) Insert(ctx context.Context, fields profile.Profile) (profile.Profile, error) {
	p := fields.WithID(uuid.NewString())
	_, err := s.db.ExecContext(ctx, s.rebind(fmt.Sprintf(`
		INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.table, profileColumns)),
		p.ID, p.Name, p.PhotographURL, p.Description, p.Longitude, p.Latitude, p.ContactInfo, p.Interest,
	)
	if err != nil {
		return profile.Profile{}, unavailable("insert", err)
	}
	return p, nil
}

func (s *SQLStore) UpdateByID(ctx context.Context, id string, fields profile.Profile) error {
	res, err := s.db.ExecContext(ctx, s.rebind(fmt.Sprintf(`
		UPDATE %s
		SET name = ?, photograph_url = ?, description = ?, longitude = ?,
			latitude = ?, contact_info = ?, interest = ?
		WHERE id = ?
	`, s.table)),
		fields.Name, fields.PhotographURL, fields.Description, fields.Longitude,
		fields.Latitude, fields.ContactInfo, fields.Interest, id,
	)
	if err != nil {
		return unavailable("update", err)
	}
	return s.expectOne(res, id, "update")
}

func (s *SQLStore) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.table)), id)
	if err != nil {
		return unavailable("delete", err)
	}
	return s.expectOne(res, id, "delete")
}

func (s *SQLStore) expectOne(res sql.Result, id, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(op, err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

// Truncate removes every row. Used by the seeder.
func (s *SQLStore) Truncate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table)); err != nil {
		return unavailable("truncate", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
