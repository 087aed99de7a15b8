// Package sessiontest provides an in-memory http_sessions table for tests
// that need real server-side session behaviour without a database.
package sessiontest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/session"
)

// Key signs session ids in tests.
var Key = []byte("0123456789abcdef0123456789abcdef")

// Table implements store.Executor for the statements PostgresStore issues.
type Table struct {
	mu   sync.Mutex
	rows map[string][]byte
}

func NewTable() *Table { return &Table{rows: map[string][]byte{}} }

// Len reports how many sessions are stored.
func (m *Table) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *Table) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case strings.Contains(sql, "INSERT INTO http_sessions"):
		m.rows[args[0].(string)] = args[1].([]byte)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.Contains(sql, "DELETE FROM http_sessions WHERE id"):
		delete(m.rows, args[0].(string))
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("unexpected statement: %s", sql)
}

func (m *Table) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.rows[args[0].(string)]
	return row{data: data, ok: ok}
}

func (m *Table) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

type row struct {
	data []byte
	ok   bool
}

func (r row) Scan(dest ...any) error {
	if !r.ok {
		return pgx.ErrNoRows
	}
	*dest[0].(*[]byte) = append([]byte(nil), r.data...)
	return nil
}

// NewManager returns a manager backed by t under the given cookie name.
func NewManager(t *Table, name string) *session.Manager {
	return session.NewManager(session.NewPostgresStore(t, Key), name, zap.NewNop())
}
