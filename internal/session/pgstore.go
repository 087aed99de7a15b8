package session

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/store"
)

// PostgresStore is a sessions.Store that keeps session values in the
// http_sessions table. The cookie only carries the signed session id, so a
// replayed cookie always sees the current server-side state.
type PostgresStore struct {
	exec    store.Executor
	Codecs  []securecookie.Codec
	Options *sessions.Options
	now     func() time.Time
}

func NewPostgresStore(exec store.Executor, keyPairs ...[]byte) *PostgresStore {
	return &PostgresStore{
		exec:   exec,
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:     "/",
			MaxAge:   86400 * 7,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		now: time.Now,
	}
}

func (s *PostgresStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New returns the stored session for the request cookie, or a fresh one when
// the cookie is missing, forged, or points at an expired or deleted row.
func (s *PostgresStore) New(r *http.Request, name string) (*sessions.Session, error) {
	sess := sessions.NewSession(s, name)
	opts := *s.Options
	sess.Options = &opts
	sess.IsNew = true

	c, errCookie := r.Cookie(name)
	if errCookie != nil {
		return sess, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.Codecs...); err != nil {
		return sess, err
	}
	found, err := s.load(r.Context(), id, sess)
	if err != nil {
		return sess, err
	}
	if found {
		sess.ID = id
		sess.IsNew = false
	}
	return sess, nil
}

func (s *PostgresStore) Save(r *http.Request, w http.ResponseWriter, sess *sessions.Session) error {
	ctx := r.Context()

	if sess.Options.MaxAge <= 0 {
		if sess.ID != "" {
			if _, err := s.exec.Exec(ctx, `DELETE FROM http_sessions WHERE id = $1`, sess.ID); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(sess.Name(), "", sess.Options))
		return nil
	}

	if sess.ID == "" {
		sess.ID = strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
	}
	data, err := securecookie.GobEncoder{}.Serialize(sess.Values)
	if err != nil {
		return fmt.Errorf("encode session values: %w", err)
	}
	expires := s.now().Add(time.Duration(sess.Options.MaxAge) * time.Second)
	if _, err := s.exec.Exec(ctx, `
		INSERT INTO http_sessions (id, data, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at
	`, sess.ID, data, expires); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(sess.Name(), sess.ID, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session id: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(sess.Name(), encoded, sess.Options))
	return nil
}

func (s *PostgresStore) load(ctx context.Context, id string, sess *sessions.Session) (bool, error) {
	var data []byte
	err := s.exec.QueryRow(ctx, `
		SELECT data FROM http_sessions
		WHERE id = $1 AND expires_at > now()
	`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("load session: %w", err)
	}
	if err := (securecookie.GobEncoder{}).Deserialize(data, &sess.Values); err != nil {
		return false, fmt.Errorf("decode session values: %w", err)
	}
	return true, nil
}

// DeleteExpired removes rows whose cookie lifetime has passed.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.exec.Exec(ctx, `DELETE FROM http_sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
