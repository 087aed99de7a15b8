package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/cart"
)

type Manager struct {
	store  sessions.Store
	name   string
	logger *zap.Logger
}

func NewManager(store sessions.Store, name string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, name: name, logger: logger}
}

// Load decodes the session for r. A cookie that fails to decode yields a
// fresh, empty session; a store failure is returned.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Session, error) {
	raw, err := m.store.Get(r, m.name)
	if raw == nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if err != nil {
		var scErr securecookie.Error
		if !errors.As(err, &scErr) || !scErr.IsDecode() {
			return nil, fmt.Errorf("load session: %w", err)
		}
		m.logger.Debug("discarding undecodable session", zap.Error(err))
	}

	s := &Session{raw: raw, r: r, w: w}

	if body, ok := raw.Values[keyUser].([]byte); ok {
		var id Identity
		if err := json.Unmarshal(body, &id); err != nil {
			m.logger.Warn("corrupt session identity", zap.Error(err))
		} else {
			s.identity = &id
		}
	}
	if body, ok := raw.Values[keyCart].([]byte); ok {
		c := cart.New()
		if err := json.Unmarshal(body, c); err != nil {
			m.logger.Warn("corrupt session cart", zap.Error(err))
		} else {
			s.cart = c
		}
	}
	return s, nil
}
