package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps err onto the response. Only failures the caller cannot act on are
// logged with their cause; the body never carries it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if !apperr.Recoverable(err) {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("kind", apperr.KindOf(err).String()),
			zap.Error(err))
	}
	writeError(w, status, apperr.PublicMessage(err))
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("http", "invalid %s %q", name, raw)
	}
	return id, nil
}

type formBinder interface {
	bindForm(r *http.Request) error
}

// decode reads a JSON body, or a form body for any other content type.
func decode(r *http.Request, dst formBinder) error {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(dst); err != nil {
			return apperr.Invalid("http", "malformed JSON body")
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return apperr.Invalid("http", "malformed form body")
	}
	if err := dst.bindForm(r); err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		return apperr.Invalid("http", "%s", err.Error())
	}
	return nil
}

func formInt64(r *http.Request, key string) (int64, error) {
	v := strings.TrimSpace(r.PostForm.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, apperr.Invalid("http", "invalid %s %q", key, v)
	}
	return n, nil
}

func formInt(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.PostForm.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Invalid("http", "invalid %s %q", key, v)
	}
	return n, nil
}

func chiParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
