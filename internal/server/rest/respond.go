package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
)

const (
	msgMissingParams      = "Faltan parámetros"
	msgMissingCredentials = "Faltan credenciales"
	msgInvalidCredentials = "Credenciales inválidas"
	msgEmailTaken         = "Email ya registrado"
	msgUserNotFound       = "Usuario no encontrado"
	msgNotFound           = "No encontrado"
	msgAuthRequired       = "Autenticación requerida"
	msgForbidden          = "Permiso denegado"
	msgSessionInvalid     = "Sesión inválida o expirada"
	msgInternal           = "internal error"
)

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps a service error onto a status code and a client-facing
// message. Remote failures surface their text; internal ones do not.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorMissingParams):
		return http.StatusBadRequest, msgMissingParams
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest, msgEmailTaken
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrSessionExpired):
		return http.StatusUnauthorized, msgSessionInvalid
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, msgForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, common.ErrRemoteUnavailable), errors.Is(err, common.ErrRemoteUserCreation):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", RequestIDFromContext(r.Context()),
		)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// maxFormMemory bounds the in-memory part of a multipart body.
const maxFormMemory = 1 << 20

// fields is a flat view of a request body, filled from either a JSON object
// or a url-encoded/multipart form.
type fields map[string]string

func bindFields(r *http.Request) (fields, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		return bindJSON(r)
	}

	var err error
	if ct == "multipart/form-data" {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	f := fields{}
	for k, v := range r.PostForm {
		if len(v) > 0 {
			f[k] = strings.TrimSpace(v[0])
		}
	}
	return f, nil
}

func bindJSON(r *http.Request) (fields, error) {
	var raw map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: malformed json body", common.ErrorValidation)
	}

	f := fields{}
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			f[k] = strings.TrimSpace(val)
		case json.Number:
			f[k] = val.String()
		case bool:
			f[k] = strconv.FormatBool(val)
		default:
			return nil, fmt.Errorf("%w: field %q must be a scalar", common.ErrorValidation, k)
		}
	}
	return f, nil
}

// int64 parses key. ok is false when the key is absent or empty.
func (f fields) int64(key string) (v int64, ok bool, err error) {
	s := f[key]
	if s == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%w: %s must be an integer", common.ErrorValidation, key)
	}
	return v, true, nil
}

func (f fields) intPtr(key string) (*int, error) {
	v, ok, err := f.int64(key)
	if err != nil || !ok {
		return nil, err
	}
	n := int(v)
	return &n, nil
}

// parseID reads a positive integer from a path or query value.
func parseID(name, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", common.ErrorValidation, name)
	}
	return id, nil
}
