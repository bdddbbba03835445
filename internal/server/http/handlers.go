package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"mime"
	"net/http"
	"time"

	"github.com/dmitrijs2005/lip/internal/server/session"
)

const (
	msgHello      = "hello lip!"
	msgBadJSON    = "could not validate json, please check json, content-type and documentation"
	msgNotFound   = "resource does not exist"
	contentTypeJS = "application/json"
)

// Engine is the part of session.Engine the handlers call.
type Engine interface {
	Create(ctx context.Context, id, accessPw, masterPw string, lifetime *int64) session.Result
	AcquireToken(ctx context.Context, id, accessPw, mode string) session.Result
	InvalidateToken(ctx context.Context, id, accessPw, token string) session.Result
	Update(ctx context.Context, token, endpoint string) session.Result
	Retrieve(ctx context.Context, token string) session.Result
	Delete(ctx context.Context, id, masterPw string) session.Result
}

type Handlers struct {
	engine  Engine
	metrics *Metrics
}

func NewHandlers(e Engine, m *Metrics) *Handlers {
	return &Handlers{engine: e, metrics: m}
}

// Request bodies. Pointer fields tell a missing key or null from "".

type createRequest struct {
	ID             *string         `json:"id"`
	AccessPassword *string         `json:"access_password"`
	MasterPassword *string         `json:"master_password"`
	Lifetime       json.RawMessage `json:"lifetime"`
}

type credentialsRequest struct {
	ID       *string `json:"id"`
	Password *string `json:"password"`
}

type tokenRequest struct {
	ID       *string `json:"id"`
	Password *string `json:"password"`
	Mode     *string `json:"mode"`
}

type invalidateRequest struct {
	ID       *string `json:"id"`
	Password *string `json:"password"`
	JWT      *string `json:"jwt"`
}

type updateRequest struct {
	JWT       *string `json:"jwt"`
	IPAddress *string `json:"ip_address"`
}

type retrieveRequest struct {
	JWT *string `json:"jwt"`
}

type response struct {
	Info       string `json:"info"`
	LastUpdate *int64 `json:"last_update,omitempty"`
	Lifetime   *int64 `json:"lifetime,omitempty"`
}

var errSchema = errors.New("request does not match schema")

func (h *Handlers) Index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Info: msgHello})
}

func (h *Handlers) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, response{Info: msgNotFound})
}

func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var in createRequest
	if err := decodeStrict(r, &in); err != nil || in.ID == nil || in.AccessPassword == nil || in.MasterPassword == nil {
		writeBadJSON(w)
		return
	}

	life, ok := parseLifetime(in.Lifetime)
	if !ok {
		writeBadJSON(w)
		return
	}

	h.run(w, r, "create", func(ctx context.Context) session.Result {
		if life.invalid {
			return session.Result{Message: session.MsgInvalidLifetime, Status: session.StatusBadInput}
		}
		return h.engine.Create(ctx, *in.ID, *in.AccessPassword, *in.MasterPassword, life.value)
	})
}

func (h *Handlers) Token(w http.ResponseWriter, r *http.Request) {
	var in tokenRequest
	if err := decodeStrict(r, &in); err != nil || in.ID == nil || in.Password == nil || in.Mode == nil {
		writeBadJSON(w)
		return
	}

	h.run(w, r, "token", func(ctx context.Context) session.Result {
		return h.engine.AcquireToken(ctx, *in.ID, *in.Password, *in.Mode)
	})
}

func (h *Handlers) InvalidateToken(w http.ResponseWriter, r *http.Request) {
	var in invalidateRequest
	if err := decodeStrict(r, &in); err != nil || in.ID == nil || in.Password == nil || in.JWT == nil {
		writeBadJSON(w)
		return
	}

	h.run(w, r, "invalidate", func(ctx context.Context) session.Result {
		return h.engine.InvalidateToken(ctx, *in.ID, *in.Password, *in.JWT)
	})
}

func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	var in updateRequest
	if err := decodeStrict(r, &in); err != nil || in.JWT == nil || in.IPAddress == nil {
		writeBadJSON(w)
		return
	}

	h.run(w, r, "update", func(ctx context.Context) session.Result {
		return h.engine.Update(ctx, *in.JWT, *in.IPAddress)
	})
}

func (h *Handlers) Retrieve(w http.ResponseWriter, r *http.Request) {
	var in retrieveRequest
	if err := decodeStrict(r, &in); err != nil || in.JWT == nil {
		writeBadJSON(w)
		return
	}

	h.run(w, r, "retrieve", func(ctx context.Context) session.Result {
		return h.engine.Retrieve(ctx, *in.JWT)
	})
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	var in credentialsRequest
	if err := decodeStrict(r, &in); err != nil || in.ID == nil || in.Password == nil {
		writeBadJSON(w)
		return
	}

	h.run(w, r, "delete", func(ctx context.Context) session.Result {
		return h.engine.Delete(ctx, *in.ID, *in.Password)
	})
}

func (h *Handlers) run(w http.ResponseWriter, r *http.Request, op string, call func(ctx context.Context) session.Result) {
	start := time.Now()
	res := call(r.Context())
	h.metrics.observe(op, res.Status, time.Since(start))

	writeJSON(w, httpStatus(res.Status), response{
		Info:       res.Message,
		LastUpdate: res.LastUpdate,
		Lifetime:   res.Lifetime,
	})
}

func httpStatus(s session.Status) int {
	switch s {
	case session.StatusOK:
		return http.StatusOK
	case session.StatusBadInput:
		return http.StatusBadRequest
	case session.StatusUnauthorized:
		return http.StatusUnauthorized
	case session.StatusConflict:
		return http.StatusConflict
	case session.StatusRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type lifetimeField struct {
	value   *int64
	invalid bool
}

// parseLifetime accepts an absent key or a JSON number. A number that is
// not a whole int64 is well-formed but an invalid lifetime.
func parseLifetime(raw json.RawMessage) (lifetimeField, bool) {
	if len(raw) == 0 {
		return lifetimeField{}, true
	}

	var f float64
	if string(raw) == "null" || json.Unmarshal(raw, &f) != nil {
		return lifetimeField{}, false
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return lifetimeField{invalid: true}, true
	}

	v := int64(f)
	return lifetimeField{value: &v}, true
}

// decodeStrict reads exactly one JSON object with no unknown fields from a
// request declared as application/json.
func decodeStrict(r *http.Request, v any) error {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != contentTypeJS {
		return errSchema
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errSchema
	}
	return nil
}

func writeBadJSON(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, response{Info: msgBadJSON})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJS)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
