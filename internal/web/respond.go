package web

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/congress"
	appLog "github.com/matthewnfaulkner/apoacongress-congressapp/internal/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeCBOR = "application/cbor"
	headerRequestID = "X-Request-ID"
)

type ctxKey int

const requestIDKey ctxKey = 0

// RequestID returns the id assigned to the request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestIDMiddleware tags every request with an id (taken from the
// client when it sends a well-formed one) and logs its outcome.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		appLog.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(started).Round(time.Microsecond).String(),
		)
	})
}

var cborMode, _ = cbor.CoreDetEncOptions().EncMode()

// wantsCBOR reports whether the client asked for CBOR.
func wantsCBOR(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(strings.TrimSpace(mt), contentTypeCBOR) {
			return true
		}
	}
	return false
}

// encodeCBOR encodes v through its JSON form so that json tags, custom
// marshalers and raw JSON fields come out exactly as in the JSON API.
func encodeCBOR(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return cborMode.Marshal(numbersToNative(generic))
}

func numbersToNative(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = numbersToNative(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = numbersToNative(e)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}

// respond writes v as JSON, or as CBOR when the client accepts it.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	var (
		body []byte
		err  error
		ct   = contentTypeJSON
	)
	if wantsCBOR(r) {
		ct = contentTypeCBOR
		body, err = encodeCBOR(v)
	} else {
		body, err = json.Marshal(v)
		body = append(body, '\n')
	}
	if err != nil {
		appLog.Error("failed to encode response", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	w.Header().Add("Vary", "Accept")
	writeBody(w, r, status, ct, body)
}

// writeBody writes a successful body with a strong ETag and answers
// 304 when the client already holds it.
func writeBody(w http.ResponseWriter, r *http.Request, status int, contentType string, body []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	if status == http.StatusOK {
		etag := bodyETag(body)
		h.Set("ETag", etag)
		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func bodyETag(body []byte) string {
	sum := blake3.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeServiceError maps service errors to status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, what string, err error) {
	switch {
	case errors.Is(err, congress.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, congress.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		appLog.Error("api: "+what+" failed", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "failed to fetch "+what)
	}
}
