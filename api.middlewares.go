package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// MiddlewareFunc is a custom type for ease of use.
type MiddlewareFunc func(httprouter.Handle) httprouter.Handle

// Middlewares is a custom type to represent a stack of
// middleware functions used to build a single chain.
type Middlewares []MiddlewareFunc

// MiddlewaresStacks provides the chains used for public-facing and ops requests.
func (api *APIHandler) MiddlewaresStacks() (Middlewares, Middlewares) {
	public := Middlewares{
		api.RequestsCounterMiddleware,
		api.RequestIDMiddleware,
		api.CoreMiddleware,
		api.PanicRecoveryMiddleware,
		api.CORSMiddleware,
	}
	ops := Middlewares{
		api.RequestIDMiddleware,
		api.CoreMiddleware,
		api.PanicRecoveryMiddleware,
	}
	return public, ops
}

// CoreMiddleware logs each request details then its outcome once served.
// It also feeds the per status code statistics.
func (api *APIHandler) CoreMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		requestID := GetValueFromContext(r.Context(), ContextRequestID)

		api.logger.Info(
			"request",
			zap.String("request.id", requestID),
			zap.Uint64("request.num", GetRequestNumberFromContext(r.Context())),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.String("request.ip", GetRequestSourceIP(r)),
			zap.String("request.agent", r.UserAgent()),
			zap.String("request.referer", r.Referer()),
		)

		cw := NewCustomResponseWriter(w)
		next(cw, r, ps)
		api.stats.recordStatus(cw.Status())

		api.logger.Info(
			"response",
			zap.String("request.id", requestID),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.Int("response.status", cw.Status()),
			zap.Int("response.bytes", cw.Bytes()),
			zap.Duration("request.duration", time.Since(start)),
		)
	}
}

// RequestsCounterMiddleware increments the number of received requests statistics and add this
// new value to the request context to be used during logging as `request.num` field.
func (api *APIHandler) RequestsCounterMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), ContextRequestNumber, atomic.AddUint64(&api.stats.called, 1))
		next(w, r.WithContext(ctx), ps)
	}
}

// RequestIDMiddleware adds a unique id to the request context. A well-formed
// `X-Request-ID` received from upstream is kept, otherwise a new one is generated.
// The id is also sent back into the `X-Request-ID` header.
func (api *APIHandler) RequestIDMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || !api.idsHandler.IsValid(requestID, RequestIDPrefix) {
			requestID = api.idsHandler.Generate(RequestIDPrefix)
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), ContextRequestID, requestID)
		next(w, r.WithContext(ctx), ps)
	}
}

// CORSMiddleware applies the configured cors headers on each response.
func (api *APIHandler) CORSMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		api.setupCORS(w, r, false)
		next(w, r, ps)
	}
}

// Preflight answers the cors preflight requests of any registered route.
// It is set as the router global OPTIONS handler.
func (api *APIHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	api.setupCORS(w, r, true)
	w.WriteHeader(http.StatusNoContent)
}

// setupCORS writes the cors headers when the request origin is allowed.
// The origin is echoed back instead of `*` once credentials are allowed.
func (api *APIHandler) setupCORS(w http.ResponseWriter, r *http.Request, preflight bool) {
	cors := api.config.CORS
	h := w.Header()
	h.Add("Vary", "Origin")

	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	wildcard, allowed := matchOrigin(cors.AllowedOrigins, origin)
	if !allowed {
		return
	}

	credentials := cors.AllowCredentials != nil && *cors.AllowCredentials
	if wildcard && !credentials {
		h.Set("Access-Control-Allow-Origin", "*")
	} else {
		h.Set("Access-Control-Allow-Origin", origin)
	}
	if credentials {
		h.Set("Access-Control-Allow-Credentials", strconv.FormatBool(true))
	}

	if !preflight {
		return
	}
	h.Set("Access-Control-Allow-Methods", strings.Join(cors.AllowedMethods, ", "))
	headers := strings.Join(cors.AllowedHeaders, ", ")
	if headers == "*" {
		if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			headers = requested
		}
	}
	if headers != "" {
		h.Set("Access-Control-Allow-Headers", headers)
	}
}

// matchOrigin reports whether origin is allowed and if it was
// through the `*` wildcard.
func matchOrigin(allowed []string, origin string) (wildcard, ok bool) {
	for _, o := range allowed {
		if o == "*" {
			return true, true
		}
		if strings.EqualFold(o, origin) {
			return false, true
		}
	}
	return false, false
}

// PanicRecoveryMiddleware catches any panic during the request lifecycle and produces
// an error log for further analysis. It sends a failure response to the client with 500.
func (api *APIHandler) PanicRecoveryMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		recovery := func() {
			if err := recover(); err != nil {
				requestID := GetValueFromContext(r.Context(), ContextRequestID)
				api.logger.Error("panic occurred", zap.String("request.id", requestID), zap.Any("error", err))
				errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to process the request.", EmptyData)
				if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
					api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
				}
			}
		}
		defer recovery()
		next(w, r, ps)
	}
}

// Chain wraps a given httprouter.Handle with a list of middlewares.
// It does by starting from the last middleware from the list.
func (m Middlewares) Chain(h httprouter.Handle) httprouter.Handle {
	if len(m) == 0 {
		return h
	}
	lg := len(m)
	handle := m[lg-1](h)

	for i := lg - 2; i >= 0; i-- {
		handle = m[i](handle)
	}

	return handle
}
