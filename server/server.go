// Package server exposes volume calculation, meshing and STL export to
// interactive front ends over a websocket connection.
//
// Messages are JSON objects of the form {"type": ..., "content": ...}.
// Requests of type "calculate", "mesh" and "export" carry a [Request] as
// content and are answered with "result", "mesh" and a binary STL frame
// respectively. Failed requests are answered with an "error" message.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/soypat/revolve"
	"github.com/soypat/revolve/expr"
	"github.com/soypat/revolve/revolveaux"
)

// DefaultMaxResolution bounds the mesh resolution of websocket requests.
const DefaultMaxResolution = 512

// Msg is the envelope of every text message exchanged with a client.
type Msg struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
}

// Request is the content of calculate, mesh and export messages.
type Request struct {
	revolveaux.Input
	// Resolution is the mesh resolution. Zero selects the default.
	Resolution int  `json:"resolution,omitempty"`
	OpenSeam   bool `json:"openSeam,omitempty"`
}

// Result is the content of a "result" message.
type Result struct {
	Volume float64 `json:"volume"`
	Report string  `json:"report"`
}

// MeshData is the content of a "mesh" message.
type MeshData struct {
	Vertices [][3]float32 `json:"vertices"`
	Faces    [][3]int     `json:"faces"`
}

// ErrorData is the content of an "error" message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Request is the type of the failed request.
	Request string `json:"request,omitempty"`
}

var errBadRequest = errors.New("bad request")

// ErrorCode maps an error to a stable code for clients.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, expr.ErrInvalidExpression):
		return "invalid_expression"
	case errors.Is(err, revolve.ErrInvalidSelection):
		return "invalid_selection"
	case errors.Is(err, revolve.ErrInvalidMethod):
		return "invalid_method"
	case errors.Is(err, revolve.ErrInvalidStep):
		return "invalid_step"
	case errors.Is(err, revolve.ErrInvalidBounds):
		return "invalid_bounds"
	case errors.Is(err, revolve.ErrEvaluationFailure):
		return "evaluation_failure"
	case errors.Is(err, revolve.ErrInvalidResolution):
		return "invalid_resolution"
	case errors.Is(err, revolveaux.ErrSerializationFailure):
		return "serialization_failure"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, errBadRequest):
		return "bad_request"
	}
	return "internal"
}

type Server struct {
	addr     string
	upgrader websocket.Upgrader
	log      *logrus.Logger
	// MaxResolution bounds mesh and export resolutions.
	MaxResolution int
}

// NewServer returns a server that listens on addr. A nil logger selects the logrus standard logger.
func NewServer(addr string, upgrader websocket.Upgrader, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		addr:          addr,
		upgrader:      upgrader,
		log:           logger,
		MaxResolution: DefaultMaxResolution,
	}
}

// Handler returns the HTTP handler serving the websocket endpoint at /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	return mux
}

// serveWs handles websocket requests from the peer. Work in progress is
// canceled when the connection is closed.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	log := s.log.WithField("remote", conn.RemoteAddr().String())
	log.Info("client connected")
	ctx, cancel := context.WithCancel(context.Background())
	hub := newHub(ctx, conn, log, s.MaxResolution)
	go hub.handleRequest()
	go hub.handleResponse()
	defer func() {
		cancel()
		<-hub.done
		conn.Close()
		log.Info("client disconnected")
	}()
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("reading message")
			}
			return
		}
		var req request
		if typ != websocket.TextMessage {
			req.err = fmt.Errorf("%w: expected text message", errBadRequest)
		} else if err = json.Unmarshal(data, &req.msg); err != nil {
			req.err = fmt.Errorf("%w: %w", errBadRequest, err)
		}
		select {
		case hub.msg <- req:
		case <-ctx.Done():
			return
		}
	}
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.addr).Info("serving websocket on /ws")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return err
	}
	return ctx.Err()
}
