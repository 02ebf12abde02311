package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/soypat/revolve"
	"github.com/soypat/revolve/render"
	"github.com/soypat/revolve/revolveaux"
)

const writeWait = 10 * time.Second

// request is a received message or the error found decoding it.
type request struct {
	msg Msg
	err error
}

// reply is a pending response. Binary replies are sent as a binary frame
// instead of a JSON message.
type reply struct {
	msg    Msg
	binary []byte
}

// Hub serves the requests of a single websocket connection. Requests are
// processed one at a time in arrival order.
type Hub struct {
	ctx    context.Context
	conn   *websocket.Conn
	log    *logrus.Entry
	maxRes int
	// request
	msg chan request
	// response
	replies chan reply
	// done is closed once all replies have been written.
	done chan struct{}
}

func newHub(ctx context.Context, conn *websocket.Conn, log *logrus.Entry, maxRes int) *Hub {
	return &Hub{
		ctx:     ctx,
		conn:    conn,
		log:     log,
		maxRes:  maxRes,
		msg:     make(chan request, 10),
		replies: make(chan reply, 10),
		done:    make(chan struct{}),
	}
}

func (h *Hub) handleResponse() {
	defer close(h.done)
	for r := range h.replies {
		h.conn.SetWriteDeadline(time.Now().Add(writeWait))
		var err error
		if r.binary != nil {
			err = h.conn.WriteMessage(websocket.BinaryMessage, r.binary)
		} else {
			err = h.conn.WriteJSON(&r.msg)
		}
		if err != nil {
			h.log.WithError(err).Warn("writing reply")
		}
	}
}

func (h *Hub) handleRequest() {
	defer close(h.replies)
	for {
		select {
		case <-h.ctx.Done():
			return
		case req := <-h.msg:
			msg := req.msg
			start := time.Now()
			r, err := reply{}, req.err
			if err == nil {
				r, err = h.process(msg)
			}
			if err != nil {
				h.log.WithFields(logrus.Fields{"type": msg.Type, "code": ErrorCode(err)}).WithError(err).Info("request failed")
				r = errorReply(msg.Type, err)
			} else {
				h.log.WithFields(logrus.Fields{"type": msg.Type, "elapsed": time.Since(start)}).Debug("request served")
			}
			select {
			case h.replies <- r:
			case <-h.ctx.Done():
				return
			}
		}
	}
}

func (h *Hub) process(msg Msg) (reply, error) {
	switch msg.Type {
	case "calculate":
		req, _, err := h.decode(msg)
		if err != nil {
			return reply{}, err
		}
		res, err := revolve.Calculate(h.ctx, req.Spec)
		if err != nil {
			return reply{}, err
		}
		var report strings.Builder
		err = revolveaux.WriteReport(&report, req, res.Volume)
		if err != nil {
			return reply{}, err
		}
		return jsonReply("result", Result{Volume: res.Volume, Report: report.String()})

	case "mesh":
		req, cfg, err := h.decode(msg)
		if err != nil {
			return reply{}, err
		}
		mesh, err := revolve.NewMeshFromSpec(h.ctx, req.Spec, cfg)
		if err != nil {
			return reply{}, err
		}
		data := MeshData{
			Vertices: make([][3]float32, len(mesh.Vertices)),
			Faces:    mesh.Faces,
		}
		for i, v := range mesh.Vertices {
			data.Vertices[i] = [3]float32{v.X, v.Y, v.Z}
		}
		return jsonReply("mesh", data)

	case "export":
		req, cfg, err := h.decode(msg)
		if err != nil {
			return reply{}, err
		}
		mesh, err := revolve.NewMeshFromSpec(h.ctx, req.Spec, cfg)
		if err != nil {
			return reply{}, err
		}
		triangles, err := render.RenderAll(mesh.TriangleReader(), nil)
		if err != nil {
			return reply{}, err
		}
		var buf bytes.Buffer
		_, err = render.WriteBinarySTL(&buf, triangles)
		if err != nil {
			return reply{}, fmt.Errorf("%w: %w", revolveaux.ErrSerializationFailure, err)
		}
		return reply{binary: buf.Bytes()}, nil
	}
	return reply{}, fmt.Errorf("%w: unknown message type %q", errBadRequest, msg.Type)
}

// decode parses the request content of msg.
func (h *Hub) decode(msg Msg) (revolveaux.Request, revolve.MeshConfig, error) {
	var req Request
	if len(msg.Content) == 0 {
		return revolveaux.Request{}, revolve.MeshConfig{}, fmt.Errorf("%w: %s message without content", errBadRequest, msg.Type)
	}
	err := json.Unmarshal(msg.Content, &req)
	if err != nil {
		return revolveaux.Request{}, revolve.MeshConfig{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if req.Resolution < 0 || req.Resolution > h.maxRes {
		return revolveaux.Request{}, revolve.MeshConfig{}, fmt.Errorf("%w: %d, server maximum is %d", revolve.ErrInvalidResolution, req.Resolution, h.maxRes)
	}
	parsed, err := req.Input.Parse()
	if err != nil {
		return revolveaux.Request{}, revolve.MeshConfig{}, err
	}
	return parsed, revolve.MeshConfig{Resolution: req.Resolution, OpenSeam: req.OpenSeam}, nil
}

func jsonReply(typ string, content any) (reply, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return reply{}, fmt.Errorf("%w: %w", revolveaux.ErrSerializationFailure, err)
	}
	return reply{msg: Msg{Type: typ, Content: data}}, nil
}

func errorReply(requestType string, err error) reply {
	data, _ := json.Marshal(ErrorData{Code: ErrorCode(err), Message: err.Error(), Request: requestType})
	return reply{msg: Msg{Type: "error", Content: data}}
}
