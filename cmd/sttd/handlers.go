package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/asticode/go-astilog"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/sio-go/sio/capi"
	"github.com/sio-go/sio/sioerr"
)

type server struct {
	pkgHandle int32
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		astilog.Errorf("sttd: encode response: %v", err)
	}
}

func writeErr(w http.ResponseWriter, code capi.ErrCode) {
	status := http.StatusInternalServerError
	switch sioerr.Kind(code) {
	case sioerr.InvalidArgument:
		status = http.StatusBadRequest
	case sioerr.NoRecognitionResult:
		status = http.StatusUnprocessableEntity
	case sioerr.PreconditionFailed:
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]any{"error": sioerr.Kind(code).String()})
}

func sessionID(p httprouter.Params) (int32, bool) {
	v, err := strconv.ParseInt(p.ByName("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(v), true
}

func (s *server) createSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, code := capi.SttInit(s.pkgHandle, "")
	if code != capi.OK {
		writeErr(w, code)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *server) pushSpeech(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, ok := sessionID(p)
	if !ok {
		writeErr(w, capi.ErrCode(sioerr.InvalidArgument))
		return
	}
	pcm, err := io.ReadAll(r.Body)
	if err != nil {
		writeErr(w, capi.ErrCode(sioerr.IoError))
		return
	}
	if code := capi.SttSpeech(id, pcm); code != capi.OK {
		writeErr(w, code)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) flushSession(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, ok := sessionID(p)
	if !ok {
		writeErr(w, capi.ErrCode(sioerr.InvalidArgument))
		return
	}
	if code := capi.SttTo(id); code != capi.OK {
		writeErr(w, code)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) readText(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, ok := sessionID(p)
	if !ok {
		writeErr(w, capi.ErrCode(sioerr.InvalidArgument))
		return
	}
	text, code := capi.SttText(id)
	if code != capi.OK {
		writeErr(w, code)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"text": text})
}

func (s *server) deleteSession(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, ok := sessionID(p)
	if !ok {
		writeErr(w, capi.ErrCode(sioerr.InvalidArgument))
		return
	}
	if code := capi.SttDeinit(id); code != capi.OK {
		writeErr(w, code)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// streamSession pushes each inbound WebSocket binary message onto
// sttHandle's session and replies with the decoded text so far. Partial
// results are produced by clearing and replaying every byte received on
// the connection, not by incremental traceback: the beam search's
// session is terminal after PushEos (spec.md's frontier model expects
// exactly one EOS per session), so "decode what we have" means reset,
// replay, flush.
func (s *server) streamSession(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, ok := sessionID(p)
	if !ok {
		http.Error(w, "bad session id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		astilog.Errorf("sttd: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	var pcm []byte
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				astilog.Debugf("sttd: stream %d: read: %v", id, err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		pcm = append(pcm, data...)

		if code := capi.SttClear(id, ""); code != capi.OK {
			conn.WriteJSON(map[string]any{"error": sioerr.Kind(code).String()})
			continue
		}
		if code := capi.SttSpeech(id, pcm); code != capi.OK {
			conn.WriteJSON(map[string]any{"error": sioerr.Kind(code).String()})
			continue
		}
		if code := capi.SttTo(id); code != capi.OK {
			conn.WriteJSON(map[string]any{"error": sioerr.Kind(code).String()})
			continue
		}
		text, code := capi.SttText(id)
		if code != capi.OK {
			conn.WriteJSON(map[string]any{"error": sioerr.Kind(code).String()})
			continue
		}
		if err := conn.WriteJSON(map[string]any{"text": text}); err != nil {
			astilog.Debugf("sttd: stream %d: write: %v", id, err)
			return
		}
	}
}
