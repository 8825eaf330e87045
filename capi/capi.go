// Package capi exposes the decoder as a C-ABI-shaped surface: opaque
// integer handles and integer error codes, suitable for cgo export or,
// as wired up here, for cmd/sttd's HTTP/WebSocket transport.
//
// Grounded on the teacher's top-level transcript.go (a single package
// object wrapping the whole pipeline behind a narrow surface), widened
// to the two-level handle model spec.md §4.E names: a Package handle
// (init/deinit, one loaded model) and a Stt handle (stt_init/
// stt_deinit/stt_speech/stt_to/stt_text/stt_clear, one session).
package capi

import (
	"sync"
	"sync/atomic"

	"github.com/sio-go/sio/manifest"
	"github.com/sio-go/sio/sioerr"
	"github.com/sio-go/sio/stt"
)

// ErrCode is the C-ABI error surface: 0 is OK, non-zero is
// implementation-defined (but stable: it is sioerr.Kind's int value).
type ErrCode int32

// OK is the success code every capi call returns on success.
const OK ErrCode = 0

func errCode(err error) ErrCode {
	if err == nil {
		return OK
	}
	return ErrCode(sioerr.KindOf(err))
}

var (
	nextHandle int64

	pkgMu sync.RWMutex
	pkgs  = map[int32]*stt.Package{}

	sttMu sync.RWMutex
	ssns  = map[int32]*sttHandleEntry{}
)

type sttHandleEntry struct {
	mu      sync.Mutex
	session *stt.Session
}

func newHandle() int32 {
	return int32(atomic.AddInt64(&nextHandle, 1))
}

// Init loads the model named by manifestPath and returns a Package
// handle naming it. Concurrent calls on distinct handles are safe;
// concurrent calls sharing a handle are undefined, per spec.md §6.
func Init(manifestPath string) (int32, ErrCode) {
	pkg, err := manifest.Load(manifestPath)
	if err != nil {
		return 0, errCode(err)
	}
	h := newHandle()
	pkgMu.Lock()
	pkgs[h] = pkg
	pkgMu.Unlock()
	return h, OK
}

// Deinit releases a Package handle. Any Stt handles still open against
// it become invalid; close them first.
func Deinit(pkgHandle int32) ErrCode {
	pkgMu.Lock()
	defer pkgMu.Unlock()
	if _, ok := pkgs[pkgHandle]; !ok {
		return errCode(sioerr.New(sioerr.InvalidArgument, "capi: unknown package handle"))
	}
	delete(pkgs, pkgHandle)
	return OK
}

func lookupPackage(pkgHandle int32) (*stt.Package, error) {
	pkgMu.RLock()
	defer pkgMu.RUnlock()
	pkg, ok := pkgs[pkgHandle]
	if !ok {
		return nil, sioerr.New(sioerr.InvalidArgument, "capi: unknown package handle")
	}
	return pkg, nil
}

// SttInit creates a new decoding session against pkgHandle's model and
// returns its Stt handle.
func SttInit(pkgHandle int32, sessionKey string) (int32, ErrCode) {
	pkg, err := lookupPackage(pkgHandle)
	if err != nil {
		return 0, errCode(err)
	}
	sess, err := pkg.NewSession(sessionKey)
	if err != nil {
		return 0, errCode(err)
	}
	h := newHandle()
	sttMu.Lock()
	ssns[h] = &sttHandleEntry{session: sess}
	sttMu.Unlock()
	return h, OK
}

func lookupSession(sttHandle int32) (*sttHandleEntry, error) {
	sttMu.RLock()
	defer sttMu.RUnlock()
	e, ok := ssns[sttHandle]
	if !ok {
		return nil, sioerr.New(sioerr.InvalidArgument, "capi: unknown stt handle")
	}
	return e, nil
}

// SttDeinit releases an Stt handle permanently.
func SttDeinit(sttHandle int32) ErrCode {
	sttMu.Lock()
	e, ok := ssns[sttHandle]
	if !ok {
		sttMu.Unlock()
		return errCode(sioerr.New(sioerr.InvalidArgument, "capi: unknown stt handle"))
	}
	delete(ssns, sttHandle)
	sttMu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return errCode(e.session.Close())
}

// SttSpeech pushes one chunk of raw 16-bit PCM audio into sttHandle's
// session.
func SttSpeech(sttHandle int32, pcm []byte) ErrCode {
	e, err := lookupSession(sttHandle)
	if err != nil {
		return errCode(err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return errCode(e.session.Push(pcm))
}

// SttTo flushes sttHandle's session: every pushed chunk is decoded and
// the best hypothesis traced back.
func SttTo(sttHandle int32) ErrCode {
	e, err := lookupSession(sttHandle)
	if err != nil {
		return errCode(err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return errCode(e.session.Flush())
}

// SttText reads sttHandle's decoded text. Valid only after SttTo.
func SttText(sttHandle int32) (string, ErrCode) {
	e, err := lookupSession(sttHandle)
	if err != nil {
		return "", errCode(err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	text, err := e.session.Text()
	return text, errCode(err)
}

// SttClear resets sttHandle for a fresh utterance, keeping the handle
// valid for reuse.
func SttClear(sttHandle int32, sessionKey string) ErrCode {
	e, err := lookupSession(sttHandle)
	if err != nil {
		return errCode(err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return errCode(e.session.Clear(sessionKey))
}
