// sttd is a small HTTP/WebSocket front end over the capi handle
// surface: it loads one deployment manifest at startup and exposes
// push/flush/read as a networked service instead of a static library,
// the way the teacher corpus's STT-adjacent services are actually
// deployed.
//
// Grounded on asticode-go-astibob's worker.Serve (httprouter wiring,
// astilog logging) and CoolLamer-karen's media_ws.go (gorilla/websocket
// upgrade and per-connection read loop).
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/asticode/go-astilog"
	"github.com/julienschmidt/httprouter"

	"github.com/sio-go/sio/capi"
)

func main() {
	manifestPath := flag.String("manifest", "", "path to the deployment manifest YAML (required)")
	addr := flag.String("addr", ":8088", "HTTP listen address")
	flag.Parse()

	if *manifestPath == "" {
		astilog.Error("sttd: -manifest is required")
		os.Exit(1)
	}

	pkgHandle, code := capi.Init(*manifestPath)
	if code != capi.OK {
		astilog.Errorf("sttd: load manifest %q: error code %d", *manifestPath, code)
		os.Exit(1)
	}
	defer capi.Deinit(pkgHandle)

	s := &server{pkgHandle: pkgHandle}

	r := httprouter.New()
	r.POST("/v1/sessions", s.createSession)
	r.POST("/v1/sessions/:id/speech", s.pushSpeech)
	r.POST("/v1/sessions/:id/flush", s.flushSession)
	r.GET("/v1/sessions/:id/text", s.readText)
	r.DELETE("/v1/sessions/:id", s.deleteSession)
	r.GET("/v1/sessions/:id/stream", s.streamSession)

	astilog.Infof("sttd: listening on %s", *addr)
	if err := http.ListenAndServe(*addr, r); err != nil {
		astilog.Errorf("sttd: serve: %v", err)
		os.Exit(1)
	}
}
