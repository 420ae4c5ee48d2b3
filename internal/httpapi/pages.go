package httpapi

import (
	"fmt"
	"net/http"
)

// Page shells. Each opens its stream over websocket and swaps pushed
// fragments in by id; everything visible arrives as a pushed fragment.

const pageShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>arena</title>
<link rel="stylesheet" href="/static/css/style.css">
<script>
function stream(path) {
  const proto = location.protocol === "https:" ? "wss:" : "ws:";
  const sock = new WebSocket(proto + "//" + location.host + path);
  sock.onmessage = (ev) => {
    const msg = JSON.parse(ev.data);
    const tmp = document.createElement("div");
    tmp.innerHTML = msg.fragment;
    const next = tmp.firstElementChild;
    if (!next) return;
    const prev = document.getElementById(next.id);
    if (prev) prev.replaceWith(next); else document.body.appendChild(next);
  };
}
</script>
</head>
<body>
%s
<script>stream(%q);</script>
</body>
</html>`

func writeHomePage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageShell, `<div id="index-div" class="streamer-list"></div>`, "/stream-list")
}

func writeArenaPage(w http.ResponseWriter, channel string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageShell, `<div id="arena-root" class="arena-container"></div><div id="emotes-overlay"></div>`,
		"/arena-stream/"+channel)
}

// Home serves the lobby page shell.
func (h *Handlers) Home() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeHomePage(w)
	}
}
