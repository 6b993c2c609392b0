package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sstvreceiver/decoder"
	"sstvreceiver/modes"
)

func newTestDecoder(t *testing.T) *decoder.Decoder {
	t.Helper()
	d, err := decoder.New(44100, modes.Robot36, nil)
	require.NoError(t, err)
	d.Start()
	return d
}

func TestServerBroadcastsFrameToConnectedClient(t *testing.T) {
	dec := newTestDecoder(t)
	srv := NewServer(dec, 10*time.Millisecond, nil)

	httpSrv := httptest.NewServer(srv)
	defer httpSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go srv.Run(stop)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var f frame
	require.NoError(t, json.Unmarshal(payload, &f))
	assert.Equal(t, "decoding", f.State)
	assert.Equal(t, "Robot 36", f.Mode)
	assert.Equal(t, 320, f.Width)
	assert.Equal(t, 240, f.Height)
	assert.Len(t, f.Pixels, 320*240*4)
}

func TestServerRemovesClientOnDisconnect(t *testing.T) {
	dec := newTestDecoder(t)
	srv := NewServer(dec, 5*time.Millisecond, nil)

	httpSrv := httptest.NewServer(srv)
	defer httpSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return len(srv.clients) == 1
	}, time.Second, 5*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return len(srv.clients) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestServeHTTPRejectsNonUpgradeRequest(t *testing.T) {
	dec := newTestDecoder(t)
	srv := NewServer(dec, time.Second, nil)

	httpSrv := httptest.NewServer(srv)
	defer httpSrv.Close()

	resp, err := http.Get(httpSrv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}
