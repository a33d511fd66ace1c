package pushsource_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/mcdev12/courier/go/internal/delivery/pushsource"
	"github.com/mcdev12/courier/go/internal/models"
)

type dispatchSocket struct {
	upgrader websocket.Upgrader
	conns    chan *websocket.Conn
	authMu   sync.Mutex
	authSeen []string
}

func newDispatchSocket() *dispatchSocket {
	return &dispatchSocket{conns: make(chan *websocket.Conn, 4)}
}

func (d *dispatchSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.authMu.Lock()
	d.authSeen = append(d.authSeen, r.Header.Get("Authorization"))
	d.authMu.Unlock()

	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	d.conns <- conn
}

func (d *dispatchSocket) auth() []string {
	d.authMu.Lock()
	defer d.authMu.Unlock()
	return append([]string(nil), d.authSeen...)
}

type orderSink struct {
	mu     sync.Mutex
	orders []models.Order
}

func (s *orderSink) handle(o models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, o)
}

func (s *orderSink) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, o := range s.orders {
		out = append(out, o.Key())
	}
	return out
}

var _ = Describe("WebSocketSource", func() {
	var (
		socket *dispatchSocket
		server *httptest.Server
		source *pushsource.WebSocketSource
		sink   *orderSink
		cancel context.CancelFunc
		done   chan error
	)

	BeforeEach(func() {
		socket = newDispatchSocket()
		server = httptest.NewServer(socket)
		sink = &orderSink{}

		config := pushsource.DefaultWebSocketConfig("ws"+strings.TrimPrefix(server.URL, "http"), "secret")
		config.ReconnectWait = 10 * time.Millisecond
		source = pushsource.NewWebSocketSource(config, clockwork.NewRealClock())
		source.OnPush(sink.handle)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() { done <- source.Run(ctx) }()
	})

	AfterEach(func() {
		cancel()
		Eventually(done, 2*time.Second).Should(Receive(BeNil()))
		server.Close()
	})

	accept := func() *websocket.Conn {
		var conn *websocket.Conn
		Eventually(socket.conns, 2*time.Second).Should(Receive(&conn))
		return conn
	}

	It("dials with the bearer token and delivers pushed orders", func() {
		conn := accept()
		defer conn.Close()

		Expect(conn.WriteMessage(websocket.TextMessage, []byte(`not json`))).To(Succeed())
		Expect(conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))).To(Succeed())
		Expect(conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"new_order","data":{"orderId":""}}`))).To(Succeed())
		Expect(conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"new_order","data":{"_id":"p1","status":"pending","timerSeconds":20,"amount":"12.50"}}`))).To(Succeed())

		Eventually(sink.keys).Should(Equal([]string{"p1"}))
		Expect(socket.auth()).To(ContainElement("Bearer secret"))
	})

	It("sends decisions over the open connection", func() {
		conn := accept()
		defer conn.Close()

		Eventually(func() error {
			return source.SendAccept(context.Background(), "p1")
		}).Should(Succeed())

		var d pushsource.Decision
		Expect(conn.ReadJSON(&d)).To(Succeed())
		Expect(d).To(Equal(pushsource.Decision{Type: "accept_order", OrderID: "p1"}))

		Expect(source.SendReject(context.Background(), "p2")).To(Succeed())
		Expect(conn.ReadJSON(&d)).To(Succeed())
		Expect(d).To(Equal(pushsource.Decision{Type: "reject_order", OrderID: "p2"}))
	})

	It("reconnects after the server drops the connection", func() {
		first := accept()
		first.Close()

		second := accept()
		defer second.Close()
		Expect(second.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"new_order","data":{"_id":"p2","status":"pending"}}`))).To(Succeed())

		Eventually(sink.keys).Should(Equal([]string{"p2"}))
	})
})

var _ = Describe("WebSocketSource without a connection", func() {
	It("refuses to send decisions", func() {
		source := pushsource.NewWebSocketSource(pushsource.DefaultWebSocketConfig("ws://127.0.0.1:1", ""), nil)
		Expect(source.SendAccept(context.Background(), "p1")).To(MatchError(pushsource.ErrNotConnected))
	})
})
