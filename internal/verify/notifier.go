package verify

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// Notifier pushes verification events to the frontend's websocket
// bridge so an open signup page can advance without polling. Delivery
// is fire-and-forget: the verifying request never waits on the socket
// and never fails because of it.
type Notifier struct {
	url    string
	dialer *websocket.Dialer
}

// DefaultNotifier is wired in Init(). A nil notifier or an empty URL
// means no bridge is configured and notifications are skipped.
var DefaultNotifier *Notifier

func NewNotifier(url string) *Notifier {
	return &Notifier{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 5 * time.Second,
		},
	}
}

type verifiedEvent struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// NotifyVerified announces that the email finished verification. It
// returns immediately; the dial and write happen on their own
// goroutine and failures are only logged.
func (n *Notifier) NotifyVerified(email string) {
	if n == nil || n.url == "" {
		return
	}

	go func() {
		conn, _, err := n.dialer.Dial(n.url, nil)
		if err != nil {
			log.Printf("[verify] notify dial failed: %v", err)
			return
		}
		defer conn.Close()

		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(verifiedEvent{Email: email, Verified: true}); err != nil {
			log.Printf("[verify] notify write failed: %v", err)
		}
	}()
}
