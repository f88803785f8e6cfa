package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

// PaymentStatusUpdate is pushed to the payment's owner on every state
// change.
type PaymentStatusUpdate struct {
	PaymentID  string `json:"payment_id"`
	State      string `json:"state"`
	Confidence int    `json:"confidence"`
}

type statusEvent struct {
	userID uuid.UUID
	update PaymentStatusUpdate
}

var (
	clients   = make(map[uuid.UUID]*websocket.Conn)
	clientsMu sync.RWMutex

	Register   = make(chan *Client)
	Unregister = make(chan *Client)
	statusCh   = make(chan statusEvent, 64)
)

// PushPaymentStatus notifies the owning user of a payment state change.
// Drops the update when the hub queue is full; the REST API remains the
// source of truth.
func PushPaymentStatus(userID, paymentID uuid.UUID, state string, confidence int) {
	select {
	case statusCh <- statusEvent{
		userID: userID,
		update: PaymentStatusUpdate{PaymentID: paymentID.String(), State: state, Confidence: confidence},
	}:
	default:
		log.Printf("Websocket hub queue full, dropping update for payment %s", paymentID)
	}
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			clientsMu.Lock()
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()
			log.Printf("Websocket client registered: %s", client.UserID)
		case client := <-Unregister:
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
			log.Printf("Websocket client unregistered: %s", client.UserID)
		case event := <-statusCh:
			clientsMu.RLock()
			conn, ok := clients[event.userID]
			clientsMu.RUnlock()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(event.update); err != nil {
				log.Printf("Error pushing status to client %s: %v", event.userID, err)
				conn.Close()
				clientsMu.Lock()
				if current, ok := clients[event.userID]; ok && current == conn {
					delete(clients, event.userID)
				}
				clientsMu.Unlock()
			}
		}
	}
}
