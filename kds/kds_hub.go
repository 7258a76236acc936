package kds

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/yeremiapane/self-order-app/events"
	"github.com/yeremiapane/self-order-app/utils"
)

// Message adalah format wire untuk client KDS/kasir.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub menampung koneksi kitchen display dan kasir lalu menyiarkan event
// domain ke semuanya. Hub adalah adapter transport: core hanya tahu
// events.Publisher.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]string)}
}

// Register menambahkan koneksi dengan role-nya.
func (h *Hub) Register(conn *websocket.Conn, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = role
}

// Unregister melepaskan dan menutup koneksi.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// Publish mengimplementasikan events.Publisher. Event diterjemahkan ke
// Message lalu disiarkan; kegagalan kirim hanya memutus koneksi yang
// bermasalah dan tidak pernah menggagalkan operasi domain yang sudah commit.
func (h *Hub) Publish(event interface{}) {
	switch e := event.(type) {
	case events.OrderCreated:
		h.broadcast(Message{Event: events.EventOrderCreated, Data: e})
	case events.OrderStatusChanged:
		h.broadcast(Message{Event: events.EventOrderStatusChanged, Data: e})
	case events.PaymentProcessed:
		h.broadcast(Message{Event: events.EventPaymentProcessed, Data: e})
	}
}

func (h *Hub) broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("gagal marshal pesan %s: %v", msg.Event, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}
