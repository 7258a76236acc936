package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/self-order-app/kds"
	"github.com/yeremiapane/self-order-app/utils"
)

type WSController struct {
	hub *kds.Hub
}

func NewWSController(hub *kds.Hub) *WSController {
	return &WSController{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Stream -> upgrade koneksi staf/kitchen ke websocket dan daftarkan ke hub.
func (wc *WSController) Stream(c *gin.Context) {
	role := ""
	if value, ok := c.Get("role"); ok {
		role, _ = value.(string)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade gagal: %v", err)
		return
	}

	wc.hub.Register(conn, role)

	// Reader loop hanya untuk mendeteksi close dari client.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wc.hub.Unregister(conn)
				return
			}
		}
	}()
}
