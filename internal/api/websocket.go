package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereceipt/kantin-receipt/internal/command"
	"github.com/thereceipt/kantin-receipt/internal/printer"
	"github.com/thereceipt/kantin-receipt/internal/service"
	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

// WebSocket message types
const (
	EventPrint          = "print"
	EventPrinterAdded   = "printer_added"
	EventPrinterRemoved = "printer_removed"
	EventJobStatus      = "job_status"
	EventResponse       = "response"
	EventError          = "error"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// Hub tracks connected clients for broadcasts
type Hub struct {
	clients  map[*WSClient]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	service  *service.Service
	// inlineOnly mirrors Server.inlineOnly for print events
	inlineOnly bool
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan WSMessage
	closeOnce sync.Once
}

func newHub(svc *service.Service, inlineOnly bool) *Hub {
	return &Hub{
		clients:    make(map[*WSClient]bool),
		service:    svc,
		inlineOnly: inlineOnly,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// POS terminals connect from file:// and LAN origins; auth guards the route
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v", err)
		return
	}

	client := &WSClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan WSMessage, sendBuffer),
	}
	s.hub.add(client)

	log.Println("📡 WebSocket client connected")

	go client.writePump()
	go client.readPump()
}

func (h *Hub) add(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
}

func (h *Hub) remove(client *WSClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.close()
	}
	h.mu.Unlock()
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(message WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Client send buffer full, skip
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		client.close()
	}
}

func (c *WSClient) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("⚠️  WebSocket write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
		log.Println("📡 WebSocket client disconnected")
	}()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg WSMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️  WebSocket error: %v", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

func (c *WSClient) handleMessage(msg *WSMessage) {
	switch msg.Event {
	case EventPrint:
		c.handlePrintEvent(msg.Data)
	default:
		c.sendError(fmt.Sprintf("unknown event: %s", msg.Event))
	}
}

// handlePrintEvent accepts the same fields as POST /print
func (c *WSClient) handlePrintEvent(data map[string]interface{}) {
	printerID, _ := data["printer_id"].(string)
	kindName, _ := data["kind"].(string)

	kind, err := receiptformat.ParseKind(kindName)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	var doc *receiptformat.Document
	ctx := context.Background()
	if c.hub.inlineOnly {
		ctx = command.InlineOnly(ctx)
	}

	if url, ok := data["document_url"].(string); ok && url != "" {
		doc, err = command.LoadDocument(ctx, url)
	} else if path, ok := data["document_path"].(string); ok && path != "" {
		doc, err = command.LoadDocument(ctx, path)
	} else if raw, ok := data["document"]; ok {
		var encoded []byte
		encoded, err = json.Marshal(raw)
		if err == nil {
			doc, err = receiptformat.Parse(encoded)
		}
	} else {
		c.sendError("document, document_path, or document_url is required")
		return
	}
	if err != nil {
		c.sendError(fmt.Sprintf("%v: %v", service.ErrInvalidDocument, err))
		return
	}

	res, err := c.hub.service.Print(ctx, service.PrintRequest{
		PrinterID: printerID,
		Kind:      kind,
		Document:  doc,
	})
	if err != nil {
		c.sendError(err.Error())
		return
	}

	c.sendResponse(map[string]interface{}{
		"success":    true,
		"job_id":     res.JobID,
		"printer_id": res.PrinterID,
		"recorded":   res.Recorded,
	})
}

func (c *WSClient) sendResponse(data map[string]interface{}) {
	c.trySend(WSMessage{Event: EventResponse, Data: data})
}

func (c *WSClient) sendError(message string) {
	c.trySend(WSMessage{
		Event: EventError,
		Data: map[string]interface{}{
			"error": message,
		},
	})
}

// trySend drops the message if the client is gone
func (c *WSClient) trySend(msg WSMessage) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// BroadcastPrinterAdded broadcasts a printer added event to all connected clients
func (s *Server) BroadcastPrinterAdded(p *printer.Printer) {
	s.hub.broadcast(WSMessage{
		Event: EventPrinterAdded,
		Data: map[string]interface{}{
			"id":          p.ID,
			"type":        p.Type,
			"description": p.Description,
			"name":        p.Name,
			"role":        p.Role,
			"columns":     p.Columns,
		},
	})

	log.Printf("📡 Broadcast: Printer added - %s", p.DisplayName())
}

// BroadcastPrinterRemoved broadcasts a printer removed event to all connected clients
func (s *Server) BroadcastPrinterRemoved(printerID string) {
	s.hub.broadcast(WSMessage{
		Event: EventPrinterRemoved,
		Data: map[string]interface{}{
			"id": printerID,
		},
	})

	log.Printf("📡 Broadcast: Printer removed - %s", printerID)
}

// BroadcastJob sends a job status change to all connected clients
func (s *Server) BroadcastJob(job printer.PrintJob) {
	s.hub.broadcast(WSMessage{
		Event: EventJobStatus,
		Data: map[string]interface{}{
			"id":         job.ID,
			"printer_id": job.PrinterID,
			"kind":       job.Kind,
			"status":     job.Status,
			"retries":    job.Retries,
			"error":      job.ErrorText,
		},
	})
}
