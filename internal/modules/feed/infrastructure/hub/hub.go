package hub

import (
	"sync"

	"github.com/rs/zerolog"
)

type UnicastMessage struct {
	UserID  string
	Message []byte
}

type countRequest struct {
	userID string
	reply  chan int
}

// Hub maintains the set of connected stream clients and routes each
// message to the clients of one user.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Unicast messages
	unicast chan UnicastMessage

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	count chan countRequest

	logger zerolog.Logger

	// Channel to signal termination
	stop     chan struct{}
	stopOnce sync.Once
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		unicast:    make(chan UnicastMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan countRequest),

		clients: make(map[*Client]bool),
		logger:  logger,
		stop:    make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Info().
				Str("user_id", client.userID).
				Str("kind", client.kind).
				Msg("client registered")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info().
					Str("user_id", client.userID).
					Str("kind", client.kind).
					Msg("client unregistered")
			}
		case msg := <-h.unicast:
			delivered := 0
			for client := range h.clients {
				if client.userID != msg.UserID {
					continue
				}
				select {
				case client.send <- msg.Message:
					delivered++
				default:
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn().Str("user_id", client.userID).Msg("dropping slow client")
				}
			}
			h.logger.Debug().Str("user_id", msg.UserID).Int("clients", delivered).Msg("unicast")
		case req := <-h.count:
			n := 0
			for client := range h.clients {
				if client.userID == req.userID {
					n++
				}
			}
			req.reply <- n
		case <-h.stop:
			h.logger.Info().Msg("stopping hub")
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		}
	}
}

// SendToUser queues message for every client of userID. It returns
// immediately once the hub has stopped.
func (h *Hub) SendToUser(userID string, message []byte) {
	select {
	case h.unicast <- UnicastMessage{UserID: userID, Message: message}:
	case <-h.stop:
	}
}

// Connected reports how many clients userID has open.
func (h *Hub) Connected(userID string) int {
	req := countRequest{userID: userID, reply: make(chan int, 1)}
	select {
	case h.count <- req:
		return <-req.reply
	case <-h.stop:
		return 0
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stop:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stop:
	}
}
