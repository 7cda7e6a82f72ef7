// Package server is the demo relay: a websocket hub that forwards
// common.MessageBundle envelopes between connected clients, queues
// them in Redis for offline recipients, and publishes/serves prekey
// bundles so a sender can run X3DH against an offline recipient. None
// of this touches key material directly — it moves already-sealed
// bundles and already-signed prekeys produced by the crypto/protocol
// packages.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"safetalk/common"
	"safetalk/configs"
	"safetalk/protocol/prekey"
)

type Server struct {
	ctx       context.Context
	cancelCtx context.CancelFunc

	redisClient    *redis.Client
	connectedUsers map[string]*websocket.Conn
	mutex          *sync.Mutex
	logger         *logrus.Logger

	upgrader *websocket.Upgrader
}

func NewServer(ctx context.Context, redisClient *redis.Client, logger *logrus.Logger) *Server {
	ctx, cancelCtx := context.WithCancel(ctx)
	return &Server{
		ctx:            ctx,
		cancelCtx:      cancelCtx,
		redisClient:    redisClient,
		connectedUsers: make(map[string]*websocket.Conn),
		mutex:          &sync.Mutex{},
		logger:         logger,
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleConnections upgrades the request to a websocket and relays
// MessageBundle envelopes for the connecting user until it disconnects.
func (s *Server) HandleConnections(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorf("error upgrading to websocket: %v", err)
		return
	}
	defer ws.Close()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		s.logger.Error("no userId provided in the query")
		return
	}

	s.mutex.Lock()
	s.connectedUsers[userID] = ws
	s.mutex.Unlock()
	s.logger.Infof("user %s connected", userID)

	s.retrieveQueuedMessages(userID, ws)

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			s.logger.Errorf("error reading message from user %s: %v", userID, err)
			break
		}

		var bundle common.MessageBundle
		if err := json.Unmarshal(message, &bundle); err != nil {
			s.logger.Errorf("invalid message bundle from user %s: %v", userID, err)
			continue
		}

		bundle.From = userID
		s.logger.Infof("received message from %s to %s", bundle.From, bundle.To)

		s.handleMessage(&bundle)
	}

	s.mutex.Lock()
	delete(s.connectedUsers, userID)
	s.mutex.Unlock()
	s.logger.Infof("user %s disconnected", userID)
}

// HandlePostKeys publishes a user's prekey bundle for others to fetch.
func (s *Server) HandlePostKeys(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Errorf("error reading prekey bundle body for user %s: %v", userID, err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var bundle prekey.Bundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		s.logger.Errorf("invalid prekey bundle from user %s: %v", userID, err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	key := fmt.Sprintf(configs.ServerUserPubKey, userID)
	if err := s.redisClient.Set(s.ctx, key, body, 0).Err(); err != nil {
		s.logger.Errorf("error storing prekey bundle for user %s: %v", userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleGetKeys serves a previously published prekey bundle.
func (s *Server) HandleGetKeys(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	key := fmt.Sprintf(configs.ServerUserPubKey, userID)

	body, err := s.redisClient.Get(s.ctx, key).Bytes()
	if err == redis.Nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Errorf("error fetching prekey bundle for user %s: %v", userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (s *Server) Close() {
	s.cancelCtx()
	s.mutex.Lock()
	for _, conn := range s.connectedUsers {
		conn.Close()
	}
	s.mutex.Unlock()
	s.redisClient.Close()
}

func (s *Server) handleMessage(bundle *common.MessageBundle) {
	s.mutex.Lock()
	recipientConn, online := s.connectedUsers[bundle.To]
	s.mutex.Unlock()

	if online {
		bundleJSON, err := json.Marshal(bundle)
		if err != nil {
			s.logger.Errorf("error marshalling bundle for %s: %v", bundle.To, err)
			return
		}
		if err := recipientConn.WriteMessage(websocket.TextMessage, bundleJSON); err != nil {
			s.logger.Errorf("error sending message to user %s: %v", bundle.To, err)
		}
	} else {
		s.queueMessage(bundle.To, bundle)
	}
}

func (s *Server) queueMessage(userID string, bundle *common.MessageBundle) {
	bundleJSON, err := json.Marshal(bundle)
	if err != nil {
		s.logger.Errorf("error marshalling bundle for %s: %v", userID, err)
		return
	}
	key := fmt.Sprintf(configs.ServerMessageQueueKey, userID)
	if err := s.redisClient.RPush(s.ctx, key, bundleJSON).Err(); err != nil {
		s.logger.Errorf("error queuing message for user %s: %v", userID, err)
	}
}

func (s *Server) retrieveQueuedMessages(userID string, ws *websocket.Conn) {
	key := fmt.Sprintf(configs.ServerMessageQueueKey, userID)
	messages, err := s.redisClient.LRange(s.ctx, key, 0, -1).Result()
	if err != nil {
		s.logger.Errorf("error retrieving queued messages for user %s: %v", userID, err)
		return
	}

	for _, message := range messages {
		if err := ws.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			s.logger.Errorf("error sending queued message to user %s: %v", userID, err)
			return
		}
	}

	s.redisClient.Del(s.ctx, key)
}
