// Watchbox watch party
//
// Clients connect over a single shared websocket session, pick (or are
// assigned) a unique display name, chat, and manage a shared video queue.
//
// Features:
// - First connection to set a username becomes admin
// - Admin can force-skip the current video and clear the queue
// - Anyone can call a votekick against another user; three votes disconnect them
// - Anyone can call a voteskip; 30% of connected users (minimum 2) skips
// - Chat messages are rate limited per connection and spam filtered
// - Username collisions resolved silently via generated fallback names
// - Playback position sync payloads relayed verbatim to all other clients
// - In-browser QR button to share the party, backed by go-qrcode

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// User holds the data we store server-side for one named connection.
type User struct {
	Name    string
	IsAdmin bool
}

// Messages coming from clients
type ClientMessage struct {
	Type     string          `json:"type"`               // "set_username", "message", "refresh_user_list", "enqueue", "remove_from_queue", "video_ended", "sync"
	Username string          `json:"username,omitempty"` // set_username
	Msg      string          `json:"msg,omitempty"`      // message
	URL      string          `json:"url,omitempty"`      // enqueue
	Title    string          `json:"title,omitempty"`    // enqueue
	Duration int             `json:"duration,omitempty"` // enqueue, seconds
	Index    *int            `json:"index,omitempty"`    // remove_from_queue
	Payload  json.RawMessage `json:"payload,omitempty"`  // sync
}

// ChatMessage carries chat lines and notices. Whether it goes to one
// client or all of them is a delivery decision, not a payload one.
type ChatMessage struct {
	Type string `json:"type"` // "message"
	Msg  string `json:"msg"`
}

// AssignUsernameMessage is the reply to a joining connection.
type AssignUsernameMessage struct {
	Type     string `json:"type"` // "assign_username"
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type UserListMessage struct {
	Type  string   `json:"type"` // "update_user_list"
	Users []string `json:"users"`
}

type QueueUpdateMessage struct {
	Type  string       `json:"type"` // "queue_update"
	Queue []QueueEntry `json:"queue"`
}

type NowPlayingMessage struct {
	Type  string     `json:"type"` // "now_playing"
	Video QueueEntry `json:"video"`
}

// SyncMessage relays an opaque playback-position payload. The server
// never interprets its contents.
type SyncMessage struct {
	Type    string          `json:"type"` // "sync"
	Payload json.RawMessage `json:"payload"`
}

type Client struct {
	conn *websocket.Conn
	send chan any
}

type clientEvent struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	cfg *Config

	clients map[*Client]bool
	users   map[*Client]*User
	byName  map[string]*Client
	order   []*Client // join order, for stable user-list snapshots

	admin   *Client
	queue   videoQueue
	votes   *voteLedger
	limiter *rateLimiter
	names   *nameGenerator

	register chan *Client
	unreg    chan *Client
	events   chan clientEvent

	mu sync.RWMutex

	now func() time.Time
}

func newHub(cfg *Config, suggester wordSuggester) *Hub {
	return &Hub{
		cfg:      cfg,
		clients:  make(map[*Client]bool),
		users:    make(map[*Client]*User),
		byName:   make(map[string]*Client),
		votes:    newVoteLedger(),
		limiter:  newRateLimiter(cfg.chatCooldown),
		names:    &nameGenerator{suggester: suggester},
		register: make(chan *Client),
		unreg:    make(chan *Client),
		events:   make(chan clientEvent),
		now:      time.Now,
	}
}

// run serializes every mutation of the shared party state. All inbound
// events funnel through here, so the handlers never race each other.
func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unreg:
			h.handleDisconnect(c)

		case ev := <-h.events:
			h.dispatch(ev.client, ev.msg)
		}
	}
}

func (h *Hub) dispatch(c *Client, msg ClientMessage) {
	switch msg.Type {
	case "set_username":
		h.handleSetUsername(c, msg.Username)
	case "message":
		h.handleChat(c, msg.Msg)
	case "refresh_user_list":
		h.handleRefreshUserList(c)
	case "enqueue":
		h.handleEnqueue(c, msg)
	case "remove_from_queue":
		h.handleRemoveFromQueue(c, msg.Index)
	case "video_ended":
		h.handleVideoEnded(c)
	case "sync":
		h.handleSync(c, msg.Payload)
	default:
		// ignore unknown types
	}
}

// dropLocked removes a client from the delivery set. Closing send here
// ends its writePump, which closes the socket after draining.
func (h *Hub) dropLocked(c *Client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// sendLocked delivers without blocking; a client that cannot keep up
// is dropped rather than stalling everyone else.
func (h *Hub) sendLocked(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		h.dropLocked(c)
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for c := range h.clients {
		h.sendLocked(c, msg)
	}
}

// relayLocked sends to every client except the sender.
func (h *Hub) relayLocked(sender *Client, msg any) {
	for c := range h.clients {
		if c == sender {
			continue
		}
		h.sendLocked(c, msg)
	}
}

func (h *Hub) noticeLocked(c *Client, text string) {
	h.sendLocked(c, ChatMessage{Type: "message", Msg: text})
}

func (h *Hub) nameTakenLocked(name string) bool {
	_, ok := h.byName[name]
	return ok
}

func (h *Hub) userListLocked() UserListMessage {
	names := make([]string, 0, len(h.order))
	for _, c := range h.order {
		if u, ok := h.users[c]; ok {
			names = append(names, u.Name)
		}
	}
	return UserListMessage{Type: "update_user_list", Users: names}
}

func (h *Hub) broadcastUserListLocked() {
	h.broadcastLocked(h.userListLocked())
}

func (h *Hub) broadcastQueueLocked() {
	h.broadcastLocked(QueueUpdateMessage{Type: "queue_update", Queue: h.queue.snapshot()})
}

// advanceLocked pops the queue head and clears any pending skip votes,
// whatever the outcome. The queue snapshot and now-playing events go
// out only when a head existed.
func (h *Hub) advanceLocked() (QueueEntry, bool) {
	entry, ok := h.queue.advance()
	h.votes.resetSkips()
	if ok {
		h.broadcastQueueLocked()
		h.broadcastLocked(NowPlayingMessage{Type: "now_playing", Video: entry})
	}
	return entry, ok
}

// removeUserLocked scrubs every structure that references a named
// client: registry, join order, vote ledger, rate limiter, admin slot.
// The admin slot is left vacant; it is only refilled by a later join.
func (h *Hub) removeUserLocked(c *Client) (string, bool) {
	h.limiter.forget(c)

	user, ok := h.users[c]
	if !ok {
		return "", false
	}

	delete(h.users, c)
	delete(h.byName, user.Name)
	for i, oc := range h.order {
		if oc == c {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.votes.purge(c, user.Name)
	if h.admin == c {
		h.admin = nil
	}

	return user.Name, true
}

func (h *Hub) handleSetUsername(c *Client, requested string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	if _, ok := h.users[c]; ok {
		return // already named; renames are not supported
	}

	name := requested
	if name == "" || h.nameTakenLocked(name) {
		// The only I/O permitted under the hub lock: a bounded,
		// best-effort word-service call with a short client timeout.
		name = h.names.generate(h.nameTakenLocked)
	}

	isAdmin := false
	if h.admin == nil {
		h.admin = c
		isAdmin = true
	}

	h.users[c] = &User{Name: name, IsAdmin: isAdmin}
	h.byName[name] = c
	h.order = append(h.order, c)

	h.sendLocked(c, AssignUsernameMessage{Type: "assign_username", Username: name, IsAdmin: isAdmin})
	h.broadcastLocked(ChatMessage{Type: "message", Msg: name + " joined the chat."})
	h.broadcastUserListLocked()

	logf(h.cfg, "PARTY: %q joined (admin: %t)", name, isAdmin)
}

func (h *Hub) handleDisconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropLocked(c)

	name, ok := h.removeUserLocked(c)
	if !ok {
		return // never got a name, nothing to announce
	}

	h.broadcastLocked(ChatMessage{Type: "message", Msg: name + " left the chat."})
	h.broadcastUserListLocked()

	logf(h.cfg, "PARTY: %q left", name)
}

// handleChat runs the admission pipeline: rate limit, then command
// parse, then spam filter for plain text. Each rejection stops the
// pipeline with a private notice.
func (h *Hub) handleChat(c *Client, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	user, ok := h.users[c]
	if !ok {
		h.noticeLocked(c, "Set a username before chatting.")
		return
	}

	allowed, wait := h.limiter.admit(c, h.now())
	if !allowed {
		secs := int(wait / time.Second)
		if wait%time.Second != 0 {
			secs++
		}
		h.noticeLocked(c, fmt.Sprintf("Please wait %d seconds before sending another message.", secs))
		return
	}

	cmd := parseCommand(text)
	switch cmd.kind {
	case cmdForceSkip:
		h.forceSkipLocked(c, user)
	case cmdClearQueue:
		h.clearQueueLocked(c, user)
	case cmdVoteKick:
		h.voteKickLocked(c, user, cmd.target)
	case cmdVoteSkip:
		h.voteSkipLocked(c, user)
	case cmdPlainText:
		if isSpam(cmd.text) {
			h.noticeLocked(c, "Your message was blocked by the spam filter.")
			logf(h.cfg, "PARTY: blocked spam from %q", user.Name)
			return
		}
		h.broadcastLocked(ChatMessage{Type: "message", Msg: user.Name + ": " + cmd.text})
	}
}

func (h *Hub) forceSkipLocked(c *Client, user *User) {
	if !user.IsAdmin {
		h.noticeLocked(c, "Only the admin can do that.")
		return
	}

	if _, ok := h.advanceLocked(); !ok {
		h.noticeLocked(c, "The queue is empty.")
		return
	}

	h.broadcastLocked(ChatMessage{Type: "message", Msg: user.Name + " (admin) skipped the current video."})
	logf(h.cfg, "PARTY: admin %q force-skipped", user.Name)
}

func (h *Hub) clearQueueLocked(c *Client, user *User) {
	if !user.IsAdmin {
		h.noticeLocked(c, "Only the admin can do that.")
		return
	}

	h.queue.clear()
	// Pending skip votes refer to entries that no longer exist.
	h.votes.resetSkips()
	h.broadcastQueueLocked()
	h.broadcastLocked(ChatMessage{Type: "message", Msg: user.Name + " (admin) cleared the queue."})
	logf(h.cfg, "PARTY: admin %q cleared the queue", user.Name)
}

func (h *Hub) voteKickLocked(c *Client, user *User, target string) {
	if !h.nameTakenLocked(target) {
		h.noticeLocked(c, fmt.Sprintf("No user named %q is connected.", target))
		return
	}
	if target == user.Name {
		h.noticeLocked(c, "You cannot vote to kick yourself.")
		return
	}

	tally, counted := h.votes.castKick(target, user.Name, c)
	if !counted {
		h.noticeLocked(c, "You already voted to kick "+target+".")
		return
	}

	h.broadcastLocked(ChatMessage{
		Type: "message",
		Msg:  fmt.Sprintf("%s voted to kick %s (%d/%d)", user.Name, target, tally, h.cfg.kickThreshold),
	})

	if tally < h.cfg.kickThreshold {
		return
	}

	h.votes.dropKick(target)

	victim, ok := h.byName[target]
	if !ok {
		return // target raced out before the threshold resolved
	}

	h.noticeLocked(victim, "You have been kicked from the party.")
	h.removeUserLocked(victim)
	h.dropLocked(victim)

	h.broadcastLocked(ChatMessage{Type: "message", Msg: target + " was kicked from the party."})
	h.broadcastUserListLocked()

	logf(h.cfg, "PARTY: %q was votekicked", target)
}

func (h *Hub) voteSkipLocked(c *Client, user *User) {
	if h.queue.len() == 0 {
		h.noticeLocked(c, "There is nothing to skip.")
		return
	}

	tally, counted := h.votes.castSkip(c)
	if !counted {
		h.noticeLocked(c, "You already voted to skip this video.")
		return
	}

	required := skipQuorum(len(h.users), h.cfg.skipRatio)
	if tally >= required {
		entry, _ := h.advanceLocked()
		h.broadcastLocked(ChatMessage{Type: "message", Msg: "Vote passed: now playing " + entry.Title + "."})
		logf(h.cfg, "PARTY: voteskip passed (%d votes)", tally)
		return
	}

	h.broadcastLocked(ChatMessage{
		Type: "message",
		Msg:  fmt.Sprintf("%d/%d votes, %d more needed.", tally, required, required-tally),
	})
}

func (h *Hub) handleRefreshUserList(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sendLocked(c, h.userListLocked())
}

func (h *Hub) handleEnqueue(c *Client, msg ClientMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	user, ok := h.users[c]
	if !ok {
		return
	}
	if msg.URL == "" {
		h.noticeLocked(c, "A video needs a url.")
		return
	}

	h.queue.enqueue(QueueEntry{
		URL:      msg.URL,
		Title:    msg.Title,
		Duration: msg.Duration,
		AddedBy:  user.Name,
	})
	h.broadcastQueueLocked()

	logf(h.cfg, "PARTY: %q queued %q", user.Name, msg.Title)
}

func (h *Hub) handleRemoveFromQueue(c *Client, index *int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.users[c]; !ok {
		return
	}
	if index == nil {
		return
	}

	before := h.queue.len()
	h.queue.removeAt(*index)
	if h.queue.len() == before {
		return // out of range, silently ignored
	}

	h.broadcastQueueLocked()
}

func (h *Hub) handleVideoEnded(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.users[c]; !ok {
		return
	}

	h.advanceLocked()
}

func (h *Hub) handleSync(c *Client, payload json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(payload) == 0 {
		return
	}

	h.relayLocked(c, SyncMessage{Type: "sync", Payload: payload})
}

// suggestName produces a candidate username that does not collide with
// any currently connected user. Used by the /random_username endpoint.
func (h *Hub) suggestName() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.names.generate(h.nameTakenLocked)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "PARTY: upgrade error from %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 8),
		}

		h.register <- client

		go client.writePump()
		client.readPump(h)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		h.events <- clientEvent{client: c, msg: msg}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// serveRandomUsername returns a freshly generated candidate username,
// for the join form.
func serveRandomUsername(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		_ = json.NewEncoder(w).Encode(map[string]string{"username": h.suggestName()})
	}
}

// qrHandler generates a PNG QR code for the party URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at .../qr; strip the trailing "/qr" to get the party URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")
	if path == "" {
		path = "/"
	}

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// registerWatchParty sets up the party routes:
//   - /ws               → the shared party websocket
//   - /qr               → PNG QR code for the party URL
//   - /random_username  → candidate name for the join form
func registerWatchParty(cfg *Config, mux *httprouter.Router) *Hub {
	h := newHub(cfg, newAPIWordSuggester(cfg))
	go h.run()

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, h))
	mux.GET(cfg.prefix+"/qr", qrHandler)
	mux.GET(cfg.prefix+"/random_username", serveRandomUsername(cfg, h))

	return h
}
