/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Charades Relay
//
// One player at a time poses a stickman; everyone else in the game sees the
// pose update live and guesses what it shows out loud.
//
// Features:
// - WebSockets per game ID: /draw/:gameid and /draw/:gameid/ws
// - First connection to a game becomes moderator
// - Players identified by cookie (playerID) and named with a join message
// - Duplicate usernames refused with a notice to the offending client only
// - Moderator starts each round; the drawer rotates through players in join order
// - Only the current drawer's moves are relayed, and only after they decode
// - The latest pose is replayed to late joiners
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - QR code of the game URL, backed by go-qrcode

package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"html"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/charades/internal/client"
	"github.com/Seednode/charades/internal/codec"
	"github.com/Seednode/charades/internal/skeleton"
	"github.com/Seednode/charades/internal/transport"
)

const (
	maxUsername = 32

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 1 << 20
)

// Player holds the data we store server-side
type Player struct {
	PlayerID string
	Username string
}

type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string
}

type inbound struct {
	client *Client
	env    transport.Envelope
}

type Hub struct {
	id      string
	clients map[*Client]bool
	players []Player

	register chan *Client
	unreg    chan *Client
	inbound  chan inbound
	quit     chan struct{}
	quitOnce sync.Once

	mu sync.RWMutex

	createdAt         time.Time
	lastActive        time.Time
	moderatorPlayerID string

	round  int
	drawer string // playerID allowed to move the stickman this round

	// Latest accepted pose of the round, replayed to late joiners.
	pose     json.RawMessage
	poseFrom string
	poseSeq  uint64
}

func newHub(gameID string) *Hub {
	now := time.Now()
	return &Hub{
		id:         gameID,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		inbound:    make(chan inbound),
		quit:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.handleRegister(cfg, c)

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			playerID := c.playerID
			isModerator := (playerID == h.moderatorPlayerID)
			h.mu.Unlock()

			// Moderator "leaving" does not erase them.
			if playerID != "" && !isModerator {
				go h.scheduleRemoval(cfg, playerID, cfg.playerTimeout)
			}

		case in := <-h.inbound:
			h.handleInbound(cfg, in)

		case <-h.quit:
			return
		}
	}
}

func envelope(cfg *Config, env transport.Envelope, data any) []byte {
	msg, err := transport.Encode(env, data)
	if err != nil {
		warnf(cfg, "GAMES: Encoding %s: %v", env.Event, err)
		return nil
	}
	return msg
}

// sendLocked drops clients that cannot keep up.
func (h *Hub) sendLocked(c *Client, msg []byte) {
	if msg == nil {
		return
	}
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastLocked(msg []byte, except *Client) {
	for c := range h.clients {
		if c != except {
			h.sendLocked(c, msg)
		}
	}
}

func (h *Hub) rosterLocked() []transport.User {
	users := make([]transport.User, 0, len(h.players))
	for _, p := range h.players {
		users = append(users, transport.User{
			PlayerID: p.PlayerID,
			Username: p.Username,
			IsDrawer: p.PlayerID == h.drawer,
		})
	}
	return users
}

func (h *Hub) broadcastRosterLocked(cfg *Config) {
	h.broadcastLocked(envelope(cfg, transport.Envelope{Event: transport.EventSetUsers}, h.rosterLocked()), nil)
}

func (h *Hub) noticeLocked(cfg *Config, c *Client, text string) {
	h.sendLocked(c, envelope(cfg, transport.Envelope{Event: transport.EventNotice}, transport.Notice{Message: text}))
}

func (h *Hub) handleRegister(cfg *Config, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	// First connection becomes moderator
	if h.moderatorPlayerID == "" {
		h.moderatorPlayerID = c.playerID
	}

	h.clients[c] = true

	h.sendLocked(c, envelope(cfg, transport.Envelope{Event: transport.EventWelcome}, transport.Welcome{
		PlayerID:    c.playerID,
		IsModerator: c.playerID == h.moderatorPlayerID,
		Round:       h.round,
	}))
	h.sendLocked(c, envelope(cfg, transport.Envelope{Event: transport.EventSetUsers}, h.rosterLocked()))

	// A late joiner needs the round first, since starting a round resets the
	// figure, and then the pose drawn so far.
	if h.round > 0 {
		h.sendLocked(c, envelope(cfg, transport.Envelope{Event: transport.EventStartRound}, transport.Round{
			Round:  h.round,
			Drawer: h.drawer,
		}))
	}
	if h.pose != nil {
		h.sendLocked(c, envelope(cfg, transport.Envelope{
			Event: transport.EventMoveReceive,
			From:  h.poseFrom,
			Seq:   h.poseSeq,
		}, h.pose))
	}
}

func (h *Hub) handleInbound(cfg *Config, in inbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	switch in.env.Event {
	case transport.EventJoin:
		h.handleJoinLocked(cfg, in)

	case transport.EventStartRound:
		if in.client.playerID != h.moderatorPlayerID {
			return
		}
		h.startRoundLocked(cfg, in.client)

	case transport.EventMoveEmit:
		h.handleMoveLocked(cfg, in)

	default:
		// ignore unknown events
	}
}

func (h *Hub) handleJoinLocked(cfg *Config, in inbound) {
	c := in.client

	join, err := transport.DecodeData[transport.Join](in.env)
	if err != nil || c.playerID == "" {
		return
	}

	name := strings.TrimSpace(join.Username)
	if name == "" || utf8.RuneCountInString(name) > maxUsername {
		h.noticeLocked(cfg, c, "Usernames must be between 1 and 32 characters.")
		return
	}

	existing := -1
	for i, p := range h.players {
		if p.PlayerID == c.playerID {
			existing = i
			continue
		}
		if strings.EqualFold(p.Username, name) {
			h.noticeLocked(cfg, c, "That username is already taken. Please choose a different username.")
			return
		}
	}

	if existing >= 0 {
		h.players[existing].Username = name
	} else {
		h.players = append(h.players, Player{PlayerID: c.playerID, Username: name})
		logf(cfg, "GAMES: Player %q joined %s", name, h.id)
	}

	h.broadcastRosterLocked(cfg)
}

// startRoundLocked hands the stickman to the player after the current drawer,
// in join order.
func (h *Hub) startRoundLocked(cfg *Config, c *Client) {
	if len(h.players) == 0 {
		h.noticeLocked(cfg, c, "Nobody has joined yet.")
		return
	}

	next := 0
	if i := slices.IndexFunc(h.players, func(p Player) bool { return p.PlayerID == h.drawer }); i >= 0 {
		next = (i + 1) % len(h.players)
	}

	h.round++
	h.drawer = h.players[next].PlayerID
	h.pose = nil
	h.poseFrom = ""
	h.poseSeq = 0

	logf(cfg, "GAMES: Round %d of %s drawn by %q", h.round, h.id, h.players[next].Username)

	h.broadcastLocked(envelope(cfg, transport.Envelope{Event: transport.EventStartRound}, transport.Round{
		Round:  h.round,
		Drawer: h.drawer,
	}), nil)
	h.broadcastRosterLocked(cfg)
}

func (h *Hub) handleMoveLocked(cfg *Config, in inbound) {
	c := in.client

	if h.drawer == "" || c.playerID != h.drawer {
		logf(cfg, "GAMES: Ignoring move from non-drawer in %s", h.id)
		return
	}

	if _, err := codec.Decode(in.env.Data); err != nil {
		warnf(cfg, "GAMES: Discarding pose from drawer in %s: %v", h.id, err)
		return
	}

	h.pose = slices.Clone(in.env.Data)
	h.poseFrom = c.playerID
	h.poseSeq = in.env.Seq

	h.broadcastLocked(envelope(cfg, transport.Envelope{
		Event: transport.EventMoveReceive,
		From:  c.playerID,
		Seq:   in.env.Seq,
	}, h.pose), c)
}

// scheduleRemoval waits for d, and if no client with this playerID
// is currently connected, removes that player's entry and broadcasts
// the updated roster.
func (h *Hub) scheduleRemoval(cfg *Config, playerID string, d time.Duration) {
	select {
	case <-time.After(d):
	case <-h.quit:
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if c.playerID == playerID {
			return
		}
	}

	before := len(h.players)
	h.players = slices.DeleteFunc(h.players, func(p Player) bool { return p.PlayerID == playerID })
	if len(h.players) == before {
		return
	}

	h.lastActive = time.Now()
	logf(cfg, "GAMES: Removed idle player from %s", h.id)

	h.broadcastRosterLocked(cfg)
}

type hubSnapshot struct {
	round   int
	players int
	pose    json.RawMessage
}

func (h *Hub) snapshot() hubSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return hubSnapshot{round: h.round, players: len(h.players), pose: h.pose}
}

// closeAll disconnects all clients of this hub and stops it (used by reaper).
func (h *Hub) closeAll() {
	h.quitOnce.Do(func() { close(h.quit) })

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func newPlayerID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func getOrSetPlayerID(cfg *Config, w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(client.CookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id, err := newPlayerID()
	if err != nil {
		warnf(cfg, "GAMES: Generating player id: %v", err)
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     client.CookieName,
		Value:    id,
		Path:     cfg.prefix + "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
}

func newGameManager(idleTimeout time.Duration) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(gameID)
	gm.hubs[gameID] = hub
	go hub.run(cfg)
	return hub
}

func (gm *GameManager) lookup(gameID string) (*Hub, bool) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	hub, ok := gm.hubs[gameID]
	return hub, ok
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reap removes hubs idle since before cutoff.
func (gm *GameManager) reap(cutoff time.Time) int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	reaped := 0
	for id, hub := range gm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		hub.mu.RUnlock()

		if last.Before(cutoff) {
			delete(gm.hubs, id)
			go hub.closeAll()
			reaped++
		}
	}

	return reaped
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	for range ticker.C {
		gm.reap(time.Now().Add(-gm.idleTimeout))
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(cfg, w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			warnf(cfg, "GAMES: Upgrade for %s failed: %v", realIP(r), err)
			return
		}

		c := &Client{
			conn:     conn,
			send:     make(chan []byte, 32),
			playerID: playerID,
		}

		select {
		case hub.register <- c:
		case <-hub.quit:
			_ = conn.Close()
			return
		}

		go c.writePump()
		c.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.quit:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		env, err := transport.Decode(msg)
		if err != nil {
			continue
		}

		select {
		case h.inbound <- inbound{client: c, env: env}:
		case <-h.quit:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		serveQR(cfg, w, r, ps)
	}
}

func serveQR(cfg *Config, w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("gameid") == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	url := gameURL(r, strings.TrimSuffix(r.URL.Path, "/qr"))

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	securityHeaders(cfg, w)
	_, _ = w.Write(png)
}

// gameURL derives the public URL of path, respecting TLS and
// X-Forwarded-Proto if present.
func gameURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + path
}

// serveGamePage shows the current pose and how to join from a terminal.
func serveGamePage(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")

		_ = getOrSetPlayerID(cfg, w, r)

		var snap hubSnapshot
		if hub, ok := gm.lookup(gameID); ok {
			snap = hub.snapshot()
		}

		skel, err := codec.Decode(snap.pose)
		if err != nil {
			skel, err = skeleton.Generate(canvasCenter, cfg.limbLength)
			if err != nil {
				http.Error(w, "bad limb length", http.StatusInternalServerError)
				return
			}
		}

		url := gameURL(r, r.URL.Path)

		var body strings.Builder
		body.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
		body.WriteString(getFavicon(cfg.prefix))
		body.WriteString(`<meta http-equiv="refresh" content="5">`)
		body.WriteString(`<title>Charades ` + html.EscapeString(gameID) + `</title></head><body>`)
		body.WriteString(`<h1>Game ` + html.EscapeString(gameID) + `</h1>`)
		if snap.round > 0 {
			body.WriteString(`<p>Round ` + strconv.Itoa(snap.round) + `, ` + strconv.Itoa(snap.players) + ` players.</p>`)
		} else {
			body.WriteString(`<p>Waiting for the moderator to start the first round.</p>`)
		}
		body.WriteString(renderSVG(skel, figureBox(canvasCenter, cfg.limbLength), 3, 320))
		body.WriteString(`<p>Join from a terminal:</p><pre>charades play --url ` + html.EscapeString(url) + ` --name YOURNAME</pre>`)
		body.WriteString(`<img alt="QR code for this game" src="` + html.EscapeString(cfg.prefix+"/draw/"+gameID+"/qr") + `">`)
		body.WriteString(`</body></html>`)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(body.String()))
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerCharades sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → game page with the current pose
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerCharades(cfg *Config, path string, mux *httprouter.Router) *GameManager {
	gm := newGameManager(cfg.sessionTimeout)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))
	mux.GET(cfg.prefix+path+"/:gameid", serveGamePage(cfg, gm))
	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))
	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler(cfg))

	return gm
}
