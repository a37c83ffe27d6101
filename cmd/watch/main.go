// Package main streams a game from the public engine and draws it in the
// terminal.
//
// Given -game it connects to the engine's websocket event stream for that
// game id. Given -snake it first crawls the arena pages for the snake's most
// recent game and watches that. Archived games replay at -delay per frame.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"

	"hydrus/game"
	"hydrus/logging"
	"hydrus/render"
)

const (
	connectTimeout = 10 * time.Second
	readTimeout    = 30 * time.Second
)

var gameIDRe = regexp.MustCompile(`/game/([a-f0-9-]+)`)

// Engine event stream types.

type GameEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type GameInfo struct {
	Game    GameDetails `json:"game"`
	Ruleset RulesetInfo `json:"ruleset"`
}

type GameDetails struct {
	ID      string `json:"id"`
	Timeout int    `json:"timeout"`
}

type RulesetInfo struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Settings json.RawMessage `json:"settings"`
}

type FrameData struct {
	Turn    int         `json:"turn"`
	Snakes  []SnakeData `json:"snakes"`
	Food    []Coord     `json:"food"`
	Hazards []Coord     `json:"hazards,omitempty"`
	Board   BoardData   `json:"board,omitempty"`
}

type SnakeData struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Health int     `json:"health"`
	Body   []Coord `json:"body"`
	Death  *Death  `json:"death,omitempty"`
}

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type BoardData struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Death struct {
	Cause string `json:"cause"`
	Turn  int    `json:"turn"`
}

func main() {
	gameID := flag.String("game", "", "Game id to watch")
	snake := flag.String("snake", "", "Watch the most recent game of this snake instead")
	engineURL := flag.String("engine", "wss://engine.battlesnake.com/games/%s/events", "Engine websocket URL template")
	delay := flag.Duration("delay", 150*time.Millisecond, "Pause between frames")
	requestDelay := flag.Duration("request-delay", 500*time.Millisecond, "Delay between discovery HTTP requests")
	logLevel := flag.String("log-level", "warn", "Minimum log level (debug, info, warn, error)")
	flag.Parse()

	if err := logging.Setup(os.Stderr, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	id := *gameID
	if id == "" && *snake != "" {
		client := &http.Client{Timeout: 30 * time.Second}
		found, err := latestGameID(client, *snake, *requestDelay)
		if err != nil {
			slog.Error("finding game", "snake", *snake, "err", err)
			os.Exit(1)
		}
		id = found
		fmt.Printf("watching %s's latest game: %s\n", *snake, id)
	}
	if id == "" {
		fmt.Fprintln(os.Stderr, "need -game or -snake")
		os.Exit(2)
	}

	if err := watchGame(*engineURL, id, *delay); err != nil {
		slog.Error("watch failed", "game", id, "err", err)
		os.Exit(1)
	}
}

// watchGame streams events for one game and draws each frame.
func watchGame(engineURL, gameID string, delay time.Duration) error {
	url := fmt.Sprintf(engineURL, gameID)

	dialer := websocket.Dialer{HandshakeTimeout: connectTimeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("connecting to engine: %w", err)
	}
	defer conn.Close()

	var info GameInfo
	var lastFrame *FrameData
	frames := 0

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			if frames > 0 {
				// Stream cut after we saw the game; show what we have.
				break
			}
			return fmt.Errorf("reading event: %w", err)
		}

		var event GameEvent
		if err := json.Unmarshal(message, &event); err != nil {
			slog.Warn("unparseable event", "err", err)
			continue
		}

		switch event.Type {
		case "game_info":
			if err := json.Unmarshal(event.Data, &info); err != nil {
				slog.Warn("unparseable game_info", "err", err)
			}
		case "frame":
			var frame FrameData
			if err := json.Unmarshal(event.Data, &frame); err != nil {
				slog.Warn("unparseable frame", "err", err)
				continue
			}
			drawFrame(gameID, &info, &frame)
			lastFrame = &frame
			frames++
			time.Sleep(delay)
		case "game_end":
			// Terminal event; the engine closes the socket right after.
		}
	}

	if lastFrame == nil {
		return fmt.Errorf("no frames received for game %s", gameID)
	}

	fmt.Printf("\n%d turns, result: %s\n", lastFrame.Turn, finalResult(lastFrame))
	return nil
}

func drawFrame(gameID string, info *GameInfo, frame *FrameData) {
	state, names := frameState(frame)

	fmt.Print("\033[2J\033[H")
	fmt.Printf("game %s  turn %d  ruleset %s\n\n", gameID, frame.Turn, info.Ruleset.Name)
	fmt.Print(render.Board(state))
	fmt.Println()
	fmt.Print(render.LegendNames(state, names))
}

// frameState converts one stream frame to a renderable state plus the
// display names keyed by snake id. The engine id stays on the snake: two
// entrants can share a name, and folding the name into the id would merge
// them. Dead snakes drop off the board, matching what the arena shows.
func frameState(frame *FrameData) (*game.State, map[string]string) {
	width, height := frame.Board.Width, frame.Board.Height
	if width <= 0 || height <= 0 {
		width, height = 11, 11
	}

	state := &game.State{
		Width:  width,
		Height: height,
		Turn:   frame.Turn,
	}
	for _, f := range frame.Food {
		state.Food = append(state.Food, game.Point{X: f.X, Y: f.Y})
	}
	for _, h := range frame.Hazards {
		state.Hazards = append(state.Hazards, game.Point{X: h.X, Y: h.Y})
	}
	names := make(map[string]string, len(frame.Snakes))
	for _, s := range frame.Snakes {
		if s.Death != nil || s.Health <= 0 {
			continue
		}
		names[s.ID] = s.Name
		snake := game.Snake{ID: s.ID, Health: s.Health}
		for _, b := range s.Body {
			snake.Body = append(snake.Body, game.Point{X: b.X, Y: b.Y})
		}
		state.Snakes = append(state.Snakes, snake)
	}
	return state, names
}

// finalResult reads the outcome off the last frame.
func finalResult(frame *FrameData) string {
	var alive []SnakeData
	for _, snake := range frame.Snakes {
		if snake.Death == nil && snake.Health > 0 {
			alive = append(alive, snake)
		}
	}
	if len(alive) == 1 {
		if alive[0].Name != "" {
			return alive[0].Name + " won"
		}
		return alive[0].ID + " won"
	}
	return "draw"
}

// latestGameID finds the newest game linked from the snake's arena stats
// pages, checking the common arenas in order.
func latestGameID(client *http.Client, snake string, requestDelay time.Duration) (string, error) {
	arenas := []string{"standard", "standard-duels"}
	for i, arena := range arenas {
		if i > 0 {
			time.Sleep(requestDelay)
		}
		statsURL := fmt.Sprintf("https://play.battlesnake.com/leaderboard/%s/%s/stats", arena, snake)
		ids, err := pageGameIDs(client, statsURL)
		if err != nil {
			slog.Debug("stats page failed", "url", statsURL, "err", err)
			continue
		}
		if len(ids) > 0 {
			// The stats page lists games newest first.
			return ids[0], nil
		}
	}
	return "", fmt.Errorf("no games found for snake %q", snake)
}

// pageGameIDs scrapes /game/ links off one page, in document order.
func pageGameIDs(client *http.Client, url string) ([]string, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "hydrus-watch/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	doc.Find("a[href*='/game/']").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		matches := gameIDRe.FindStringSubmatch(href)
		if len(matches) >= 2 && !seen[matches[1]] {
			seen[matches[1]] = true
			ids = append(ids, matches[1])
		}
	})
	return ids, nil
}
