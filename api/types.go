// Package api speaks the Battlesnake HTTP wire format.
//
// The types mirror the engine's JSON. Everything else in the package is
// glue: validating an inbound snapshot and converting it into an engine
// state. No move logic lives here.
package api

import (
	"encoding/json"
	"fmt"
	"io"
)

// InfoResponse is served on "/" and describes the snake.
type InfoResponse struct {
	APIVersion string `json:"apiversion"`
	Author     string `json:"author"`
	Color      string `json:"color"`
	Head       string `json:"head"`
	Tail       string `json:"tail"`
	Version    string `json:"version"`
}

// GameRequest is the payload the engine posts to /start, /move and /end.
type GameRequest struct {
	Game  Game        `json:"game"`
	Turn  int         `json:"turn"`
	Board Board       `json:"board"`
	You   Battlesnake `json:"you"`
}

type Game struct {
	ID      string  `json:"id"`
	Ruleset Ruleset `json:"ruleset"`
	Map     string  `json:"map"`
	Timeout int     `json:"timeout"` // milliseconds
	Source  string  `json:"source"`
}

type Ruleset struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Settings RulesetSettings `json:"settings"`
}

type RulesetSettings struct {
	FoodSpawnChance     int `json:"foodSpawnChance"`
	MinimumFood         int `json:"minimumFood"`
	HazardDamagePerTurn int `json:"hazardDamagePerTurn"`
	Royale              struct {
		ShrinkEveryNTurns int `json:"shrinkEveryNTurns"`
	} `json:"royale"`
}

type Board struct {
	Height  int           `json:"height"`
	Width   int           `json:"width"`
	Food    []Coord       `json:"food"`
	Hazards []Coord       `json:"hazards"`
	Snakes  []Battlesnake `json:"snakes"`
}

type Battlesnake struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Health         int     `json:"health"`
	Body           []Coord `json:"body"`
	Latency        string  `json:"latency"`
	Head           Coord   `json:"head"`
	Length         int     `json:"length"`
	Shout          string  `json:"shout"`
	Customizations struct {
		Color string `json:"color"`
		Head  string `json:"head"`
		Tail  string `json:"tail"`
	} `json:"customizations"`
}

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MoveResponse answers /move.
type MoveResponse struct {
	Move  string `json:"move"`
	Shout string `json:"shout,omitempty"`
}

// ReadGameRequest decodes one request payload and validates it.
func ReadGameRequest(r io.Reader) (*GameRequest, error) {
	var req GameRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("decoding game request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}
