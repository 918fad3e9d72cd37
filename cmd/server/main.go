package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/notnil/chess"
	"github.com/titaniummachine1/chess/internal/coordinator"
	"github.com/titaniummachine1/chess/internal/game"
	. "github.com/titaniummachine1/chess/internal/helpers"
)

const searchDepth = 4
const searchBudget = 3 * time.Second

type UpdateToWeb struct {
	FenString     string   `json:"fenString"`
	LastMove      string   `json:"lastMove"`
	Progress      string   `json:"progress"`
	Thinking      bool     `json:"thinking"`
	Selection     string   `json:"selection"`
	PossibleMoves []string `json:"possibleMoves"`
	Player        string   `json:"player"`
	Outcome       string   `json:"outcome"`
}

func (u UpdateToWeb) String() string {
	return fmt.Sprint("UpdateToWeb: ", u.FenString, ", ", u.LastMove, ", ", u.Progress, ", ", u.Selection, ", ", u.PossibleMoves)
}

type MessageFromWeb struct {
	NewFen      *string `json:"newFen"`
	WhitePlayer *string `json:"whitePlayer"`
	BlackPlayer *string `json:"blackPlayer"`
	Selection   *string `json:"selection"`
	Move        *string `json:"move"`
	Ready       *bool   `json:"ready"`
}

func (u MessageFromWeb) String() string {
	if u.NewFen != nil {
		return fmt.Sprint("MessageFromWeb NewFen: ", *u.NewFen)
	}
	if u.WhitePlayer != nil {
		return fmt.Sprint("MessageFromWeb WhitePlayer: ", *u.WhitePlayer)
	}
	if u.BlackPlayer != nil {
		return fmt.Sprint("MessageFromWeb BlackPlayer: ", *u.BlackPlayer)
	}
	if u.Selection != nil {
		return fmt.Sprint("MessageFromWeb Selection: ", *u.Selection)
	}
	if u.Move != nil {
		return fmt.Sprint("MessageFromWeb Move: ", *u.Move)
	}
	if u.Ready != nil {
		return fmt.Sprint("MessageFromWeb Ready: ", *u.Ready)
	}
	return "MessageFromWeb unknown"
}

type LogForwarding struct {
	writeCallback func(message string)
}

func (l *LogForwarding) Println(v ...any) {
	l.writeCallback(fmt.Sprintln(v...))
}
func (l *LogForwarding) Printf(format string, v ...any) {
	l.writeCallback(fmt.Sprintf(format, v...))
}
func (l *LogForwarding) Print(v ...any) {
	l.writeCallback(fmt.Sprint(v...))
}

type PlayerType int

const (
	User PlayerType = iota
	Engine
	Unknown
)

func PlayerTypeFromString(s string) PlayerType {
	switch s {
	case "user":
		return User
	case "engine":
		return Engine
	}
	return Unknown
}

func outcomeString(position game.Position) string {
	switch position.Outcome() {
	case game.Checkmate:
		return "checkmate"
	case game.Stalemate:
		return "stalemate"
	}
	return ""
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, fmt.Sprint(r))
			fmt.Fprintln(os.Stderr, string(debug.Stack()))
		}
	}()

	var upgrader = websocket.Upgrader{}

	var ws = func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			panic(err)
		}
		defer c.Close()

		// guards the websocket (gorilla allows one writer at a time),
		// the position, and lastMove; the poller goroutine shares them
		var mu sync.Mutex
		position := game.StartingPosition()
		lastMove := Empty[game.Move]()
		playerTypes := map[chess.Color]PlayerType{
			chess.White: User,
			chess.Black: Engine,
		}
		ready := false

		var send = func(bytes []byte) {
			err := c.WriteMessage(websocket.TextMessage, bytes)
			if err != nil {
				fmt.Fprintln(os.Stderr, fmt.Sprint("websocket: ", err))
			}
		}

		var logToWeb = func(message string) {
			log.Print("forwarding: ", message)
			bytes, err := json.Marshal([]string{message})
			if err != nil {
				fmt.Fprintln(os.Stderr, fmt.Sprint("logging: json marshal: ", err))
				return
			}
			mu.Lock()
			defer mu.Unlock()
			send(bytes)
		}

		logger := &LogForwarding{
			writeCallback: func(message string) {
				logToWeb(fmt.Sprintf("server: %v", message))
			},
		}

		ai := coordinator.NewCoordinator(
			coordinator.WithMinThinkTime(time.Second),
			coordinator.WithLogger(&LogForwarding{
				writeCallback: func(message string) {
					logToWeb(fmt.Sprintf("engine: %v", message))
				},
			}),
		)
		defer ai.Close()

		// callers must hold mu
		var sendUpdate = func(update UpdateToWeb) {
			update.FenString = position.Fen()
			update.Progress = ai.Progress()
			if position.Player() == chess.White {
				update.Player = "white"
			} else {
				update.Player = "black"
			}
			if lastMove.HasValue() {
				update.LastMove = lastMove.Value().String()
			}
			update.Outcome = outcomeString(position)

			bytes, err := json.Marshal(update)
			if err != nil {
				logger.Println("update: json marshal: ", err)
				return
			}
			send(bytes)
		}

		var pollForMove func()
		var maybeStartSearch = func() {
			mu.Lock()
			snapshot := position
			start := ready &&
				playerTypes[position.Player()] == Engine &&
				position.Outcome() == game.Ongoing
			mu.Unlock()
			if !start {
				return
			}
			err := ai.StartSearch(snapshot, searchDepth, searchBudget)
			if !IsNil(err) {
				logger.Println("search: ", err)
				return
			}
			mu.Lock()
			sendUpdate(UpdateToWeb{Thinking: true})
			mu.Unlock()
			go pollForMove()
		}

		pollForMove = func() {
			for !ai.IsSearchComplete() {
				time.Sleep(100 * time.Millisecond)
			}
			move := ai.Result()
			ai.Reset()

			mu.Lock()
			if move.IsEmpty() {
				logger.Println("no move found")
				sendUpdate(UpdateToWeb{})
				mu.Unlock()
				return
			}
			next, err := position.PerformMove(move.Value())
			if !IsNil(err) {
				logger.Println("perform: ", move.Value(), err)
				mu.Unlock()
				return
			}
			position = next
			lastMove = move
			sendUpdate(UpdateToWeb{})
			mu.Unlock()

			// the engine may be playing both sides
			maybeStartSearch()
		}

		var handleMessageFromWeb = func(bytes []byte) {
			var message MessageFromWeb
			err := json.Unmarshal(bytes, &message)
			if err != nil {
				logger.Println("handleMessageFromWeb: json unmarshal: ", err)
				return
			}
			logger.Println("received", message)

			var update UpdateToWeb
			shouldUpdate := false

			if message.NewFen != nil {
				next, err := game.PositionFromFen(*message.NewFen)
				if !IsNil(err) {
					logger.Println("setup: ", err)
				} else {
					mu.Lock()
					position = next
					lastMove = Empty[game.Move]()
					mu.Unlock()
					ai.Reset()
					shouldUpdate = true
				}
			} else if message.WhitePlayer != nil {
				mu.Lock()
				playerTypes[chess.White] = PlayerTypeFromString(*message.WhitePlayer)
				mu.Unlock()
			} else if message.BlackPlayer != nil {
				mu.Lock()
				playerTypes[chess.Black] = PlayerTypeFromString(*message.BlackPlayer)
				mu.Unlock()
			} else if message.Selection != nil {
				if *message.Selection != "" {
					update.Selection = *message.Selection
					mu.Lock()
					update.PossibleMoves = position.MovesForSelection(*message.Selection)
					mu.Unlock()
				}
				shouldUpdate = true
			} else if message.Move != nil {
				mu.Lock()
				move, err := position.MoveFromString(*message.Move)
				if IsNil(err) {
					var next game.Position
					next, err = position.PerformMove(move)
					if IsNil(err) {
						position = next
						lastMove = Some(move)
					}
				}
				mu.Unlock()
				if !IsNil(err) {
					logger.Println("perform: ", *message.Move, err)
				}
				shouldUpdate = true
			} else if message.Ready != nil {
				mu.Lock()
				if !ready {
					ready = *message.Ready
					shouldUpdate = true
				}
				mu.Unlock()
			}

			if shouldUpdate {
				mu.Lock()
				sendUpdate(update)
				mu.Unlock()
			}
			maybeStartSearch()
		}

		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				logger.Printf("Error: %v", err)
				break
			}
			handleMessageFromWeb(message)
		}
	}

	var index = func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./static/index.html")
	}

	port := 8002

	args := os.Args[1:]
	for _, arg := range args {
		if parsed, err := strconv.ParseInt(arg, 10, 64); err == nil {
			port = int(parsed)
		}
	}

	log.Println("serving at", port)

	router := mux.NewRouter()
	router.HandleFunc("/ws", ws)
	router.PathPrefix("/static").Handler(
		http.StripPrefix("/static", http.FileServer(http.Dir("./static"))))
	router.HandleFunc("/", index)
	http.Handle("/", router)
	err := http.ListenAndServe(fmt.Sprintf(":%v", port), router)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
