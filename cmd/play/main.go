package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/titaniummachine1/chess/internal/coordinator"
	"github.com/titaniummachine1/chess/internal/game"
	. "github.com/titaniummachine1/chess/internal/helpers"
	"github.com/titaniummachine1/chess/internal/search"
)

const aiDepth = 4
const aiBudget = 2 * time.Second

func waitForMove(c *coordinator.Coordinator) Optional[game.Move] {
	lastProgress := ""
	for !c.IsSearchComplete() {
		if progress := c.Progress(); progress != lastProgress {
			fmt.Println(progress)
			lastProgress = progress
		}
		time.Sleep(50 * time.Millisecond)
	}
	if progress := c.Progress(); progress != lastProgress {
		fmt.Println(progress)
	}
	return c.Result()
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, fmt.Sprint(r))
			fmt.Fprintln(os.Stderr, string(debug.Stack()))
		}
	}()

	position := game.StartingPosition()
	if len(os.Args) > 1 {
		fromArgs, err := game.PositionFromFen(strings.Join(os.Args[1:], " "))
		if !IsNil(err) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		position = fromArgs
	}

	c := coordinator.NewCoordinator(
		coordinator.WithSearcher(search.NewAlphaBetaSearcher()),
		coordinator.WithMinThinkTime(time.Second),
	)
	defer c.Close()

	scanner := bufio.NewScanner(os.Stdin)
	human := position.Player()

	for {
		fmt.Println(position.Draw())

		if outcome := position.Outcome(); outcome != game.Ongoing {
			if outcome == game.Checkmate {
				fmt.Println("checkmate")
			} else {
				fmt.Println("stalemate")
			}
			break
		}

		if position.Player() == human {
			fmt.Print("your move (uci, or 'quit'): ")
			if !scanner.Scan() {
				break
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "quit" {
				break
			}
			move, err := position.MoveFromString(input)
			if !IsNil(err) {
				fmt.Println("couldn't parse that:", err.Message())
				continue
			}
			next, err := position.PerformMove(move)
			if !IsNil(err) {
				fmt.Println(err.Message())
				continue
			}
			position = next
			continue
		}

		err := c.StartSearch(position, aiDepth, aiBudget)
		if !IsNil(err) {
			fmt.Fprintln(os.Stderr, err)
			break
		}

		move := waitForMove(c)
		c.Reset()
		if move.IsEmpty() {
			fmt.Println("engine has no move")
			break
		}

		fmt.Println("engine plays", move.Value())
		next, err := position.PerformMove(move.Value())
		if !IsNil(err) {
			fmt.Fprintln(os.Stderr, err)
			break
		}
		position = next
	}
}
