package main

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/profile"
	"github.com/schollz/progressbar/v3"
	"github.com/titaniummachine1/chess/internal/coordinator"
	"github.com/titaniummachine1/chess/internal/game"
	. "github.com/titaniummachine1/chess/internal/helpers"
	"github.com/titaniummachine1/chess/internal/search"
	"golang.org/x/sync/errgroup"
)

const depth = 3
const budget = 500 * time.Millisecond
const maxPlies = 200

type results struct {
	mu         sync.Mutex
	checkmates int
	stalemates int
	unfinished int
}

// playGame drives a full engine-vs-engine game through one coordinator,
// polling the way a UI would.
func playGame(bar *progressbar.ProgressBar, tally *results) Error {
	c := coordinator.NewCoordinator(
		coordinator.WithSearcher(search.NewAlphaBetaSearcher()),
	)
	defer c.Close()

	position := game.StartingPosition()

	for ply := 0; ply < maxPlies; ply++ {
		if position.Outcome() != game.Ongoing {
			break
		}

		err := c.StartSearch(position, depth, budget)
		if !IsNil(err) {
			return err
		}
		for !c.IsSearchComplete() {
			time.Sleep(5 * time.Millisecond)
		}
		move := c.Result()
		c.Reset()

		if move.IsEmpty() {
			break
		}
		next, err := position.PerformMove(move.Value())
		if !IsNil(err) {
			return err
		}
		position = next
	}

	tally.mu.Lock()
	switch position.Outcome() {
	case game.Checkmate:
		tally.checkmates++
	case game.Stalemate:
		tally.stalemates++
	default:
		tally.unfinished++
	}
	tally.mu.Unlock()

	_ = bar.Add(1)
	return NilError
}

func main() {
	games := 10
	parallelism := 2

	args := os.Args[1:]
	if Contains(args, "profile") {
		p := profile.Start(profile.ProfilePath("./data/selfplay"))
		defer p.Stop()
	}
	args = FilterSlice(args, func(arg string) bool {
		return arg != "profile"
	})
	if len(args) > 0 {
		if parsed, err := strconv.ParseInt(args[0], 10, 64); err == nil {
			games = int(parsed)
		}
	}

	bar := progressbar.Default(int64(games), "selfplay")
	tally := &results{}

	group := errgroup.Group{}
	group.SetLimit(parallelism)
	for i := 0; i < games; i++ {
		group.Go(func() error {
			err := playGame(bar, tally)
			if !IsNil(err) {
				return err
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println("games:", games,
		"checkmates:", tally.checkmates,
		"stalemates:", tally.stalemates,
		"unfinished:", tally.unfinished)
}
