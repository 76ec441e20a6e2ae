// Command trophyctl exercises a game's trophy, score, and session endpoints
// from the terminal. Configuration comes from TROPHYKIT_* environment
// variables; see the config package for the full list.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"trophykit/client"
	"trophykit/core"
	"trophykit/websocket"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	app, err := BuildApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	if err := run(ctx, app, cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: trophyctl <command> [flags]

commands:
  login       store credentials and open a session
  logout      close the session
  status      show stored credentials and session state
  profile     fetch a public profile
  scores      list score rows
  score-add   submit a score
  rank        show the logged-in user's global rank
  trophies    list trophies
  trophy-add  mark a trophy achieved
  trophy-rm   remove an achieved trophy
  friends     list friends
  events      serve client events over WebSocket while pinging the session`)
}

func run(ctx context.Context, app *App, cmd string, args []string) error {
	c := app.Client

	switch cmd {
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		username := fs.String("username", "", "username")
		token := fs.String("token", "", "game token")
		_ = fs.Parse(args)
		if err := c.SetUserInfo(ctx, *username, *token); err != nil {
			return err
		}
		profile, err := c.Login(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s (#%d)\n", profile.Username, profile.ID)
		return nil

	case "logout":
		return c.Logout(ctx)

	case "status":
		creds, err := c.Credentials(ctx)
		if err != nil {
			return err
		}
		if creds == nil {
			fmt.Println("no stored credentials")
			return nil
		}
		logged, err := c.CheckSession(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("user: %s\nsession open: %v\n", creds.Username, logged)
		return nil

	case "profile":
		fs := flag.NewFlagSet("profile", flag.ExitOnError)
		username := fs.String("username", "", "username to look up")
		_ = fs.Parse(args)
		profile, err := c.FetchProfile(ctx, *username)
		if err != nil {
			return err
		}
		fmt.Printf("#%d %s (%s), signed up %s\n", profile.ID, profile.Username, profile.Type, profile.SignedUp)
		return nil

	case "scores":
		fs := flag.NewFlagSet("scores", flag.ExitOnError)
		table := fs.Int("table", 0, "score table id (0 = main table)")
		limit := fs.Int("limit", 0, "row count (0 = service default)")
		own := fs.Bool("own", false, "only the logged-in user's rows")
		_ = fs.Parse(args)
		rows, err := c.FetchScores(ctx, client.ScoreQuery{TableID: *table, Limit: *limit, OwnOnly: *own})
		if err != nil {
			return err
		}
		for _, row := range rows {
			owner := row.User
			if owner == "" {
				owner = row.Guest + " (guest)"
			}
			fmt.Printf("%8d  %-20s %s\n", row.Sort, owner, row.Score)
		}
		return nil

	case "score-add":
		fs := flag.NewFlagSet("score-add", flag.ExitOnError)
		table := fs.Int("table", 0, "score table id (0 = main table)")
		sort := fs.Int("sort", 0, "numeric sort value")
		score := fs.String("score", "", "display string, e.g. \"500 jumps\"")
		extra := fs.String("extra", "", "extra data stored with the row")
		guest := fs.String("guest", "", "submit as this guest instead of the logged-in user")
		_ = fs.Parse(args)
		var row *core.Score
		var err error
		if *guest != "" {
			row, err = c.SubmitGuestScore(ctx, *table, *guest, *score, *sort, *extra)
		} else {
			row, err = c.SubmitScore(ctx, *table, *score, *sort, *extra)
		}
		if err != nil {
			return err
		}
		fmt.Printf("submitted %q (sort %d)\n", row.Score, row.Sort)
		return nil

	case "rank":
		fs := flag.NewFlagSet("rank", flag.ExitOnError)
		table := fs.Int("table", 0, "score table id (0 = main table)")
		_ = fs.Parse(args)
		rank := c.GlobalRank(ctx, *table)
		if rank < 0 {
			fmt.Println("no rank (not logged in or no score on this table)")
			return nil
		}
		fmt.Printf("global rank: %d\n", rank)
		return nil

	case "trophies":
		fs := flag.NewFlagSet("trophies", flag.ExitOnError)
		filter := fs.String("filter", "all", "all, achieved, or unachieved")
		_ = fs.Parse(args)
		var tf client.TrophyFilter
		switch strings.ToLower(*filter) {
		case "all":
			tf = client.TrophyAll
		case "achieved":
			tf = client.TrophyAchieved
		case "unachieved":
			tf = client.TrophyUnachieved
		default:
			return fmt.Errorf("unknown filter %q", *filter)
		}
		trophies, err := c.FetchTrophies(ctx, tf)
		if err != nil {
			return err
		}
		for _, tr := range trophies {
			mark := " "
			if tr.Achieved.Unlocked {
				mark = "*"
			}
			fmt.Printf("%s #%-5d %-30s %s\n", mark, tr.ID, tr.Title, tr.Difficulty)
		}
		return nil

	case "trophy-add", "trophy-rm":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.Int("id", 0, "trophy id")
		_ = fs.Parse(args)
		var res client.TrophyResult
		var err error
		if cmd == "trophy-add" {
			res, err = c.AchieveTrophy(ctx, *id)
		} else {
			res, err = c.RevokeTrophy(ctx, *id)
		}
		if err != nil {
			return err
		}
		if res == client.TrophyUnchanged {
			fmt.Println("already in that state")
		} else {
			fmt.Println("updated")
		}
		return nil

	case "friends":
		friends, err := c.Friends(ctx)
		if err != nil {
			return err
		}
		for _, f := range friends {
			fmt.Printf("#%-8d %s\n", f.ID, f.Username)
		}
		return nil

	case "events":
		fs := flag.NewFlagSet("events", flag.ExitOnError)
		addr := fs.String("addr", ":8081", "listen address for the event stream")
		interval := fs.Duration("ping", 30*time.Second, "session ping interval")
		_ = fs.Parse(args)
		return serveEvents(ctx, app, *addr, *interval)

	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// serveEvents exposes the realtime hub over WebSocket, for stream overlays
// that render trophy and score popups, and keeps the session alive until
// interrupted.
func serveEvents(ctx context.Context, app *App, addr string, interval time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           websocket.Handler(app.Hub),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		app.Logger.Info("event stream listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Error("event stream server failed", "error", err)
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if err := app.Client.PingSession(ctx); err != nil {
				app.Logger.Warn("session ping failed", "error", err)
			}
		case <-quit:
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
}
