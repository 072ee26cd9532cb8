// Command rtrack is a terminal client for the RefactorTrack backend. Each
// invocation restores the session persisted by the previous one.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"refactortrack/internal/shared/apperrors"
	"refactortrack/internal/shared/config"
	"refactortrack/pkg/logger"

	"github.com/joho/godotenv"
)

const usage = `usage: rtrack [flags] <command> [command flags]

commands:
  login         start a session (-email, -password)
  mfa           answer a pending MFA challenge (-code)
  logout        end the session (-force also purges the local read cache)
  whoami        show the signed-in user
  status        show session state
  reset         request or confirm a password reset
  clients       list clients or show one (-id)
  candidates    list candidates (-skills, -status, -location)
  requisitions  list requisitions, show one (-id) or close one (-close)
  dashboard     metrics, hiring performance and skill trends (-days)
`

type command func(ctx context.Context, app *app, args []string) error

var commands = map[string]command{
	"login":        runLogin,
	"mfa":          runMFA,
	"logout":       runLogout,
	"whoami":       runWhoami,
	"status":       runStatus,
	"reset":        runReset,
	"clients":      runClients,
	"candidates":   runCandidates,
	"requisitions": runRequisitions,
	"dashboard":    runDashboard,
}

func main() {
	_ = godotenv.Load()

	var (
		verbose = flag.Bool("v", false, "log SDK activity to stderr")
		asJSON  = flag.Bool("json", false, "print results as JSON")
	)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	run, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.Storage.Driver == "memory" {
		// a memory store would forget the session between invocations
		cfg.Storage.Driver = "file"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level := "error"
	if *verbose {
		level = "debug"
	}
	log := logger.NewWithOptions(logger.Options{Level: level, Format: "text", Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, *asJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rtrack: %v\n", err)
		os.Exit(1)
	}

	err = a.run(ctx, run, flag.Args()[1:])
	a.close()
	if err != nil {
		os.Exit(report(err))
	}
}

// report prints err the way a user should see it and returns the exit code
func report(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 2
	}
	msg, retry := apperrors.UserMessage(err)
	if msg == "" {
		msg = err.Error()
	}
	fmt.Fprintf(os.Stderr, "rtrack: %s\n", msg)
	if retry {
		fmt.Fprintln(os.Stderr, "rtrack: the request may succeed if retried")
	}
	if errors.Is(err, apperrors.ErrNotAuthenticated) || errors.Is(err, apperrors.ErrSessionExpired) {
		fmt.Fprintln(os.Stderr, "rtrack: run `rtrack login` first")
		return 3
	}
	return 1
}
