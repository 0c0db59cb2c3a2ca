// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/qrlogin/lib/clock"
	"github.com/bureau-foundation/qrlogin/lib/config"
	"github.com/bureau-foundation/qrlogin/lib/handshake"
	"github.com/bureau-foundation/qrlogin/lib/logging"
	"github.com/bureau-foundation/qrlogin/lib/loginstate"
	"github.com/bureau-foundation/qrlogin/lib/poller"
	"github.com/bureau-foundation/qrlogin/lib/process"
	"github.com/bureau-foundation/qrlogin/lib/qrimage"
	"github.com/bureau-foundation/qrlogin/lib/termview"
	"github.com/bureau-foundation/qrlogin/lib/version"
	"github.com/bureau-foundation/qrlogin/lib/webui"
	"github.com/bureau-foundation/qrlogin/messaging"
)

const binaryName = "bureau-qrlogin"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Environ())
	stop()
	os.Exit(process.Report(os.Stderr, err))
}

// options holds the parsed command line.
type options struct {
	configPath   string
	envFile      string
	listen       string
	homeserver   string
	botMarker    string
	interval     time.Duration
	fetchFailure string
	terminal     string
	logFormat    string
	logLevel     string
	logFile      string
	showVersion  bool
	help         bool
}

func newFlagSet(opts *options) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "YAML or JSONC configuration file")
	flagSet.StringVar(&opts.envFile, "env-file", "", "dotenv file supplying "+config.EnvAccessToken+" and "+config.EnvRoomID)
	flagSet.StringVar(&opts.listen, "listen", "", "address for the login page (default 0.0.0.0:5000)")
	flagSet.StringVar(&opts.homeserver, "homeserver", "", "Matrix homeserver base URL (default http://localhost:8008)")
	flagSet.StringVar(&opts.botMarker, "bot-marker", "", "substring identifying the bridge bot's user ID (default @whatsappbot)")
	flagSet.DurationVar(&opts.interval, "interval", 0, "time between polls (default 2s)")
	flagSet.StringVar(&opts.fetchFailure, "fetch-failure", "", "on a failed poll: tick (log and continue) or fatal (exit)")
	flagSet.StringVar(&opts.terminal, "terminal", "", "print status and QR code to the terminal: auto, always, or never")
	flagSet.StringVar(&opts.logFormat, "log-format", "", "log format: auto, text, or json")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, or error")
	flagSet.StringVar(&opts.logFile, "log-file", "", "also write JSON logs to this file, rotated by size")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")
	return flagSet
}

// applyFlags overlays explicitly set flags onto cfg.
func applyFlags(cfg *config.Config, flagSet *pflag.FlagSet, opts *options) {
	if flagSet.Changed("listen") {
		cfg.HTTP.Listen = opts.listen
	}
	if flagSet.Changed("homeserver") {
		cfg.Matrix.Homeserver = opts.homeserver
	}
	if flagSet.Changed("bot-marker") {
		cfg.Handshake.BotMarker = opts.botMarker
	}
	if flagSet.Changed("interval") {
		cfg.Poll.Interval = opts.interval
	}
	if flagSet.Changed("fetch-failure") {
		cfg.Poll.FetchFailure = opts.fetchFailure
	}
	if flagSet.Changed("terminal") {
		cfg.Terminal = opts.terminal
	}
	if flagSet.Changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flagSet.Changed("log-file") {
		cfg.Log.File = opts.logFile
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, environ []string) error {
	var opts options
	flagSet := newFlagSet(&opts)
	flagSet.SetOutput(io.Discard)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stdout, flagSet)
			return nil
		}
		printHelp(stderr, flagSet)
		return &startupError{err: err}
	}
	if opts.help {
		printHelp(stdout, flagSet)
		return nil
	}
	if opts.showVersion {
		version.Print(stdout, binaryName)
		return nil
	}

	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return &startupError{err: err}
	}
	applyFlags(cfg, flagSet, &opts)
	if err := cfg.Validate(); err != nil {
		return startupErrorf("invalid configuration:\n%w", err)
	}
	instructions, err := cfg.Instructions()
	if err != nil {
		return &startupError{err: err}
	}

	credentials, err := config.ResolveCredentials(flagSet.Args(), opts.envFile, environ)
	if err != nil {
		fmt.Fprintf(stderr, "usage: %s [flags] <access-token> <room-id>\n", binaryName)
		return &startupError{err: err}
	}

	logger, logCloser, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return &startupError{err: err}
	}
	defer logCloser.Close()

	instance := uuid.NewString()
	logger = logger.With("instance", instance)

	return serve(ctx, cfg, credentials, instructions, instance, stderr, logger)
}

// serve wires the components and runs until the login completes, ctx
// is cancelled, or a component fails.
func serve(ctx context.Context, cfg *config.Config, credentials config.Credentials, instructions, instance string, stderr io.Writer, logger *slog.Logger) error {
	placement, _ := messaging.ParseTokenPlacement(cfg.Matrix.TokenPlacement)
	failurePolicy, _ := poller.ParseFailurePolicy(cfg.Poll.FetchFailure)
	terminalMode, _ := termview.ParseMode(cfg.Terminal)

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Matrix.Homeserver,
		APIPrefix:     cfg.Matrix.APIPrefix,
		HTTPClient:    &http.Client{Timeout: cfg.Poll.FetchTimeout},
		Logger:        logger,
	})
	if err != nil {
		return &startupError{err: err}
	}
	session, err := client.SessionFromToken(credentials.AccessToken, placement)
	if err != nil {
		return &startupError{err: err}
	}
	defer session.Close()

	logger = logger.With("room_id", credentials.RoomID.String())
	logger.Info("starting",
		"version", version.Info(),
		"homeserver", cfg.Matrix.Homeserver,
		"token", session.TokenHint(),
	)
	checkToken(ctx, session, cfg.Poll.FetchTimeout, logger)

	timeline, err := messaging.NewTimeline(messaging.TimelineConfig{
		Session: session,
		RoomID:  credentials.RoomID,
		Limit:   cfg.Matrix.TimelineLimit,
	})
	if err != nil {
		return &startupError{err: err}
	}

	store := loginstate.NewStore(clock.Real())
	scheduler := poller.New(poller.Config{
		Fetcher: timeline,
		Store:   store,
		Interpreter: handshake.Interpreter{
			BotMarker:     cfg.Handshake.BotMarker,
			LoginPhrase:   cfg.Handshake.LoginPhrase,
			TimeoutPhrase: cfg.Handshake.TimeoutPhrase,
		},
		RoomID:        timeline.RoomID(),
		Interval:      cfg.Poll.Interval,
		FetchTimeout:  cfg.Poll.FetchTimeout,
		FailurePolicy: failurePolicy,
		Clock:         clock.Real(),
		Logger:        logger.With("component", "poller"),
	})

	// The first poll completes before the page is served.
	if err := scheduler.Prime(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	renderer := qrimage.NewEncoder(cfg.HTTP.QRSize)
	handler, err := webui.NewHandler(webui.Config{
		Store:        store,
		Renderer:     renderer,
		QRSize:       cfg.HTTP.QRSize,
		Instance:     instance,
		Build:        version.Version,
		PollInterval: cfg.Poll.Interval,
		Instructions: instructions,
		Logger:       logger.With("component", "webui"),
	})
	if err != nil {
		return err
	}
	server := webui.NewServer(webui.ServerConfig{
		Address:         cfg.HTTP.Listen,
		Handler:         handler,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		Logger:          logger.With("component", "http"),
	})

	serveCtx, cancelServe := context.WithCancel(ctx)
	defer cancelServe()
	serveDone := make(chan error, 1)
	go func() { serveDone <- server.Serve(serveCtx) }()

	select {
	case <-server.Ready():
	case err := <-serveDone:
		return err
	}
	pageAddress := pageURL(server.Addr())
	logger.Info("login page ready", "url", pageAddress)

	var background sync.WaitGroup
	defer background.Wait()

	stderrFile, _ := stderr.(*os.File)
	if termview.Enabled(terminalMode, stderrFile) {
		profile := termenv.Ascii
		if stderrFile != nil {
			profile = termenv.NewOutput(stderrFile).EnvColorProfile()
		}
		view := termview.New(termview.Config{
			Store:    store,
			Renderer: renderer,
			Output:   stderr,
			Profile:  profile,
			URL:      pageAddress,
			Logger:   logger.With("component", "termview"),
		})
		background.Add(1)
		go func() {
			defer background.Done()
			if err := view.Run(serveCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("terminal view stopped", "error", err)
			}
		}()
	}

	pollCtx, cancelPoll := context.WithCancel(ctx)
	defer cancelPoll()
	pollDone := make(chan error, 1)
	go func() { pollDone <- scheduler.Run(pollCtx) }()

	select {
	case err := <-pollDone:
		cancelServe()
		serveErr := <-serveDone
		switch {
		case err == nil:
			logger.Info("login complete, exiting")
			return serveErr
		case ctx.Err() != nil:
			logger.Info("interrupted, exiting")
			return serveErr
		default:
			return err
		}
	case err := <-serveDone:
		cancelPoll()
		<-pollDone
		if err != nil {
			return err
		}
		return nil
	}
}

// checkToken resolves the token's owner for the log. A failure is
// only a warning: polling reports the same problem on every tick.
func checkToken(ctx context.Context, session *messaging.Session, timeout time.Duration, logger *slog.Logger) {
	whoamiCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	userID, err := session.WhoAmI(whoamiCtx)
	if err != nil {
		logger.Warn("cannot verify access token", "error", err)
		return
	}
	logger.Info("authenticated", "user_id", userID.String())
}

// pageURL turns the bound address into something a browser on the
// same host can open.
func pageURL(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "http://" + addr.String() + "/"
	}
	host := tcp.IP.String()
	if tcp.IP == nil || tcp.IP.IsUnspecified() {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s/", net.JoinHostPort(host, fmt.Sprint(tcp.Port)))
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `%s serves a page for linking a chat bridge by QR code.

It polls the bridge's management room with the given access token,
shows the bot's latest QR code at / and /qrcode, reports the login
status at /auth_status, and exits once the bot confirms the login.

Usage:
  %s [flags] <access-token> <room-id>

Either argument may come from the environment instead:
  %s, %s

Examples:
  # Bridge bot on the local homeserver, page on port 5000
  %s syt_YnJpZGdl_... '!AbCdEf:example.org'

  # Credentials from a dotenv file, config from YAML
  %s --env-file /etc/qrlogin.env --config /etc/qrlogin.yaml

Flags:
`, binaryName, binaryName, config.EnvAccessToken, config.EnvRoomID, binaryName, binaryName)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
	flagSet.SetOutput(io.Discard)
}
