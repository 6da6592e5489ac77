package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"time"

	staticcatalog "metroterminal/internal/adapter/catalog/static"
	"metroterminal/internal/adapter/console"
	"metroterminal/internal/adapter/i18n"
	metricsinmem "metroterminal/internal/adapter/metrics/inmemory"
	"metroterminal/internal/adapter/repo"
	"metroterminal/internal/adapter/scheduler/realtime"
	"metroterminal/internal/app/geiger"
	"metroterminal/internal/app/session"
	"metroterminal/internal/config"
	"metroterminal/internal/domain/metro"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	// Keep library logging out of the game screen unless asked for.
	if os.Getenv("METRO_LOG_LEVEL") == "" {
		hlog.SetLevel(hlog.LevelError)
	} else {
		hlog.SetLevel(cfg.HLogLevel())
	}

	ctx := context.Background()
	backend, err := repo.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("open %s store: %v", cfg.Store, err)
	}
	defer func() { _ = backend.Close() }()

	text, err := i18n.New(cfg.Lang)
	if err != nil {
		log.Fatalf("load messages: %v", err)
	}

	con := console.New(os.Stdout, console.Width(int(os.Stdout.Fd())))
	sched := realtime.New(nil)
	defer sched.Close()

	sess := session.New(session.Deps{
		Store:     backend.Store,
		TxManager: backend.TxManager,
		Catalog:   staticcatalog.Provider{Root: cfg.CatalogRoot},
		Scheduler: sched,
		Notifier:  con,
		Audio:     con,
		Text:      text,
		Metrics:   metricsinmem.NewRecorder(),
	}, cfg.Session())
	sched.SetDispatch(sess.Dispatch)
	if err := sess.Boot(ctx); err != nil {
		hlog.CtxWarnf(ctx, "boot: %v", err)
	}

	if err := run(ctx, os.Stdin, sess, con, time.Now); err != nil {
		log.Fatalf("terminal: %v", err)
	}
}

func run(ctx context.Context, in io.Reader, sess *session.Session, con *console.Console, now func() time.Time) error {
	con.Render(sess.Snapshot())
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd, err := console.Parse(scanner.Text())
		if err != nil {
			con.Status(err.Error())
			continue
		}
		if cmd.Kind == console.CommandQuit {
			return nil
		}
		if err := execute(ctx, sess, con, cmd, now); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func execute(ctx context.Context, sess *session.Session, con *console.Console, cmd console.Command, now func() time.Time) error {
	var err error
	switch cmd.Kind {
	case console.CommandInput:
		_, err = sess.Submit(ctx, cmd.Text)
	case console.CommandToggle:
		err = sess.Toggle(ctx, cmd.Tool)
	case console.CommandReplace:
		err = sess.ReplaceResource(ctx, cmd.Tool)
	case console.CommandPosition:
		_, err = sess.Position(ctx, geiger.Fix{
			Latitude:  cmd.Latitude,
			Longitude: cmd.Longitude,
			Accuracy:  cmd.Accuracy,
			At:        now(),
		})
	case console.CommandDistance:
		sess.Sample(ctx, cmd.Distance)
	case console.CommandState:
		con.Render(sess.Snapshot())
	case console.CommandRadio:
		con.Render(session.Snapshot{History: sess.Messages()})
	case console.CommandReplay:
		err = sess.Replay(ctx, cmd.Index)
	case console.CommandResetExposure:
		sess.ResetExposure(ctx)
	case console.CommandHelp:
		con.Help()
	}
	if err == nil || isGameOutcome(err) {
		return nil
	}
	// Store failures are reported but never end the session.
	con.Status(err.Error())
	return nil
}

// isGameOutcome reports errors the session already turned into a status.
func isGameOutcome(err error) bool {
	for _, target := range []error{
		metro.ErrUnknownCode, metro.ErrAlreadyUsed, metro.ErrUnknownKind,
		metro.ErrOverlayBusy, metro.ErrNeedsReplacement, metro.ErrInsufficientResource,
		metro.ErrSensorFailure,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
