package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"refactortrack/internal/auth"
	"refactortrack/internal/sdk"
	"refactortrack/internal/shared/config"
	"refactortrack/internal/shared/constants"
	"refactortrack/pkg/logger"
	"refactortrack/pkg/storage"
)

type app struct {
	rt      *sdk.SDK
	log     *logger.Logger
	out     io.Writer
	asJSON  bool
	release func() error
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, asJSON bool) (*app, error) {
	store, release, err := sdk.OpenStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	pub, err := sdk.OpenAudit(cfg, log)
	if err != nil {
		log.WithError(err).Warn("audit trail disabled")
		pub = nil
	}

	rt, err := sdk.New(ctx, cfg, sdk.Deps{Store: store, Logger: log, Audit: pub})
	if err != nil {
		_ = release()
		return nil, err
	}
	return &app{rt: rt, log: log, out: os.Stdout, asJSON: asJSON, release: release}, nil
}

// run executes one command. Every command is a user interaction, so it pushes the
// idle deadline out; with no session the stamp is a no-op.
func (a *app) run(ctx context.Context, cmd command, args []string) error {
	err := cmd(ctx, a, args)
	if aerr := a.rt.Session.RecordActivity(ctx); aerr != nil {
		a.log.WithError(aerr).Warn("activity not recorded")
	}
	return err
}

func (a *app) close() {
	if err := a.rt.Close(); err != nil {
		a.log.WithError(err).Warn("audit publisher did not flush")
	}
	if err := a.release(); err != nil {
		a.log.WithError(err).Warn("storage did not close cleanly")
	}
}

// savePendingMFA keeps the challenge until `rtrack mfa` answers it
func (a *app) savePendingMFA(ctx context.Context, c auth.MFAChallenge) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return a.rt.Store.Set(ctx, constants.STORAGE_KEY_MFA, raw)
}

func (a *app) pendingMFA(ctx context.Context) (*auth.MFAChallenge, error) {
	raw, err := a.rt.Store.Get(ctx, constants.STORAGE_KEY_MFA)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errors.New("no MFA challenge is pending; run `rtrack login` first")
	}
	if err != nil {
		return nil, err
	}
	var c auth.MFAChallenge
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("pending MFA challenge is unreadable: %w", err)
	}
	return &c, nil
}

func (a *app) clearPendingMFA(ctx context.Context) {
	if err := a.rt.Store.Delete(ctx, constants.STORAGE_KEY_MFA); err != nil && !errors.Is(err, storage.ErrNotFound) {
		a.log.WithError(err).Warn("pending MFA challenge not cleared")
	}
}

// emitJSON prints v as indented JSON and reports whether it did
func (a *app) emitJSON(v any) (bool, error) {
	if !a.asJSON {
		return false, nil
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}
