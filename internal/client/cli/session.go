package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dalemusser/clubreviews/internal/client/apiclient"
	"github.com/dalemusser/clubreviews/internal/client/deviceid"
	"github.com/dalemusser/clubreviews/internal/client/localstore"
	"github.com/dalemusser/clubreviews/internal/client/submission"
	"go.uber.org/zap"
)

const storeFile = "reviewctl.db"

// session is the per-command set of open resources.
type session struct {
	API      *apiclient.Client
	Store    *localstore.Store
	Device   *deviceid.Provider
	Protocol *submission.Runner
	log      *zap.Logger
}

func (o *RootOptions) api() *apiclient.Client {
	return apiclient.New(apiclient.Options{
		BaseURL: o.Server,
		Timeout: o.Timeout,
		Logger:  o.Logger(),
	})
}

// openSession opens the local store and resolves the device id. A device id
// that cannot be resolved is not fatal here; the protocol reports NotReady.
func (o *RootOptions) openSession(ctx context.Context) (*session, error) {
	if err := os.MkdirAll(o.DataDir, 0o700); err != nil {
		return nil, WrapExitError(ExitCommandError, "create data dir", err)
	}
	store, err := localstore.Open(filepath.Join(o.DataDir, storeFile))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open local store", err)
	}

	log := o.Logger()
	device := deviceid.New(store)
	if _, err := device.Get(ctx); err != nil {
		log.Warn("device id unavailable", zap.Error(err))
	}

	api := o.api()
	s := &session{API: api, Store: store, Device: device, log: log}
	s.Protocol = &submission.Runner{
		Identity: device,
		Ledger:   api,
		Reviews:  api,
		Receipts: store,
		Timeout:  4 * o.Timeout,
		Log:      log,
		Notify: func(orgID, reviewID string) {
			log.Info("review posted", zap.String("organization_id", orgID), zap.String("review_id", reviewID))
		},
	}
	return s, nil
}

func (s *session) Close() error {
	if err := s.Store.Close(); err != nil {
		return fmt.Errorf("close local store: %w", err)
	}
	return nil
}
