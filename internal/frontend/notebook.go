// SPDX-License-Identifier: MPL-2.0

package frontend

import (
	"context"
	"errors"
	"fmt"

	"github.com/shellplus/shellplus/internal/notebook"
)

// notebookFrontend serves the session over HTTP until ctx is cancelled.
type notebookFrontend struct{}

func init() {
	Register(notebookFrontend{})
}

func (notebookFrontend) Name() Mode { return ModeNotebook }

func (notebookFrontend) Dependency() string { return Dependency(ModeNotebook) }

func (notebookFrontend) Available(Env) error { return nil }

func (notebookFrontend) Launch(ctx context.Context, sess *Session) error {
	srv, err := notebook.New(notebook.Config{
		Addr:      sess.NotebookAddr,
		Namespace: sess.Namespace,
		Logger:    sess.Logger,
	})
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start notebook: %w", err)
	}
	defer func() {
		if err := srv.Stop(); err != nil {
			sess.logger().Warn("notebook shutdown", "err", err)
		}
	}()

	fmt.Fprintf(sess.Env.Stdout, "Notebook running at %s\nPress Ctrl+C to stop.\n", srv.URL())

	select {
	case <-ctx.Done():
		return nil
	case err := <-srv.Err():
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("notebook: %w", err)
	}
}
