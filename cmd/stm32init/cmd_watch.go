// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/initializer"
	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	flags := &initFlags{}
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Re-initialize whenever CMakeLists.txt or the .ioc file changes",
		Long: `Initialize the project, then keep watching the project root.

Every debounced batch of changes to CMakeLists.txt or *.ioc triggers a
new initialization run. Generated files never trigger a run.
Stop with Ctrl+C.`,
		Args: maxOneArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd, args, flags)
		},
	}
	addInitFlags(cmd, flags)
	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, args []string, flags *initFlags) error {
	root, err := projectRootArg(args)
	if err != nil {
		return err
	}
	if err := a.setup(cmd, root, flags.quiet); err != nil {
		return err
	}
	defer a.teardown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := a.logger.Slog()
	initr := a.newInitializer()
	cfg := a.initConfig(root, flags)

	// A run in progress finishes even if a signal arrives; cmake is not
	// interrupted half way through a configure.
	runOnce := func(ctx context.Context) {
		result, err := initr.Init(context.WithoutCancel(ctx), cfg, a.progress(flags))
		_ = a.report(result, err, flags)
	}

	runOnce(ctx)

	w, err := watch.New(root, logger, watch.Options{Debounce: a.cfg.Watch.Debounce})
	if err != nil {
		return &exitError{code: initializer.ExitFailure, err: fmt.Errorf("starting watcher: %w", err)}
	}
	defer w.Close()

	if !flags.quiet && !flags.jsonOutput {
		newPrinter(a.stderr).Step(fmt.Sprintf("Watching %s for CMakeLists.txt and *.ioc changes (Ctrl+C to stop)", root))
	}

	return w.Run(ctx, func(ctx context.Context, changes []watch.Change) {
		for _, change := range changes {
			logger.Info("project file changed", "path", change.Path, "op", change.Op.String())
		}
		runOnce(ctx)
	})
}
