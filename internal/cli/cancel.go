package cli

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"
)

// runInterruptible runs task with a context that is canceled when a signal
// arrives. The watcher exits as soon as task returns.
func runInterruptible(ctx context.Context, signals <-chan os.Signal, task func(context.Context) error) error {
	group, groupContext := errgroup.WithContext(ctx)
	taskContext, cancelTask := context.WithCancel(groupContext)
	defer cancelTask()
	taskDone := make(chan struct{})

	group.Go(func() error {
		select {
		case <-signals:
			cancelTask()
		case <-taskDone:
		case <-groupContext.Done():
		}
		return nil
	})

	group.Go(func() error {
		defer close(taskDone)
		return task(taskContext)
	})

	return group.Wait()
}
