package app

import (
	"context"
	"fmt"

	"github.com/vk/shelfimport/internal/ctxlog"
	"github.com/vk/shelfimport/internal/importer"
	"github.com/vk/shelfimport/internal/module"
)

// NoisyTrigger is the only path entry the noisy hook accepts.
const NoisyTrigger = "noisy:trigger"

// noisyHook reports every path entry it is offered and accepts only
// NoisyTrigger.
func noisyHook(ctx context.Context, entry string) (importer.Finder, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Checking noisy finder support.", "path_entry", entry)
	if entry != NoisyTrigger {
		logger.Info("Noisy finder does not work for entry.", "path_entry", entry)
		return nil, fmt.Errorf("%w: %s", importer.ErrNotApplicable, entry)
	}
	return noisyFinder{}, nil
}

// noisyFinder reports every lookup and never finds anything.
type noisyFinder struct{}

func (noisyFinder) Find(ctx context.Context, fullname string) (module.Loader, error) {
	ctxlog.FromContext(ctx).Info("Noisy finder looking for module.", "module", fullname)
	return nil, nil
}

func (noisyFinder) String() string {
	return "<noisy finder>"
}
