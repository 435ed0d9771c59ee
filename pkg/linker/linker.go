package linker

import (
	"context"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/modlink/pkg/errors"
	"github.com/arthur-debert/modlink/pkg/logging"
	"github.com/arthur-debert/modlink/pkg/types"
)

// DefaultConcurrency bounds in-flight filesystem operations so a
// large tree does not exhaust file descriptors.
const DefaultConcurrency = 16

// Options configures a Linker.
type Options struct {
	// Force relinks every package even when the idempotence check
	// says the target is current.
	Force bool

	// BinDir receives the root-level bin links. Empty means
	// <baseModules>/.bin; a global install points this at the global
	// bin directory.
	BinDir string

	// Concurrency caps parallel filesystem operations per phase.
	// Zero means DefaultConcurrency.
	Concurrency int
}

// Stats reports what a Link run did.
type Stats struct {
	// Hardlinked counts targets whose content was (re)linked from
	// the store.
	Hardlinked int
	// Skipped counts targets found already correctly linked.
	Skipped int
}

// Linker performs the filesystem side effects for a resolved tree.
// The concurrency bound is owned by the Linker, not shared process
// state.
type Linker struct {
	fs     types.FS
	opts   Options
	logger zerolog.Logger

	hardlinked atomic.Int64
	skipped    atomic.Int64
}

// New creates a Linker operating through fs.
func New(fs types.FS, opts Options) *Linker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Linker{
		fs:     fs,
		opts:   opts,
		logger: logging.GetLogger("linker"),
	}
}

// Link realizes the resolved tree under baseModules. Phases run
// strictly in order; failures abort the run without rollback, and a
// rerun is safe because already-linked targets are skipped.
func (l *Linker) Link(ctx context.Context, resolved map[string]*types.ResolvedNode, baseModules string) (Stats, error) {
	defer logging.LogOperationStart(l.logger, "link")()

	l.hardlinked.Store(0)
	l.skipped.Store(0)

	if err := l.hardlinkPhase(ctx, resolved); err != nil {
		return l.stats(), err
	}
	if err := l.childSymlinkPhase(ctx, resolved); err != nil {
		return l.stats(), err
	}
	if err := l.peerSymlinkPhase(ctx, resolved); err != nil {
		return l.stats(), err
	}
	if err := l.rootSymlinkPhase(ctx, resolved, baseModules); err != nil {
		return l.stats(), err
	}
	if err := l.rootBinPhase(ctx, baseModules); err != nil {
		return l.stats(), err
	}
	return l.stats(), nil
}

func (l *Linker) stats() Stats {
	return Stats{
		Hardlinked: int(l.hardlinked.Load()),
		Skipped:    int(l.skipped.Load()),
	}
}

// hardlinkPhase links store content into each unique hardlink target.
// Nodes sharing both target and store path collapse to one job, so no
// two tasks ever touch the same physical path.
func (l *Linker) hardlinkPhase(ctx context.Context, resolved map[string]*types.ResolvedNode) error {
	targets := make(map[string]*types.ResolvedNode, len(resolved))
	keypaths := sortedKeys(resolved)
	for _, keypath := range keypaths {
		node := resolved[keypath]
		if prev, ok := targets[node.HardlinkedLocation]; ok {
			if prev.StorePath != node.StorePath {
				l.logger.Warn().
					Str("target", node.HardlinkedLocation).
					Str("store", node.StorePath).
					Str("conflicting", prev.StorePath).
					Msg("two store paths claim the same hardlink target, keeping the first")
			}
			continue
		}
		targets[node.HardlinkedLocation] = node
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for _, target := range sortedKeys(targets) {
		node := targets[target]
		g.Go(func() error {
			return l.linkPackage(gctx, node)
		})
	}
	return g.Wait()
}

// linkPackage waits for the node's content and hardlinks it into the
// target unless the target is already current.
func (l *Linker) linkPackage(ctx context.Context, node *types.ResolvedNode) error {
	fresh := false
	if node.Fetching != nil {
		var err error
		fresh, err = node.Fetching.Wait(ctx)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFetchFailed,
				"content for %s never became ready", node.ID)
		}
	}

	relink := fresh || l.opts.Force
	if !relink {
		stale, err := l.isStale(node)
		if err != nil {
			return err
		}
		if stale {
			relink = true
			l.logger.Info().
				Str("pkg", node.ID).
				Str("target", node.HardlinkedLocation).
				Msg("target manifest out of date, relinking")
		}
	}

	if !relink {
		l.skipped.Add(1)
		l.logger.Debug().
			Str("pkg", node.ID).
			Str("target", node.HardlinkedLocation).
			Msg("already linked")
		return nil
	}

	if err := l.hardlinkDir(node.StorePath, node.HardlinkedLocation); err != nil {
		return err
	}
	l.hardlinked.Add(1)
	return nil
}

// isStale reports whether the target's manifest is missing or is not
// the same physical file as the store's manifest. That inode identity
// is the sole idempotence marker.
func (l *Linker) isStale(node *types.ResolvedNode) (bool, error) {
	targetManifest := filepath.Join(node.HardlinkedLocation, "package.json")
	targetInfo, err := l.fs.Stat(targetManifest)
	if err != nil {
		return true, nil
	}
	storeManifest := filepath.Join(node.StorePath, "package.json")
	storeInfo, err := l.fs.Stat(storeManifest)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileAccess,
			"cannot stat store manifest for %s", node.ID)
	}
	return !l.fs.SameFile(targetInfo, storeInfo), nil
}

// childSymlinkPhase points each unique module directory's child names
// at the children's hardlink targets. Runs only after every target is
// populated so links never dangle.
func (l *Linker) childSymlinkPhase(ctx context.Context, resolved map[string]*types.ResolvedNode) error {
	modules := make(map[string]*types.ResolvedNode, len(resolved))
	for _, keypath := range sortedKeys(resolved) {
		node := resolved[keypath]
		if _, ok := modules[node.ModulesDir()]; !ok {
			modules[node.ModulesDir()] = node
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for _, dir := range sortedKeys(modules) {
		dir := dir
		node := modules[dir]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for _, childKeypath := range node.ChildKeypathIDs {
				child := resolved[childKeypath]
				if child == nil {
					continue
				}
				if err := l.symlink(child.HardlinkedLocation, filepath.Join(dir, child.Name)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// peerSymlinkPhase fills each node's peer-shadow directory and links
// its bin scripts. Dedup here is by occurrence, not target: peer sets
// differ per keypath.
func (l *Linker) peerSymlinkPhase(ctx context.Context, resolved map[string]*types.ResolvedNode) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for _, keypath := range sortedKeys(resolved) {
		node := resolved[keypath]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if node.PeerModules != "" {
				for _, peerKeypath := range node.ResolvedPeerIDs {
					peer := resolved[peerKeypath]
					if peer == nil {
						continue
					}
					if err := l.symlink(peer.HardlinkedLocation, filepath.Join(node.PeerModules, peer.Name)); err != nil {
						return err
					}
				}
			}
			return l.linkNodeBins(node)
		})
	}
	return g.Wait()
}

// rootSymlinkPhase exposes every root-depth node under the project's
// module directory.
func (l *Linker) rootSymlinkPhase(ctx context.Context, resolved map[string]*types.ResolvedNode, baseModules string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for _, keypath := range sortedKeys(resolved) {
		node := resolved[keypath]
		if node.Depth != 0 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return l.symlink(node.HardlinkedLocation, filepath.Join(baseModules, node.Name))
		})
	}
	return g.Wait()
}

// rootBinPhase links the bins of packages sitting directly under the
// base module directory into the project (or global) bin directory.
// Transitive dependencies expose theirs through their parents' .bin
// in the peer phase.
func (l *Linker) rootBinPhase(ctx context.Context, baseModules string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	binDir := l.opts.BinDir
	if binDir == "" {
		binDir = filepath.Join(baseModules, ".bin")
	}
	return l.linkBinsOfModules(baseModules, binDir)
}

// symlink creates newname pointing at target, replacing an existing
// link that points elsewhere and leaving a correct one alone.
func (l *Linker) symlink(target, newname string) error {
	if current, err := l.fs.Readlink(newname); err == nil {
		if current == target {
			return nil
		}
		if err := l.fs.Remove(newname); err != nil {
			return errors.Wrapf(err, errors.ErrSymlinkCreate,
				"cannot replace existing link %s", newname)
		}
	}

	if err := l.fs.MkdirAll(filepath.Dir(newname), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate,
			"cannot create parent directory for %s", newname)
	}
	if err := l.fs.Symlink(target, newname); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkCreate,
			"cannot link %s -> %s", newname, target)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
