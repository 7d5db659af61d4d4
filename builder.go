package spacetravelling

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// BuildReport summarizes a static build.
type BuildReport struct {
	Paths    []string
	Pruned   []string
	Duration time.Duration
}

// Build pre-renders the listing, the first PathsPageSize post pages, the feed
// and the sitemap into the page store. Any CMS failure aborts the build. Post
// snapshots left over from earlier builds or requests are then dropped, so
// posts removed from the CMS stop being served.
func (a *App) Build(ctx context.Context) (BuildReport, error) {
	if err := a.Init(); err != nil {
		return BuildReport{}, err
	}
	start := time.Now()

	uids, err := a.Service.PostPaths(ctx)
	if err != nil {
		return BuildReport{}, err
	}
	paths := make([]string, 0, len(uids)+3)
	paths = append(paths, "/")
	for _, uid := range uids {
		paths = append(paths, PostPath(uid))
	}
	paths = append(paths, feedPath, sitemapPath)

	for _, p := range paths {
		if _, err := a.Cache.Generate(ctx, p); err != nil {
			return BuildReport{}, fmt.Errorf("build %s: %w", p, err)
		}
		a.Echo.Logger.Infof("generated %s", p)
	}

	pruned, err := a.prune(paths)
	if err != nil {
		return BuildReport{}, fmt.Errorf("prune snapshots: %w", err)
	}
	return BuildReport{Paths: paths, Pruned: pruned, Duration: time.Since(start)}, nil
}

// prune invalidates every stored post snapshot whose path is not in keep.
func (a *App) prune(keep []string) ([]string, error) {
	pages, err := a.Store.ListPages()
	if err != nil {
		return nil, err
	}
	var pruned []string
	for _, p := range pages {
		if _, ok := postUID(p.Path); !ok || slices.Contains(keep, p.Path) {
			continue
		}
		if err := a.Cache.Invalidate(p.Path); err != nil {
			return pruned, err
		}
		a.Echo.Logger.Infof("pruned %s", p.Path)
		pruned = append(pruned, p.Path)
	}
	return pruned, nil
}
