// Command tilebench exercises the tile cache and scheduler end to end
// with a synthetic renderer: it walks a scripted viewport over a fake
// document, loads every page progressively through a worker pool, and
// reports cache and scheduler statistics. A prometheus endpoint exposes
// the same counters while the walk runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apotenza92/butterpaper/blob"
	"github.com/apotenza92/butterpaper/cache"
	"github.com/apotenza92/butterpaper/gputex"
	"github.com/apotenza92/butterpaper/loader"
	"github.com/apotenza92/butterpaper/metrics"
	"github.com/apotenza92/butterpaper/sched"
	"github.com/apotenza92/butterpaper/tile"
)

func main() {
	var (
		workers = flag.Int("workers", 4, "render worker count")
		pages   = flag.Int("pages", 16, "synthetic document page count")
		ramMB   = flag.Int("ram-mb", 128, "RAM tier budget in MB")
		gpuMB   = flag.Int("gpu-mb", 64, "GPU tier budget in MB")
		diskMB  = flag.Int("disk-mb", 512, "disk tier budget in MB")
		diskDir = flag.String("disk-dir", "", "disk tier directory (temp dir when empty)")
		addr    = flag.String("addr", "", "prometheus listen address (disabled when empty)")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *verbose {
		l := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		cache.SetLogger(l)
		sched.SetLogger(l)
	}

	dir := *diskDir
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "tilebench-*")
		if err != nil {
			log.Fatalf("temp dir: %v", err)
		}
		defer os.RemoveAll(dir)
	}
	store, err := blob.NewFSStore(dir)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	defer store.Close()

	doc := loader.Document{
		Fingerprint: uuid.NewString(),
		PageCount:   *pages,
		PageWidth:   1224,
		PageHeight:  1584,
	}

	ram := cache.NewRAM(*ramMB)
	gpu := cache.NewGPU(*gpuMB)
	alloc := gputex.NewNullAllocator()
	disk := cache.NewDisk(store, cache.DiskConfig{
		LimitMB:   *diskMB,
		Namespace: doc.Fingerprint,
	})
	defer disk.Close()

	// Tiles squeezed out of RAM spill to disk.
	ram.OnEvict(func(id tile.ID, r *tile.Rendered) {
		if id.Profile == tile.ProfileCrisp {
			disk.Insert(id, r.Pixels.Pix)
		}
	})

	totalBudget := ram.LimitBytes() + gpu.LimitBytes()
	preview := cache.NewPreview(totalBudget)
	monitor := cache.NewMonitor(cache.MonitorConfig{LimitBytes: totalBudget}, ram, gpu)

	scheduler := sched.NewScheduler()
	registry := sched.NewRegistry()

	ld, err := loader.New(loader.Config{
		Renderer: syntheticRenderer{},
		RAM:      ram,
		Callback: func(id tile.ID, state loader.State, r *tile.Rendered) {
			if state != loader.StateCrispLoaded {
				return
			}
			// Upload finished tiles so the GPU tier sees real churn.
			if tex, err := gputex.FromImage(alloc, r.Pixels, id.String()); err == nil {
				gpu.Insert(id, tex)
			}
			// Keep a cheap whole-page stand-in around for scroll flashes.
			if id.Col == 0 && id.Row == 0 && !preview.Contains(doc.Fingerprint, id.Page) {
				small := loader.Downscale(r.Pixels, 64, 64)
				preview.Insert(doc.Fingerprint, id.Page, &tile.Rendered{ID: id.Base(), Pixels: small})
			}
			if monitor.NeedsEviction() {
				ram.EvictToBudget(ram.LimitBytes() / 2)
			}
		},
	})
	if err != nil {
		log.Fatalf("loader: %v", err)
	}

	if *addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			metrics.NewSchedulerCollector(scheduler),
			metrics.NewTierCollector("ram", ram.Stats),
			metrics.NewTierCollector("gpu", gpu.Stats),
			metrics.NewTierCollector("disk", disk.Stats),
			metrics.NewTierCollector("preview", preview.Stats),
			metrics.NewMonitorCollector(monitor),
		)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*addr, mux); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
		log.Printf("metrics at http://%s/metrics", *addr)
	}

	ctx := context.Background()
	pool := sched.NewPool(scheduler, registry, *workers, func(job sched.Job, tok sched.Token) {
		if err := ld.HandleJob(ctx, doc, job, tok); err != nil {
			log.Printf("job %d: %v", job.ID, err)
		}
	})
	pool.Start()

	// Scripted viewport walk: enqueue each page as Visible, demote the
	// previous page's leftovers by cancelling them, and queue a
	// thumbnail per page behind the tiles.
	for page := 0; page < doc.PageCount; page++ {
		if page > 0 {
			scheduler.CancelPageJobs(page - 1)
		}
		if _, err := ld.EnqueuePageTiles(scheduler, doc, page, 0, 0, sched.PriorityVisible); err != nil {
			log.Fatalf("enqueue page %d: %v", page, err)
		}
		scheduler.Submit(sched.PriorityThumbnails, sched.GenerateThumbnail{Page: page, Width: 128, Height: 128})
	}

	waitIdle(scheduler)
	pool.Stop()

	fmt.Printf("scheduler: %+v\n", scheduler.Stats())
	fmt.Printf("ram:       %+v\n", ram.Stats())
	fmt.Printf("gpu:       %+v\n", gpu.Stats())
	fmt.Printf("disk:      %+v\n", disk.Stats())
	fmt.Printf("preview:   %+v\n", preview.Stats())
	fmt.Printf("budget:    %s\n", monitor.Stats())
}

// waitIdle blocks until the scheduler has no pending work. Polling keeps
// the demo simple; the walk is short-lived.
func waitIdle(s *sched.Scheduler) {
	for s.Stats().Pending() > 0 {
		time.Sleep(10 * time.Millisecond)
	}
}

// syntheticRenderer produces procedural pixels so the benchmark needs no
// document backend.
type syntheticRenderer struct {
	loader.GridRenderer
}

func (syntheticRenderer) RenderTile(ctx context.Context, doc loader.Document, id tile.ID) (*tile.Rendered, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := id.PixelRect(doc.PageWidth, doc.PageHeight)
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		w, h = tile.Edge, tile.Edge
	}
	if id.Profile == tile.ProfilePreview {
		w, h = w/4, h/4
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x + id.Col*31) % 256),
				G: uint8((y + id.Row*57) % 256),
				B: uint8((id.Page * 13) % 256),
				A: 255,
			})
		}
	}
	return &tile.Rendered{ID: id, Pixels: img}, nil
}
