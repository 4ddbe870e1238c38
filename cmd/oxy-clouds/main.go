// Command oxy-clouds runs the procedural cloud pipeline headless: it generates the Worley noise
// textures, keeps the cloud, bounds and light shader parameters in sync every frame, and
// optionally exports the results or accepts remote commands.
//
//	oxy-clouds -config clouds.yaml [-export] [-preview path] [-frames N]
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-clouds/config"
)

func main() {
	configPath := flag.String("config", "", "YAML config file, watched for changes (embedded defaults when empty)")
	export := flag.Bool("export", false, "export the 2D noise texture after the first generation")
	preview := flag.String("preview", "", "write the volume slice contact sheet to this PNG or TIFF file")
	frames := flag.Uint64("frames", 0, "quit after this many frames (0 = config value)")
	flag.Parse()

	if err := run(*configPath, *export, *preview, *frames); err != nil {
		log.Fatalf("[App] %v", err)
	}
}

func run(configPath string, export bool, preview string, frames uint64) error {
	// ── Config ──────────────────────────────────────────────────────────
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// ── Renderer, components, engine ────────────────────────────────────
	a, err := newApp(cfg, frames)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.start(); err != nil {
		return err
	}

	// ── One-shot outputs ────────────────────────────────────────────────
	if export || cfg.Export.OnStart {
		if err := a.exportTexture(); err != nil {
			log.Printf("[App] export failed: %v", err)
		}
	}
	if preview != "" {
		if err := a.writePreview(preview); err != nil {
			log.Printf("[App] preview failed: %v", err)
		}
	}

	// ── Hot reload ──────────────────────────────────────────────────────
	if configPath != "" {
		w, err := config.NewWatcher(configPath, func(c *config.Config) {
			a.engine.RunOnFrame(func() { a.applyConfig(c) })
		})
		if err != nil {
			log.Printf("[App] config hot reload disabled: %v", err)
		} else {
			defer w.Close()
		}
	}

	// ── Signals ─────────────────────────────────────────────────────────
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		<-sig
		log.Printf("[App] interrupted, shutting down")
		a.engine.Quit()
	}()

	a.engine.Run()
	return nil
}
