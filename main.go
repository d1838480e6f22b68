package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NullCarrierNC/photonics-dmx-sub002/color"
	"github.com/NullCarrierNC/photonics-dmx-sub002/config"
	"github.com/NullCarrierNC/photonics-dmx-sub002/cue"
	"github.com/NullCarrierNC/photonics-dmx-sub002/engine"
	"github.com/NullCarrierNC/photonics-dmx-sub002/logging"
	"github.com/NullCarrierNC/photonics-dmx-sub002/metrics"
	"github.com/NullCarrierNC/photonics-dmx-sub002/rhythm"
	"github.com/NullCarrierNC/photonics-dmx-sub002/sink"
	"github.com/NullCarrierNC/photonics-dmx-sub002/transition"
	k8sclock "k8s.io/utils/clock"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional, defaults are used if omitted)")
	flag.Parse()

	log := logging.New(logging.DefaultOptions())

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.WithError(err).Fatal("reading config")
		}
		cfg = loaded
	}

	registry := cue.NewRegistry(demoCues(cfg.FixtureTable().LightIDs()))
	eng := engine.New(cfg, registry, k8sclock.RealClock{}, log)

	now := time.Now()
	metronome := rhythm.NewMetronome(now)
	eng.UseMetronome(metronome, now)

	m := metrics.New()
	eng.UseMetrics(m)
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	if cfg.Sinks.OLAAddr != "" {
		ola, err := sink.NewOLASink(cfg.Sinks.OLAAddr, cfg.Sinks.OLAUniverse)
		if err != nil {
			log.WithError(err).Warn("connecting to OLA, running without DMX output")
		} else {
			eng.Sinks().Enable("ola", ola)
			defer ola.Close()
		}
	}

	var httpServer *http.Server
	if cfg.Sinks.PreviewListen != "" {
		preview := sink.NewPreviewSink(cfg.FixtureTable(), log)
		eng.Sinks().Enable("preview", preview)
		mux.HandleFunc("/preview", preview.Handler)

		httpServer = &http.Server{Addr: cfg.Sinks.PreviewListen, Handler: mux}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("preview/metrics server exited")
			}
		}()
		log.WithField("addr", cfg.Sinks.PreviewListen).Info("serving /preview and /metrics")
	}

	eng.Start()
	log.Info("engine started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := eng.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown did not complete cleanly")
	}
	if httpServer != nil {
		_ = httpServer.Shutdown(ctx)
	}
}

// demoCues returns a minimal default cue group, targeting every light the
// fixture table knows about, so the engine is runnable out of the box
// without a game integration supplying its own cue scripts.
func demoCues(lights []string) map[string]cue.Cue {
	return map[string]cue.Cue{
		"strike":             strikeCue{lights: lights},
		cue.BlackoutSlowKind: blackoutCue{lights: lights},
	}
}

// strikeCue flashes every known light white at layer 1, immediately.
type strikeCue struct {
	lights []string
}

func (c strikeCue) BuildEffect(params map[string]any) (*transition.Effect, error) {
	intensity := uint8(255)
	if v, ok := cue.ScaledParam(params, "intensity", 0, 127); ok {
		intensity = color.ClampByte(int(v * 255))
	}
	return &transition.Effect{
		Name: "strike",
		Transitions: []transition.Transition{
			{
				Layer:  1,
				Lights: c.lights,
				Transform: transition.Transform{
					Target:     color.Sample{Red: intensity, Green: intensity, Blue: intensity, Opacity: 1},
					DurationMs: 50,
					Easing:     "outQuad",
				},
				PostWait: transition.Wait{Kind: transition.WaitDelay, DelayMs: 150},
			},
			{
				Layer:  1,
				Lights: c.lights,
				Transform: transition.Transform{
					Target:     color.Transparent(),
					DurationMs: 200,
					Easing:     "outQuad",
				},
			},
		},
	}, nil
}
func (strikeCue) Discipline() cue.Discipline { return cue.DisciplineAdd }
func (strikeCue) Persistent() bool           { return false }
func (strikeCue) IsStrobe() bool             { return false }
func (strikeCue) OnStop()                    {}
func (strikeCue) OnPause()                   {}
func (strikeCue) OnDestroy()                 {}

// blackoutCue fades every light to black at the protected layer, used both
// for a manual "lights out" cue and as the dispatcher's automatic
// inactivity-timeout fallback.
type blackoutCue struct {
	lights []string
}

func (c blackoutCue) BuildEffect(map[string]any) (*transition.Effect, error) {
	return &transition.Effect{
		Name: "blackout-slow",
		Transitions: []transition.Transition{
			{
				Layer:  500,
				Lights: c.lights,
				Transform: transition.Transform{
					Target:     color.DefaultOpaqueBlack(),
					DurationMs: 2000,
					Easing:     "inOutQuad",
				},
			},
		},
	}, nil
}
func (blackoutCue) Discipline() cue.Discipline { return cue.DisciplineSet }
func (blackoutCue) Persistent() bool           { return true }
func (blackoutCue) IsStrobe() bool             { return false }
func (blackoutCue) OnStop()                    {}
func (blackoutCue) OnPause()                   {}
func (blackoutCue) OnDestroy()                 {}
