// Homehub - smart home sensor daemon for Raspberry Pi
//
// Polls the water level, rain and smoke sensors, streams camera frames
// to the ML inference server, and serves the dashboard API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"periph.io/x/host/v3"

	"github.com/shs-system/go-homehub/internal/config"
	"github.com/shs-system/go-homehub/internal/log"
	"github.com/shs-system/go-homehub/pkg/camera"
	"github.com/shs-system/go-homehub/pkg/mlbridge"
	"github.com/shs-system/go-homehub/pkg/sensor"
	"github.com/shs-system/go-homehub/pkg/waterlevel"
	"github.com/shs-system/go-homehub/pkg/web"
)

func main() {
	envFile := flag.String("env", ".env", "Env file to load (optional)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	noCamera := flag.Bool("no-camera", false, "Disable camera capture and ML bridge")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	if *noCamera {
		cfg.CameraEnabled = false
	}
	log.Init(cfg.LogLevel)

	fmt.Println("🏠 Homehub")
	fmt.Printf("   Port: %s\n", cfg.Port)
	fmt.Printf("   Camera: %v\n", cfg.CameraEnabled)
	fmt.Println()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n👋 Shutting down...")
		cancel()
	}()

	// GPIO host drivers; fails off the Pi, which just means the GPIO
	// sensors won't open below
	if _, err := host.Init(); err != nil {
		log.Warn("gpio host init failed, gpio sensors unavailable", "error", err)
	}

	sup := sensor.NewSupervisor()

	cameraMgr := camera.NewManager()
	camCfg := camera.Config{
		Width:      cfg.CameraWidth,
		Height:     cfg.CameraHeight,
		Quality:    cfg.CameraQuality,
		IntervalMs: int(cfg.FrameInterval.Milliseconds()),
	}
	if err := cameraMgr.SetConfig(camCfg); err != nil {
		log.Warn("camera settings rejected, keeping defaults", "error", err)
	}

	// Camera pipeline
	var (
		ml      *mlbridge.Client
		capture *camera.Capture
	)
	var opts []web.Option
	if cfg.CameraEnabled {
		ml = mlbridge.NewClient(cfg.MLServerURL)
		capture = camera.NewCapture(cfg.CameraIndex, cameraMgr)
		opts = append(opts,
			web.WithMLStats(ml.GetStats),
			web.WithCameraRunning(capture.Running),
		)
	}

	server := web.NewServer(cfg.Port, sup, cameraMgr, opts...)

	// Sensors; a failed open disables that sensor, the rest keep going
	if ws, err := waterlevel.Open(cfg.SerialDevice, cfg.SerialBaud, cfg.WaterThreshold); err != nil {
		log.Warn("water level sensor unavailable", "device", cfg.SerialDevice, "error", err)
	} else {
		sup.Add(ws, cfg.PollInterval, server)
	}

	if rs, err := sensor.OpenRainSensor(cfg.RainPin); err != nil {
		log.Warn("rain sensor unavailable", "pin", cfg.RainPin, "error", err)
	} else {
		sup.Add(rs, cfg.PollInterval, server)
	}

	if ss, err := sensor.OpenSmokeSensor(cfg.SmokePin); err != nil {
		log.Warn("smoke sensor unavailable", "pin", cfg.SmokePin, "error", err)
	} else {
		sup.Add(ss, cfg.PollInterval, server)
	}

	sup.StartAll()
	fmt.Printf("📊 Monitoring %d sensors\n", sup.Count())

	if cfg.CameraEnabled {
		if err := ml.HealthCheck(ctx); err != nil {
			log.Warn("ml server health check failed", "url", cfg.MLServerURL, "error", err)
		}

		ml.SetOnProcessedFrame(server.PublishProcessedFrame)
		go ml.Run(ctx)

		capture.SetOnFrame(func(f camera.Frame) {
			server.PublishFrame(f.JPEG)
			if err := ml.SendFrame(f); err != nil {
				log.Error("send frame to ml server", "frame_id", f.ID, "error", err)
			}
		})
		if err := capture.Start(); err != nil {
			log.Warn("camera unavailable", "index", cfg.CameraIndex, "error", err)
		} else {
			fmt.Println("📷 Camera streaming")
		}
	}

	server.StartAsync()
	fmt.Printf("🌐 API: http://localhost:%s\n", cfg.Port)

	<-ctx.Done()

	// Teardown in reverse order
	if capture != nil {
		capture.Stop()
	}
	sup.StopAll()
	if err := server.Shutdown(); err != nil {
		log.Error("server shutdown", "error", err)
	}

	fmt.Println("👋 Goodbye!")
}
