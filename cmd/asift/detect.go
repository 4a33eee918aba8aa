//go:build !purego

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"asift/internal/asift"
	"asift/internal/config"
	"asift/internal/imageio"
	"asift/internal/keypoint"
	"asift/internal/overlay"
	"asift/internal/report"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"
)

var detectCmd = &cobra.Command{
	Use:   "detect IMAGE...",
	Short: "Detect keypoints in one or more images",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDetect,
}

func init() {
	f := detectCmd.Flags()
	f.IntVarP(&flags.Tilts, "tilts", "t", 0, "number of tilt levels (default 5)")
	f.IntVarP(&flags.Workers, "workers", "w", 0, "concurrent simulations (default: number of CPUs)")
	f.Bool("high-resolution", false, "double each simulated image before detection")
	f.Bool("colour", false, "describe keypoints on each colour channel")
	f.StringVarP(&flags.OutputDir, "output", "o", "", "output directory (default .)")
	f.StringSliceVarP(&flags.Formats, "format", "f", nil, "outputs: keys, csv, overlay, report (default keys)")
	f.StringVar(&flags.OverlayFormat, "overlay-format", "", "overlay image format: png, jpg, webp (default png)")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	engineCfg := cfg.Engine().WithLogger(logrus.StandardLogger())
	var engine *asift.Engine[gocv.Mat]
	if cfg.Colour {
		engine, err = asift.NewColourEngine(engineCfg, cfg.Detector)
	} else {
		engine, err = asift.NewGrayEngine(engineCfg, cfg.Detector)
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed := 0
	for _, path := range args {
		if err := detectOne(ctx, engine, cfg, path); err != nil {
			if ctx.Err() != nil {
				return err
			}
			logrus.WithError(err).WithField("image", path).Error("detection failed")
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(args))
	}
	return nil
}

func detectOne(ctx context.Context, engine *asift.Engine[gocv.Mat], cfg config.Config, path string) error {
	img, err := imageio.Load(path)
	if err != nil {
		return err
	}
	mat, err := imageio.ToMat(img)
	if err != nil {
		return err
	}
	defer mat.Close()

	res, err := engine.Process(ctx, mat)
	if err != nil {
		return err
	}

	log := logrus.WithFields(logrus.Fields{
		"image":       path,
		"run":         res.RunID,
		"simulations": res.Order.Len(),
		"keypoints":   res.Grouped.Total(),
		"failures":    len(res.Failures),
		"elapsed":     res.Elapsed,
	})

	base := filepath.Join(cfg.OutputDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	outputs := make(map[string]string)

	if cfg.Wants(config.FormatKeys) {
		out := base + ".keys"
		if err := writeFile(out, func(f *os.File) error { return keypoint.WriteASCII(f, res.Keypoints()) }); err != nil {
			return err
		}
		outputs[config.FormatKeys] = out
	}
	if cfg.Wants(config.FormatCSV) {
		out := base + ".csv"
		if err := writeFile(out, func(f *os.File) error { return keypoint.WriteCSV(f, res.SimulationKeypoints()) }); err != nil {
			return err
		}
		outputs[config.FormatCSV] = out
	}
	if cfg.Wants(config.FormatOverlay) {
		out := base + "_keypoints." + cfg.OverlayFormat
		opts := overlay.DefaultOptions()
		opts.MaxEdge = cfg.OverlayMaxEdge
		opts.Simulations = res.Order.Len()
		opts.Caption = fmt.Sprintf("%d keypoints, %d simulations", res.Grouped.Total(), res.Order.Len())
		if err := overlay.Save(out, overlay.Render(img, res.SimulationKeypoints(), opts)); err != nil {
			return err
		}
		outputs[config.FormatOverlay] = out
	}
	if cfg.Wants(config.FormatReport) {
		out := base + ".json"
		b := img.Bounds()
		rep := report.New(res, engine.Config(), b.Dx(), b.Dy())
		rep.Colour = cfg.Colour
		rep.SetImage(out, path)
		for name, p := range outputs {
			rep.SetOutput(out, name, p)
		}
		if err := rep.Save(out); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		outputs[config.FormatReport] = out
	}

	log.WithField("outputs", len(outputs)).Info("detected keypoints")
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
