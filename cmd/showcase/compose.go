package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/showcase/internal/composition"
	"github.com/keagan/showcase/internal/config"
	"github.com/keagan/showcase/internal/ffmpeg"
	"github.com/keagan/showcase/internal/logging"
	"github.com/keagan/showcase/internal/pipeline"
	"github.com/keagan/showcase/internal/report"
	"github.com/keagan/showcase/pkg/util"
)

var (
	outputPath string
	mediaDir   string
	introFlag  string
	outroFlag  string
)

// loadDocument reads a composition file, or stdin for "-", migrating older schemas
func loadDocument(path string) (*composition.Document, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	doc, applied, err := composition.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger := logging.WithComponent("composition")
	for _, name := range applied {
		logger.Debug().Str("file", path).Str("migration", name).Msg("migrated document")
	}
	return doc, nil
}

// writeDocument writes doc to outputPath, or to w when no output path is set
func writeDocument(w io.Writer, doc *composition.Document) error {
	if outputPath == "" {
		return composition.Encode(w, doc)
	}

	var buf bytes.Buffer
	if err := composition.Encode(&buf, doc); err != nil {
		return err
	}
	if err := util.WriteFileAtomic(outputPath, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	log.Info().Str("path", outputPath).Msg("document written")
	return nil
}

// newPipeline builds a pipeline from the context config with any --intro and
// --outro overrides applied
func newPipeline(cmd *cobra.Command) (*pipeline.Pipeline, *config.Config, error) {
	cfg := *config.FromContext(cmd.Context())

	overrides := []struct {
		flag  string
		value string
		dst   *float64
	}{
		{"intro", introFlag, &cfg.Composition.IntroSeconds},
		{"outro", outroFlag, &cfg.Composition.OutroSeconds},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		d, err := util.ParseTimestamp(o.value)
		if err != nil {
			return nil, nil, fmt.Errorf("--%s: %w", o.flag, err)
		}
		if d < 0 {
			return nil, nil, fmt.Errorf("--%s must not be negative", o.flag)
		}
		*o.dst = d.Seconds()
	}

	return pipeline.New(logging.NewLogger(), &cfg), &cfg, nil
}

var sectionsCmd = &cobra.Command{
	Use:   "sections [document.json]",
	Short: "Show per-section timing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		pipe, cfg, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		preview, err := pipe.Preview(cmd.Context(), doc)
		if err != nil {
			return err
		}
		return report.Write(cmd.OutOrStdout(), cfg.Output.Format, preview)
	},
}

var timelineCmd = &cobra.Command{
	Use:   "timeline [document.json]",
	Short: "Show the frame timeline and total length",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		pipe, cfg, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		tl, err := pipe.Timeline(cmd.Context(), doc)
		if err != nil {
			return err
		}
		return report.Write(cmd.OutOrStdout(), cfg.Output.Format, tl)
	},
}

var planCmd = &cobra.Command{
	Use:   "plan [document.json]",
	Short: "Build the full assembly plan with tracks and warnings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		pipe, cfg, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		plan, err := pipe.Plan(cmd.Context(), doc)
		if err != nil {
			return err
		}
		return report.Write(cmd.OutOrStdout(), cfg.Output.Format, plan)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [document.json]",
	Short: "Upgrade a document to the current schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}
		return writeDocument(cmd.OutOrStdout(), doc)
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe [document.json]",
	Short: "Fill narration and clip durations from local media with ffprobe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ffmpeg.Available(); err != nil {
			return err
		}

		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		cfg := *config.FromContext(cmd.Context())
		switch {
		case mediaDir != "":
			cfg.Probe.MediaDir = mediaDir
		case cfg.Probe.MediaDir == "" && args[0] != "-":
			cfg.Probe.MediaDir = filepath.Dir(args[0])
		}

		logger := logging.NewLogger()
		prober := ffmpeg.NewProber(logger, cfg.Probe.Timeout)
		pipe := pipeline.New(logger, &cfg)

		updated, err := pipe.FillDurations(cmd.Context(), doc, prober)
		if err != nil {
			return err
		}
		log.Info().Int("updated", updated).Str("media_dir", cfg.Probe.MediaDir).Msg("durations filled")

		return writeDocument(cmd.OutOrStdout(), doc)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{sectionsCmd, timelineCmd, planCmd} {
		cmd.Flags().StringVar(&introFlag, "intro", "", "intro length, seconds or [HH:]MM:SS.mmm (default from config)")
		cmd.Flags().StringVar(&outroFlag, "outro", "", "outro length, seconds or [HH:]MM:SS.mmm (default from config)")
	}

	migrateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the document here instead of stdout")
	probeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the document here instead of stdout")
	probeCmd.Flags().StringVar(&mediaDir, "media-dir", "", "directory relative media paths resolve against (default: the document's directory)")
}
