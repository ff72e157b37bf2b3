package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deck-server/internal/app"
	"deck-server/internal/config"
	"deck-server/internal/document"
	"deck-server/internal/domain"
	"deck-server/internal/export"
	"deck-server/internal/logger"
	"deck-server/internal/pipeline"
	"deck-server/internal/render"
)

var (
	genNotes   string
	genFile    string
	genOut     string
	genPNGDir  string
	genStyle   string
	genWidth   int
	genNoNotes bool
	genTimeout time.Duration
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a deck from notes and/or a document",
	Example: `  deckgen generate --notes "Seed pitch for a coffee startup"
  deckgen generate --file report.pdf --out report-deck.json --png-dir previews`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genNotes, "notes", "n", "", "free-form notes or instructions")
	generateCmd.Flags().StringVarP(&genFile, "file", "f", "", "document to build the deck from (pdf, image, text)")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "output JSON path (default: slug of the deck title)")
	generateCmd.Flags().StringVar(&genPNGDir, "png-dir", "", "directory for PNG previews of every slide")
	generateCmd.Flags().StringVar(&genStyle, "style", "", "visual style: photorealistic, minimal-vector, hand-drawn, isometric-3d, abstract-geometric")
	generateCmd.Flags().IntVar(&genWidth, "width", render.DefaultWidth, "PNG preview width in pixels")
	generateCmd.Flags().BoolVar(&genNoNotes, "no-speaker-notes", false, "omit speaker notes from the JSON export")
	generateCmd.Flags().DurationVar(&genTimeout, "timeout", 30*time.Minute, "overall generation timeout")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, genTimeout)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// Логи не должны перебивать прогресс-бар
	cfg.Logger.OutputPath = "stderr"
	if verbose {
		cfg.Logger.Development = true
	} else {
		cfg.Logger.Level = "error"
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	in := pipeline.Input{Notes: genNotes}
	if genStyle != "" {
		style := domain.VisualStyle(genStyle)
		if !style.Valid() {
			return fmt.Errorf("unknown visual style %q", genStyle)
		}
		in.VisualStyle = style
	}
	if genFile != "" {
		data, err := os.ReadFile(genFile)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		in.Document = &document.Upload{Filename: filepath.Base(genFile), Data: data}
	}
	if in.Empty() {
		return errors.New("nothing to generate from: pass --notes and/or --file")
	}

	core, err := app.NewCore(cfg, log)
	if err != nil {
		return err
	}
	defer core.Close()

	events, unsubscribe := core.Store.Subscribe()
	bar := newStatusBar()
	barDone := make(chan struct{})
	go bar.follow(events, barDone)

	runErr := core.Pipeline.Run(ctx, in)
	unsubscribe()
	<-barDone
	if runErr != nil {
		fmt.Fprintln(os.Stderr)
		return fmt.Errorf("generation failed: %w", runErr)
	}
	bar.finish()

	deck := core.Store.Presentation()
	if deck == nil {
		return domain.ErrNoPresentation
	}
	if err := writeDeck(*deck); err != nil {
		return err
	}
	if genPNGDir != "" {
		if err := writePreviews(*deck); err != nil {
			return err
		}
	}
	log.Info("Deck generated", zap.String("title", deck.Title), zap.Int("slides", len(deck.Slides)))
	return nil
}

func writeDeck(deck domain.Presentation) error {
	out := genOut
	if out == "" {
		out = export.Filename(deck.Title, "json")
	}
	opts := export.Full()
	opts.IncludeSpeakerNotes = !genNoNotes
	data, err := export.JSON(deck, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write deck: %w", err)
	}
	fmt.Fprintf(os.Stdout, "✓ %q: %d slides written to %s\n", deck.Title, len(deck.Slides), out)
	return nil
}

func writePreviews(deck domain.Presentation) error {
	if err := os.MkdirAll(genPNGDir, 0o755); err != nil {
		return fmt.Errorf("create png dir: %w", err)
	}
	slug := export.Slug(deck.Title)
	for i, slide := range deck.Slides {
		data, err := render.SlidePNG(slide, deck.Style, genWidth)
		if err != nil {
			return fmt.Errorf("render slide %s: %w", slide.ID, err)
		}
		path := filepath.Join(genPNGDir, fmt.Sprintf("%s-%02d.png", slug, i+1))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
	}
	fmt.Fprintf(os.Stdout, "✓ %d previews written to %s\n", len(deck.Slides), genPNGDir)
	return nil
}
