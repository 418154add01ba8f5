package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"timetable/models"
	"timetable/pkg/envconf"
	"timetable/pkg/ocr"
	"timetable/pkg/runner"
	"timetable/pkg/timetable"
)

var layoutFlag = &cli.StringFlag{
	Name:    "layout",
	Aliases: []string{"l"},
	Usage:   "Layout YAML file (default: built-in table)",
	Sources: cli.EnvVars("LAYOUT_FILE"),
}

var vocabFlag = &cli.StringFlag{
	Name:    "vocab",
	Usage:   "Vocabulary YAML file (default: built-in list)",
	Sources: cli.EnvVars("VOCABULARY_FILE"),
}

var jsonFlag = &cli.BoolFlag{
	Name:  "json",
	Usage: "Print entries as JSON",
}

func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "ttextract",
		Usage:  "Extract (day, subject, time) entries from a timetable photo",
		Writer: w,
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the full pipeline on an image",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "image", Aliases: []string{"i"}, Usage: "Timetable photo", Required: true},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Workspace root", Value: "output", Sources: cli.EnvVars("OUTPUT_ROOT")},
					&cli.StringFlag{Name: "lang", Usage: "Tesseract language", Value: "eng", Sources: cli.EnvVars("OCR_LANG")},
					&cli.BoolFlag{Name: "persist", Usage: "Store new entries in DB_DSN"},
					layoutFlag, vocabFlag, jsonFlag,
				},
				Action: runPipeline,
			},
			{
				Name:  "parse",
				Usage: "Run only the parser on an OCR text file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Text file, one OCR line per line", Required: true},
					&cli.StringFlag{Name: "day", Usage: "Day to stamp on the entries"},
					vocabFlag, jsonFlag,
				},
				Action: parseText,
			},
			{
				Name:  "layout",
				Usage: "Print the layout and optionally check it against an image",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "check", Usage: "Bounds-check every day against --image"},
					&cli.StringFlag{Name: "image", Aliases: []string{"i"}, Usage: "Timetable photo"},
					layoutFlag,
				},
				Action: showLayout,
			},
		},
	}
}

func loadLayout(cmd *cli.Command) (timetable.Layout, error) {
	if p := cmd.String("layout"); p != "" {
		return timetable.LoadLayout(p)
	}
	return timetable.DefaultLayout(), nil
}

func loadVocab(cmd *cli.Command) (timetable.Vocabulary, error) {
	if p := cmd.String("vocab"); p != "" {
		return timetable.LoadVocabulary(p)
	}
	return timetable.DefaultVocabulary(), nil
}

func printEntries(w io.Writer, asJSON bool, entries []timetable.Entry) error {
	if asJSON {
		if entries == nil {
			entries = []timetable.Entry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		if e.Day != "" {
			fmt.Fprintf(w, "%-9s ", e.Day)
		}
		fmt.Fprintf(w, "%s  %s\n", e.Time, e.Subject)
	}
	return nil
}

func runPipeline(ctx context.Context, cmd *cli.Command) error {
	layout, err := loadLayout(cmd)
	if err != nil {
		return err
	}
	vocab, err := loadVocab(cmd)
	if err != nil {
		return err
	}
	engine, err := ocr.NewEngine(cmd.String("lang"))
	if err != nil {
		return fmt.Errorf("failed to start tesseract: %w", err)
	}
	defer engine.Close()

	locker, closeLocker, err := envconf.Locker(ctx)
	if err != nil {
		return err
	}
	defer closeLocker()
	r := &runner.Runner{
		Pipeline: timetable.New(layout, vocab, engine, timetable.Workspace{Root: cmd.String("output")}),
		Locker:   locker,
	}
	if cmd.Bool("persist") {
		st, err := envconf.OpenStore()
		if err != nil {
			return err
		}
		r.Store = st
	}
	res, err := r.RunFile(ctx, cmd.String("image"), models.SourceCLI)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s\n", res.Report.Summary())
	return printEntries(cmd.Root().Writer, cmd.Bool("json"), res.Entries)
}

func parseText(_ context.Context, cmd *cli.Command) error {
	vocab, err := loadVocab(cmd)
	if err != nil {
		return err
	}
	f, err := os.Open(cmd.String("text"))
	if err != nil {
		return fmt.Errorf("failed to open text: %w", err)
	}
	defer f.Close()
	entries, err := timetable.NewParser(vocab).Parse(f, nil)
	if err != nil {
		return err
	}
	if day := cmd.String("day"); day != "" {
		for i := range entries {
			entries[i].Day = day
		}
	}
	return printEntries(cmd.Root().Writer, cmd.Bool("json"), entries)
}

func showLayout(_ context.Context, cmd *cli.Command) error {
	layout, err := loadLayout(cmd)
	if err != nil {
		return err
	}
	if err := layout.Validate(); err != nil {
		return err
	}
	w := cmd.Root().Writer
	for _, d := range layout.Days {
		fmt.Fprintf(w, "%-9s y=%d..%d x=%d..%d\n", d.Day, d.YStart, d.YEnd, d.XStart, d.XEnd)
	}
	for _, o := range layout.Overlaps() {
		fmt.Fprintf(w, "overlap: %s/%s\n", o[0], o[1])
	}
	if !cmd.Bool("check") {
		return nil
	}
	path := cmd.String("image")
	if path == "" {
		return fmt.Errorf("--check needs --image")
	}
	bounds, err := imageBounds(path)
	if err != nil {
		return err
	}
	if err := layout.Check(bounds); err != nil {
		return err
	}
	fmt.Fprintf(w, "ok: layout fits %dx%d\n", bounds.Dx(), bounds.Dy())
	return nil
}

func imageBounds(path string) (image.Rectangle, error) {
	img, err := timetable.OpenImage(path)
	if err != nil {
		return image.Rectangle{}, err
	}
	return img.Bounds(), nil
}
