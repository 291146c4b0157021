// Command concord aligns tokenizations and merges annotation between
// concordances.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/concordkit/concord/core/align"
	"github.com/concordkit/concord/core/concordance"
	cerrors "github.com/concordkit/concord/core/errors"
	"github.com/concordkit/concord/internal/formats"
	"github.com/concordkit/concord/internal/logging"
	"github.com/concordkit/concord/internal/store"
	"github.com/concordkit/concord/internal/workflow"
)

const version = "0.1.0"

// CLI defines the command-line interface for concord.
var CLI struct {
	// Global flags
	LogLevel string `name:"log-level" enum:"debug,info,warn,error" default:"info" help:"Log verbosity"`
	LogJSON  bool   `name:"log-json" help:"Emit logs as JSON"`

	Align   AlignCmd     `cmd:"" help:"Align two tokenizations of the same text"`
	Merge   MergeCmd     `cmd:"" help:"Merge annotation from one concordance into another"`
	Convert ConvertCmd   `cmd:"" help:"Convert a concordance between formats"`
	Archive ArchiveGroup `cmd:"" help:"SQLite archive operations"`
	Version VersionCmd   `cmd:"" help:"Print version information"`
}

// AlignCmd aligns two token-list files (one token per line) and writes the
// diagnostic alignment CSV.
type AlignCmd struct {
	A   string `arg:"" help:"Token list for the a side" type:"existingfile"`
	B   string `arg:"" help:"Token list for the b side" type:"existingfile"`
	Out string `required:"" short:"o" help:"Alignment CSV output path" type:"path"`

	Threshold int     `default:"20" help:"Pass-1 anchor length"`
	Ratio     float64 `default:"0.95" help:"Minimum similarity estimate in (0,1]"`
	OnePass   bool    `name:"one-pass" help:"Diff in a single exact pass"`
	Marker    string  `help:"Chunk streams at this token form"`
}

func (c *AlignCmd) Run() error {
	if c.Threshold < 1 {
		return cerrors.NewConfig("threshold", "must be >= 1")
	}
	if c.Ratio <= 0 || c.Ratio > 1 {
		return cerrors.NewConfig("ratio", "must be in (0,1]")
	}

	aToks, err := readTokenList(c.A)
	if err != nil {
		return err
	}
	bToks, err := readTokenList(c.B)
	if err != nil {
		return err
	}
	logging.Info("aligning", "a_tokens", len(aToks), "b_tokens", len(bToks))

	al := align.New()
	al.Threshold = c.Threshold
	al.Ratio = c.Ratio
	al.OnePass = c.OnePass

	entries, err := al.AlignBlocks(aToks, bToks, c.Marker)
	if err != nil {
		return err
	}

	f, err := os.Create(c.Out)
	if err != nil {
		return cerrors.Wrapf(err, "creating %s", c.Out)
	}
	defer f.Close()
	if err := formats.WriteAlignment(f, entries, aToks, bToks); err != nil {
		return err
	}
	logging.Info("alignment written", "path", c.Out, "entries", len(entries))
	return nil
}

// MergeCmd merges annotation from one concordance into another according
// to a workflow file.
type MergeCmd struct {
	Base  string `arg:"" help:"Concordance receiving the annotation" type:"existingfile"`
	Other string `arg:"" help:"Concordance supplying the annotation" type:"existingfile"`
	Out   string `required:"" short:"o" help:"Merged concordance output path" type:"path"`

	Workflow string `help:"Workflow YAML file (defaults apply without one)" type:"existingfile"`
}

func (c *MergeCmd) Run() error {
	cfg := workflow.Default()
	if c.Workflow != "" {
		var err error
		cfg, err = workflow.Load(c.Workflow)
		if err != nil {
			return err
		}
	}
	merger, err := cfg.Merger()
	if err != nil {
		return err
	}

	base, err := readConcordance(c.Base)
	if err != nil {
		return err
	}
	other, err := readConcordance(c.Other)
	if err != nil {
		return err
	}

	notes, err := merger.Merge(base, other)
	if err != nil {
		return err
	}
	for _, n := range notes {
		logging.Warn("merge note", "note", n)
	}
	logging.Info("merged", "hits", base.Len(), "notes", len(notes))

	return writeConcordance(c.Out, base)
}

// ConvertCmd converts a concordance between the supported formats, picked
// by file extension.
type ConvertCmd struct {
	In  string `arg:"" help:"Input (.csv, .xml or .cnc.xz)" type:"existingfile"`
	Out string `arg:"" help:"Output (.csv, .xml, .cnc.xz or .db)" type:"path"`
}

func (c *ConvertCmd) Run() error {
	cnc, err := readConcordance(c.In)
	if err != nil {
		return err
	}
	if err := writeConcordance(c.Out, cnc); err != nil {
		return err
	}
	logging.Info("converted", "from", c.In, "to", c.Out, "hits", cnc.Len())
	return nil
}

// ArchiveGroup contains SQLite archive operations.
type ArchiveGroup struct {
	List   ArchiveListCmd   `cmd:"" help:"List concordances stored in an archive"`
	Export ArchiveExportCmd `cmd:"" help:"Export a stored concordance to a file"`
	Delete ArchiveDeleteCmd `cmd:"" help:"Delete a stored concordance"`
}

// ArchiveListCmd lists archive contents.
type ArchiveListCmd struct {
	Path string `arg:"" help:"Archive database path" type:"existingfile"`
}

func (c *ArchiveListCmd) Run() error {
	a, err := store.OpenArchive(c.Path)
	if err != nil {
		return err
	}
	defer a.Close()

	names, err := a.List(context.Background())
	if err != nil {
		return err
	}
	for name, hash := range names {
		fmt.Printf("%s\t%s\n", name, hash)
	}
	return nil
}

// ArchiveExportCmd exports one stored concordance.
type ArchiveExportCmd struct {
	Path string `arg:"" help:"Archive database path" type:"existingfile"`
	Name string `arg:"" help:"Stored concordance name"`
	Out  string `required:"" short:"o" help:"Output path (.csv, .xml or .cnc.xz)" type:"path"`
}

func (c *ArchiveExportCmd) Run() error {
	a, err := store.OpenArchive(c.Path)
	if err != nil {
		return err
	}
	defer a.Close()

	cnc, err := a.Load(context.Background(), c.Name)
	if err != nil {
		return err
	}
	return writeConcordance(c.Out, cnc)
}

// ArchiveDeleteCmd removes one stored concordance.
type ArchiveDeleteCmd struct {
	Path string `arg:"" help:"Archive database path" type:"existingfile"`
	Name string `arg:"" help:"Stored concordance name"`
}

func (c *ArchiveDeleteCmd) Run() error {
	a, err := store.OpenArchive(c.Path)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Delete(context.Background(), c.Name)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("concord %s\n", version)
	return nil
}

// readTokenList reads a one-token-per-line file, skipping blank lines.
func readTokenList(path string) ([]align.IDToken, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cerrors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	var toks []align.IDToken
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		form := strings.TrimSpace(scanner.Text())
		if form == "" {
			continue
		}
		toks = append(toks, align.IDToken{ID: len(toks), Form: form})
	}
	if err := scanner.Err(); err != nil {
		return nil, cerrors.Wrapf(err, "reading %s", path)
	}
	return toks, nil
}

func readConcordance(path string) (*concordance.Concordance, error) {
	switch {
	case strings.HasSuffix(path, ".xz"):
		return store.LoadSnapshot(path)
	case strings.HasSuffix(path, ".csv"):
		f, err := os.Open(path)
		if err != nil {
			return nil, cerrors.Wrapf(err, "opening %s", path)
		}
		defer f.Close()
		return formats.ReadTable(f)
	case strings.HasSuffix(path, ".xml"):
		f, err := os.Open(path)
		if err != nil {
			return nil, cerrors.Wrapf(err, "opening %s", path)
		}
		defer f.Close()
		xr := &formats.XMLReader{}
		return xr.Read(f)
	}
	return nil, cerrors.NewConfig("input", fmt.Sprintf("unsupported format: %s", path))
}

func writeConcordance(path string, cnc *concordance.Concordance) error {
	switch {
	case strings.HasSuffix(path, ".xz"):
		return store.SaveSnapshot(path, cnc)
	case strings.HasSuffix(path, ".db") || strings.HasSuffix(path, ".sqlite"):
		a, err := store.OpenArchive(path)
		if err != nil {
			return err
		}
		defer a.Close()
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return a.Save(context.Background(), name, cnc)
	case strings.HasSuffix(path, ".csv"):
		f, err := os.Create(path)
		if err != nil {
			return cerrors.Wrapf(err, "creating %s", path)
		}
		if err := formats.WriteTable(f, cnc); err != nil {
			f.Close()
			return err
		}
		return cerrors.Wrapf(f.Close(), "closing %s", path)
	case strings.HasSuffix(path, ".xml"):
		f, err := os.Create(path)
		if err != nil {
			return cerrors.Wrapf(err, "creating %s", path)
		}
		if err := formats.WriteXML(f, cnc); err != nil {
			f.Close()
			return err
		}
		return cerrors.Wrapf(f.Close(), "closing %s", path)
	}
	return cerrors.NewConfig("output", fmt.Sprintf("unsupported format: %s", path))
}

func initLogging() {
	level := logging.LevelInfo
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	format := logging.FormatText
	if CLI.LogJSON {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("concord"),
		kong.Description("Concord - token alignment and annotation merging for concordances"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	initLogging()
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
