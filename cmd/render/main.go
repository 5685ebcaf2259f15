// Command render draws a sphere document as an SVG or PNG diagram.
//
//	render -in sphere.json -out sphere.svg -yaw 30 -pitch 15 -grid
//
// The format follows the output extension unless -format is given. Without
// -in the document is read from stdin; "-out -" writes to stdout.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/document"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/export"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/sphere"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		slog.Error("render", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	var (
		in     = fs.String("in", "", "document JSON (default stdin)")
		out    = fs.String("out", "celestial_sphere.svg", `output file, "-" for stdout`)
		format = fs.String("format", "", "svg or png (default from -out)")
		yaw    = fs.Float64("yaw", 0, "yaw in degrees")
		pitch  = fs.Float64("pitch", 0, "pitch in degrees")
		roll   = fs.Float64("roll", 0, "roll in degrees")
		grid   = fs.Bool("grid", false, "draw the coordinate grid")
		sample = fs.Bool("sample", false, "render the built-in sample instead of -in")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, a := range []struct {
		name string
		v    float64
	}{{"yaw", *yaw}, {"pitch", *pitch}, {"roll", *roll}} {
		if math.IsNaN(a.v) || math.IsInf(a.v, 0) {
			return fmt.Errorf("%w: -%s=%v", export.ErrInvalidOption, a.name, a.v)
		}
	}

	doc, err := readDocument(*in, *sample, stdin)
	if err != nil {
		return err
	}

	kind := strings.ToLower(*format)
	if kind == "" {
		kind = strings.TrimPrefix(strings.ToLower(filepath.Ext(*out)), ".")
	}
	render := export.SVG
	switch kind {
	case "svg", "":
		kind = "svg"
	case "png":
		render = export.PNG
	default:
		return fmt.Errorf("unknown format %q", kind)
	}

	opts := export.Options{Rotation: sphere.FromEuler(*yaw, *pitch, *roll), Grid: *grid}
	var buf bytes.Buffer
	if err := render(&buf, doc, opts); err != nil {
		return fmt.Errorf("render %s: %w", kind, err)
	}

	if *out == "-" {
		_, err = buf.WriteTo(stdout)
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	slog.Info("diagram written", "file", *out, "format", kind, "points", len(doc.Points), "size", buf.Len())
	return nil
}

func readDocument(path string, sample bool, stdin io.Reader) (*document.Document, error) {
	if sample {
		return document.NewSampleDocument(), nil
	}

	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return document.Parse(data)
}
