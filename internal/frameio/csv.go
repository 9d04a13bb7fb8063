// Package frameio loads point-cloud frames from disk. It implements the
// loading collaborator boundary: simple format wrappers that hand ordered
// frames to the pipeline and reject malformed records at the door.
package frameio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kerbside-data/object.report/internal/perception"
)

// csvColumns are the required columns, after header normalization.
var csvColumns = []string{"X", "Y", "Z", "INTENSITY"}

// ReadCSVFrame reads one frame from a semicolon-separated CSV file with
// X;Y;Z;INTENSITY columns. Header names are matched case- and
// whitespace-insensitively and may appear in any order.
//
// Rows with unparsable or non-finite values are data-quality faults: they
// are dropped, counted in the returned rejected total, and never fail the
// frame. An empty data section yields a valid empty frame.
func ReadCSVFrame(path string, index int) (perception.Frame, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return perception.Frame{Index: index}, 0, fmt.Errorf("open frame file: %w", err)
	}
	defer f.Close()

	frame, rejected, err := readCSV(f, index)
	if err != nil {
		return perception.Frame{Index: index}, rejected, fmt.Errorf("read %s: %w", path, err)
	}
	return frame, rejected, nil
}

func readCSV(r io.Reader, index int) (perception.Frame, int, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1 // Column count validated via the header map

	header, err := reader.Read()
	if err == io.EOF {
		return perception.Frame{Index: index}, 0, fmt.Errorf("missing header row")
	}
	if err != nil {
		return perception.Frame{Index: index}, 0, fmt.Errorf("read header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	for _, want := range csvColumns {
		if _, ok := colIdx[want]; !ok {
			return perception.Frame{Index: index}, 0, fmt.Errorf("missing required column %q (have %v)", want, header)
		}
	}

	frame := perception.Frame{Index: index}
	rejected := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return perception.Frame{Index: index}, rejected, fmt.Errorf("read record: %w", err)
		}

		p, ok := parsePoint(record, colIdx)
		if !ok {
			rejected++
			continue
		}
		frame.Points = append(frame.Points, p)
	}
	return frame, rejected, nil
}

// parsePoint extracts a point from one record, reporting ok=false for
// short rows, unparsable numbers, or non-finite values.
func parsePoint(record []string, colIdx map[string]int) (perception.Point, bool) {
	values := make([]float64, len(csvColumns))
	for i, col := range csvColumns {
		idx := colIdx[col]
		if idx >= len(record) {
			return perception.Point{}, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		if err != nil {
			return perception.Point{}, false
		}
		values[i] = v
	}
	p := perception.Point{X: values[0], Y: values[1], Z: values[2], Intensity: values[3]}
	if !p.Finite() {
		return perception.Point{}, false
	}
	return p, true
}
