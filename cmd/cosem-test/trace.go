package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/cosem-conformance/conformance-go/pkg/log"
)

type traceFlags struct {
	direction string
	layer     string
	category  string
	device    string
	jobID     string
	command   string
	stats     bool
}

func newTraceCmd() *cobra.Command {
	f := &traceFlags{}
	cmd := &cobra.Command{
		Use:   "trace FILE",
		Short: "Print a protocol trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := f.filter()
			if err != nil {
				return err
			}
			if f.stats {
				return traceStats(args[0], filter, cmd.OutOrStdout())
			}
			return traceView(args[0], filter, cmd.OutOrStdout())
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.direction, "direction", "", "Filter by direction (in, out)")
	fl.StringVar(&f.layer, "layer", "", "Filter by layer (frame, apdu, association)")
	fl.StringVar(&f.category, "category", "", "Filter by category (message, control, state, error)")
	fl.StringVar(&f.device, "device", "", "Filter by meter")
	fl.StringVar(&f.jobID, "job", "", "Filter by job id")
	fl.StringVar(&f.command, "command", "", "Filter by PDU command, e.g. GetRequest")
	fl.BoolVar(&f.stats, "stats", false, "Print statistics instead of events")
	return cmd
}

func (f *traceFlags) filter() (log.Filter, error) {
	filter := log.Filter{Device: f.device, JobID: f.jobID, Command: f.command}
	if f.direction != "" {
		d, ok := log.ParseDirection(f.direction)
		if !ok {
			return filter, fmt.Errorf("invalid direction %q (valid: in, out)", f.direction)
		}
		filter.Direction = &d
	}
	if f.layer != "" {
		l, err := parseLayer(f.layer)
		if err != nil {
			return filter, err
		}
		filter.Layer = &l
	}
	if f.category != "" {
		c, err := parseCategory(f.category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	return filter, nil
}

func parseLayer(s string) (log.Layer, error) {
	if l, ok := log.ParseLayer(s); ok {
		return l, nil
	}
	return 0, fmt.Errorf("invalid layer %q (valid: frame, apdu, association)", s)
}

func parseCategory(s string) (log.Category, error) {
	if c, ok := log.ParseCategory(s); ok {
		return c, nil
	}
	return 0, fmt.Errorf("invalid category %q (valid: message, control, state, error)", s)
}

// eachEvent calls fn for every event of the trace matching filter.
func eachEvent(path string, filter log.Filter, fn func(log.Event)) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		fn(event)
	}
}

func traceView(path string, filter log.Filter, w io.Writer) error {
	return eachEvent(path, filter, func(e log.Event) {
		fmt.Fprintln(w, log.Format(e))
	})
}

// traceStatistics aggregates a trace.
type traceStatistics struct {
	total      int
	errors     int
	byLayer    map[log.Layer]int
	byCategory map[log.Category]int
	byCommand  map[string]int
	devices    map[string]int
	start, end time.Time
}

func traceStats(path string, filter log.Filter, w io.Writer) error {
	st := &traceStatistics{
		byLayer:    make(map[log.Layer]int),
		byCategory: make(map[log.Category]int),
		byCommand:  make(map[string]int),
		devices:    make(map[string]int),
	}
	err := eachEvent(path, filter, func(e log.Event) {
		st.total++
		st.byLayer[e.Layer]++
		st.byCategory[e.Category]++
		if e.Device != "" {
			st.devices[e.Device]++
		}
		if e.Message != nil {
			st.byCommand[e.Message.Command]++
		}
		if e.Error != nil {
			st.errors++
		}
		if st.start.IsZero() || e.Timestamp.Before(st.start) {
			st.start = e.Timestamp
		}
		if e.Timestamp.After(st.end) {
			st.end = e.Timestamp
		}
	})
	if err != nil {
		return err
	}
	st.print(w)
	return nil
}

func (st *traceStatistics) print(w io.Writer) {
	fmt.Fprintf(w, "Events: %d\n", st.total)
	if st.total == 0 {
		return
	}
	fmt.Fprintf(w, "Time Range: %s to %s (%s)\n",
		st.start.Format(time.RFC3339), st.end.Format(time.RFC3339), st.end.Sub(st.start))
	fmt.Fprintf(w, "Errors: %d\n", st.errors)

	fmt.Fprintln(w, "\nBy Layer:")
	for _, l := range []log.Layer{log.LayerFrame, log.LayerAPDU, log.LayerAssociation} {
		if n := st.byLayer[l]; n > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", l, n)
		}
	}
	fmt.Fprintln(w, "\nBy Category:")
	for _, c := range []log.Category{log.CategoryMessage, log.CategoryControl, log.CategoryState, log.CategoryError} {
		if n := st.byCategory[c]; n > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c, n)
		}
	}
	printCounts(w, "By Command:", st.byCommand)
	printCounts(w, "By Meter:", st.devices)
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "\n%s\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-20s %d\n", k, counts[k])
	}
}
