package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ankit-chaubey/layer/internal/dcpool"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// formatSession renders the home DC and known DC records in the requested format.
func formatSession(homeDC int32, records []dcpool.Record, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatSessionJSON(homeDC, records)
	case formatTable:
		return formatSessionTable(homeDC, records), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatSessionTable(homeDC int32, records []dcpool.Record) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Home DC:\t%d\n", homeDC)

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DC\tADDR\tAUTH KEY\tFIRST SALT\tTIME OFFSET")
	for _, rec := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\n",
			rec.DCID, rec.Addr, fingerprintOf(rec), rec.FirstSalt, rec.TimeOffset)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(&buf, "(failed to flush table: %v)\n", err)
	}

	return buf.String()
}

type recordView struct {
	DC         int32  `json:"dc"`
	Addr       string `json:"addr"`
	AuthKey    string `json:"auth_key_fingerprint"`
	FirstSalt  int64  `json:"first_salt"`
	TimeOffset int32  `json:"time_offset"`
}

type sessionView struct {
	HomeDC  int32        `json:"home_dc"`
	Records []recordView `json:"records"`
}

func formatSessionJSON(homeDC int32, records []dcpool.Record) (string, error) {
	view := sessionView{HomeDC: homeDC, Records: make([]recordView, 0, len(records))}
	for _, rec := range records {
		view.Records = append(view.Records, recordView{
			DC:         rec.DCID,
			Addr:       rec.Addr,
			AuthKey:    fingerprintOf(rec),
			FirstSalt:  rec.FirstSalt,
			TimeOffset: rec.TimeOffset,
		})
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal session to JSON: %w", err)
	}

	return string(data), nil
}
