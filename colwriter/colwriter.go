package colwriter

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

type Cfg struct {
	Spacer string
	Pad    bool
}

type ColCfg struct {
	Title string
	Wid   uint16
	Rt    bool
}

type RowWriter func(io.Writer, ...interface{}) (int, error)

func (wc Cfg) spacer() string {
	if wc.Pad {
		return " " + wc.Spacer + " "
	}
	return wc.Spacer
}

func (wc Cfg) NewWriterFuncs(sCfg []ColCfg) RowWriter {

	sParts := make([]string, len(sCfg))
	for i, cfg := range sCfg {
		if wc.Pad && (cfg.Wid > 0) {
			if cfg.Rt {
				sParts[i] = fmt.Sprintf("%%%d.%dv", cfg.Wid, cfg.Wid)
			} else {
				sParts[i] = fmt.Sprintf("%%-%d.%dv", cfg.Wid, cfg.Wid)
			}
		} else {
			sParts[i] = "%v"
		}
	}

	szFmt := strings.Join(sParts, wc.spacer()) + "\n"

	return func(iWri io.Writer, sFields ...interface{}) (int, error) {
		return fmt.Fprintf(iWri, szFmt, sFields...)
	}
}

// FitWidths sets every zero Wid to the widest of its title and the cells
// in that column.
func FitWidths(sCfg []ColCfg, rows [][]string) {

	for i := range sCfg {
		if sCfg[i].Wid > 0 {
			continue
		}
		w := utf8.RuneCountInString(sCfg[i].Title)
		for _, r := range rows {
			if i < len(r) {
				if n := utf8.RuneCountInString(r[i]); n > w {
					w = n
				}
			}
		}
		sCfg[i].Wid = uint16(w)
	}
}

// WriteTable writes a title row followed by rows. Column widths left at
// zero are fitted to the content.
func (wc Cfg) WriteTable(iWri io.Writer, sCfg []ColCfg, rows [][]string) error {

	cols := make([]ColCfg, len(sCfg))
	copy(cols, sCfg)
	FitWidths(cols, rows)

	fnRow := wc.NewWriterFuncs(cols)
	emit := func(cells []string) error {
		sI := make([]interface{}, len(cols))
		for i := range cols {
			if i < len(cells) {
				sI[i] = cells[i]
			} else {
				sI[i] = ""
			}
		}
		_, err := fnRow(iWri, sI...)
		return err
	}

	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.Title
	}
	if err := emit(titles); err != nil {
		return err
	}
	for _, r := range rows {
		if err := emit(r); err != nil {
			return err
		}
	}
	return nil
}

type Pair struct {
	Key string
	Val string
}

// WritePairs writes "key: value" lines, skipping empty values. Keys of the
// written lines are aligned when padding is on. Multi-line values continue
// under the value column.
func (wc Cfg) WritePairs(iWri io.Writer, indent string, sPairs []Pair) error {

	wid := 0
	if wc.Pad {
		for _, p := range sPairs {
			if p.Val == "" {
				continue
			}
			if n := utf8.RuneCountInString(p.Key); n > wid {
				wid = n
			}
		}
	}

	for _, p := range sPairs {
		if p.Val == "" {
			continue
		}
		key := p.Key + ":"
		lead := indent + fmt.Sprintf("%-*s ", wid+1, key)
		cont := indent + strings.Repeat(" ", wid+2)
		if !wc.Pad {
			cont = indent + "  "
		}
		for i, ln := range strings.Split(p.Val, "\n") {
			pfx := lead
			if i > 0 {
				pfx = cont
			}
			if _, err := io.WriteString(iWri, pfx+ln+"\n"); err != nil {
				return err
			}
		}
	}
	return nil
}
