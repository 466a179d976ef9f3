package tucson

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/ringconv/core/calendar"
	"github.com/FocuswithJustin/ringconv/core/diag"
	"github.com/FocuswithJustin/ringconv/core/series"
)

// State is the position of the reader in the header/data grammar.
type State int

// Reader states.
const (
	AwaitingHeaderLine1 State = iota
	AwaitingHeaderLine2
	AwaitingHeaderLine3
	InRawDataBlock
	InChronologyDataBlock
	InNonData
)

func (s State) String() string {
	switch s {
	case AwaitingHeaderLine1:
		return "AWAITING_HEADER_LINE1"
	case AwaitingHeaderLine2:
		return "AWAITING_HEADER_LINE2"
	case AwaitingHeaderLine3:
		return "AWAITING_HEADER_LINE3"
	case InRawDataBlock:
		return "IN_RWL_DATA_BLOCK"
	case InChronologyDataBlock:
		return "IN_CRN_DATA_BLOCK"
	default:
		return "NON_DATA"
	}
}

// ScanState is the mutable state threaded through Reader.ScanLine. It is
// exported so the state machine can be driven and inspected line by line.
type ScanState struct {
	State State

	// Header is the most recent complete header; it is attached to every
	// series that starts after it.
	Header *Header

	// Code is the series code of the current data block.
	Code string
	// LastMarker is the year marker of the previous data line of Code.
	LastMarker calendar.Year
	// Expected is the year the next line of Code should start at.
	Expected calendar.Year

	pending []headerLine
	current *building
	seen    map[string]bool
}

// Reset returns the state to its initial value.
func (st *ScanState) Reset() {
	*st = ScanState{}
}

// PendingHeaderLines returns how many header lines are cached waiting for
// the rest of their triple.
func (st *ScanState) PendingHeaderLines() int {
	return len(st.pending)
}

// building is a series under construction.
type building struct {
	s         *series.Series
	start     calendar.Year
	started   bool
	stopped   bool
	stopValue int
	stopLine  int
	firstLine int
}

// Reader decodes Tucson lines into series one line at a time.
type Reader struct {
	defaults series.Defaults
	diags    *diag.List
	st       *ScanState
	out      []*series.Series
}

// NewReader returns a reader that records diagnostics in diags and keeps
// its grammar state in st. A nil st allocates a fresh state.
func NewReader(defaults series.Defaults, diags *diag.List, st *ScanState) *Reader {
	if st == nil {
		st = &ScanState{}
	}
	return &Reader{defaults: defaults, diags: diags, st: st}
}

// State returns the reader's scan state.
func (r *Reader) State() *ScanState {
	return r.st
}

// ScanLine consumes one input line. number is the 1-based line number used
// in diagnostics. A returned error is fatal for the whole file.
func (r *Reader) ScanLine(number int, text string) error {
	line := Classify(text)
	switch {
	case line.Kind.IsHeader():
		return r.scanHeader(number, line)
	case line.Kind.IsRaw(), line.Kind.IsChron():
		return r.scanData(number, line)
	}

	if strings.TrimSpace(line.Text) == "" {
		return nil
	}
	r.checkPending(number)
	// A third line holding only the site code is too short to classify.
	if r.st.State == AwaitingHeaderLine3 && strings.TrimSpace(line.Text) == r.st.pending[0].line.Code {
		line.Kind = LineHeader3
		return r.scanHeader(number, line)
	}
	r.discardPending("unrecognized line")
	r.finishSeries()
	r.diags.WarnLine(number, "unrecognized line ignored")
	r.st.State = InNonData
	return nil
}

// Finish flushes the series under construction and returns every series
// decoded so far.
func (r *Reader) Finish() ([]*series.Series, error) {
	r.discardPending("end of input")
	r.finishSeries()
	if len(r.out) == 0 {
		r.diags.Warn("no data series found")
	}
	return r.out, nil
}

func (r *Reader) scanHeader(number int, line Line) error {
	st := r.st
	if st.State == InRawDataBlock || st.State == InChronologyDataBlock || st.State == InNonData {
		r.finishSeries()
		st.State = AwaitingHeaderLine1
	}

	r.checkPending(number)

	hl := headerLine{number: number, line: line}
	switch st.State {
	case AwaitingHeaderLine1:
		if line.Kind != LineHeader1 {
			r.diags.WarnLine(number, "orphan %s without a preceding header line 1 ignored", line.Kind)
			return nil
		}
		st.pending = append(st.pending[:0], hl)
		st.State = AwaitingHeaderLine2

	case AwaitingHeaderLine2:
		switch line.Kind {
		case LineHeader2:
			st.pending = append(st.pending, hl)
			st.State = AwaitingHeaderLine3
		case LineHeader1:
			// Line 2 with a blank range field reads as line 1; the site
			// code places it.
			if line.Code == st.pending[0].line.Code {
				st.pending = append(st.pending, hl)
				st.State = AwaitingHeaderLine3
				return nil
			}
			r.discardPending("header restarted")
			st.pending = append(st.pending[:0], hl)
			st.State = AwaitingHeaderLine2
		default:
			r.discardPending("header line 2 missing")
			r.diags.WarnLine(number, "orphan %s ignored", line.Kind)
		}

	case AwaitingHeaderLine3:
		if line.Kind == LineHeader2 {
			r.discardPending("header line 3 missing")
			r.diags.WarnLine(number, "orphan %s ignored", line.Kind)
			return nil
		}
		// A third line without a computation date looks like line 1.
		st.pending = append(st.pending, hl)
		st.Header = parseHeader([3]headerLine(st.pending), r.diags)
		st.pending = st.pending[:0]
		st.State = AwaitingHeaderLine1
	}
	return nil
}

// checkPending restarts the header when the state expects cached lines
// that are not there, as with a ScanState built by hand.
func (r *Reader) checkPending(number int) {
	st := r.st
	want := 0
	switch st.State {
	case AwaitingHeaderLine2:
		want = 1
	case AwaitingHeaderLine3:
		want = 2
	default:
		return
	}
	if len(st.pending) != want {
		r.diags.WarnLine(number, "%s without %d cached header lines; header restarted", st.State, want)
		st.pending = st.pending[:0]
		st.State = AwaitingHeaderLine1
	}
}

func (r *Reader) discardPending(reason string) {
	for _, hl := range r.st.pending {
		r.diags.WarnLine(hl.number, "incomplete header discarded (%s)", reason)
	}
	r.st.pending = r.st.pending[:0]
	if r.st.State == AwaitingHeaderLine2 || r.st.State == AwaitingHeaderLine3 {
		r.st.State = AwaitingHeaderLine1
	}
}

func (r *Reader) scanData(number int, line Line) error {
	st := r.st
	if len(st.pending) > 0 {
		r.discardPending("data line before header line 3")
	}

	block := InRawDataBlock
	if line.Kind.IsChron() {
		block = InChronologyDataBlock
	}

	n, err := strconv.Atoi(strings.TrimSpace(line.Marker))
	if err != nil || n == 0 {
		return r.diags.Fatal(number, "invalid year marker %q", line.Marker)
	}
	marker := calendar.Year(n)

	b := st.current
	continuing := b != nil && st.State == block && line.Code == st.Code
	if continuing {
		if b.stopped && !(b.stopValue == stopHundredth && block == InRawDataBlock) {
			r.diags.WarnLine(number, "series %s continues after its stop marker; line ignored", line.Code)
			return nil
		}
		switch {
		case marker.Before(st.LastMarker):
			return r.diags.Fatal(number, "series code %s reused with a reset year (%d after %d)", line.Code, marker, st.LastMarker)
		case marker.After(st.LastMarker.Add(10)):
			return r.diags.Fatal(number, "corrupted or missing decade in series %s (%d after %d)", line.Code, marker, st.LastMarker)
		case marker.Before(st.Expected):
			return r.diags.Fatal(number, "year %d of series %s overlaps the previous line ending at %d", marker, line.Code, st.Expected.Add(-1))
		}
		if b.stopped {
			// A 999 at the end of the previous line was a value, not a stop.
			r.diags.WarnLine(b.stopLine, "999 in series %s followed by more data; kept as a measurement", line.Code)
			b.stopped = false
			r.appendValue(b, series.RingValue{Value: stopHundredth}, st.Expected.Add(-1))
		}
		if gap := st.Expected.Diff(marker); gap > 0 && b.started {
			r.diags.WarnLine(number, "series %s skips %d years before %d; filled with zero", line.Code, gap, marker)
			for i := 0; i < gap; i++ {
				b.s.Values = append(b.s.Values, series.RingValue{})
			}
		}
	} else {
		r.finishSeries()
		if st.seen == nil {
			st.seen = make(map[string]bool)
		}
		if st.seen[line.Code] {
			r.diags.WarnLine(number, "series code %s appears more than once", line.Code)
		}
		st.seen[line.Code] = true
		st.current = r.newSeries(line.Code, block, number)
		st.Code = line.Code
		b = st.current
	}
	st.State = block
	st.LastMarker = marker
	st.Expected = marker.Add(len(line.Fields))

	if block == InRawDataBlock {
		return r.scanRawFields(number, line, b, marker)
	}
	return r.scanChronFields(number, line, b, marker)
}

func (r *Reader) newSeries(code string, block State, number int) *building {
	s := series.New(code)
	if block == InChronologyDataBlock {
		s.Kind = series.KindChronology
		s.Unit = series.UnitIndex
		s.Variable = series.VariableRingWidthIndex
	}
	return &building{s: s, firstLine: number}
}

// appendValue adds v for year y, fixing the series start at the first value.
func (r *Reader) appendValue(b *building, v series.RingValue, y calendar.Year) {
	if !b.started {
		b.started = true
		b.start = y
	}
	b.s.Values = append(b.s.Values, v)
}

// lastNumeric returns the index of the last field that is not a placeholder.
func lastNumeric(fields []string) int {
	for i := len(fields) - 1; i >= 0; i-- {
		if strings.TrimSpace(fields[i]) != placeholder {
			return i
		}
	}
	return -1
}

func (r *Reader) scanRawFields(number int, line Line, b *building, marker calendar.Year) error {
	last := lastNumeric(line.Fields)
	for i, f := range line.Fields {
		y := marker.Add(i)
		f = strings.TrimSpace(f)
		if f == placeholder {
			if !b.stopped {
				r.diags.WarnLine(number, "placeholder before the stop marker of series %s read as a missing ring", line.Code)
				r.appendValue(b, series.RingValue{}, y)
			}
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			return r.diags.Fatal(number, "invalid value %q in series %s", f, line.Code)
		}
		if b.stopped {
			r.diags.WarnLine(number, "value %d after the stop marker of series %s ignored", v, line.Code)
			continue
		}
		switch {
		case v == stopMicrometre:
			r.stop(b, v, number)
		case v == stopHundredth && i == last:
			r.stop(b, v, number)
		case v == missingRing:
			r.appendValue(b, series.RingValue{}, y)
		default:
			r.appendValue(b, series.RingValue{Value: v}, y)
		}
	}
	return nil
}

func (r *Reader) scanChronFields(number int, line Line, b *building, marker calendar.Year) error {
	for i, f := range line.Fields {
		y := marker.Add(i)
		if len(f) != chronFieldWidth {
			return r.diags.Fatal(number, "value %q in series %s has no sample-depth count", strings.TrimSpace(f), line.Code)
		}
		if strings.TrimSpace(f) == placeholder {
			if !b.stopped {
				r.diags.WarnLine(number, "placeholder before the stop marker of series %s read as a missing ring", line.Code)
				r.appendValue(b, series.RingValue{Count: series.NewCount(0)}, y)
			}
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(f[:chronValueWidth]))
		if err != nil {
			return r.diags.Fatal(number, "invalid value %q in series %s", f, line.Code)
		}
		c, err := strconv.Atoi(strings.TrimSpace(f[chronValueWidth:]))
		if err != nil {
			return r.diags.Fatal(number, "invalid count %q in series %s", f, line.Code)
		}
		switch {
		case v == stopChronology && !b.started:
			// Leading pad before the first year of the chronology.
		case v == stopChronology && b.stopped:
			// Trailing pad after the stop.
		case v == stopChronology:
			r.stop(b, v, number)
		case b.stopped:
			r.diags.WarnLine(number, "value %d after the stop marker of series %s ignored", v, line.Code)
		case v == missingRing:
			r.appendValue(b, series.RingValue{Count: series.NewCount(c)}, y)
		default:
			r.appendValue(b, series.RingValue{Value: v, Count: series.NewCount(c)}, y)
		}
	}
	return nil
}

func (r *Reader) stop(b *building, v, number int) {
	b.stopped = true
	b.stopValue = v
	b.stopLine = number
}

// finishSeries completes the series under construction and appends it to
// the output.
func (r *Reader) finishSeries() {
	b := r.st.current
	r.st.current = nil
	if b == nil {
		return
	}
	s := b.s
	if len(s.Values) == 0 {
		r.diags.WarnLine(b.firstLine, "series %s has no values; skipped", s.ID)
		return
	}

	if s.Kind == series.KindRaw {
		switch {
		case !b.stopped:
			r.diags.WarnLine(b.firstLine, "series %s has no stop marker; unit taken from defaults", s.ID)
			s.Unit = r.defaults.Unit
		case b.stopValue == stopMicrometre:
			s.Unit = series.UnitMicrometre
		default:
			s.Unit = series.UnitHundredthMM
		}
	} else if !b.stopped {
		r.diags.WarnLine(b.firstLine, "series %s has no stop marker", s.ID)
	}

	s.SetRange(b.start)
	if h := r.st.Header; h != nil {
		h.Apply(s)
	}
	r.defaults.Apply(s)
	if s.Title == "" {
		s.Title = s.ID
	}
	s.SetAttr(series.AttrSourceFormat, Name)
	r.out = append(r.out, s)
}

// Decode reads every line of data.
func Decode(data []byte, defaults series.Defaults, diags *diag.List) ([]*series.Series, error) {
	r := NewReader(defaults, diags, nil)
	for i, text := range strings.Split(string(data), "\n") {
		if err := r.ScanLine(i+1, text); err != nil {
			return nil, err
		}
	}
	return r.Finish()
}
