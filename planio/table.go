// planio/table.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package planio reads and writes plans as delimited text tables and as
// compressed binary archives.
package planio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/mmp/kinplan/math"
	"github.com/mmp/kinplan/plan"
	"github.com/mmp/kinplan/util"
)

// Columns written by WriteTable, in order. The position columns are
// lat/lon/alt for geodetic plans and sx/sy/sz for Euclidean ones; the
// center and source columns hold positions in the same form.
var (
	geoColumns = []string{"lat", "lon", "alt"}
	xyzColumns = []string{"sx", "sy", "sz"}
	tcpColumns = []string{"kind", "trk_tcp", "vs_tcp", "trk_in", "gs_in", "vs_in", "radius",
		"center_x", "center_y", "center_z", "gs_accel", "vs_accel", "src_x", "src_y", "src_z", "src_time",
		"fixed", "linear_index", "info"}
)

// Units assumed for numeric columns when a table has no units line.
var defaultUnits = map[string]string{
	"lat":      "deg",
	"lon":      "deg",
	"alt":      "ft",
	"sx":       "NM",
	"sy":       "NM",
	"sz":       "ft",
	"time":     "s",
	"trk_in":   "deg",
	"gs_in":    "kts",
	"vs_in":    "fpm",
	"radius":   "NM",
	"center_z": "ft",
	"gs_accel": "m/s^2",
	"vs_accel": "m/s^2",
	"src_z":    "ft",
	"src_time": "s",
}

func isNumericColumn(name string, geo bool) bool {
	_, ok := columnDefaultUnit(name, geo)
	return ok
}

func columnDefaultUnit(name string, geo bool) (string, bool) {
	switch name {
	case "center_x", "center_y", "src_x", "src_y":
		if geo {
			return "deg", true
		}
		return "NM", true
	}
	u, ok := defaultUnits[name]
	return u, ok
}

// table holds what has been learned from a table's header and units
// lines.
type table struct {
	// delim is 0 for tables separated by runs of whitespace.
	delim     rune
	geo       bool
	cols      map[string]int
	units     []string
	haveUnits bool
}

func detectDelimiter(line string) rune {
	switch {
	case strings.ContainsRune(line, ','):
		return ','
	case strings.ContainsRune(line, '\t'):
		return '\t'
	default:
		return 0
	}
}

func (t *table) split(line string) []string {
	var f []string
	if t.delim == 0 {
		f = strings.Fields(line)
	} else {
		f = strings.Split(line, string(t.delim))
	}
	for i := range f {
		f[i] = strings.TrimSpace(f[i])
	}
	return f
}

func parseHeader(line string) (*table, error) {
	t := &table{delim: detectDelimiter(line), cols: make(map[string]int)}
	names := t.split(line)
	for i, n := range names {
		n = strings.ToLower(n)
		if _, ok := t.cols[n]; ok {
			return nil, fmt.Errorf("%s: repeated column", n)
		}
		t.cols[n] = i
	}

	hasAll := func(names []string) bool {
		return !slices.ContainsFunc(names, func(n string) bool { _, ok := t.cols[n]; return !ok })
	}
	switch geo, xyz := hasAll(geoColumns), hasAll(xyzColumns); {
	case geo && xyz:
		return nil, errors.New("both lat/lon/alt and sx/sy/sz columns given")
	case geo:
		t.geo = true
	case !xyz:
		return nil, errors.New("missing lat/lon/alt or sx/sy/sz columns")
	}
	if _, ok := t.cols["time"]; !ok {
		return nil, errors.New("missing time column")
	}

	t.units = make([]string, len(names))
	for n, i := range t.cols {
		t.units[i], _ = columnDefaultUnit(n, t.geo)
	}
	return t, nil
}

func isUnitsLine(f []string) bool {
	return len(f) > 0 && !slices.ContainsFunc(f, func(s string) bool {
		return !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]")
	})
}

func (t *table) setUnits(f []string, e *util.ErrorLogger) {
	t.haveUnits = true
	for n, i := range t.cols {
		if i >= len(f) {
			continue
		}
		u := strings.TrimSpace(f[i][1 : len(f[i])-1])
		if u == "-" || strings.EqualFold(u, "unitless") || strings.EqualFold(u, "none") {
			u = ""
		}
		if !isNumericColumn(n, t.geo) {
			continue
		}
		if _, ok := math.UnitFactor(u); !ok {
			e.ErrorString("%s: unknown unit %q", n, u)
			continue
		}
		t.units[i] = u
	}
}

// row wraps the fields of a single line of a table.
type row struct {
	t      *table
	fields []string
	e      *util.ErrorLogger
	failed bool
}

// get returns the named field; missing fields and "-" are empty.
func (r *row) get(name string) string {
	i, ok := r.t.cols[name]
	if !ok || i >= len(r.fields) || r.fields[i] == "-" {
		return ""
	}
	return r.fields[i]
}

// num returns the value of the named numeric field in internal units;
// ok is false if the field is empty or invalid.
func (r *row) num(name string) (float64, bool) {
	s := r.get(name)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.e.ErrorString("%s: %q is not a number", name, s)
		r.failed = true
		return 0, false
	}
	v, err = math.FromUnit(r.t.units[r.t.cols[name]], v)
	if err != nil {
		r.e.ErrorString("%s: %v", name, err)
		r.failed = true
		return 0, false
	}
	return v, true
}

// position returns the position given by the three named columns. ok is
// false unless all three are present.
func (r *row) position(names [3]string) (plan.Position, bool) {
	a, aok := r.num(names[0])
	b, bok := r.num(names[1])
	c, cok := r.num(names[2])
	if !aok || !bok || !cok {
		return plan.Position{}, false
	}
	if r.t.geo {
		return plan.MakeLLA(math.LatLonAlt{Lat: a, Lon: b, Alt: c}), true
	}
	return plan.MakeXYZ(a, b, c), true
}

func (r *row) navPoint() (plan.NavPoint, bool) {
	posCols := [3]string{"sx", "sy", "sz"}
	if r.t.geo {
		posCols = [3]string{"lat", "lon", "alt"}
	}
	pos, ok := r.position(posCols)
	if !ok {
		r.e.ErrorString("missing position")
		return plan.NavPoint{}, false
	}
	tm, ok := r.num("time")
	if !ok {
		r.e.ErrorString("missing time")
		return plan.NavPoint{}, false
	}

	np := plan.MakeNavPoint(pos, tm).WithLabel(r.get("label"))
	tcp := &np.TCP
	var err error
	if s := r.get("kind"); s != "" {
		if tcp.Kind, err = plan.ParseKind(s); err != nil {
			r.e.Error(err)
			r.failed = true
		}
	}
	if s := r.get("trk_tcp"); s != "" {
		if tcp.Trk, err = plan.ParseTrkRole(s); err != nil {
			r.e.Error(err)
			r.failed = true
		}
	}
	if s := r.get("vs_tcp"); s != "" {
		if tcp.Vs, err = plan.ParseVsRole(s); err != nil {
			r.e.Error(err)
			r.failed = true
		}
	}

	trk, tok := r.num("trk_in")
	gs, gok := r.num("gs_in")
	vs, vok := r.num("vs_in")
	if tok && gok && vok {
		tcp.VelIn = plan.MakeVelocity(trk, gs, vs)
	}
	if v, ok := r.num("radius"); ok {
		tcp.Radius = v
	}
	if c, ok := r.position([3]string{"center_x", "center_y", "center_z"}); ok {
		tcp.Center = c
	}
	if v, ok := r.num("gs_accel"); ok {
		tcp.GsAccel = v
	}
	if v, ok := r.num("vs_accel"); ok {
		tcp.VsAccel = v
	}
	if st, ok := r.num("src_time"); ok {
		tcp.SourceTime = st
		tcp.Source = plan.InvalidPosition
		if src, ok := r.position([3]string{"src_x", "src_y", "src_z"}); ok {
			tcp.Source = src
		}
	}
	if s := r.get("fixed"); s != "" {
		if tcp.Fixed, err = strconv.ParseBool(s); err != nil {
			r.e.ErrorString("fixed: %q is not a boolean", s)
			r.failed = true
		}
	}
	if s := r.get("linear_index"); s != "" {
		if tcp.LinearIndex, err = strconv.Atoi(s); err != nil {
			r.e.ErrorString("linear_index: %q is not an integer", s)
			r.failed = true
		}
	}
	tcp.Info = r.get("info")

	return np, !r.failed
}

// ReadTable reads the plans in the table from r. Rows are grouped into
// plans by their name column, in the order the names first appear;
// defaultName is used for rows without a name. All of the problems found
// in the table are reported in the returned error, along with the plans
// that could be read.
func ReadTable(r io.Reader, defaultName string) ([]*plan.Plan, error) {
	var e util.ErrorLogger
	var t *table
	var plans []*plan.Plan
	byName := make(map[string]*plan.Plan)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineno := 1; sc.Scan(); lineno++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		e.Push(fmt.Sprintf("line %d", lineno))
		if t == nil {
			var err error
			if t, err = parseHeader(line); err != nil {
				e.Error(err)
				e.Pop()
				return nil, e.Err()
			}
			e.Pop()
			continue
		}

		fields := t.split(line)
		if !t.haveUnits && len(plans) == 0 && isUnitsLine(fields) {
			t.setUnits(fields, &e)
			e.Pop()
			continue
		}

		rw := row{t: t, fields: fields, e: &e}
		if np, ok := rw.navPoint(); ok {
			name := rw.get("name")
			if name == "" {
				name = defaultName
			}
			p, ok := byName[name]
			if !ok {
				p = plan.New(name)
				byName[name] = p
				plans = append(plans, p)
			}
			if p.Add(np) < 0 {
				e.ErrorString("%s: unable to add point at t=%.3f", name, np.Time)
			}
		}
		e.Pop()
	}
	if err := sc.Err(); err != nil {
		return plans, err
	}
	if t == nil {
		return nil, errors.New("no header line found")
	}
	return plans, e.Err()
}

// isPlain reports whether np is exactly what a row without TCP columns
// gives.
func isPlain(np plan.NavPoint) bool {
	tcp := np.TCP
	return !np.IsTCP() && tcp.Kind == plan.Original && tcp.VelIn.IsInvalid() && tcp.Radius == 0 &&
		tcp.GsAccel == 0 && tcp.VsAccel == 0 && !tcp.Fixed && tcp.LinearIndex == -1 && tcp.Info == "" &&
		tcp.SourceTime == np.Time && tcp.Source == np.Pos && tcp.Center == (plan.Position{})
}

// tableWriter accumulates the rows of a table.
type tableWriter struct {
	w     *bufio.Writer
	geo   bool
	names []string
	units map[string]string
	err   error
}

func (tw *tableWriter) format(name string, v float64) string {
	u, _ := columnDefaultUnit(name, tw.geo)
	v, err := math.ToUnit(u, v)
	if err != nil && tw.err == nil {
		tw.err = err
	}
	return strconv.FormatFloat(v, 'g', 12, 64)
}

func (tw *tableWriter) position(names [3]string, p plan.Position) []string {
	if tw.geo {
		return []string{tw.format(names[0], p.LLA.Lat), tw.format(names[1], p.LLA.Lon), tw.format(names[2], p.LLA.Alt)}
	}
	return []string{tw.format(names[0], p.XYZ.X), tw.format(names[1], p.XYZ.Y), tw.format(names[2], p.XYZ.Z)}
}

func (tw *tableWriter) writeLine(f []string) {
	if tw.err == nil {
		_, tw.err = tw.w.WriteString(strings.Join(f, ",") + "\n")
	}
}

func (tw *tableWriter) writePoint(name string, np plan.NavPoint) {
	for _, s := range []string{name, np.Label, np.TCP.Info} {
		if strings.ContainsAny(s, ",\n") && tw.err == nil {
			tw.err = fmt.Errorf("%q: names, labels and info may not contain commas or newlines", s)
		}
	}

	f := []string{name}
	f = append(f, tw.position([3]string{tw.names[1], tw.names[2], tw.names[3]}, np.Pos)...)
	f = append(f, tw.format("time", np.Time), np.Label)
	if isPlain(np) {
		f = append(f, make([]string, len(tcpColumns))...)
		tw.writeLine(f)
		return
	}

	tcp := np.TCP
	f = append(f, tcp.Kind.String(), tcp.Trk.String(), tcp.Vs.String())
	if tcp.VelIn.IsInvalid() {
		f = append(f, "", "", "")
	} else {
		f = append(f, tw.format("trk_in", tcp.VelIn.Trk), tw.format("gs_in", tcp.VelIn.Gs), tw.format("vs_in", tcp.VelIn.Vs))
	}
	f = append(f, tw.format("radius", tcp.Radius))
	if tcp.Center == (plan.Position{}) {
		f = append(f, "", "", "")
	} else {
		f = append(f, tw.position([3]string{"center_x", "center_y", "center_z"}, tcp.Center)...)
	}
	f = append(f, tw.format("gs_accel", tcp.GsAccel), tw.format("vs_accel", tcp.VsAccel))
	if tcp.Source.IsInvalid() {
		f = append(f, "", "", "")
	} else {
		f = append(f, tw.position([3]string{"src_x", "src_y", "src_z"}, tcp.Source)...)
	}
	f = append(f, tw.format("src_time", tcp.SourceTime), strconv.FormatBool(tcp.Fixed),
		strconv.Itoa(tcp.LinearIndex), tcp.Info)
	tw.writeLine(f)
}

// WriteTable writes plans to w as a comma-separated table with a header
// and units line. All of the plans must use the same kind of positions.
func WriteTable(w io.Writer, plans []*plan.Plan) error {
	geo := false
	for _, p := range plans {
		if p.Size() > 0 {
			geo = p.Point(0).Pos.Geo
			break
		}
	}
	for _, p := range plans {
		if p.Size() > 0 && p.Point(0).Pos.Geo != geo {
			return fmt.Errorf("%s: plans mix geodetic and Euclidean positions", p.Name)
		}
	}

	tw := &tableWriter{w: bufio.NewWriter(w), geo: geo}
	tw.names = []string{"name"}
	if geo {
		tw.names = append(tw.names, geoColumns...)
	} else {
		tw.names = append(tw.names, xyzColumns...)
	}
	tw.names = append(tw.names, "time", "label")
	tw.names = append(tw.names, tcpColumns...)

	units := make([]string, len(tw.names))
	for i, n := range tw.names {
		if u, ok := columnDefaultUnit(n, geo); ok {
			units[i] = "[" + u + "]"
		} else {
			units[i] = "[-]"
		}
	}
	tw.writeLine(tw.names)
	tw.writeLine(units)

	for _, p := range plans {
		if p.Note != "" {
			tw.writeLine([]string{"# " + p.Name + ": " + strings.ReplaceAll(p.Note, "\n", " ")})
		}
		for _, np := range p.Points() {
			tw.writePoint(p.Name, np)
		}
	}
	if tw.err != nil {
		return tw.err
	}
	return tw.w.Flush()
}
