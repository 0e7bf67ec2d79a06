package translate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
)

// BBox is a geographic bounding box in west, south, east, north order.
type BBox struct {
	West, South, East, North float64
}

// Valid rejects boxes outside WGS84 range and the two degenerate boxes
// portals use as placeholders: the whole world and all zeros.
func (b BBox) Valid() bool {
	if b.West < -180 || b.East > 180 || b.South < -90 || b.North > 90 {
		return false
	}
	if b.East < b.West || b.North < b.South {
		return false
	}
	if b.West == -180 && b.South == -90 && b.East == 180 && b.North == 90 {
		return false
	}
	if b.West == 0 && b.South == 0 && b.East == 0 && b.North == 0 {
		return false
	}
	return true
}

// IsPoint reports whether the box collapses to a single point at the
// stored precision.
func (b BBox) IsPoint() bool {
	return b.West == b.East && b.South == b.North
}

// Geometry renders the box as a canonical geometry: a two-corner envelope
// (upper-left, lower-right) or a point when degenerate.
func (b BBox) Geometry() map[string]any {
	if b.IsPoint() {
		return map[string]any{
			"type":        "Point",
			"coordinates": []any{b.West, b.South},
		}
	}
	return map[string]any{
		"type": "envelope",
		"coordinates": []any{
			[]any{b.West, b.North},
			[]any{b.East, b.South},
		},
	}
}

var (
	envelopePattern = regexp.MustCompile(`(?i)^\s*ENVELOPE\s*\(([^)]+)\)\s*$`)
	wktPattern      = regexp.MustCompile(`(?i)^\s*(POINT|MULTIPOINT|LINESTRING|MULTILINESTRING|POLYGON|MULTIPOLYGON|GEOMETRYCOLLECTION)\s*[(Z(]`)
	floatPattern    = regexp.MustCompile(`-?\d+(\.\d+)?([eE][+-]?\d+)?`)
	bboxSeparators  = regexp.MustCompile(`[,|\s]+`)
)

// parseCoord parses one coordinate, accepting the comma decimal separator
// some European portals emit.
func parseCoord(v any) (float64, bool) {
	if n, ok := record.AsNumber(v); ok {
		return n, true
	}
	s, ok := record.AsString(v)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// ParseEnvelope parses the "ENVELOPE(minX, maxX, maxY, minY)" notation.
func ParseEnvelope(s string) (BBox, bool) {
	m := envelopePattern.FindStringSubmatch(s)
	if m == nil {
		return BBox{}, false
	}
	parts := strings.Split(m[1], ",")
	if len(parts) != 4 {
		return BBox{}, false
	}
	var nums [4]float64
	for i, p := range parts {
		f, ok := parseCoord(p)
		if !ok {
			return BBox{}, false
		}
		nums[i] = f
	}
	b := BBox{West: nums[0], East: nums[1], North: nums[2], South: nums[3]}
	return b, b.Valid()
}

// ParseWKT extracts the bounds of a well-known-text geometry. Only the
// coordinate bounds matter downstream, so the structure inside the
// geometry is not reconstructed.
func ParseWKT(s string) (BBox, bool) {
	if !wktPattern.MatchString(s) {
		return BBox{}, false
	}
	open := strings.Index(s, "(")
	if open < 0 {
		return BBox{}, false
	}
	matches := floatPattern.FindAllString(s[open:], -1)
	if len(matches) < 2 || len(matches)%2 != 0 {
		return BBox{}, false
	}
	var b BBox
	for i := 0; i+1 < len(matches); i += 2 {
		x, errX := strconv.ParseFloat(matches[i], 64)
		y, errY := strconv.ParseFloat(matches[i+1], 64)
		if errX != nil || errY != nil {
			return BBox{}, false
		}
		if i == 0 {
			b = BBox{West: x, East: x, South: y, North: y}
			continue
		}
		b.West = min(b.West, x)
		b.East = max(b.East, x)
		b.South = min(b.South, y)
		b.North = max(b.North, y)
	}
	return b, b.Valid()
}

// parseBBoxString parses "minX,minY,maxX,maxY" with comma, pipe or space
// separators.
func parseBBoxString(s string) (BBox, bool) {
	parts := bboxSeparators.Split(strings.TrimSpace(s), -1)
	if len(parts) != 4 {
		return BBox{}, false
	}
	var nums [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return BBox{}, false
		}
		nums[i] = f
	}
	b := BBox{West: nums[0], South: nums[1], East: nums[2], North: nums[3]}
	return b, b.Valid()
}

// locationTranslator derives the location field. A bounding box expressed
// as four separate record fields is authoritative: when one is complete,
// any free-form geometry in the regular fields is discarded.
type locationTranslator struct {
	spec  config.LocationSpec
	rules *rules
}

func newLocationTranslator(spec config.LocationSpec, r *rules) *locationTranslator {
	return &locationTranslator{spec: spec, rules: r}
}

func (t *locationTranslator) Field() string { return record.FieldLocation }

func (t *locationTranslator) Translate(rec record.Structured, _ record.Canonical, _ Hints, log *record.Log) (any, bool) {
	if b, ok := t.fieldPairBBox(rec); ok {
		return Validate(
			[]any{map[string]any{"geometry": b.Geometry()}},
			&t.spec.Constraint, record.FieldLocation, log,
		)
	}

	var entries []any
	for _, field := range t.spec.Fields {
		value, present := rec[field]
		if !present || record.IsEmpty(value) {
			continue
		}
		entries = append(entries, t.process(value)...)
	}
	entries = dedupeGeometries(entries)
	if len(entries) == 0 {
		return nil, false
	}
	return Validate(entries, &t.spec.Constraint, record.FieldLocation, log)
}

func (t *locationTranslator) fieldPairBBox(rec record.Structured) (BBox, bool) {
	for _, pair := range t.spec.BBoxFieldPairs {
		var nums [4]float64
		complete := true
		for i, field := range pair {
			value, present := rec[field]
			if !present {
				complete = false
				break
			}
			f, ok := parseCoord(value)
			if !ok {
				complete = false
				break
			}
			nums[i] = f
		}
		if !complete {
			continue
		}
		b := BBox{West: nums[0], South: nums[1], East: nums[2], North: nums[3]}
		if b.Valid() {
			return b, true
		}
	}
	return BBox{}, false
}

func (t *locationTranslator) process(value any) []any {
	switch v := value.(type) {
	case string:
		return t.fromString(v)
	case map[string]any:
		return t.fromObject(v)
	case []any:
		var out []any
		for _, item := range v {
			out = append(out, t.process(item)...)
		}
		return out
	}
	return nil
}

func (t *locationTranslator) fromString(s string) []any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(s), &obj); err == nil {
			return t.fromObject(obj)
		}
		return nil
	}
	if b, ok := ParseEnvelope(s); ok {
		return []any{map[string]any{"geometry": b.Geometry()}}
	}
	if b, ok := ParseWKT(s); ok {
		return []any{map[string]any{"geometry": b.Geometry()}}
	}
	if b, ok := parseBBoxString(s); ok {
		return []any{map[string]any{"geometry": b.Geometry()}}
	}
	// Anything non-numeric is kept as a place name.
	if len(s) <= 128 && !floatPattern.MatchString(s) && t.rules.validString(s, true, true) {
		return []any{map[string]any{"name": s}}
	}
	return nil
}

func (t *locationTranslator) fromObject(obj map[string]any) []any {
	// GeoJSON geometries pass through once their bounds check out.
	if geomType, ok := record.AsString(obj["type"]); ok {
		if coords, present := obj["coordinates"]; present {
			if b, ok := coordinateBounds(coords); ok && b.Valid() {
				if strings.EqualFold(geomType, "point") || strings.EqualFold(geomType, "envelope") {
					return []any{map[string]any{"geometry": b.Geometry()}}
				}
				return []any{map[string]any{"geometry": map[string]any{
					"type":        geomType,
					"coordinates": coords,
				}}}
			}
			return nil
		}
	}

	// OGC corner pairs ("x y" strings); corner order varies per portal.
	if lower, ok := record.AsString(unwrapSingle(obj["LowerCorner"])); ok {
		if upper, ok := record.AsString(unwrapSingle(obj["UpperCorner"])); ok {
			if b, ok := cornerBounds(lower, upper); ok {
				return []any{map[string]any{"geometry": b.Geometry()}}
			}
			return nil
		}
	}

	for _, pair := range t.spec.BBoxKeyPairs {
		var nums [4]float64
		complete := true
		for i, key := range pair {
			value, present := obj[key]
			if !present {
				complete = false
				break
			}
			f, ok := parseCoord(value)
			if !ok {
				complete = false
				break
			}
			nums[i] = f
		}
		if !complete {
			continue
		}
		b := BBox{West: nums[0], South: nums[1], East: nums[2], North: nums[3]}
		if b.Valid() {
			return []any{map[string]any{"geometry": b.Geometry()}}
		}
		return nil
	}

	if s, ok := record.AsString(obj[t.rules.textKey]); ok {
		return t.fromString(s)
	}
	for _, key := range []string{"geometry", "geom", "spatial", "coverage", "geographicElement", "boundingBox", "bbox", "envelope"} {
		if nested, present := obj[key]; present {
			if out := t.process(nested); len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

// cornerBounds parses two "x y" corner strings, assigning min and max per
// axis rather than trusting the corner labels.
func cornerBounds(lower, upper string) (BBox, bool) {
	lx, ly, okL := parseXYPair(lower)
	ux, uy, okU := parseXYPair(upper)
	if !okL || !okU {
		return BBox{}, false
	}
	b := BBox{
		West: min(lx, ux), East: max(lx, ux),
		South: min(ly, uy), North: max(ly, uy),
	}
	return b, b.Valid()
}

func parseXYPair(s string) (float64, float64, bool) {
	parts := strings.Fields(strings.TrimSpace(s))
	if len(parts) != 2 {
		return 0, 0, false
	}
	x, errX := strconv.ParseFloat(parts[0], 64)
	y, errY := strconv.ParseFloat(parts[1], 64)
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}

// coordinateBounds walks an arbitrarily nested GeoJSON coordinates value
// and returns its bounds.
func coordinateBounds(coords any) (BBox, bool) {
	var pts [][2]float64
	if !collectPoints(coords, &pts) || len(pts) == 0 {
		return BBox{}, false
	}
	b := BBox{West: pts[0][0], East: pts[0][0], South: pts[0][1], North: pts[0][1]}
	for _, p := range pts[1:] {
		b.West = min(b.West, p[0])
		b.East = max(b.East, p[0])
		b.South = min(b.South, p[1])
		b.North = max(b.North, p[1])
	}
	return b, true
}

func collectPoints(coords any, pts *[][2]float64) bool {
	list, ok := record.AsList(coords)
	if !ok || len(list) == 0 {
		return false
	}
	if x, ok := record.AsNumber(list[0]); ok {
		if len(list) < 2 {
			return false
		}
		y, ok := record.AsNumber(list[1])
		if !ok {
			return false
		}
		*pts = append(*pts, [2]float64{x, y})
		return true
	}
	for _, item := range list {
		if !collectPoints(item, pts) {
			return false
		}
	}
	return true
}

// dedupeGeometries drops repeated geometries and points that fall inside
// an envelope that is also present. Coordinates are compared rounded, so
// near-identical representations from different source fields collapse.
func dedupeGeometries(entries []any) []any {
	type key struct {
		kind string
		repr string
	}
	seen := make(map[key]struct{})
	var envelopes []BBox
	for _, entry := range entries {
		obj, ok := record.AsObject(entry)
		if !ok {
			continue
		}
		if geom, ok := record.AsObject(obj["geometry"]); ok {
			if b, ok := geometryBBox(geom); ok && !b.IsPoint() {
				envelopes = append(envelopes, b)
			}
		}
	}

	var out []any
	for _, entry := range entries {
		obj, ok := record.AsObject(entry)
		if !ok {
			continue
		}
		var k key
		if name, ok := record.AsString(obj["name"]); ok {
			k = key{kind: "name", repr: strings.ToLower(name)}
		} else if geom, ok := record.AsObject(obj["geometry"]); ok {
			b, bounded := geometryBBox(geom)
			if bounded && b.IsPoint() && insideAnyEnvelope(b, envelopes) {
				continue
			}
			if bounded {
				k = key{kind: "geom", repr: roundedRepr(b)}
			} else {
				k = key{kind: "geom", repr: fmt.Sprint(geom)}
			}
		} else {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, entry)
	}
	return out
}

func geometryBBox(geom map[string]any) (BBox, bool) {
	coords, present := geom["coordinates"]
	if !present {
		return BBox{}, false
	}
	geomType, _ := record.AsString(geom["type"])
	if strings.EqualFold(geomType, "envelope") {
		var pts [][2]float64
		if collectPoints(coords, &pts) && len(pts) == 2 {
			return BBox{
				West: pts[0][0], North: pts[0][1],
				East: pts[1][0], South: pts[1][1],
			}, true
		}
		return BBox{}, false
	}
	return coordinateBounds(coords)
}

func insideAnyEnvelope(p BBox, envelopes []BBox) bool {
	for _, e := range envelopes {
		if p.West >= e.West && p.East <= e.East && p.South >= e.South && p.North <= e.North {
			return true
		}
	}
	return false
}

func roundedRepr(b BBox) string {
	return fmt.Sprintf("%.3f,%.3f,%.3f,%.3f", b.West, b.South, b.East, b.North)
}
