package enrich

import (
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
)

// prettyOptions reproduces a plain 2-space indent. Width 0 keeps every array
// multi-line instead of folding short ones onto a single line.
var prettyOptions = &pretty.Options{Width: 0, Prefix: "", Indent: "  ", SortKeys: false}

// Document is a JSON object mapping group names to arrays of address records.
// It is held as raw JSON and edited in place, so group order, record order and
// every field the updater does not touch survive unchanged.
type Document struct {
	raw []byte
}

// Group describes one top-level entry of a Document.
type Group struct {
	Name string
	// Records is the array length, or -1 when the value is not an array.
	Records int
}

// ParseDocument validates data and wraps it as a Document. The top-level
// value must be a JSON object.
func ParseDocument(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, eris.New("enrich: document is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, eris.New("enrich: document must be a JSON object of groups")
	}
	if raw, repeated := collapseRepeatedGroups(root); len(repeated) > 0 {
		zap.L().Warn("enrich: repeated group names, keeping the last value of each",
			zap.Strings("groups", repeated),
		)
		return &Document{raw: raw}, nil
	}
	raw := make([]byte, len(data))
	copy(raw, data)
	return &Document{raw: raw}, nil
}

// collapseRepeatedGroups rebuilds root so every group name appears once. A
// repeated name keeps the position of its first occurrence and the value of
// its last, as a decode/encode round trip would. It returns the names that
// were repeated; when there are none the document is untouched.
func collapseRepeatedGroups(root gjson.Result) ([]byte, []string) {
	type entry struct {
		key   string
		value string
	}
	var (
		entries  []entry
		index    = make(map[string]int)
		repeated []string
	)
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if i, ok := index[name]; ok {
			if !slices.Contains(repeated, name) {
				repeated = append(repeated, name)
			}
			entries[i].value = value.Raw
			return true
		}
		index[name] = len(entries)
		entries = append(entries, entry{key: key.Raw, value: value.Raw})
		return true
	})
	if len(repeated) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(e.key)
		b.WriteByte(':')
		b.WriteString(e.value)
	}
	b.WriteByte('}')
	return []byte(b.String()), repeated
}

// LoadDocument reads and parses the file at path.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: read %s", path)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: parse %s", path)
	}
	return doc, nil
}

// Groups lists the top-level groups in document order.
func (d *Document) Groups() []Group {
	var groups []Group
	gjson.ParseBytes(d.raw).ForEach(func(key, value gjson.Result) bool {
		g := Group{Name: key.String(), Records: -1}
		if value.IsArray() {
			g.Records = len(value.Array())
		}
		groups = append(groups, g)
		return true
	})
	return groups
}

// Record returns the record at index i of group.
func (d *Document) Record(group string, i int) gjson.Result {
	return gjson.GetBytes(d.raw, recordPath(group, i))
}

// SetCoordinates writes lat and lon as string fields on the record at index i
// of group. Existing values are replaced in place; new fields are appended.
// Writing to a record that does not exist is an error.
func (d *Document) SetCoordinates(group string, i int, lat, lon string) error {
	path := recordPath(group, i)
	if !gjson.GetBytes(d.raw, path).IsObject() {
		return eris.Errorf("enrich: no record at %s[%d]", group, i)
	}
	raw, err := sjson.SetBytes(d.raw, path+".lat", lat)
	if err != nil {
		return eris.Wrapf(err, "enrich: set lat on %s[%d]", group, i)
	}
	raw, err = sjson.SetBytes(raw, path+".lon", lon)
	if err != nil {
		return eris.Wrapf(err, "enrich: set lon on %s[%d]", group, i)
	}
	d.raw = raw
	return nil
}

// Bytes renders the document with a 2-space indent.
func (d *Document) Bytes() []byte {
	return pretty.PrettyOptions(d.raw, prettyOptions)
}

// WriteFile writes the pretty-printed document to path.
func (d *Document) WriteFile(path string) error {
	if err := os.WriteFile(path, d.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "enrich: write %s", path)
	}
	return nil
}

func recordPath(group string, i int) string {
	return gjson.Escape(group) + "." + strconv.Itoa(i)
}
