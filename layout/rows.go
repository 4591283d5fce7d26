package layout

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tsawler/transcribe/model"
)

// RowKey is a quantized vertical coordinate used as the row clustering key
type RowKey float64

// Format renders the key with the given number of decimal digits
func (k RowKey) Format(precision int) string {
	if precision < 0 {
		precision = 0
	}
	return strconv.FormatFloat(float64(k), 'f', precision, 64)
}

// NewRowKey rounds y to precision decimal digits. Rounding is applied to
// the exact binary value of y, ties to even, so 0.015 (stored just below
// 0.015) rounds to 0.01. Non-finite coordinates map to 0 so they still land
// in a row.
func NewRowKey(y float64, precision int) RowKey {
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0
	}
	if precision < 0 {
		precision = 0
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(y, 'f', precision, 64), 64)
	if err != nil {
		return 0
	}
	if r == 0 {
		// Collapse -0 so it groups with +0 when formatted
		return 0
	}
	return RowKey(r)
}

// RowConfig holds configuration for row clustering
type RowConfig struct {
	// Precision is the number of decimal digits y0 is rounded to (default: 2)
	Precision int

	// Tolerance enables band matching when > 0: rounded keys within
	// Tolerance of a row's top key join that row. 0 means exact matching.
	Tolerance float64

	// SuppressEmptyRows drops rows whose joined text is blank (default: false)
	SuppressEmptyRows bool
}

// DefaultRowConfig returns the exact-match configuration
func DefaultRowConfig() RowConfig {
	return RowConfig{
		Precision:         2,
		Tolerance:         0,
		SuppressEmptyRows: false,
	}
}

// bandEpsilon absorbs binary representation error when comparing the
// difference of two rounded keys with Tolerance.
const bandEpsilon = 1e-9

// Row is a group of row-candidate fragments sharing a RowKey
type Row struct {
	// Key is the row's quantized y0
	Key RowKey

	// Fragments sorted ascending by x0
	Fragments []Classified

	// BBox is the union of the fragment boxes
	BBox model.BBox
}

// Text joins the trimmed text of each fragment with single spaces.
// Blank fragments still contribute a separator.
func (r Row) Text() string {
	parts := make([]string, len(r.Fragments))
	for i, f := range r.Fragments {
		parts[i] = strings.TrimSpace(f.Text)
	}
	return strings.Join(parts, " ")
}

// RowClusterer groups row-candidate fragments into rows
type RowClusterer struct {
	config RowConfig
}

// NewRowClusterer creates a clusterer with default configuration
func NewRowClusterer() *RowClusterer {
	return &RowClusterer{config: DefaultRowConfig()}
}

// NewRowClustererWithConfig creates a clusterer with custom configuration
func NewRowClustererWithConfig(config RowConfig) *RowClusterer {
	if config.Tolerance < 0 {
		config.Tolerance = 0
	}
	return &RowClusterer{config: config}
}

// Config returns the clusterer configuration
func (c *RowClusterer) Config() RowConfig {
	return c.config
}

// Key returns the RowKey for a y0 coordinate
func (c *RowClusterer) Key(y float64) RowKey {
	return NewRowKey(y, c.config.Precision)
}

// Cluster groups fragments into rows. Rows are returned top of page first
// (descending RowKey); fragments within a row are ordered by x0.
func (c *RowClusterer) Cluster(fragments []Classified) []Row {
	if len(fragments) == 0 {
		return nil
	}

	// Step 1+2: key every fragment and group by exact key
	groups := make(map[RowKey][]Classified)
	keys := make([]RowKey, 0)
	for _, f := range fragments {
		k := c.Key(f.BBox.Bottom())
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], f)
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i] > keys[j]
	})

	if c.config.Tolerance > 0 {
		keys, groups = c.mergeBands(keys, groups)
	}

	// Step 3-5: order each group by x0 and emit top to bottom
	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		members := groups[k]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].BBox.Left() < members[j].BBox.Left()
		})

		row := Row{Key: k, Fragments: members, BBox: members[0].BBox}
		for _, m := range members[1:] {
			row.BBox = row.BBox.Union(m.BBox)
		}

		if c.config.SuppressEmptyRows && strings.TrimSpace(row.Text()) == "" {
			continue
		}
		rows = append(rows, row)
	}

	return rows
}

// mergeBands folds keys (sorted descending) into bands anchored at their
// highest key. Each band keeps its anchor as the row key.
func (c *RowClusterer) mergeBands(keys []RowKey, groups map[RowKey][]Classified) ([]RowKey, map[RowKey][]Classified) {
	merged := make(map[RowKey][]Classified, len(groups))
	anchors := make([]RowKey, 0, len(keys))

	var anchor RowKey
	for i, k := range keys {
		if i == 0 || float64(anchor-k) > c.config.Tolerance+bandEpsilon {
			anchor = k
			anchors = append(anchors, k)
		}
		merged[anchor] = append(merged[anchor], groups[k]...)
	}

	return anchors, merged
}
