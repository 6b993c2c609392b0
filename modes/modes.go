// Package modes holds the frozen timing/geometry table for the SSTV modes
// this decoder supports, plus BT.601 YUV<->RGB colorimetry. Grounded on
// madpsy-ka9q_ubersdr/audio_extensions/sstv/modes.go's ModeSpec table shape,
// narrowed to the six modes this system decodes.
package modes

// ColorOrder is informational only: the decode path for every mode in this
// table hard-codes its own channel order and never reads this field (spec
// open question: three drafts of the original mode table disagreed on
// Robot 36's ColorOrder; since nothing consumes it, any value is valid).
type ColorOrder string

const (
	OrderGRB ColorOrder = "G,R,B"
	OrderRGB ColorOrder = "R,G,B"
	OrderYUV ColorOrder = "Y,U,V"
)

// Name identifies one of the supported modes.
type Name string

const (
	Robot36   Name = "Robot 36"
	Robot72   Name = "Robot 72"
	ScottieS1 Name = "Scottie S1"
	PD120     Name = "PD 120"
	PD160     Name = "PD 160"
	PD180     Name = "PD 180"
)

// Spec is the immutable per-mode record: timing fields are in milliseconds
// with sub-millisecond precision, as transmitted; each line decoder
// converts these to integer sample counts at construction given Fs.
type Spec struct {
	Name          Name
	VISCode       uint8
	WidthPx       int
	HeightPx      int
	LineMS        float64
	SyncMS        float64
	PorchMS       float64
	SeparatorsMS  []float64 // legacy/informational for PD modes; see below
	ChannelScanMS []float64
	ColorOrder    ColorOrder
}

// separator metadata: PD120 carries a nonzero legacy separator duration in
// some published mode tables even though PD modes have no separators in the
// actual signal (spec open question, §9): the field is retained here for
// fidelity to that table but never consumed by decode/pd.go.
var table = map[Name]Spec{
	Robot36: {
		Name: Robot36, VISCode: 8, WidthPx: 320, HeightPx: 240,
		LineMS: 150, SyncMS: 9, PorchMS: 3,
		SeparatorsMS:  []float64{4.5, 1.5},
		ChannelScanMS: []float64{88, 44},
		ColorOrder:    OrderGRB,
	},
	Robot72: {
		Name: Robot72, VISCode: 12, WidthPx: 320, HeightPx: 240,
		LineMS: 300, SyncMS: 9, PorchMS: 3,
		SeparatorsMS:  []float64{4.5, 1.5, 4.5, 1.5},
		ChannelScanMS: []float64{138, 69, 69},
		ColorOrder:    OrderYUV,
	},
	ScottieS1: {
		Name: ScottieS1, VISCode: 60, WidthPx: 320, HeightPx: 256,
		LineMS: 428.22, SyncMS: 9, PorchMS: 1.5,
		SeparatorsMS:  []float64{1.5},
		ChannelScanMS: []float64{138.24, 138.24, 138.24},
		ColorOrder:    OrderGRB,
	},
	PD120: {
		Name: PD120, VISCode: 95, WidthPx: 640, HeightPx: 496,
		LineMS: 496.628, SyncMS: 20, PorchMS: 2.08,
		SeparatorsMS:  []float64{4.862}, // legacy; unused, see doc comment above
		ChannelScanMS: []float64{121.6, 121.6, 121.6, 121.6},
		ColorOrder:    OrderYUV,
	},
	PD160: {
		Name: PD160, VISCode: 98, WidthPx: 512, HeightPx: 400,
		LineMS: 804.416, SyncMS: 20, PorchMS: 2.08,
		SeparatorsMS:  []float64{0},
		ChannelScanMS: []float64{195.584, 195.584, 195.584, 195.584},
		ColorOrder:    OrderYUV,
	},
	PD180: {
		Name: PD180, VISCode: 96, WidthPx: 640, HeightPx: 496,
		LineMS: 751.68, SyncMS: 20, PorchMS: 2.08,
		SeparatorsMS:  []float64{0},
		ChannelScanMS: []float64{182.4, 182.4, 182.4, 182.4},
		ColorOrder:    OrderYUV,
	},
}

// ByName looks up a mode by its canonical name (the mode name table a
// config file or CLI flag is matched against).
func ByName(name string) (Spec, bool) {
	s, ok := table[Name(name)]
	return s, ok
}

// All returns every supported mode, in a stable order.
func All() []Spec {
	order := []Name{Robot36, Robot72, ScottieS1, PD120, PD160, PD180}
	out := make([]Spec, 0, len(order))
	for _, n := range order {
		out = append(out, table[n])
	}
	return out
}
