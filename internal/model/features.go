package model

// FeatureCount is the number of components in a FeatureVector.
const FeatureCount = 5

// FeatureVector holds one day of normalized features, each in [0,1].
type FeatureVector struct {
	Price     float64
	Volume    float64
	SMA       float64
	RSI       float64
	Sentiment float64
}

// Values returns the components in model input order.
func (f FeatureVector) Values() [FeatureCount]float64 {
	return [FeatureCount]float64{f.Price, f.Volume, f.SMA, f.RSI, f.Sentiment}
}

// Sample pairs a window of W consecutive days with the next day's normalized price.
type Sample struct {
	Window []FeatureVector
	Label  float64
}

// DisplayRecord carries raw values for the day following a window. Reporting only.
type DisplayRecord struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
	RSI   float64 `json:"rsi"`
	SMA   float64 `json:"sma"`
}

// Bounds is the min/max pair of one feature dimension over the full history.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Range returns Max-Min, substituting 1 for a degenerate range.
func (b Bounds) Range() float64 {
	r := b.Max - b.Min
	if r == 0 {
		return 1
	}
	return r
}

// Summary holds the most recent raw values of a run, for reporting.
type Summary struct {
	LastClose    float64 `json:"last_close"`
	RecentVolume float64 `json:"recent_volume"`
	RecentRSI    float64 `json:"recent_rsi"`
	RecentSMA    float64 `json:"recent_sma"`
	Sentiment    float64 `json:"sentiment"`
}
