package feature

// AssembleVector builds the model input vector from a feature map.
// Features are placed in catalog order; names absent from the map are
// zero. Unknown names in the map are ignored; the vector width is
// always Count.
func AssembleVector(features map[string]float64) []float64 {
	vec := make([]float64, Count)
	for i, d := range definitions {
		vec[i] = features[d.Name]
	}
	return vec
}

// Normalize returns a feature map restricted to catalog names: every
// catalog name present, missing entries zero, unknown names dropped.
// The input map is not modified.
func Normalize(features map[string]float64) map[string]float64 {
	out := make(map[string]float64, Count)
	for _, d := range definitions {
		out[d.Name] = features[d.Name]
	}
	return out
}
