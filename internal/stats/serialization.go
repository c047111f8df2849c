package stats

import "encoding/json"

// MarshalJSON encodes the delta as a stat-name keyed object so snapshots stay
// readable to the rendering and metrics consumers.
func (d Delta) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

// UnmarshalJSON decodes a stat-name keyed object, rejecting unknown names.
func (d *Delta) UnmarshalJSON(data []byte) error {
	var entries map[string]float64
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	decoded, err := DeltaFromMap(entries)
	if err != nil {
		return err
	}
	*d = decoded
	return nil
}

// MarshalJSON encodes absolute values the same way deltas are encoded.
func (v Values) MarshalJSON() ([]byte, error) {
	return json.Marshal(Delta(v).Map())
}

// UnmarshalJSON decodes a stat-name keyed object into absolute values.
func (v *Values) UnmarshalJSON(data []byte) error {
	var delta Delta
	if err := delta.UnmarshalJSON(data); err != nil {
		return err
	}
	*v = Values(delta)
	return nil
}
