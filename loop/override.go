package loop

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalJSON writes a scalar as a number and a sequence as an array.
func (o Override) MarshalJSON() ([]byte, error) {
	if o.seq {
		return json.Marshal(o.values)
	}
	return json.Marshal(o.scalar)
}

// UnmarshalJSON accepts a number or an array of numbers.
func (o *Override) UnmarshalJSON(data []byte) error {
	var xs []float64
	if err := json.Unmarshal(data, &xs); err == nil {
		*o = PerReplicate(xs...)
		return nil
	}
	var x float64
	if err := json.Unmarshal(data, &x); err != nil {
		return fmt.Errorf("loop override: want number or array of numbers: %w", err)
	}
	*o = Scalar(x)
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (o Override) MarshalYAML() (interface{}, error) {
	if o.seq {
		return o.values, nil
	}
	return o.scalar, nil
}

// UnmarshalYAML accepts a scalar or a sequence node.
func (o *Override) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var xs []float64
		if err := value.Decode(&xs); err != nil {
			return fmt.Errorf("loop override line %d: %w", value.Line, err)
		}
		*o = PerReplicate(xs...)
	case yaml.ScalarNode:
		var x float64
		if err := value.Decode(&x); err != nil {
			return fmt.Errorf("loop override line %d: %w", value.Line, err)
		}
		*o = Scalar(x)
	default:
		return fmt.Errorf("loop override line %d: want number or list of numbers", value.Line)
	}
	return nil
}
