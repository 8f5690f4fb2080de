package compare

import (
	json "github.com/goccy/go-json"
)

// JSONFormatter formats comparison results as JSON.
type JSONFormatter struct {
	Pretty bool
}

// Format generates JSON output for comparison results.
func (jf *JSONFormatter) Format(compSet *ComparisonSet) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(compSet, "", "  ")
	} else {
		data, err = json.Marshal(compSet)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
