package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/seo-lead-finder/internal/model"
)

// WriteJSON writes the leads as an indented JSON array.
func WriteJSON(w io.Writer, results []model.LeadResult) error {
	if results == nil {
		results = []model.LeadResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return eris.Wrap(err, "export: encode json")
	}
	return nil
}

// WriteYAML writes the leads as a YAML sequence.
func WriteYAML(w io.Writer, results []model.LeadResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(results); err != nil {
		return eris.Wrap(err, "export: encode yaml")
	}
	if err := enc.Close(); err != nil {
		return eris.Wrap(err, "export: close yaml encoder")
	}
	return nil
}
