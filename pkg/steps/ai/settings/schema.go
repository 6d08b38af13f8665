package settings

import (
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Schema describes the settings document as read from a config file.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		// the config file also carries logging flags
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	s := r.Reflect(&Settings{})
	// gojsonschema only understands drafts up to 7
	s.Version = ""
	s.Title = "grillo settings"
	return s
}

func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}

// ValidateDocument checks a YAML or JSON config document against Schema.
func ValidateDocument(doc []byte) error {
	var parsed map[string]interface{}
	if err := yaml.Unmarshal(doc, &parsed); err != nil {
		return errors.Wrap(err, "could not parse config document")
	}
	if parsed == nil {
		parsed = map[string]interface{}{}
	}
	docJSON, err := json.Marshal(parsed)
	if err != nil {
		return errors.Wrap(err, "could not convert config document to json")
	}
	schemaJSON, err := SchemaJSON()
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(docJSON),
	)
	if err != nil {
		return errors.Wrap(err, "could not validate config document")
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return errors.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
