package model

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// ValidateForm validates a raw form submission against cvform.schema.json in
// the given template directory. Uses absolute canonical file:// paths so the
// schema loader resolves correctly on all platforms.
func ValidateForm(templateDir string, payload []byte) error {
	abs, err := filepath.Abs(filepath.Join(templateDir, "cvform.schema.json"))
	if err != nil {
		return err
	}
	schemaLoader := gojsonschema.NewReferenceLoader("file://" + filepath.ToSlash(abs))
	docLoader := gojsonschema.NewBytesLoader(payload)

	res, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return errors.Wrap(err, "form schema validation")
	}
	if res.Valid() {
		return nil
	}
	msgs := ""
	for _, e := range res.Errors() {
		msgs += fmt.Sprintf("%s; ", e.String())
	}
	return errors.Errorf("form validation failed: %s", msgs)
}
