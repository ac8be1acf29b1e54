package pipeline

import (
	"fmt"
	"sort"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

const rootField = "(root)"

// ValidateInput checks input structurally against the step's input schema and
// then runs the step's own validation. Step validation only runs once the input
// is structurally sound. A nil error with an empty slice means the input is valid.
func ValidateInput(form protocol.FormStep, input map[string]any) ([]models.FieldError, error) {
	if input == nil {
		input = map[string]any{}
	}

	fieldErrors, err := validateSchema(form.InputSchema(), input)
	if err != nil {
		return nil, err
	}

	if len(fieldErrors) > 0 {
		return fieldErrors, nil
	}

	return form.ValidateInput(input), nil
}

func validateSchema(schema *models.InputSchema, input map[string]any) ([]models.FieldError, error) {
	schemaLoader := gojsonschema.NewGoLoader(schema.ToJSONSchema())
	dataLoader := gojsonschema.NewGoLoader(input)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to validate input against schema: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	fieldErrors := make([]models.FieldError, 0, len(result.Errors()))

	for _, resultErr := range result.Errors() {
		field := resultErr.Field()
		if property, ok := resultErr.Details()["property"].(string); ok && field == rootField {
			field = property
		}

		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   field,
			Message: resultErr.Description(),
		})
	}

	sort.SliceStable(fieldErrors, func(i, j int) bool {
		return fieldErrors[i].Field < fieldErrors[j].Field
	})

	return fieldErrors, nil
}
