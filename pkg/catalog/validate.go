package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/systemgraph/pkg/errors"
)

// maxNameLength is the longest name or namespace the catalog accepts.
const maxNameLength = 63

var entityNameRe = regexp.MustCompile(`^[a-zA-Z0-9]+([-_.][a-zA-Z0-9]+)*$`)

// entityValidate is the validator instance for entity descriptors.
var entityValidate *validator.Validate

func init() {
	entityValidate = validator.New()
	_ = entityValidate.RegisterValidation("entityname", validateEntityName)
}

func validateEntityName(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return len(s) <= maxNameLength && entityNameRe.MatchString(s)
}

// Validate checks the structural rules every entity must satisfy: an
// apiVersion and kind, and a name (and optional namespace) made of
// alphanumeric runs joined by '-', '_' or '.', at most 63 characters long.
func Validate(e Entity) error {
	err := entityValidate.Struct(e)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !asValidationErrors(err, &verrs) {
		return errors.Wrap(errors.ErrCodeInvalidEntity, err, "validate %s", describe(e))
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return errors.New(errors.ErrCodeInvalidEntity, "invalid entity %s: %s", describe(e), strings.Join(msgs, "; "))
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

// describe names an entity in error messages even when it is incomplete.
func describe(e Entity) string {
	if e.Kind == "" || e.Metadata.Name == "" {
		return fmt.Sprintf("%q (kind %q)", e.Metadata.Name, e.Kind)
	}
	return e.Ref().String()
}
