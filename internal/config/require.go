package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMissingSettings is returned by Require when a needed value is absent.
var ErrMissingSettings = errors.New("missing required settings")

// Field paths accepted by Require.
const (
	FieldOpenAIKey         = "OpenAI.APIKey"
	FieldDefaultModel      = "OpenAI.DefaultModel"
	FieldEmbeddingModel    = "OpenAI.EmbeddingModel"
	FieldServiceURL        = "Database.ServiceURL"
	FieldTableName         = "VectorStore.TableName"
	FieldDimensions        = "VectorStore.EmbeddingDimensions"
	FieldPartitionInterval = "VectorStore.TimePartitionInterval"
	FieldCacheURL          = "Cache.URL"
	FieldQueueURL          = "Queue.URL"
	FieldQueueMaxAttempts  = "Queue.MaxAttempts"
)

var validate = newValidator()

// envPrefixes maps group field names to the envPrefix their vars carry.
var envPrefixes = map[string]string{
	"OpenAI":      "OPENAI_",
	"VectorStore": "VECTOR_STORE_",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("env"), ",")
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Require checks that the named fields hold usable values. Load never calls
// it; services call it for the groups they actually depend on.
func (s *Settings) Require(fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	err := validate.StructPartial(s, fields...)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, envName(fe))
	}
	return fmt.Errorf("%w: %s", ErrMissingSettings, strings.Join(names, ", "))
}

// envName rebuilds the environment variable name for a failed field.
// The namespace looks like "Settings.OpenAI.API_KEY".
func envName(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) < 3 {
		return fe.Field()
	}
	return envPrefixes[parts[1]] + fe.Field()
}
