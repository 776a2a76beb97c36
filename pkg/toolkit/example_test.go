package toolkit

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type employeeExample struct {
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Salary   int      `json:"salary"`
	Tags     []string `json:"tags"`
	Manager  *managerExample `json:"manager"`
}

type managerExample struct {
	FullName string `json:"full_name"`
	Team     []string `json:"team"`
}

func TestGenerateExampleFieldHeuristics(t *testing.T) {
	ex := GenerateExample(reflect.TypeOf(employeeExample{}))
	m, ok := ex.(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "Jane Doe", m["full_name"])
	assert.Equal(t, "jane.doe@example.com", m["email"])
	assert.Equal(t, 1, m["salary"])
}

func TestGenerateExampleBoundsRecursionDepth(t *testing.T) {
	ex := GenerateExample(reflect.TypeOf(employeeExample{}))
	m := ex.(map[string]any)

	// Manager is a nested struct one level down from the top-level struct's
	// own expansion; its own nested fields must be flattened to the
	// placeholder rather than expanded further.
	manager, ok := m["manager"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, placeholderNested, manager["team"])
}

type statusEnum string

func (statusEnum) EnumValues() []string { return []string{"ACTIVE", "INACTIVE"} }

type withEnum struct {
	Status statusEnum `json:"status"`
}

func TestGenerateExampleEnumUsesFirstVariant(t *testing.T) {
	ex := GenerateExample(reflect.TypeOf(withEnum{}))
	m := ex.(map[string]any)
	assert.Equal(t, "ACTIVE", m["status"])
}

type withOverrides struct {
	Code string `json:"code" jsonschema:"example=A1,description=An opaque code"`
}

func TestParamSpecsForHonorsTagOverrides(t *testing.T) {
	specs := ParamSpecsFor(reflect.TypeOf(withOverrides{}))
	require.Len(t, specs, 1)
	assert.Equal(t, "code", specs[0].Name)
	assert.Equal(t, "A1", specs[0].Example)
	assert.Equal(t, "An opaque code", specs[0].Description)
	assert.True(t, specs[0].Required)
}

type withOptional struct {
	Nickname string `json:"nickname,omitempty"`
}

func TestParamSpecsForOmitemptyIsNotRequired(t *testing.T) {
	specs := ParamSpecsFor(reflect.TypeOf(withOptional{}))
	require.Len(t, specs, 1)
	assert.False(t, specs[0].Required)
}

func TestSchemaReflectsStructType(t *testing.T) {
	schema, err := Schema[employeeExample]()
	require.NoError(t, err)
	assert.Equal(t, "object", schema["type"])
	assert.NotNil(t, schema["properties"])
}
