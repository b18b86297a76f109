package personalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractToolNames(t *testing.T) {
	routine := `1. Validate the new address.
2. Update the address on file.

available_tools = ['validate_address', 'update_address', 'complete_case']`

	assert.Equal(t,
		[]string{"validate_address", "update_address", "complete_case"},
		ExtractToolNames(routine),
	)
}

func TestExtractToolNamesVariants(t *testing.T) {
	// double quotes and loose whitespace
	assert.Equal(t,
		[]string{"a", "b"},
		ExtractToolNames(`available_tools  =  [ "a" , "b" ]`),
	)

	// empty list
	assert.Empty(t, ExtractToolNames(`available_tools = []`))

	// no assignment at all
	assert.Empty(t, ExtractToolNames("just a routine with no tool list"))
}
