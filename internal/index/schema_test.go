package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaVersions(t *testing.T) {
	v2 := SchemaV2()
	assert.Equal(t, 2, v2.Version())
	assert.True(t, v2.HasField(FieldUUID))
	assert.True(t, v2.HasField(FieldNamePart))
	assert.False(t, v2.HasField(FieldMember))
	assert.False(t, v2.HasField(FieldSubgroup))

	v4 := SchemaV4()
	assert.Equal(t, 4, v4.Version())
	assert.True(t, v4.HasField(FieldMember))
	assert.True(t, v4.HasField(FieldSubgroup))

	assert.Equal(t, v4.Version(), LatestSchema().Version())
}

func TestSchemaForVersion(t *testing.T) {
	s, err := SchemaForVersion(2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Version())

	s, err = SchemaForVersion(4)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Version())

	_, err = SchemaForVersion(3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3")
}
