package index

import "fmt"

// Field identifies a searchable field in the group index.
type Field string

// Fields of the group index. Not every deployed schema version carries all
// of them; operators gated on newer fields must check HasField first.
const (
	FieldUUID        Field = "uuid"
	FieldName        Field = "name"
	FieldNamePart    Field = "name_part"
	FieldDescription Field = "description"
	FieldVisible     Field = "is_visible"
	FieldMember      Field = "member"
	FieldSubgroup    Field = "subgroup"
)

// Schema describes the set of fields a deployed group index supports.
// It is read-only after construction and safe to share across goroutines.
type Schema struct {
	version int
	fields  map[Field]struct{}
}

// NewSchema builds a schema for the given version with exactly the listed
// fields.
func NewSchema(version int, fields ...Field) *Schema {
	s := &Schema{
		version: version,
		fields:  make(map[Field]struct{}, len(fields)),
	}
	for _, f := range fields {
		s.fields[f] = struct{}{}
	}
	return s
}

// Version returns the schema version number.
func (s *Schema) Version() int {
	return s.version
}

// HasField reports whether this schema version supports the given field.
func (s *Schema) HasField(f Field) bool {
	_, ok := s.fields[f]
	return ok
}

var baseFields = []Field{
	FieldUUID,
	FieldName,
	FieldNamePart,
	FieldDescription,
	FieldVisible,
}

// SchemaV2 returns the base schema: name, uuid, description and visibility
// fields only.
func SchemaV2() *Schema {
	return NewSchema(2, baseFields...)
}

// SchemaV4 returns the schema that added membership and subgroup fields.
func SchemaV4() *Schema {
	return NewSchema(4, append(append([]Field{}, baseFields...), FieldMember, FieldSubgroup)...)
}

// LatestSchema returns the newest schema version this build knows about.
func LatestSchema() *Schema {
	return SchemaV4()
}

// SchemaForVersion returns the schema for a configured version number.
func SchemaForVersion(version int) (*Schema, error) {
	switch version {
	case 2:
		return SchemaV2(), nil
	case 4:
		return SchemaV4(), nil
	default:
		return nil, fmt.Errorf("unknown group index schema version %d", version)
	}
}
