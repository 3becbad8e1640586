package profiles

import (
	"github.com/FursAndrey/staffsync/pkg/fields"
)

// Field maps one stored profile field to the source attribute it is built from.
type Field struct {
	Name    string
	Source  string
	Convert fields.Conversion
}

// Schema is the ordered field list of a category.
type Schema struct {
	Category Category
	Fields   []Field
}

var schemas = map[Category]Schema{
	Personal: {Category: Personal, Fields: []Field{
		{Name: "field_personal_fio", Source: "FIO", Convert: fields.AsString},
		{Name: "field_personal_birthdate", Source: "birth_date", Convert: fields.AsDate},
		{Name: "field_personal_fiz_code", Source: "fiz_code", Convert: fields.AsString},
		{Name: "field_personal_phone", Source: "phone", Convert: fields.AsString},
	}},
	Contact: {Category: Contact, Fields: []Field{
		{Name: "field_contact_email", Source: "email", Convert: fields.AsString},
		{Name: "field_contact_address", Source: "address", Convert: fields.AsString},
		{Name: "field_contact_inner_phone", Source: "inner_phone", Convert: fields.AsString},
	}},
	Work: {Category: Work, Fields: []Field{
		{Name: "field_work_unit", Source: "unit", Convert: fields.AsString},
		{Name: "field_work_position", Source: "position", Convert: fields.AsString},
		{Name: "field_work_position_type", Source: "position_type", Convert: fields.AsString},
		{Name: "field_work_enterdate", Source: "enter_date", Convert: fields.AsDate},
		{Name: "field_work_fireddate", Source: "fired_date", Convert: fields.AsDate},
		{Name: "field_work_number", Source: "number", Convert: fields.AsInt},
	}},
	Family: {Category: Family, Fields: []Field{
		{Name: "field_fam_fio", Source: "fio", Convert: fields.AsString},
		{Name: "field_fam_relation", Source: "relation", Convert: fields.AsString},
		{Name: "field_fam_relat_code", Source: "relation_code", Convert: fields.AsInt},
		{Name: "field_fam_birthdate", Source: "birth_date", Convert: fields.AsTrimmed},
	}},
	Education: {Category: Education, Fields: []Field{
		{Name: "field_edu_education_type", Source: "education_type", Convert: fields.AsString},
		{Name: "field_edu_specialty", Source: "specialty", Convert: fields.AsString},
		{Name: "field_edu_institution", Source: "institution", Convert: fields.AsString},
		{Name: "field_edu_start_date", Source: "start_date", Convert: fields.AsTrimmed},
		{Name: "field_edu_end_date", Source: "end_date", Convert: fields.AsTrimmed},
	}},
	Medical: {Category: Medical, Fields: []Field{
		{Name: "field_med_visit_date", Source: "visit_date", Convert: fields.AsRaw},
		{Name: "field_med_amount", Source: "amount", Convert: fields.AsRaw},
	}},
	Violation: {Category: Violation, Fields: []Field{
		{Name: "field_violation_date", Source: "violation_date", Convert: fields.AsString},
		{Name: "field_violation_type", Source: "violation_type", Convert: fields.AsRaw},
		{Name: "field_violation_code", Source: "violation_code", Convert: fields.AsRaw},
	}},
}

// Lookup returns the schema of c.
func Lookup(c Category) (Schema, bool) {
	s, ok := schemas[c]
	return s, ok
}

// Schema returns the schema of c, or an empty schema for an unknown category.
func (c Category) Schema() Schema {
	return schemas[c]
}

// Names returns the stored field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the field declared under name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
