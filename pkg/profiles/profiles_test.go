package profiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/fields"
)

func TestCategoryNames(t *testing.T) {
	tests := []struct {
		category Category
		name     string
		bundle   string
		multi    bool
	}{
		{Personal, "personal", "personal_information", false},
		{Contact, "contact", "contact_information", false},
		{Work, "work", "work_information", false},
		{Family, "family", "family_information", true},
		{Education, "education", "education_information", true},
		{Medical, "medical", "med_information", true},
		{Violation, "violation", "violation_information", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.category.String())
			assert.Equal(t, tt.bundle, tt.category.Bundle())
			assert.Equal(t, tt.multi, tt.category.MultiValued())
			assert.True(t, tt.category.Valid())

			byName, err := Parse(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.category, byName)

			byBundle, err := Parse(tt.bundle)
			require.NoError(t, err)
			assert.Equal(t, tt.category, byBundle)

			fromBundle, ok := FromBundle(tt.bundle)
			assert.True(t, ok)
			assert.Equal(t, tt.category, fromBundle)
		})
	}
}

func TestCategoryZeroValue(t *testing.T) {
	var c Category
	assert.False(t, c.Valid())
	assert.Equal(t, "category(0)", c.String())
	assert.Equal(t, "", c.Bundle())
	_, err := c.MarshalText()
	assert.True(t, errors.IsValidationError(err))
}

func TestParse(t *testing.T) {
	c, err := Parse("  Family ")
	require.NoError(t, err)
	assert.Equal(t, Family, c)

	_, err = Parse("pets")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestParseList(t *testing.T) {
	got, err := ParseList([]string{"medical,personal", "family", "personal"})
	require.NoError(t, err)
	assert.Equal(t, []Category{Personal, Family, Medical}, got)

	got, err = ParseList(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseList([]string{"work,unknown"})
	assert.Error(t, err)
}

func TestCategoryText(t *testing.T) {
	var c Category
	require.NoError(t, c.UnmarshalText([]byte("violation_information")))
	assert.Equal(t, Violation, c)

	text, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "violation", string(text))
}

func TestSchemas(t *testing.T) {
	for _, c := range All() {
		s, ok := Lookup(c)
		require.True(t, ok, c.String())
		assert.Equal(t, c, s.Category)
		assert.NotEmpty(t, s.Fields)
	}

	assert.Equal(t, []string{
		"field_work_unit",
		"field_work_position",
		"field_work_position_type",
		"field_work_enterdate",
		"field_work_fireddate",
		"field_work_number",
	}, Work.Schema().Names())

	f, ok := Personal.Schema().Field("field_personal_birthdate")
	require.True(t, ok)
	assert.Equal(t, "birth_date", f.Source)
	assert.Equal(t, fields.AsDate, f.Convert)

	f, ok = Family.Schema().Field("field_fam_birthdate")
	require.True(t, ok)
	assert.Equal(t, fields.AsTrimmed, f.Convert, "multi-valued dates are trimmed, not validated")

	_, ok = Medical.Schema().Field("field_personal_fio")
	assert.False(t, ok)

	assert.Len(t, SingleValued(), 3)
	assert.Len(t, MultiValued(), 4)
}
