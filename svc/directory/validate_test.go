package directory_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/validator"
	"github.com/orbsaiuk/DatesHub-sub003/svc/directory"
)

func TestValidateProfile(t *testing.T) {
	t.Parallel()

	p := directory.TenantProfile{
		Name:        "  Golden \n Palm ",
		Description: " First line\r\nsecond ",
		Email:       " Sales@Palm.Example",
		Phone:       "٠٥٠ ١٢٣ ٤٥٦٧",
		Website:     "Palm.Example/",
	}.Trim()
	assert.Equal(t, "Golden Palm", p.Name)
	assert.Equal(t, "First line\nsecond", p.Description)
	assert.Equal(t, "sales@palm.example", p.Email)
	assert.Equal(t, "0501234567", p.Phone)
	assert.Equal(t, "https://palm.example", p.Website)
	require.NoError(t, directory.ValidateProfile(p))

	err := directory.ValidateProfile(directory.TenantProfile{Website: "javascript:alert(1)"})
	require.Error(t, err)
	verrs := validator.ExtractValidationErrors(err)
	assert.True(t, verrs.Has("name"))
	assert.True(t, verrs.Has("website"))
}

func TestValidateItem(t *testing.T) {
	t.Parallel()

	require.NoError(t, directory.ValidateItem(directory.Item{Title: "Sukkari 5kg", Price: 120}))

	err := directory.ValidateItem(directory.Item{
		Title:  strings.Repeat("ت", directory.MaxTitleLength+1),
		Price:  -1,
		Status: "deleted",
	})
	verrs := validator.ExtractValidationErrors(err)
	assert.True(t, verrs.Has("title"))
	assert.True(t, verrs.Has("price"))
	assert.True(t, verrs.Has("status"))
}

func TestValidatePatch(t *testing.T) {
	t.Parallel()

	empty := ""
	status := directory.ItemPublished
	assert.True(t, directory.ItemPatch{}.Empty())
	require.NoError(t, directory.ValidatePatch(directory.ItemPatch{Status: &status, ImageURL: &empty}))

	verrs := validator.ExtractValidationErrors(directory.ValidatePatch(directory.ItemPatch{Title: &empty}))
	assert.True(t, verrs.Has("title"))
}
