package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateDishName(t *testing.T) {
	assert.NoError(t, ValidateDishName("Плов"))
	assert.NoError(t, ValidateDishName("Суп"))
	assert.Error(t, ValidateDishName("Су"))
	assert.Error(t, ValidateDishName(""))
}

func TestValidateMealCode(t *testing.T) {
	assert.NoError(t, ValidateMealCode("AB12CD34"))
	assert.NoError(t, ValidateMealCode("123456"))
	assert.Error(t, ValidateMealCode("12345"))
	assert.Error(t, ValidateMealCode("abc"))
	assert.Error(t, ValidateMealCode("AB-12X"))
	assert.Error(t, ValidateMealCode("  "))
}

func TestValidatePrice(t *testing.T) {
	assert.NoError(t, ValidatePrice(1))
	assert.NoError(t, ValidatePrice(150))
	assert.Error(t, ValidatePrice(0))
	assert.Error(t, ValidatePrice(-1))
	assert.Error(t, ValidatePrice(MaxPrice+1))
}

func TestValidateListingDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	// Сегодня и завтра допустимы, вчера нет.
	assert.NoError(t, ValidateListingDate(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), now))
	assert.NoError(t, ValidateListingDate(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), now))
	assert.Error(t, ValidateListingDate(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), now))
}

func TestValidateStars(t *testing.T) {
	for s := 1; s <= 5; s++ {
		assert.NoError(t, ValidateStars(s))
	}
	assert.Error(t, ValidateStars(0))
	assert.Error(t, ValidateStars(6))
}

func TestValidateDisputeReason(t *testing.T) {
	assert.NoError(t, ValidateDisputeReason("продавец не выдал код после оплаты"))
	assert.NoError(t, ValidateDisputeReason("обман"))
	assert.Error(t, ValidateDisputeReason("врут"))
	assert.Error(t, ValidateDisputeReason(""))
}
