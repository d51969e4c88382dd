package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingForm struct {
	Date      string  `form:"date" binding:"required,isodate"`
	Time      string  `form:"time" binding:"required,clocktime"`
	VisitType string  `form:"visit_type" binding:"required,visittype"`
	Notes     string  `form:"notes" binding:"max=5"`
	Fees      float64 `form:"fees" binding:"gte=0"`
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, RegisterOn(v))
	return v
}

func TestCustomTags(t *testing.T) {
	v := newValidate(t)

	ok := bookingForm{Date: "2024-01-01", Time: "10:00", VisitType: "clinic"}
	assert.NoError(t, v.Struct(ok))

	withSeconds := ok
	withSeconds.Time = "10:00:30"
	assert.Equal(t, "Not a valid time value.", FieldErrors(v.Struct(withSeconds))["time"])

	bad := bookingForm{Date: "01/01/2024", Time: "25:00", VisitType: "home", Notes: "too long", Fees: -1}
	errs := FieldErrors(v.Struct(bad))

	assert.Equal(t, "Not a valid date value.", errs["date"])
	assert.Equal(t, "Not a valid time value.", errs["time"])
	assert.Equal(t, "Not a valid choice.", errs["visit_type"])
	assert.Equal(t, "Field cannot be longer than 5 characters.", errs["notes"])
	assert.Equal(t, "Number must be at least 0.", errs["fees"])
}

func TestRequired(t *testing.T) {
	v := newValidate(t)

	errs := FieldErrors(v.Struct(bookingForm{}))
	assert.Equal(t, "This field is required.", errs["date"])
	assert.Equal(t, "This field is required.", errs["time"])
}

func TestFieldErrorsNonValidation(t *testing.T) {
	errs := FieldErrors(errors.New("strconv.ParseFloat: parsing \"abc\": invalid syntax"))
	assert.Equal(t, "Invalid input.", errs[FormErrorKey])
	assert.Nil(t, FieldErrors(nil))
}

func TestNormalize(t *testing.T) {
	d, err := NormalizeDate(" 2024-01-02 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", d)

	c, err := NormalizeClock(" 11:00 ")
	require.NoError(t, err)
	assert.Equal(t, "11:00", c)

	for _, in := range []string{"noon", "09:30:00", "10:00:30", "24:00"} {
		_, err = NormalizeClock(in)
		assert.Error(t, err, in)
	}
}
