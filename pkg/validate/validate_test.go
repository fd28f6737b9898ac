package validate

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules(t *testing.T) {
	assert.True(t, Mobile("9876543210"))
	assert.False(t, Mobile("98765"))
	assert.False(t, Mobile("98765432ab"))

	assert.True(t, PAN("ABCDE1234F"))
	assert.True(t, PAN("abcde1234f"))
	assert.False(t, PAN("ABCD1234F"))

	assert.True(t, IFSC("HDFC0001234"))
	assert.False(t, IFSC("HDFC1001234"))

	assert.True(t, GSTIN("27ABCDE1234F1Z5"))
	assert.False(t, GSTIN("27ABCDE1234F1X5"))

	assert.True(t, Pincode("560001"))
	assert.False(t, Pincode("060001"))

	assert.True(t, Password("abcdef"))
	assert.False(t, Password("abc"))
	assert.False(t, Password("      "))

	assert.True(t, StrongPassword("Secret123"))
	assert.False(t, StrongPassword("secret123"))
	assert.False(t, StrongPassword("Sec1"))
}

func TestRegisterOnValidator(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	type sellerIn struct {
		Mobile string `validate:"required,mobile"`
		PAN    string `validate:"omitempty,pan"`
		IFSC   string `validate:"omitempty,ifsc"`
		Pass   string `validate:"strongpassword"`
	}
	assert.NoError(t, v.Struct(sellerIn{Mobile: "9876543210", PAN: "ABCDE1234F", Pass: "Secret123"}))

	err := v.Struct(sellerIn{Mobile: "123", Pass: "Secret123"})
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "mobile", verrs[0].Tag())
	assert.Contains(t, Messages, verrs[0].Tag())
}
