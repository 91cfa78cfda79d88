package serialization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskOptions(t *testing.T) {
	opts := map[string]interface{}{
		"Password": "s3cret",
		"quality":  80,
		"encrypt": map[string]interface{}{
			"owner_password": "owner",
			"algorithm":      "AES-256",
		},
	}

	masked := MaskOptions(opts, []string{"password", "owner_password"})

	assert.Equal(t, MaskValue, masked["Password"])
	assert.Equal(t, 80, masked["quality"])
	nested := masked["encrypt"].(map[string]interface{})
	assert.Equal(t, MaskValue, nested["owner_password"])
	assert.Equal(t, "AES-256", nested["algorithm"])

	// the input map is left untouched
	assert.Equal(t, "s3cret", opts["Password"])
}

func TestMaskedString(t *testing.T) {
	assert.Equal(t, "{}", MaskedString(nil, nil))
	assert.JSONEq(t, `{"password":"********","pages":"1-3"}`,
		MaskedString(map[string]interface{}{"password": "x", "pages": "1-3"}, []string{"password"}))
}
