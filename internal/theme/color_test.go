package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateColor(t *testing.T) {
	tests := []struct {
		value  string
		valid  bool
		reason string
	}{
		{"#fff", true, ""},
		{"#ffffff", true, ""},
		{"#ffffff00", true, ""},
		{"#ABCDEF", true, ""},
		{"#ff", false, ReasonInvalidHex},
		{"#fffffff", false, ReasonInvalidHex},
		{"#ggg", false, ReasonInvalidHex},
		{"rgb(1,2,3)", true, ""},
		{"rgba(1,2,3,0.5)", true, ""},
		{"RGB( 10 , 20 , 30 )", true, ""},
		{"rgb(10%, 20%, 30%)", true, ""},
		{"rgba(255, 255, 255, .25)", true, ""},
		{"rgb(1,2)", false, ReasonInvalidRGB},
		{"rgb(a,b,c)", false, ReasonInvalidRGB},
		{"rgb(1,2,3,4,5)", false, ReasonInvalidRGB},
		{"rgbx(1,2,3)", false, ReasonInvalidRGB},
		{"hsl(1,2%,3%)", true, ""},
		{"hsla(120, 50%, 50%, 0.3)", true, ""},
		{"HSL(-30,100%,50%)", true, ""},
		{"hsl(1,2,3)", false, ReasonInvalidHSL},
		{"hsl(1%,2%)", false, ReasonInvalidHSL},
		{"cornflowerblue", false, ReasonUnknown},
		{"", false, ReasonEmpty},
		{"   ", false, ReasonEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got := ValidateColor(tt.value)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.reason, got.Reason)
			if tt.valid {
				assert.Empty(t, got.Message)
			} else {
				assert.NotEmpty(t, got.Message)
			}
		})
	}
}

func TestValidateColor_emptyMessage(t *testing.T) {
	assert.Equal(t, "Empty color value", ValidateColor("").Message)
}

func TestLooksLikeColor(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"#fff", true},
		{"rgb(1,2,3)", true},
		{"RGBA(1,2,3,1)", true},
		{"Hsl(1,2%,3%)", true},
		{"cornflowerblue", false},
		{`"#ffffff"`, false},
		{"var(--base)", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LooksLikeColor(tt.value), tt.value)
	}
}

func TestValidate_bareColorNameIsNotValidated(t *testing.T) {
	r := Validate("@OBSThemeVars {\n--accent: cornflowerblue;\n}")

	if assert.Len(t, r.Vars, 1) {
		assert.False(t, r.Vars[0].LooksLikeColor)
		assert.Nil(t, r.Vars[0].ColorValid)
	}
	assert.False(t, r.HasCode("VAR_COLOR_INVALID"))
}

func TestReferences(t *testing.T) {
	assert.Equal(t, []string{"a"}, References("var(--a)"))
	assert.Equal(t, []string{"a", "b"}, References("linear(var(--a), var( --x) var(--b ,red))"))
	assert.Equal(t, []string{"x", "y"}, References("var(--x, var(--y))"))
	assert.Nil(t, References("#fff"))
}
