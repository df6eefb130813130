package domain_test

import (
	"encoding/json"
	"errors"
	"image/color"
	"testing"

	"pixel-board/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize_EquivalentForms(t *testing.T) {
	red := domain.CanonicalColor("#ff0000")
	for _, in := range []string{"#ff0000", "#FF0000", "#f00", "#F00F", "#ff0000ff", "rgb(255, 0, 0)", "rgba(255,0,0,1)", "RGB(255 0 0)", "red", " Red "} {
		assert.Equal(t, red, domain.Canonicalize(in), "input %q", in)
	}
}

func TestCanonicalize_EmptyForms(t *testing.T) {
	for _, in := range []string{"", "transparent", "TRANSPARENT", "none", "rgba(0, 0, 0, 0)", "rgba(12, 34, 56, 0)", "#00000000", "#0000"} {
		assert.Equal(t, domain.CanonicalEmpty, domain.Canonicalize(in), "input %q", in)
	}
	assert.Equal(t, domain.CanonicalEmpty, domain.Empty.Canonical())
}

func TestCanonicalize_UnrecognizedIsOpaqueToken(t *testing.T) {
	a := domain.Canonicalize("sparkly-unicorn")
	b := domain.Canonicalize("sparkly-unicorn")
	assert.Equal(t, a, b, "identical unrecognized input must compare equal")
	assert.NotEqual(t, domain.CanonicalEmpty, a)
	assert.NotEqual(t, domain.Canonicalize("#123456"), domain.Canonicalize("#12345g"))
	assert.NotEqual(t, a, domain.Canonicalize("other"))
}

func TestCanonicalize_EmptyNeverEqualsBlack(t *testing.T) {
	assert.NotEqual(t, domain.Empty.Canonical(), domain.RGB(0, 0, 0).Canonical())
	assert.False(t, domain.SameColor(domain.Empty, domain.RGB(0, 0, 0)))
}

func TestParseCell(t *testing.T) {
	c, err := domain.ParseCell("#0a0B0c")
	require.NoError(t, err)
	r, g, b, ok := c.RGB()
	assert.True(t, ok)
	assert.Equal(t, []uint8{10, 11, 12}, []uint8{r, g, b})
	assert.Equal(t, "#0a0b0c", c.Hex())

	for _, bad := range []string{"#12", "#1234567", "rgb(256, 0, 0)", "rgb(1, 2)", "rgba(1, 2, 3, 2)", "rgb(1, 2, 3", "blurple"} {
		_, err := domain.ParseCell(bad)
		assert.True(t, errors.Is(err, domain.ErrInvalidColor), "input %q", bad)
	}
}

func TestCellFromColor(t *testing.T) {
	assert.Equal(t, domain.Empty, domain.CellFromColor(color.NRGBA{R: 10, A: 0}))
	assert.Equal(t, domain.Empty, domain.CellFromColor(nil))
	assert.Equal(t, domain.RGB(1, 2, 3), domain.CellFromColor(color.NRGBA{R: 1, G: 2, B: 3, A: 255}))
	assert.Equal(t, domain.CanonicalEmpty, domain.CanonicalOf(color.Transparent))
	assert.Equal(t, domain.CanonicalColor("#ffffff"), domain.CanonicalOf(color.White))
}

func TestCell_JSONText(t *testing.T) {
	var body struct {
		Color domain.Cell `json:"color"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"color":"rgb(0, 128, 255)"}`), &body))
	assert.Equal(t, domain.RGB(0, 128, 255), body.Color)

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"color":"#0080ff"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"color":"nope"}`), &body))
}
