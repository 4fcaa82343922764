package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoColorStyles_RenderPlainText(t *testing.T) {
	styles := NoColorStyles()

	for _, s := range []string{
		styles.Header.Render("x"),
		styles.Match.Render("x"),
		styles.Selected.Render("x"),
		styles.ActiveMode.Render("x"),
		styles.Error.Render("x"),
	} {
		assert.Equal(t, "x", s)
	}
}

func TestGetStyles(t *testing.T) {
	// When: getting styles with noColor=true
	plain := GetStyles(true)

	// Then: text renders unchanged
	assert.Equal(t, "test", plain.Success.Render("test"))

	// And: colored styles keep the text whatever the terminal profile
	assert.Contains(t, GetStyles(false).Match.Render("test"), "test")
}
