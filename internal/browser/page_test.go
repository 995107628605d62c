// File: internal/browser/page_test.go
package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitHasText(t *testing.T) {
	cases := []struct {
		selector string
		css      string
		filter   string
	}{
		{`button:has-text("Add sources")`, "button", "Add sources"},
		{`mat-chip :has-text("Deep Research")`, "mat-chip", "Deep Research"},
		{`:has-text("Submit")`, "*", "Submit"},
		{`button[type=submit]`, "button[type=submit]", ""},
		{`.source-item`, ".source-item", ""},
		// The suffix only counts at the end of the selector.
		{`button:has-text("x") .icon`, `button:has-text("x") .icon`, ""},
	}
	for _, tc := range cases {
		css, filter := splitHasText(tc.selector)
		assert.Equal(t, tc.css, css, tc.selector)
		assert.Equal(t, tc.filter, filter, tc.selector)
	}
}

func TestSplitFlag(t *testing.T) {
	name, value := splitFlag("--disable-dev-shm-usage")
	assert.Equal(t, "disable-dev-shm-usage", name)
	assert.Equal(t, true, value)

	name, value = splitFlag("--disable-blink-features=AutomationControlled")
	assert.Equal(t, "disable-blink-features", name)
	assert.Equal(t, "AutomationControlled", value)

	name, value = splitFlag("--")
	assert.Empty(t, name)
	assert.Nil(t, value)
}
