// File: internal/config/selectors.go
package config

import "github.com/spf13/viper"

// setSelectorDefaults registers the candidate descriptor lists for the
// NotebookLM UI. Order matters: the first selector that resolves to a
// visible element wins, so the primary shape always comes first and the
// locale/legacy variants follow.
//
// Selectors use CSS with one extension: a trailing `:has-text("...")`
// filters matches by case-insensitive substring of the rendered text. The
// page layer implements the extension; see internal/browser/page.go.
func setSelectorDefaults(v *viper.Viper) {
	// "+ Add sources" button that opens the sources modal.
	v.SetDefault("selectors.add_sources", []string{
		`button:has-text("Add sources")`,
		`button:has-text("+ Add sources")`,
		`[aria-label*="Add sources" i]`,
		`button:has-text("Add source")`,
	})

	// Web-search input inside the sources modal. The sidebar renders an
	// input with the same placeholder, so the modal-scoped variants are
	// tried first.
	v.SetDefault("selectors.modal_input", []string{
		`dialog input[placeholder*="Search the web"]`,
		`[role="dialog"] input[placeholder*="Search the web"]`,
		`.modal input[placeholder*="Search the web"]`,
		`[class*="modal"] input[placeholder*="Search the web"]`,
		`[class*="dialog"] input[placeholder*="Search the web"]`,
	})
	v.SetDefault("selectors.input", []string{
		`input[placeholder*="Search the web"]`,
		`input[placeholder*="search" i]`,
		`textarea[placeholder*="Search the web"]`,
		`[aria-label*="search" i][aria-label*="source" i]`,
	})

	// Mode dropdown ("Fast research" by default, switches to "Deep research").
	v.SetDefault("selectors.mode_toggle", []string{
		`button:has-text("Fast research")`,
		`button:has-text("Deep research")`,
		`[aria-label*="research mode" i]`,
		`[aria-label*="research type" i]`,
	})
	v.SetDefault("selectors.deep_menu_item", []string{
		`[role="option"]:has-text("Deep research")`,
		`[role="menuitem"]:has-text("Deep research")`,
		`li:has-text("Deep research")`,
		`div:has-text("Deep research")`,
	})

	// Submit arrow next to the search bar.
	v.SetDefault("selectors.submit", []string{
		`button[aria-label*="submit" i]`,
		`button[aria-label*="search" i]`,
		`button[aria-label*="send" i]`,
		`button[type="submit"]`,
		`button[aria-label*="arrow" i]`,
	})

	// Loading/progress indicators polled while research runs.
	v.SetDefault("selectors.loading", []string{
		`[aria-label*="loading" i]`,
		`[aria-label*="searching" i]`,
		`.progress-indicator`,
		`[role="progressbar"]`,
	})
	v.SetDefault("selectors.spinner_probe", []string{
		`[class*="spinner"]`,
		`[class*="loading"]`,
		`[class*="progress"]`,
		`[class*="searching"]`,
		`[class*="animat"]`,
	})

	// Source cards in the sidebar; their count is the indirect completion
	// signal.
	v.SetDefault("selectors.source_items", []string{
		`.source-card`,
		`[data-source-id]`,
		`.source-item`,
		`[class*="source-list"] > *`,
		`[class*="source_list"] > *`,
	})

	// Completion marker: the finished report surfacing as a source.
	v.SetDefault("selectors.marker_hosts", []string{
		`[class*="source"]`,
		`a`,
		`[role="link"]`,
	})
	v.SetDefault("selectors.marker_pattern", `(?i)deep\s*research\s*report`)

	// Extraction chain descriptors, in strategy order.
	v.SetDefault("selectors.chat", []string{
		`.to-user-container .message-text-content`,
		`[data-message-author='bot']`,
		`[data-message-author='assistant']`,
		`[class*="response"]`,
		`[class*="answer"]`,
	})
	v.SetDefault("selectors.report", []string{
		`.research-report`,
		`.report-content`,
		`[data-report-type]`,
		`[role="article"]`,
		`.source-card`,
	})
	v.SetDefault("selectors.opened", []string{
		`[class*="report"]`,
		`[class*="content"]`,
		`[role="article"]`,
		`main`,
		`.content`,
	})
	v.SetDefault("selectors.sources_panel", []string{
		`[class*="source"]`,
	})
}
