package templates

import "strings"

// ViewerRenderBlock is the snippet include injected into theme.liquid so the
// viewer loads on every product page.
const ViewerRenderBlock = "{%- if request.page_type == 'product' -%}{%- render 'trillion-viewer' -%}{%- endif -%}"

// ThemeLayoutFilename is the theme layout file the render block is injected
// into.
const ThemeLayoutFilename = "layout/theme.liquid"

// PatchThemeLayout inserts the viewer render block immediately before the
// closing </body> tag of a theme layout. It reports changed=false when the
// block is already present, so repeated runs never duplicate it. ok is false
// when the layout has no </body> tag to anchor on.
func PatchThemeLayout(body string) (patched string, changed bool, ok bool) {
	if strings.Contains(body, "render 'trillion-viewer'") {
		return body, false, true
	}
	idx := strings.LastIndex(body, "</body>")
	if idx < 0 {
		return body, false, false
	}
	return body[:idx] + ViewerRenderBlock + "\n" + body[idx:], true, true
}
